package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variable names.
const (
	EnvPrefix     = "GRIDIRON_"
	EnvConfigFile = "GRIDIRON_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if GRIDIRON_CONFIG is set
//  3. env (prefix GRIDIRON_, "__" separates nested keys)
func Load(_ context.Context) (*Config, error) {
	cfg := New()

	k := koanf.New(".")

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	// GRIDIRON_TUNING__SEED -> tuning.seed, GRIDIRON_LOG_LEVEL -> log_level.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}
	k.Delete("config")

	// Map sections overlay the defaults key by key instead of merging raw keys.
	weights, depth := cfg.Roster.GroupWeights, cfg.Roster.DepthMultipliers
	cfg.Roster.GroupWeights, cfg.Roster.DepthMultipliers = nil, nil
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}
	cfg.Roster.GroupWeights = overlay(weights, cfg.Roster.GroupWeights)
	cfg.Roster.DepthMultipliers = overlay(depth, cfg.Roster.DepthMultipliers)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// overlay returns base with every loaded key applied. Loaded keys that match a
// base key case-insensitively replace it; others are kept for Validate to reject.
func overlay(base, loaded map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(base)+len(loaded))
	for key, v := range base {
		out[key] = v
	}
	for key, v := range loaded {
		if name, ok := canonical(key, base); ok {
			out[name] = v
			continue
		}
		out[key] = v
	}
	return out
}
