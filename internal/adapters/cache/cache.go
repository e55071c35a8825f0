// Package cache stores downloaded source tables keyed by team, season, week
// and kind.
//
// Entries are immutable once written and are reused until invalidated or,
// when a TTL is configured, until they expire.
package cache

import (
	"context"
	"fmt"

	"github.com/okian/gridiron/internal/domain/model"
)

// League is the team component of keys that hold league-wide tables.
const League = "ALL"

// Key identifies one cached table.
type Key struct {
	Team   string
	Season int
	Week   int
	Kind   model.TableKind
}

// SeasonKey is the key of a league-wide season table.
func SeasonKey(kind model.TableKind, season int) Key {
	return Key{Team: League, Season: season, Kind: kind}
}

// String renders the key as a slash-separated path.
func (k Key) String() string {
	team := k.Team
	if team == "" {
		team = League
	}
	return fmt.Sprintf("%s/%d/w%02d/%s", k.Kind, k.Season, k.Week, team)
}

// Cache is read/write-by-key access to table blobs.
type Cache interface {
	// Get returns the blob for key or an error wrapping ErrMiss.
	Get(ctx context.Context, key Key) ([]byte, error)
	Put(ctx context.Context, key Key, blob []byte) error
	Invalidate(ctx context.Context, key Key) error
}
