package config_test

import (
	"errors"
	"testing"

	"github.com/okian/gridiron/internal/config"
	"github.com/okian/gridiron/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.Cache.Backend, convey.ShouldEqual, "file")
			convey.So(cfg.Store.Driver, convey.ShouldEqual, "sqlite")
			convey.So(cfg.Seasons.First, convey.ShouldEqual, 2010)
			convey.So(cfg.Tuning.Seed, convey.ShouldEqual, 42)
			convey.So(cfg.Tuning.Metric, convey.ShouldEqual, "brier")
			convey.So(cfg.Tuning.QuickTrials, convey.ShouldEqual, 15)
			convey.So(cfg.Tuning.QuickSeasons, convey.ShouldEqual, 6)
			convey.So(cfg.Tuning.FullTrials, convey.ShouldEqual, 50)
			convey.So(cfg.Model.EloToPoints, convey.ShouldEqual, 25.0)
			convey.So(cfg.Model.ScoringExtension, convey.ShouldBeTrue)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then roster weights resolve to canonical names", func() {
			w, err := cfg.GroupWeights()
			convey.So(err, convey.ShouldBeNil)
			convey.So(w["QB"], convey.ShouldEqual, 0.40)
			convey.So(w["Secondary"], convey.ShouldEqual, 0.10)

			d, err := cfg.DepthMultipliers()
			convey.So(err, convey.ShouldBeNil)
			convey.So(d[model.RoleStarter], convey.ShouldEqual, 1.0)
			convey.So(d[model.RolePractice], convey.ShouldEqual, 0.1)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given invalid configurations", t, func() {
		cases := map[string]func(*config.Config){
			"empty addr":       func(c *config.Config) { c.Addr = "" },
			"cache backend":    func(c *config.Config) { c.Cache.Backend = "memcached" },
			"redis addr":       func(c *config.Config) { c.Cache.Backend = "redis" },
			"store driver":     func(c *config.Config) { c.Store.Driver = "mysql" },
			"season order":     func(c *config.Config) { c.Seasons.First, c.Seasons.Last = 2020, 2019 },
			"metric":           func(c *config.Config) { c.Tuning.Metric = "mse" },
			"trials":           func(c *config.Config) { c.Tuning.QuickTrials = 0 },
			"elo to points":    func(c *config.Config) { c.Model.EloToPoints = 0 },
			"bootstrap mode":   func(c *config.Config) { c.Bootstrap.Mode = "slow" },
			"cron":             func(c *config.Config) { c.RetuneSchedule = "every tuesday" },
			"unknown group":    func(c *config.Config) { c.Roster.GroupWeights["kickers"] = 0.1 },
			"depth multiplier": func(c *config.Config) { c.Roster.DepthMultipliers["starter"] = 2 },
		}
		for name, mutate := range cases {
			cfg := config.New()
			mutate(cfg)
			err := cfg.Validate()
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			_ = name
		}
	})

	convey.Convey("Given a valid cron schedule", t, func() {
		cfg := config.New()
		cfg.RetuneSchedule = "0 6 * * 2"
		convey.So(cfg.Validate(), convey.ShouldBeNil)
	})
}
