package model_test

import (
	"errors"
	"testing"

	"github.com/okian/gridiron/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGame(t *testing.T) {
	Convey("Given completed games", t, func() {
		Convey("When the home team wins", func() {
			g := model.Game{Home: "PHI", Away: "DAL", HomePoints: 27, AwayPoints: 20}
			So(g.Margin(), ShouldEqual, 7)
			So(g.Result(), ShouldEqual, model.ResultWin)
			So(g.Score(), ShouldEqual, 1.0)
		})

		Convey("When the away team wins", func() {
			g := model.Game{HomePoints: 3, AwayPoints: 10}
			So(g.Margin(), ShouldEqual, -7)
			So(g.Result(), ShouldEqual, model.ResultLoss)
			So(g.Score(), ShouldEqual, 0.0)
		})

		Convey("When the game is tied", func() {
			g := model.Game{HomePoints: 20, AwayPoints: 20}
			So(g.Result(), ShouldEqual, model.ResultTie)
			So(g.Score(), ShouldEqual, 0.5)
		})
	})
}

func TestParseRole(t *testing.T) {
	Convey("Given depth chart labels", t, func() {
		cases := map[string]model.Role{
			"starter": model.RoleStarter, "1": model.RoleStarter,
			"Backup": model.RoleBackup, "2": model.RoleBackup,
			"third": model.RoleThird, "3": model.RoleThird,
			"DEV": model.RolePractice, "practice": model.RolePractice,
			"": model.RoleUnlisted,
		}
		for in, want := range cases {
			got, err := model.ParseRole(in)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, want)
		}

		Convey("Then unknown labels are malformed", func() {
			_, err := model.ParseRole("captain")
			So(errors.Is(err, model.ErrMalformedRow), ShouldBeTrue)
		})
	})
}

func TestParseInjuryStatus(t *testing.T) {
	Convey("Given report statuses", t, func() {
		cases := map[string]model.InjuryStatus{
			"": model.StatusActive, "Questionable": model.StatusQuestionable,
			"doubtful": model.StatusDoubtful, "OUT": model.StatusOut,
		}
		for in, want := range cases {
			got, err := model.ParseInjuryStatus(in)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, want)
		}

		Convey("Then unknown statuses are malformed", func() {
			_, err := model.ParseInjuryStatus("hamstring")
			So(errors.Is(err, model.ErrMalformedRow), ShouldBeTrue)
		})
	})
}

func TestSnapEntryPct(t *testing.T) {
	Convey("Given snap shares", t, func() {
		So(model.SnapEntry{OffensePct: 0.8}.Pct(), ShouldEqual, 0.8)
		So(model.SnapEntry{DefensePct: 0.6, SpecialPct: 0.2}.Pct(), ShouldEqual, 0.6)
		So(model.SnapEntry{SpecialPct: 0.3}.Pct(), ShouldEqual, 0.3)
		So(model.SnapEntry{}.Pct(), ShouldEqual, 0.0)
	})
}

func TestTaskStatus(t *testing.T) {
	Convey("Given task states", t, func() {
		So(model.TaskPending.Finished(), ShouldBeFalse)
		So(model.TaskRunning.Finished(), ShouldBeFalse)
		So(model.TaskDone.Finished(), ShouldBeTrue)
		So(model.TaskFailed.Finished(), ShouldBeTrue)
	})
}

func TestParseMode(t *testing.T) {
	Convey("Given mode strings from clients", t, func() {
		So(model.ParseMode(""), ShouldEqual, model.ModeQuick)
		So(model.ParseMode("  "), ShouldEqual, model.ModeQuick)
		So(model.ParseMode("QUICK"), ShouldEqual, model.ModeQuick)
		So(model.ParseMode(" Full\n"), ShouldEqual, model.ModeFull)
		So(model.ParseMode("Turbo"), ShouldEqual, model.Mode("turbo"))
	})
}
