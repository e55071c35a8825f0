package types_test

import (
	"testing"

	types "github.com/okian/gridiron/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRank(t *testing.T) {
	Convey("Given team values", t, func() {
		Convey("When values are distinct", func() {
			out := types.Rank(map[string]float64{"DAL": 1480, "PHI": 1560, "NYG": 1420})

			Convey("Then entries are ordered highest first with 1-based ranks", func() {
				So(len(out), ShouldEqual, 3)
				So(out[0], ShouldResemble, types.Entry{Rank: 1, Team: "PHI", Value: 1560})
				So(out[1].Team, ShouldEqual, "DAL")
				So(out[2], ShouldResemble, types.Entry{Rank: 3, Team: "NYG", Value: 1420})
			})
		})

		Convey("When values tie", func() {
			out := types.Rank(map[string]float64{"SF": 1500, "ARI": 1500, "SEA": 1500})

			Convey("Then the team code breaks the tie", func() {
				So(out[0].Team, ShouldEqual, "ARI")
				So(out[1].Team, ShouldEqual, "SEA")
				So(out[2].Team, ShouldEqual, "SF")
			})
		})

		Convey("When the map is empty", func() {
			So(types.Rank(nil), ShouldBeEmpty)
		})
	})
}
