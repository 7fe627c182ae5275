package view_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/calgrid/internal/domain/model"
	"github.com/okian/calgrid/internal/domain/view"
	. "github.com/smartystreets/goconvey/convey"
)

const (
	sunday = 0
	monday = 1
)

func days(n int) *int { return &n }

func TestResolve(t *testing.T) {
	Convey("Given a view window anchored on Wednesday 2024-05-08", t, func() {
		w := view.Window{Anchor: "2024-05-08"}

		Convey("When resolving a day view", func() {
			w.Type = view.Day
			g, err := view.Resolve(w, monday)

			Convey("Then it covers only the anchor day in one row", func() {
				So(err, ShouldBeNil)
				So(g.Days, ShouldHaveLength, 1)
				So(model.FormatDate(g.Start), ShouldEqual, "2024-05-08")
				So(g.Rows, ShouldHaveLength, 1)
			})
		})

		Convey("When resolving a three-day view", func() {
			w.Type = view.Day
			w.DaysCount = days(3)
			g, err := view.Resolve(w, monday)

			Convey("Then it starts at the anchor", func() {
				So(err, ShouldBeNil)
				So(g.Days, ShouldHaveLength, 3)
				So(model.FormatDate(g.End), ShouldEqual, "2024-05-10")
			})
		})

		Convey("When resolving a Monday-first week", func() {
			w.Type = view.Week
			g, err := view.Resolve(w, monday)

			Convey("Then it runs Monday to Sunday", func() {
				So(err, ShouldBeNil)
				So(model.FormatDate(g.Start), ShouldEqual, "2024-05-06")
				So(model.FormatDate(g.End), ShouldEqual, "2024-05-12")
				So(g.Rows, ShouldHaveLength, 1)
				So(g.Rows[0].Len, ShouldEqual, 7)
			})
		})

		Convey("When resolving a Sunday-first week", func() {
			w.Type = view.Week
			g, err := view.Resolve(w, sunday)

			Convey("Then it runs Sunday to Saturday", func() {
				So(err, ShouldBeNil)
				So(model.FormatDate(g.Start), ShouldEqual, "2024-05-05")
				So(g.Start.Weekday(), ShouldEqual, time.Sunday)
			})
		})

		Convey("When resolving a month", func() {
			w.Type = view.Month
			g, err := view.Resolve(w, monday)

			Convey("Then it pads to whole weeks", func() {
				So(err, ShouldBeNil)
				So(model.FormatDate(g.Start), ShouldEqual, "2024-04-29")
				So(model.FormatDate(g.End), ShouldEqual, "2024-06-02")
				So(g.Rows, ShouldHaveLength, 5)
				for _, r := range g.Rows {
					So(r.Len, ShouldEqual, 7)
				}
			})
		})

		Convey("When resolving a year", func() {
			w.Type = view.Year
			g, err := view.Resolve(w, monday)

			Convey("Then it covers every day of the year in week rows", func() {
				So(err, ShouldBeNil)
				So(g.Start.After(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)), ShouldBeFalse)
				So(g.End.Before(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)), ShouldBeFalse)
				So(len(g.Days)%7, ShouldEqual, 0)
				So(len(g.Rows), ShouldEqual, len(g.Days)/7)
			})
		})
	})

	Convey("Given misconfigured windows", t, func() {
		cases := []view.Window{
			{Type: "fortnight", Anchor: "2024-05-08"},
			{Type: view.Week, Anchor: "08/05/2024"},
			{Type: view.Week, Anchor: "2024-05-08", DaysCount: days(0)},
			{Type: view.Day, Anchor: "2024-05-08", DaysCount: days(-2)},
		}
		for _, w := range cases {
			_, err := view.Resolve(w, monday)
			So(errors.Is(err, view.ErrInvalidWindow), ShouldBeTrue)
		}

		_, err := view.Resolve(view.Window{Type: view.Week, Anchor: "2024-05-08"}, 7)
		So(errors.Is(err, view.ErrInvalidWindow), ShouldBeTrue)
	})
}

func TestGridIndex(t *testing.T) {
	Convey("Given a week grid", t, func() {
		g, err := view.Resolve(view.Window{Type: view.Week, Anchor: "2024-05-08"}, monday)
		So(err, ShouldBeNil)

		Convey("Then dates inside map to their offset", func() {
			d, _ := model.ParseDate("2024-05-08")
			i, ok := g.IndexOf(d)
			So(ok, ShouldBeTrue)
			So(i, ShouldEqual, 2)
		})

		Convey("Then dates outside are clamped", func() {
			before, _ := model.ParseDate("2024-05-01")
			i, ok := g.IndexOf(before)
			So(ok, ShouldBeFalse)
			So(i, ShouldEqual, 0)

			after, _ := model.ParseDate("2024-05-20")
			i, ok = g.IndexOf(after)
			So(ok, ShouldBeFalse)
			So(i, ShouldEqual, 6)
		})

		Convey("Then range containment is inclusive", func() {
			from, _ := model.ParseDate("2024-05-01")
			to, _ := model.ParseDate("2024-05-06")
			So(g.Contains(from, to), ShouldBeTrue)

			to, _ = model.ParseDate("2024-05-05")
			So(g.Contains(from, to), ShouldBeFalse)
		})
	})
}
