package layout

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestArrange(t *testing.T) {
	Convey("Given items in arbitrary order", t, func() {
		items := []timedItem{
			{id: "c", start: 600, end: 660},
			{id: "a", start: 540, end: 600},
			{id: "b", start: 540, end: 600},
			{id: "d", start: 720, end: 780},
		}

		groups, cols := arrange(items)

		Convey("Then they are sorted by start, end and id", func() {
			So(items[0].id, ShouldEqual, "a")
			So(items[1].id, ShouldEqual, "b")
			So(items[2].id, ShouldEqual, "c")
			So(items[3].id, ShouldEqual, "d")
		})

		Convey("Then touching intervals split clusters", func() {
			So(groups, ShouldHaveLength, 3)
			So(groups[0].members, ShouldResemble, []int{0, 1})
			So(groups[0].columns, ShouldEqual, 2)
			So(groups[1].members, ShouldResemble, []int{2})
			So(groups[2].members, ShouldResemble, []int{3})
		})

		Convey("Then columns restart per cluster", func() {
			So(cols, ShouldResemble, []int{0, 1, 0, 0})
		})
	})

	Convey("Given a long event spanning several short ones", t, func() {
		items := []timedItem{
			{id: "long", start: 480, end: 720},
			{id: "s1", start: 480, end: 540},
			{id: "s2", start: 540, end: 600},
			{id: "s3", start: 570, end: 630},
		}

		groups, cols := arrange(items)

		Convey("Then short events reuse freed columns", func() {
			So(groups, ShouldHaveLength, 1)
			So(groups[0].width, ShouldEqual, 3)
			So(groups[0].columns, ShouldEqual, 3)
			// sorted: s1, long, s2, s3
			So(cols, ShouldResemble, []int{0, 1, 0, 2})
		})
	})

	Convey("Given no items", t, func() {
		groups, cols := arrange(nil)
		So(groups, ShouldBeEmpty)
		So(cols, ShouldBeEmpty)
	})
}

func TestHorizontalGeometry(t *testing.T) {
	Convey("Given a column in a two-column cluster", t, func() {
		l, r := horizontalGeometry(1, 2)
		So(l, ShouldEqual, 50.0)
		So(r, ShouldEqual, 0.0)

		l, r = horizontalGeometry(0, 2)
		So(l, ShouldEqual, 0.0)
		So(r, ShouldEqual, 50.0)
	})

	Convey("Given a degenerate column count", t, func() {
		l, r := horizontalGeometry(0, 0)
		So(l, ShouldEqual, 0.0)
		So(r, ShouldEqual, 0.0)
	})
}
