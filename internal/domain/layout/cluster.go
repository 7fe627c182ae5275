package layout

import (
	"sort"

	"github.com/okian/calgrid/internal/domain/timeofday"
)

// timedItem is a single-day event reduced to what overlap and column
// assignment need.
type timedItem struct {
	pos   int // index into Result.Events
	id    string
	start timeofday.Minutes
	end   timeofday.Minutes
}

// Intervals are compared in half-minute ticks. A zero-length event occupies
// the half tick after its instant, so an interval containing the instant
// collides with it while one ending exactly there does not.
func (t timedItem) lo() int { return int(t.start) * 2 }

func (t timedItem) hi() int {
	if t.end <= t.start {
		return t.lo() + 1
	}
	return int(t.end) * 2
}

// sortTimed orders items by start, then end, then id.
func sortTimed(items []timedItem) {
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.start != b.start {
			return a.start < b.start
		}
		if a.end != b.end {
			return a.end < b.end
		}
		return a.id < b.id
	})
}

// group is one overlap cluster within a day.
type group struct {
	members []int // indices into the sorted items
	width   int   // maximum simultaneous overlap
	columns int
}

// arrange sorts items, partitions them into transitive overlap clusters and
// assigns each item the lowest free column of its cluster. It returns the
// clusters and the column of each item, both indexed by the sorted order.
func arrange(items []timedItem) ([]group, []int) {
	sortTimed(items)

	var (
		groups     []group
		cols       = make([]int, len(items))
		clusterEnd int
		colEnds    []int
		active     []int
	)
	for i, it := range items {
		lo, hi := it.lo(), it.hi()
		if len(groups) == 0 || lo >= clusterEnd {
			groups = append(groups, group{})
			colEnds = colEnds[:0]
			active = active[:0]
			clusterEnd = hi
		}
		g := &groups[len(groups)-1]

		live := active[:0]
		for _, end := range active {
			if end > lo {
				live = append(live, end)
			}
		}
		active = append(live, hi)
		g.width = max(g.width, len(active))

		col := -1
		for c, end := range colEnds {
			if end <= lo {
				col = c
				break
			}
		}
		if col < 0 {
			col = len(colEnds)
			colEnds = append(colEnds, hi)
		} else {
			colEnds[col] = hi
		}
		cols[i] = col
		g.columns = len(colEnds)
		g.members = append(g.members, i)
		clusterEnd = max(clusterEnd, hi)
	}
	return groups, cols
}
