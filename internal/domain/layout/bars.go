package layout

import (
	"sort"
	"time"

	"github.com/okian/calgrid/internal/domain/model"
	"github.com/okian/calgrid/internal/domain/view"
)

// barItem is an event rendered as a horizontal bar across grid days.
type barItem struct {
	pos   int
	id    string
	from  time.Time
	to    time.Time
	first int // clamped grid offsets, inclusive
	last  int
}

type segment struct {
	item *barItem
	seg  model.BarSegment
}

// packBars splits every bar into per-row segments and stacks overlapping
// segments of a row greedily: sorted by start, longer spans first, each
// segment takes the topmost row whose previous occupant ended earlier.
// It returns the number of stacked rows used in each grid row.
func packBars(g view.Grid, items []barItem, events []model.PositionedEvent) []int {
	counts := make([]int, len(g.Rows))
	for _, r := range g.Rows {
		rowLast := r.First + r.Len - 1
		var segs []segment
		for i := range items {
			it := &items[i]
			if it.last < r.First || it.first > rowLast {
				continue
			}
			s := model.BarSegment{
				GridRow:         r.Index,
				StartIndex:      max(it.first, r.First) - r.First,
				EndIndex:        min(it.last, rowLast) - r.First,
				ContinuesBefore: it.from.Before(g.Days[r.First]),
				ContinuesAfter:  it.to.After(g.Days[rowLast]),
			}
			segs = append(segs, segment{item: it, seg: s})
		}

		sort.Slice(segs, func(i, j int) bool {
			a, b := segs[i], segs[j]
			if a.seg.StartIndex != b.seg.StartIndex {
				return a.seg.StartIndex < b.seg.StartIndex
			}
			la, lb := a.seg.EndIndex-a.seg.StartIndex, b.seg.EndIndex-b.seg.StartIndex
			if la != lb {
				return la > lb
			}
			if !a.item.from.Equal(b.item.from) {
				return a.item.from.Before(b.item.from)
			}
			return a.item.id < b.item.id
		})

		var rowEnds []int
		for _, s := range segs {
			row := -1
			for k, end := range rowEnds {
				if end < s.seg.StartIndex {
					row = k
					break
				}
			}
			if row < 0 {
				row = len(rowEnds)
				rowEnds = append(rowEnds, s.seg.EndIndex)
			} else {
				rowEnds[row] = s.seg.EndIndex
			}
			s.seg.Row = row
			ev := &events[s.item.pos]
			ev.Bars = append(ev.Bars, s.seg)
		}
		counts[r.Index] = len(rowEnds)
	}
	return counts
}
