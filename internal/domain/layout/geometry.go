package layout

import "github.com/okian/calgrid/internal/domain/timeofday"

const percent = 100.0

// verticalGeometry maps [start, end) onto the hour grid.
func (e *Engine) verticalGeometry(start, end timeofday.Minutes) (top, height float64) {
	top = start.Hours() * e.hourHeight
	height = max((end - start).Hours()*e.hourHeight, e.minHeight())
	return top, height
}

// horizontalGeometry splits the day column evenly between columns and
// returns left and right insets in percent.
func horizontalGeometry(column, total int) (left, right float64) {
	if total <= 0 {
		return 0, 0
	}
	left = float64(column) / float64(total) * percent
	right = percent - float64(column+1)/float64(total)*percent
	return left, right
}

func (e *Engine) minHeight() float64 {
	if e.minEventHeightSet {
		return e.minEventHeight
	}
	return e.hourHeight * defaultMinEventMinutes / timeofday.MinutesPerHour
}
