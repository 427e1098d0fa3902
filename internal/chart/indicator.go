package chart

import (
	"github.com/shopspring/decimal"

	"ChartPress/internal/model"
)

// Direction is the sign of the change against the prior trading day.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Ordering is the vertical order of the badge's text lines.
type Ordering string

const (
	ArrowAbove Ordering = "arrow-above" // arrow, price, date
	DateAbove  Ordering = "date-above"  // date, price, arrow
)

const (
	arrowUp   = "▲"
	arrowDown = "▼"
)

// Badge is the elliptical price-change indicator, in data coordinates.
type Badge struct {
	CenterX   float64
	CenterY   float64
	Width     float64
	Height    float64
	Direction Direction
	Color     string
	Lines     [3]string // top to bottom
	Ordering  Ordering
	Current   float64
	Reference float64
}

// ReferenceClose returns the close of the last point dated before the final
// point's calendar day. ok is false for a single-day series.
func ReferenceClose(s model.Series) (ref float64, ok bool) {
	if s.Len() == 0 {
		return 0, false
	}
	last := s.Last()
	for i := s.Len() - 2; i >= 0; i-- {
		if !model.SameDay(s.Points[i], last) {
			return s.Points[i].Close, true
		}
	}
	return 0, false
}

// PlaceBadge sizes and positions the badge inside the viewport. The badge
// goes on whichever side of the last close has more free space; its width is
// corrected by the plot's physical aspect so it renders as a circle.
func PlaceBadge(s model.Series, ref float64, view Viewport, opts Options) Badge {
	last := s.Last()
	current := last.Close

	dir := DirectionUp
	color := opts.Palette.Up
	if current < ref {
		dir = DirectionDown
		color = opts.Palette.Down
	}

	above := view.Y.Max - current
	below := current - view.Y.Min
	cy := current - below*opts.BadgeOffsetFraction
	if above > below {
		cy = current + above*opts.BadgeOffsetFraction
	}

	ry := opts.BadgeSizeFraction * view.Y.Span()
	rx := ry * (view.X.Span() / view.Y.Span()) / opts.PlotAspect()

	cx := view.X.Max - opts.BadgeRightInset*view.X.Span()
	if cx+rx > view.X.Max {
		cx = view.X.Max - rx
	}
	if cx-rx < view.X.Min {
		cx = view.X.Min + rx
	}

	price := decimal.NewFromFloat(current).StringFixed(2)
	date := last.Time.Format(DayLabelLayout)
	lines := [3]string{arrowUp, price, date}
	ordering := ArrowAbove
	if dir == DirectionDown {
		lines = [3]string{date, price, arrowDown}
		ordering = DateAbove
	}

	return Badge{
		CenterX:   cx,
		CenterY:   cy,
		Width:     2 * rx,
		Height:    2 * ry,
		Direction: dir,
		Color:     color,
		Lines:     lines,
		Ordering:  ordering,
		Current:   current,
		Reference: ref,
	}
}
