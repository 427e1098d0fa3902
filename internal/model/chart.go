package model

// Segment is a maximal run of consecutive Series points with no time gap
// above the configured threshold.
type Segment struct {
	Points []PricePoint
}

// Len returns the number of points in the segment.
func (s Segment) Len() int { return len(s.Points) }

// FirstIndex returns the series index of the first point.
func (s Segment) FirstIndex() int { return s.Points[0].Index }

// LastIndex returns the series index of the last point.
func (s Segment) LastIndex() int { return s.Points[len(s.Points)-1].Index }

// DayBoundary marks the first point of a calendar day.
type DayBoundary struct {
	Index  int
	Label  string  // "02 Jan"
	Anchor float64 // label x-position in index units
}

// SameDay reports whether a and b fall on the same calendar date in their own locations.
func SameDay(a, b PricePoint) bool {
	ay, am, ad := a.Time.Date()
	by, bm, bd := b.Time.Date()
	return ay == by && am == bm && ad == bd
}
