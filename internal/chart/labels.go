package chart

import "ChartPress/internal/model"

// DayLabelLayout is the date format of day labels, e.g. "05 Mar".
const DayLabelLayout = "02 Jan"

// DayBoundaries returns one boundary per calendar day, at the day's first
// point. Each anchor sits midway between its boundary and the next one; the
// last anchor sits midway between its boundary and the final point.
func DayBoundaries(s model.Series) []model.DayBoundary {
	var bounds []model.DayBoundary
	for i, p := range s.Points {
		if i > 0 && model.SameDay(s.Points[i-1], p) {
			continue
		}
		bounds = append(bounds, model.DayBoundary{Index: p.Index, Label: p.Time.Format(DayLabelLayout)})
	}
	if len(bounds) == 0 {
		return nil
	}
	lastIndex := s.Last().Index
	for i := range bounds {
		next := lastIndex
		if i+1 < len(bounds) {
			next = bounds[i+1].Index
		}
		bounds[i].Anchor = float64(bounds[i].Index+next) / 2
	}
	return bounds
}

// FilterLabels drops labels whose anchors crowd the previously kept one.
// The final label is always kept, even when it crowds its predecessor, and a
// kept label is never removed. minDistance is in index units.
func FilterLabels(bounds []model.DayBoundary, minDistance float64) []model.DayBoundary {
	kept := make([]model.DayBoundary, 0, len(bounds))
	for i, b := range bounds {
		if i == len(bounds)-1 || len(kept) == 0 || b.Anchor-kept[len(kept)-1].Anchor >= minDistance {
			kept = append(kept, b)
		}
	}
	return kept
}
