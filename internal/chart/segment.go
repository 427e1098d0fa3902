package chart

import (
	"time"

	"ChartPress/internal/model"
)

// SegmentSeries splits s into runs whose consecutive points are at most gap apart.
// Segments share the series' backing array; callers must not modify them.
func SegmentSeries(s model.Series, gap time.Duration) []model.Segment {
	if len(s.Points) == 0 {
		return nil
	}
	var segments []model.Segment
	start := 0
	for i := 1; i < len(s.Points); i++ {
		if s.Points[i].Time.Sub(s.Points[i-1].Time) > gap {
			segments = append(segments, model.Segment{Points: s.Points[start:i:i]})
			start = i
		}
	}
	segments = append(segments, model.Segment{Points: s.Points[start:]})
	return segments
}
