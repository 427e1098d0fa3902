package chart

import (
	"math"
	"sort"

	"ChartPress/internal/model"
)

// Normalize drops bars without a finite close, orders the rest by time and
// assigns plotting indices 0..n-1. When two bars share a timestamp the one
// appearing later in records wins.
func Normalize(symbol string, records []model.OHLCV) (model.Series, error) {
	bars := make([]model.OHLCV, 0, len(records))
	for _, r := range records {
		if math.IsNaN(r.Close) || math.IsInf(r.Close, 0) {
			continue
		}
		bars = append(bars, r)
	}
	if len(bars) == 0 {
		return model.Series{Symbol: symbol}, ErrEmptyData
	}

	// Stable sort keeps input order among equal timestamps, so the last of a
	// run of duplicates is the one to keep.
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })

	points := make([]model.PricePoint, 0, len(bars))
	for i, b := range bars {
		if i+1 < len(bars) && bars[i+1].Time.Equal(b.Time) {
			continue
		}
		points = append(points, model.PricePoint{
			Index: len(points),
			Time:  b.Time,
			Close: b.Close,
			Bar:   b,
		})
	}
	return model.Series{Symbol: symbol, Points: points}, nil
}
