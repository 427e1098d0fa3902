package chart

import (
	"math"
	"time"

	"ChartPress/internal/model"
)

var berlin = time.FixedZone("CET", 3600)

func at(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, berlin)
}

// session returns n bars spaced by step starting at start, with closes
// oscillating around base.
func session(start time.Time, n int, step time.Duration, base float64) []model.OHLCV {
	bars := make([]model.OHLCV, n)
	for i := range bars {
		c := base + math.Sin(float64(i)/3)
		bars[i] = model.OHLCV{Time: start.Add(time.Duration(i) * step), Open: c, High: c + 0.5, Low: c - 0.5, Close: c, Volume: 1000}
	}
	return bars
}

func withCloses(start time.Time, step time.Duration, closes ...float64) []model.OHLCV {
	bars := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = model.OHLCV{Time: start.Add(time.Duration(i) * step), Open: c, High: c, Low: c, Close: c}
	}
	return bars
}

func mustSeries(records []model.OHLCV) model.Series {
	s, err := Normalize("TEST", records)
	if err != nil {
		panic(err)
	}
	return s
}
