package calculator

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"ChartPress/internal/model"
)

// CloseRange returns the lowest and highest close. Empty input yields zeros.
func CloseRange(closes []float64) (low, high float64) {
	if len(closes) == 0 {
		return 0, 0
	}
	return floats.Min(closes), floats.Max(closes)
}

// TradingDays counts distinct calendar dates among bars with a usable close,
// in each bar's own location.
func TradingDays(bars []model.OHLCV) int {
	seen := make(map[[3]int]struct{})
	for _, b := range bars {
		if math.IsNaN(b.Close) || math.IsInf(b.Close, 0) {
			continue
		}
		y, m, d := b.Time.Date()
		seen[[3]int{y, int(m), d}] = struct{}{}
	}
	return len(seen)
}

// ExtractCloses returns the usable closes of bars in order.
func ExtractCloses(bars []model.OHLCV) []float64 {
	closes := make([]float64, 0, len(bars))
	for _, b := range bars {
		if math.IsNaN(b.Close) || math.IsInf(b.Close, 0) {
			continue
		}
		closes = append(closes, b.Close)
	}
	return closes
}
