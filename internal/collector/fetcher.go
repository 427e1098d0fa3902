package collector

import (
	"context"
	"math"
	"time"

	"ChartPress/internal/model"
)

// Fetcher defines the interface for fetching intraday market data.
// interval and rng use Yahoo notation, e.g. "5m" and "5d".
type Fetcher interface {
	FetchIntraday(ctx context.Context, symbol, interval, rng string) ([]model.OHLCV, error)
	Name() string
}

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price float64
	Days  int
	Bars  map[string][]model.OHLCV // per symbol; takes precedence over generated data
	Err   error
	Now   func() time.Time

	Calls []string
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchIntraday(_ context.Context, symbol, _, _ string) ([]model.OHLCV, error) {
	m.Calls = append(m.Calls, symbol)
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Bars != nil {
		return m.Bars[symbol], nil
	}
	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	days := m.Days
	if days == 0 {
		days = 5
	}
	return generateMockBars(m.Price, days, now()), nil
}

// generateMockBars builds days sessions of 5-minute bars from 09:00 to 17:30,
// ending on the day of end.
func generateMockBars(basePrice float64, days int, end time.Time) []model.OHLCV {
	const perDay = 103
	bars := make([]model.OHLCV, 0, days*perDay)
	y, m, d := end.Date()
	for day := 0; day < days; day++ {
		open := time.Date(y, m, d-(days-1-day), 9, 0, 0, 0, end.Location())
		for i := 0; i < perDay; i++ {
			n := float64(day*perDay + i)
			p := basePrice * (1 + 0.01*math.Sin(n/17) + 0.0005*float64(day))
			bars = append(bars, model.OHLCV{
				Time:   open.Add(time.Duration(i) * 5 * time.Minute),
				Open:   p * 0.999,
				High:   p * 1.002,
				Low:    p * 0.998,
				Close:  p,
				Volume: 10000,
			})
		}
	}
	return bars
}
