package collector

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ChartPress/internal/cache"
	"ChartPress/internal/model"
)

func TestCachingFetcher_HitAndMiss(t *testing.T) {
	ts := time.Date(2024, 3, 4, 9, 0, 0, 0, time.FixedZone("CET", 3600))
	mock := &MockFetcher{Bars: map[string][]model.OHLCV{
		"SAP": {
			{Time: ts, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10},
			{Time: ts.Add(5 * time.Minute), Open: math.NaN(), High: math.NaN(), Low: math.NaN(), Close: math.NaN()},
		},
	}}
	f := NewCachingFetcher(mock, cache.NewMemoryStore(), time.Minute, zerolog.Nop())
	ctx := context.Background()

	first, err := f.FetchIntraday(ctx, "SAP", "5m", "5d")
	require.NoError(t, err)
	second, err := f.FetchIntraday(ctx, "SAP", "5m", "5d")
	require.NoError(t, err)

	assert.Equal(t, []string{"SAP"}, mock.Calls)
	require.Len(t, second, 2)
	assert.Equal(t, first[0].Close, second[0].Close)
	assert.True(t, second[0].Time.Equal(ts))
	_, offset := second[0].Time.Zone()
	assert.Equal(t, 3600, offset)
	assert.True(t, math.IsNaN(second[1].Close))

	_, err = f.FetchIntraday(ctx, "SAP", "1m", "1d")
	require.NoError(t, err)
	assert.Len(t, mock.Calls, 2)
}

func TestCachingFetcher_EmptyNotCached(t *testing.T) {
	mock := &MockFetcher{Bars: map[string][]model.OHLCV{}}
	f := NewCachingFetcher(mock, cache.NewMemoryStore(), time.Minute, zerolog.Nop())

	for i := 0; i < 2; i++ {
		bars, err := f.FetchIntraday(context.Background(), "NONE", "5m", "5d")
		require.NoError(t, err)
		assert.Empty(t, bars)
	}
	assert.Len(t, mock.Calls, 2)
}
