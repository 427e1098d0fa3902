package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"ChartPress/internal/cache"
	"ChartPress/internal/model"
)

// CachingFetcher serves repeated requests from a cache.Store for TTL.
type CachingFetcher struct {
	Next   Fetcher
	Store  cache.Store
	TTL    time.Duration
	Logger zerolog.Logger
}

// NewCachingFetcher wraps next with store.
func NewCachingFetcher(next Fetcher, store cache.Store, ttl time.Duration, logger zerolog.Logger) *CachingFetcher {
	return &CachingFetcher{Next: next, Store: store, TTL: ttl, Logger: logger}
}

func (c *CachingFetcher) Name() string { return c.Next.Name() + "+cache" }

// cachedBar mirrors model.OHLCV with a nullable close, since JSON has no NaN.
type cachedBar struct {
	Time   time.Time `json:"t"`
	Open   float64   `json:"o"`
	High   float64   `json:"h"`
	Low    float64   `json:"l"`
	Close  *float64  `json:"c"`
	Volume float64   `json:"v"`
}

func cacheKey(source, symbol, interval, rng string) string {
	return fmt.Sprintf("bars:%s:%s:%s:%s", source, symbol, interval, rng)
}

func (c *CachingFetcher) FetchIntraday(ctx context.Context, symbol, interval, rng string) ([]model.OHLCV, error) {
	key := cacheKey(c.Next.Name(), symbol, interval, rng)

	if data, ok, err := c.Store.Get(ctx, key); err != nil {
		c.Logger.Warn().Err(err).Str("key", key).Msg("cache get failed")
	} else if ok {
		bars, err := decodeBars(data)
		if err == nil {
			c.Logger.Debug().Str("symbol", symbol).Int("points", len(bars)).Msg("cache hit")
			return bars, nil
		}
		c.Logger.Warn().Err(err).Str("key", key).Msg("discarding unreadable cache entry")
	}

	bars, err := c.Next.FetchIntraday(ctx, symbol, interval, rng)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return bars, nil
	}
	data, err := encodeBars(bars)
	if err != nil {
		return nil, fmt.Errorf("encode bars: %w", err)
	}
	if err := c.Store.Set(ctx, key, data, c.TTL); err != nil {
		c.Logger.Warn().Err(err).Str("key", key).Msg("cache set failed")
	}
	return bars, nil
}

func encodeBars(bars []model.OHLCV) ([]byte, error) {
	out := make([]cachedBar, len(bars))
	for i, b := range bars {
		out[i] = cachedBar{Time: b.Time, Open: b.Open, High: b.High, Low: b.Low, Volume: b.Volume}
		if !math.IsNaN(b.Close) && !math.IsInf(b.Close, 0) {
			c := b.Close
			out[i].Close = &c
		}
		if math.IsNaN(b.Open) || math.IsNaN(b.High) || math.IsNaN(b.Low) {
			out[i].Open, out[i].High, out[i].Low = 0, 0, 0
		}
	}
	return json.Marshal(out)
}

func decodeBars(data []byte) ([]model.OHLCV, error) {
	var in []cachedBar
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, err
	}
	bars := make([]model.OHLCV, len(in))
	for i, b := range in {
		c := math.NaN()
		if b.Close != nil {
			c = *b.Close
		}
		bars[i] = model.OHLCV{Time: b.Time, Open: b.Open, High: b.High, Low: b.Low, Close: c, Volume: b.Volume}
	}
	return bars, nil
}
