package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"ChartPress/internal/calculator"
	"ChartPress/internal/chart"
	"ChartPress/internal/model"
)

// ErrNoData is returned when neither the symbol nor its resolved substitute
// yields any bars.
var ErrNoData = errors.New("no data returned")

// Result is the outcome of a collection run.
type Result struct {
	Symbol string // the ticker the bars belong to; differs from the request after resolution
	Bars   []model.OHLCV
	Days   int
	// Warning is set when fewer trading days than requested came back.
	Warning *chart.InsufficientDataWarning
}

// Collector fetches intraday bars for a symbol, falling back to a resolver
// when the symbol yields nothing.
type Collector struct {
	Fetcher        Fetcher
	Resolver       Resolver // optional
	Interval       string
	Range          string
	MinTradingDays int
	Logger         zerolog.Logger
}

// NewCollector creates a new Collector with the 5-day, 5-minute defaults.
func NewCollector(fetcher Fetcher, resolver Resolver, logger zerolog.Logger) *Collector {
	return &Collector{
		Fetcher:        fetcher,
		Resolver:       resolver,
		Interval:       "5m",
		Range:          "5d",
		MinTradingDays: 5,
		Logger:         logger,
	}
}

// Collect fetches bars for symbol. If the fetch fails or returns no usable
// close, the resolver is asked once for a substitute ticker and the fetch is
// retried with it.
func (c *Collector) Collect(ctx context.Context, symbol string) (*Result, error) {
	symbol = strings.TrimSpace(symbol)
	c.Logger.Info().Str("symbol", strings.ToUpper(symbol)).Str("source", c.Fetcher.Name()).Msg("fetching data")

	bars, err := c.fetch(ctx, symbol)
	if err != nil || calculator.TradingDays(bars) == 0 {
		if err != nil {
			c.Logger.Warn().Err(err).Str("symbol", symbol).Msg("fetch failed")
		} else {
			c.Logger.Warn().Str("symbol", symbol).Msg("no data for symbol")
		}
		if c.Resolver == nil {
			return nil, c.noData(symbol, err)
		}

		ticker, ok, rerr := c.Resolver.Resolve(ctx, symbol)
		if rerr != nil {
			return nil, fmt.Errorf("resolve %s: %w", symbol, rerr)
		}
		if !ok || ticker == "" {
			return nil, c.noData(symbol, err)
		}
		c.Logger.Info().Str("symbol", symbol).Str("ticker", ticker).Msg("retrying with resolved ticker")

		bars, err = c.fetch(ctx, ticker)
		if err != nil || calculator.TradingDays(bars) == 0 {
			return nil, c.noData(ticker, err)
		}
		symbol = ticker
	}

	res := &Result{Symbol: symbol, Bars: bars, Days: calculator.TradingDays(bars)}
	if res.Days < c.MinTradingDays {
		res.Warning = &chart.InsufficientDataWarning{Symbol: strings.ToUpper(symbol), Days: res.Days, Requested: c.MinTradingDays}
		c.Logger.Warn().Str("symbol", symbol).Int("days", res.Days).Int("requested", c.MinTradingDays).Msg("insufficient trading days")
	}
	return res, nil
}

func (c *Collector) fetch(ctx context.Context, symbol string) ([]model.OHLCV, error) {
	bars, err := c.Fetcher.FetchIntraday(ctx, symbol, c.Interval, c.Range)
	if err != nil {
		return nil, fmt.Errorf("fetch intraday bars: %w", err)
	}
	return bars, nil
}

// noData wraps the fetch error, or chart.ErrEmptyData when the fetch
// succeeded without a single usable close.
func (c *Collector) noData(symbol string, cause error) error {
	if cause == nil {
		cause = chart.ErrEmptyData
	}
	return fmt.Errorf("%w for %s: %w", ErrNoData, strings.ToUpper(symbol), cause)
}
