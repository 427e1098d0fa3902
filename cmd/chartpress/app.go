package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"ChartPress/internal/cache"
	"ChartPress/internal/collector"
	"ChartPress/internal/config"
	"ChartPress/internal/generator"
	"ChartPress/internal/logger"
	"ChartPress/internal/metrics"
	"ChartPress/internal/recorder"
	"ChartPress/internal/render"
)

type appOptions struct {
	Interactive bool   // prompt on stdin for a substitute identifier
	OutputDir   string // overrides output.dir
}

// app holds the components shared by all commands.
type app struct {
	cfg     *config.Config
	logger  zerolog.Logger
	col     *collector.Collector
	gen     *generator.Generator
	rec     recorder.Recorder
	metrics *metrics.Recorder
	closers []io.Closer
}

func newApp(cfgPath string, opts appOptions) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.OutputDir != "" {
		cfg.Output.Dir = opts.OutputDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	log, logCloser, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: log, closers: []io.Closer{logCloser}}

	fetcher, err := a.newFetcher()
	if err != nil {
		a.Close()
		return nil, err
	}
	log.Info().Str("source", fetcher.Name()).Msg("data source ready")

	a.col = collector.NewCollector(fetcher, a.newResolver(opts.Interactive), log)
	a.col.Interval = cfg.DataSource.Interval
	a.col.Range = cfg.DataSource.Range
	a.col.MinTradingDays = cfg.DataSource.MinTradingDays

	a.rec = a.newRecorder()
	a.metrics = metrics.New()

	w, err := render.NewFileWriter(cfg.Output.Dir)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.gen = generator.New(a.col, cfg.ChartOptions(), w, a.rec, a.metrics, log)
	return a, nil
}

// newFetcher builds the configured provider behind a Redis or in-memory cache.
func (a *app) newFetcher() (collector.Fetcher, error) {
	ds := a.cfg.DataSource
	var fetcher collector.Fetcher
	switch ds.Provider {
	case "rest":
		fetcher = collector.NewRESTFetcher(ds.BaseURL, ds.APIKey, a.cfg.Proxy, a.cfg.Location())
	case "mock":
		fetcher = &collector.MockFetcher{Price: 100, Days: ds.MinTradingDays}
	default:
		fetcher = collector.NewYahooFetcher(a.cfg.Proxy)
	}

	if a.cfg.Cache.TTL <= 0 {
		return fetcher, nil
	}
	var store cache.Store = cache.NewMemoryStore()
	if a.cfg.Cache.RedisAddr != "" {
		rs, err := cache.NewRedisStore(context.Background(), cache.RedisConfig{
			Addr:     a.cfg.Cache.RedisAddr,
			Password: a.cfg.Cache.RedisPassword,
			DB:       a.cfg.Cache.RedisDB,
		})
		if err != nil {
			a.logger.Warn().Err(err).Msg("redis unavailable, using in-memory cache")
		} else {
			store = rs
			a.closers = append(a.closers, rs)
		}
	}
	return collector.NewCachingFetcher(fetcher, store, a.cfg.Cache.TTL, a.logger), nil
}

// newResolver chains the static identifier table, Yahoo search and, for
// interactive runs, an operator prompt.
func (a *app) newResolver(interactive bool) collector.Resolver {
	ds := a.cfg.DataSource
	var search collector.Resolver
	if ds.Search {
		search = collector.NewYahooSearchResolver(a.cfg.Proxy)
	}

	chain := collector.ChainResolver{collector.StaticResolver(ds.Identifiers)}
	if search != nil {
		chain = append(chain, search)
	}
	if interactive {
		convert := collector.ChainResolver{collector.StaticResolver(ds.Identifiers)}
		if search != nil {
			convert = append(convert, search)
		}
		chain = append(chain, collector.NewPromptResolver(os.Stdin, os.Stdout, convert))
	}
	return chain
}

func (a *app) newRecorder() recorder.Recorder {
	if a.cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(a.cfg.Database.SQLitePath, a.logger)
	if err != nil {
		a.logger.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		return recorder.NewNoopRecorder()
	}
	a.closers = append(a.closers, sr)
	return sr
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.logger.Warn().Err(err).Msg("close")
		}
	}
	a.closers = nil
}
