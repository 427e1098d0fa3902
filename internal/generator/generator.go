package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ChartPress/internal/chart"
	"ChartPress/internal/collector"
	"ChartPress/internal/metrics"
	"ChartPress/internal/recorder"
)

// Failure stages outside the chart pipeline.
const (
	StageCollect = "collect"
	StageWrite   = "write"
)

// Source supplies bars for a symbol.
type Source interface {
	Collect(ctx context.Context, symbol string) (*collector.Result, error)
}

// Writer persists a composed layout and returns where it went.
type Writer interface {
	Write(l *chart.Layout, now time.Time) (string, error)
}

// Outcome describes one generated chart.
type Outcome struct {
	Requested string
	Symbol    string
	Path      string
	Layout    *chart.Layout
	Points    int
	Days      int
	Warning   *chart.InsufficientDataWarning
	Duration  time.Duration
}

// Failure is a symbol that could not be charted.
type Failure struct {
	Symbol string
	Stage  string
	Err    error
}

// BatchResult splits a batch run into successes and failures, in input order.
type BatchResult struct {
	Succeeded []Outcome
	Failed    []Failure
}

// Generator runs collect, render, write and record for symbols.
type Generator struct {
	Source   Source
	Options  chart.Options
	Writer   Writer
	Recorder recorder.Recorder
	Metrics  *metrics.Recorder
	Logger   zerolog.Logger
	Now      func() time.Time
}

// New creates a Generator.
func New(src Source, opts chart.Options, w Writer, rec recorder.Recorder, m *metrics.Recorder, logger zerolog.Logger) *Generator {
	return &Generator{
		Source:   src,
		Options:  opts,
		Writer:   w,
		Recorder: rec,
		Metrics:  m,
		Logger:   logger,
		Now:      time.Now,
	}
}

// Layout collects bars for symbol and composes its chart without writing it.
func (g *Generator) Layout(ctx context.Context, symbol string) (*chart.Layout, *collector.Result, error) {
	res, err := g.Source.Collect(ctx, symbol)
	if err != nil {
		return nil, nil, err
	}
	g.Logger.Info().
		Str("symbol", strings.ToUpper(res.Symbol)).
		Int("points", len(res.Bars)).
		Int("days", res.Days).
		Msg("generating chart")

	l, err := chart.Render(res.Symbol, res.Bars, g.Options)
	if err != nil {
		return nil, res, err
	}
	return l, res, nil
}

// Generate produces and writes the chart for symbol.
func (g *Generator) Generate(ctx context.Context, symbol string) (*Outcome, error) {
	start := g.Now()

	l, res, err := g.Layout(ctx, symbol)
	if err != nil {
		stage := StageCollect
		var se *chart.StageError
		if errors.As(err, &se) {
			stage = string(se.Stage)
		}
		return nil, g.fail(symbol, stage, err)
	}

	path, err := g.Writer.Write(l, start)
	if err != nil {
		return nil, g.fail(symbol, StageWrite, fmt.Errorf("write chart: %w", err))
	}

	out := &Outcome{
		Requested: symbol,
		Symbol:    res.Symbol,
		Path:      path,
		Layout:    l,
		Points:    len(res.Bars),
		Days:      res.Days,
		Warning:   res.Warning,
		Duration:  g.Now().Sub(start),
	}
	g.record(out)
	g.Logger.Info().Str("symbol", l.Symbol).Str("path", path).Dur("took", out.Duration).Msg("chart saved")
	return out, nil
}

func (g *Generator) record(out *Outcome) {
	l := out.Layout
	evt := &recorder.RenderEvent{
		Time:      g.Now(),
		Requested: out.Requested,
		Symbol:    l.Symbol,
		Points:    out.Points,
		Days:      out.Days,
		Segments:  len(l.Traces),
		Labels:    len(l.DayLabels),
		Path:      out.Path,
		Duration:  out.Duration,
	}
	if l.Badge != nil {
		evt.Direction = string(l.Badge.Direction)
		evt.LastClose = l.Badge.Current
		evt.RefClose = l.Badge.Reference
	}
	if out.Warning != nil {
		evt.Warning = out.Warning.Error()
	}
	if err := g.Recorder.RecordRender(evt); err != nil {
		g.Logger.Warn().Err(err).Msg("record render failed")
	}

	if g.Metrics != nil {
		g.Metrics.RecordRender(l.Symbol, evt.Direction, out.Points, evt.LastClose)
		g.Metrics.RecordLatency("generate", out.Duration)
		if out.Warning != nil {
			g.Metrics.RecordInsufficientData(l.Symbol)
		}
	}
}

func (g *Generator) fail(symbol, stage string, err error) error {
	g.Logger.Error().Err(err).Str("symbol", symbol).Str("stage", stage).Msg("chart failed")
	if rerr := g.Recorder.RecordFailure(&recorder.FailureEvent{
		Time:   g.Now(),
		Symbol: symbol,
		Stage:  stage,
		Error:  err.Error(),
	}); rerr != nil {
		g.Logger.Warn().Err(rerr).Msg("record failure failed")
	}
	if g.Metrics != nil {
		g.Metrics.RecordFailure(stage)
	}
	return &Failure{Symbol: symbol, Stage: stage, Err: err}
}

func (f *Failure) Error() string { return f.Err.Error() }

func (f *Failure) Unwrap() error { return f.Err }

// Batch generates charts for symbols in order, continuing past failures.
// Symbols not reached before ctx is cancelled are reported as failed.
func (g *Generator) Batch(ctx context.Context, symbols []string) BatchResult {
	var res BatchResult
	g.Logger.Info().Int("symbols", len(symbols)).Msg("batch started")
	for i, sym := range symbols {
		if err := ctx.Err(); err != nil {
			for _, rest := range symbols[i:] {
				res.Failed = append(res.Failed, Failure{Symbol: rest, Stage: StageCollect, Err: err})
			}
			break
		}
		out, err := g.Generate(ctx, sym)
		if err != nil {
			var f *Failure
			if !errors.As(err, &f) {
				f = &Failure{Symbol: sym, Stage: StageCollect, Err: err}
			}
			res.Failed = append(res.Failed, *f)
			continue
		}
		res.Succeeded = append(res.Succeeded, *out)
	}
	g.Logger.Info().Int("succeeded", len(res.Succeeded)).Int("failed", len(res.Failed)).Msg("batch finished")
	return res
}
