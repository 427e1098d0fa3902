package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ChartPress/internal/calculator"
	"ChartPress/internal/collector"
	"ChartPress/internal/recorder"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestNewApp_MockProvider(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, `
data_source:
  provider: mock
  search: false
  min_trading_days: 3
symbols: [DEMO]
output:
  dir: `+filepath.Join(dir, "graphs")+`
database:
  sqlite_path: `+filepath.Join(dir, "db", "history.db")+`
log:
  output: `+filepath.Join(dir, "chartpress.log")+`
`)

	a, err := newApp(cfg, appOptions{})
	require.NoError(t, err)
	defer a.Close()

	assert.IsType(t, &collector.CachingFetcher{}, a.col.Fetcher)
	assert.IsType(t, &recorder.SQLiteRecorder{}, a.rec)
	assert.Len(t, a.newResolver(false).(collector.ChainResolver), 1)
	assert.Len(t, a.newResolver(true).(collector.ChainResolver), 2)

	out, err := a.gen.Generate(context.Background(), "DEMO")
	require.NoError(t, err)
	assert.FileExists(t, out.Path)
	assert.Equal(t, 3, out.Days)
	assert.Nil(t, out.Warning)

	events, err := a.rec.Recent(1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "DEMO", events[0].Symbol)
}

func TestNewApp_OutputOverride(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, `
data_source:
  provider: mock
database:
  sqlite_path: ""
cache:
  ttl: 0s
`)
	a, err := newApp(cfg, appOptions{OutputDir: filepath.Join(dir, "elsewhere")})
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, filepath.Join(dir, "elsewhere"), a.cfg.Output.Dir)
	assert.IsType(t, &collector.MockFetcher{}, a.col.Fetcher)
	assert.IsType(t, &recorder.NoopRecorder{}, a.rec)
	assert.DirExists(t, filepath.Join(dir, "elsewhere"))
}

func TestNewApp_InvalidConfig(t *testing.T) {
	cfg := writeConfig(t, "data_source:\n  provider: carrier-pigeon\n")
	_, err := newApp(cfg, appOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation")
}

func TestPrintDiagnosis(t *testing.T) {
	first := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	d := &calculator.Diagnosis{
		Points:      3,
		Missing:     1,
		TradingDays: 2,
		First:       first,
		Last:        first.Add(24 * time.Hour),
		PerDay:      []calculator.DayCount{{Date: "2024-03-04", Points: 2}, {Date: "2024-03-05", Points: 1}},
		Gaps:        []calculator.Gap{{From: first.Add(5 * time.Minute), To: first.Add(24 * time.Hour), Duration: 24*time.Hour - 5*time.Minute}},
		Intervals:   []calculator.IntervalCount{{Interval: 5 * time.Minute, Count: 1}},
		CloseLow:    99.5,
		CloseHigh:   101,
	}

	var buf bytes.Buffer
	printDiagnosis(&buf, "sap.de", d)
	out := buf.String()
	assert.Contains(t, out, "SAP.DE\n")
	assert.Contains(t, out, "3 (1 without close)")
	assert.Contains(t, out, "2024-03-05     1")
	assert.Contains(t, out, "close range:   99.50 .. 101.00")
	assert.Contains(t, out, "gaps:          1")
}
