package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ChartPress/internal/chart"
	"ChartPress/internal/collector"
	"ChartPress/internal/generator"
	"ChartPress/internal/model"
	"ChartPress/internal/notifier"
	"ChartPress/internal/recorder"
	"ChartPress/internal/render"
)

type sentPhoto struct {
	path    string
	caption string
}

type fakeNotifier struct {
	texts    []string
	photos   []sentPhoto
	photoErr error
}

func (f *fakeNotifier) SendWithRetry(_ context.Context, text string, _ int) error {
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeNotifier) SendPhotoWithRetry(_ context.Context, path, caption string, _ int) error {
	if f.photoErr != nil {
		return f.photoErr
	}
	f.photos = append(f.photos, sentPhoto{path, caption})
	return nil
}

// sessions builds five days of half-hourly bars ending 2024-03-08.
func sessions(base float64) []model.OHLCV {
	var out []model.OHLCV
	for d := 0; d < 5; d++ {
		open := time.Date(2024, 3, 4+d, 9, 0, 0, 0, time.UTC)
		for i := 0; i < 17; i++ {
			out = append(out, model.OHLCV{Time: open.Add(time.Duration(i) * 30 * time.Minute), Close: base + float64(d+i%3)})
		}
	}
	return out
}

func newScheduler(t *testing.T, n Notifier) *Scheduler {
	t.Helper()
	fetcher := &collector.MockFetcher{Bars: map[string][]model.OHLCV{
		"SAP.DE": sessions(180),
		"AAPL":   sessions(170),
	}}
	col := collector.NewCollector(fetcher, collector.StaticResolver{"716460": "SAP.DE"}, zerolog.Nop())
	w, err := render.NewFileWriter(t.TempDir())
	require.NoError(t, err)
	gen := generator.New(col, chart.DefaultOptions(), w, recorder.NewNoopRecorder(), nil, zerolog.Nop())
	return NewScheduler(context.Background(), gen, n, []string{"SAP.DE", "AAPL"}, zerolog.Nop())
}

func TestRegister(t *testing.T) {
	s := newScheduler(t, nil)
	require.NoError(t, s.Register("0 30 17 * * 1-5"))
	assert.Len(t, s.Cron.Entries(), 1)

	err := s.Register("not a cron")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "register render task")
}

func TestRunNow(t *testing.T) {
	n := &fakeNotifier{}
	s := newScheduler(t, n)

	res := s.RunNow()
	assert.Len(t, res.Succeeded, 2)
	assert.Empty(t, res.Failed)
	require.Len(t, n.texts, 1)
	assert.Contains(t, n.texts[0], "✅ 2 erstellt")
}

func TestRunNow_WithoutNotifier(t *testing.T) {
	s := newScheduler(t, nil)
	res := s.RunNow()
	assert.Len(t, res.Succeeded, 2)
}

func TestHandleCommand(t *testing.T) {
	ctx := context.Background()

	t.Run("chart by WKN", func(t *testing.T) {
		n := &fakeNotifier{}
		s := newScheduler(t, n)
		assert.Empty(t, s.HandleCommand(ctx, "/chart 716460"))
		require.Len(t, n.photos, 1)
		assert.Contains(t, n.photos[0].path, "SAP.DE.png")
		assert.Contains(t, n.photos[0].caption, "<b>SAP.DE</b> (716460)")
	})

	t.Run("chart with bot suffix", func(t *testing.T) {
		n := &fakeNotifier{}
		s := newScheduler(t, n)
		assert.Empty(t, s.HandleCommand(ctx, "/chart@ChartPressBot AAPL"))
		assert.Len(t, n.photos, 1)
	})

	t.Run("chart unknown symbol", func(t *testing.T) {
		n := &fakeNotifier{}
		s := newScheduler(t, n)
		reply := s.HandleCommand(ctx, "/chart NOPE")
		assert.Contains(t, reply, "❌ NOPE")
		assert.Empty(t, n.photos)
	})

	t.Run("chart missing symbol", func(t *testing.T) {
		s := newScheduler(t, &fakeNotifier{})
		assert.Contains(t, s.HandleCommand(ctx, "/chart"), "Symbol angeben")
	})

	t.Run("chart send failure", func(t *testing.T) {
		s := newScheduler(t, &fakeNotifier{photoErr: errors.New("boom")})
		assert.Contains(t, s.HandleCommand(ctx, "/chart AAPL"), "konnte nicht gesendet werden")
	})

	t.Run("batch", func(t *testing.T) {
		n := &fakeNotifier{}
		s := newScheduler(t, n)
		assert.Empty(t, s.HandleCommand(ctx, "/batch"))
		assert.Len(t, n.texts, 1)
	})

	t.Run("symbols", func(t *testing.T) {
		s := newScheduler(t, nil)
		assert.Equal(t, "Symbole: SAP.DE, AAPL", s.HandleCommand(ctx, "/symbols"))
	})

	t.Run("help", func(t *testing.T) {
		s := newScheduler(t, nil)
		assert.Equal(t, notifier.HelpText, s.HandleCommand(ctx, "hello"))
		assert.Equal(t, notifier.HelpText, s.HandleCommand(ctx, "   "))
	})
}
