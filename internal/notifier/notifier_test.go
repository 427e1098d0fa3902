package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ChartPress/internal/chart"
	"ChartPress/internal/generator"
)

func newTestNotifier(t *testing.T, h http.HandlerFunc) *TelegramNotifier {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	tn := NewTelegramNotifier("TOKEN", "42", "", zerolog.Nop())
	tn.BaseURL = srv.URL
	return tn
}

func TestSend(t *testing.T) {
	var got map[string]string
	tn := newTestNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"ok":true}`))
	})

	require.NoError(t, tn.Send(context.Background(), "<b>hi</b>"))
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "<b>hi</b>", got["text"])
	assert.Equal(t, "HTML", got["parse_mode"])
}

func TestSend_APIError(t *testing.T) {
	tn := newTestNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok":false}`, http.StatusBadRequest)
	})
	err := tn.Send(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}

func TestSendPhoto(t *testing.T) {
	path := filepath.Join(t.TempDir(), "2024-03-08_17-30_SAP.DE.png")
	require.NoError(t, os.WriteFile(path, []byte("png-bytes"), 0o644))

	var caption, chatID, filename string
	var content []byte
	tn := newTestNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendPhoto", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		caption = r.FormValue("caption")
		chatID = r.FormValue("chat_id")
		f, hdr, err := r.FormFile("photo")
		require.NoError(t, err)
		defer f.Close()
		filename = hdr.Filename
		content, _ = io.ReadAll(f)
		w.Write([]byte(`{"ok":true}`))
	})

	require.NoError(t, tn.SendPhoto(context.Background(), path, "SAP.DE"))
	assert.Equal(t, "SAP.DE", caption)
	assert.Equal(t, "42", chatID)
	assert.Equal(t, "2024-03-08_17-30_SAP.DE.png", filename)
	assert.Equal(t, []byte("png-bytes"), content)
}

func TestSendPhoto_MissingFile(t *testing.T) {
	tn := NewTelegramNotifier("TOKEN", "42", "", zerolog.Nop())
	err := tn.SendPhoto(context.Background(), filepath.Join(t.TempDir(), "nope.png"), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestSendWithRetry(t *testing.T) {
	backoffUnit = time.Millisecond
	t.Cleanup(func() { backoffUnit = time.Second })

	var mu sync.Mutex
	calls := 0
	tn := newTestNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	})

	require.NoError(t, tn.SendWithRetry(context.Background(), "x", 3))
	assert.Equal(t, 3, calls)

	calls = -10
	err := tn.SendWithRetry(context.Background(), "x", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 2 retries exhausted")
}

func TestSendWithRetry_Cancelled(t *testing.T) {
	tn := newTestNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := tn.SendWithRetry(ctx, "x", 3)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStartPolling(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var offsets []string
	var replies []string
	tn := newTestNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/botTOKEN/getUpdates":
			offsets = append(offsets, r.URL.Query().Get("offset"))
			w.Write([]byte(`{"ok":true,"result":[{"update_id":7,"message":{"text":"  /help "}},{"update_id":8}]}`))
		case "/botTOKEN/sendMessage":
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			replies = append(replies, body["text"])
			cancel()
			w.Write([]byte(`{"ok":true}`))
		}
	})

	var commands []string
	done := make(chan struct{})
	go func() {
		tn.StartPolling(ctx, func(_ context.Context, cmd string) string {
			commands = append(commands, cmd)
			return "reply to " + cmd
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("polling did not stop")
	}
	assert.Equal(t, []string{"0"}, offsets)
	assert.Equal(t, []string{"/help"}, commands)
	assert.Equal(t, []string{"reply to /help"}, replies)
}

func outcome(requested string, badge *chart.Badge, warning *chart.InsufficientDataWarning) generator.Outcome {
	return generator.Outcome{
		Requested: requested,
		Symbol:    "SAP.DE",
		Layout:    &chart.Layout{Symbol: "SAP.DE", Badge: badge},
		Points:    412,
		Days:      5,
		Warning:   warning,
	}
}

func TestFormatChartCaption(t *testing.T) {
	up := &chart.Badge{Direction: chart.DirectionUp, Current: 150, Reference: 120}
	out := outcome("716460", up, nil)
	msg := FormatChartCaption(&out)
	assert.Contains(t, msg, "<b>SAP.DE</b> (716460)")
	assert.Contains(t, msg, "🟢 150.00 (+30.00, +25.00%)")
	assert.Contains(t, msg, "412 Punkte | 5 Handelstage")
	assert.NotContains(t, msg, "⚠️")

	down := &chart.Badge{Direction: chart.DirectionDown, Current: 145, Reference: 150}
	out = outcome("sap.de", down, &chart.InsufficientDataWarning{Symbol: "SAP.DE", Days: 3, Requested: 5})
	msg = FormatChartCaption(&out)
	assert.NotContains(t, msg, "(sap.de)")
	assert.Contains(t, msg, "🔴 145.00 (-5.00, -3.33%)")
	assert.Contains(t, msg, "nur 3 von 5 Handelstagen")
}

func TestFormatBatchSummary(t *testing.T) {
	res := generator.BatchResult{
		Succeeded: []generator.Outcome{
			outcome("SAP.DE", &chart.Badge{Direction: chart.DirectionDown, Current: 145}, &chart.InsufficientDataWarning{Days: 2, Requested: 5}),
		},
		Failed: []generator.Failure{{Symbol: "XXX<1>", Stage: generator.StageCollect, Err: errors.New("no data returned")}},
	}
	msg := FormatBatchSummary(res, time.Date(2024, 3, 8, 17, 30, 0, 0, time.UTC))
	assert.Contains(t, msg, "2024-03-08 17:30")
	assert.Contains(t, msg, "✅ 1 erstellt | ❌ 1 fehlgeschlagen")
	assert.Contains(t, msg, "• SAP.DE ▼ 145.00 ⚠️ 2/5 Tage")
	assert.Contains(t, msg, "• XXX&lt;1&gt; [collect]: no data returned")
}
