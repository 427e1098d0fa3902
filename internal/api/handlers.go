package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"ChartPress/internal/chart"
	"ChartPress/internal/collector"
	"ChartPress/internal/generator"
	"ChartPress/internal/metrics"
	"ChartPress/internal/recorder"
	"ChartPress/internal/render"
)

// Charts is the part of the generator the handlers use.
type Charts interface {
	Layout(ctx context.Context, symbol string) (*chart.Layout, *collector.Result, error)
	Generate(ctx context.Context, symbol string) (*generator.Outcome, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	charts   Charts
	recorder recorder.Recorder
	metrics  *metrics.Recorder
	logger   zerolog.Logger
}

// NewHandler creates a new Handler
func NewHandler(charts Charts, rec recorder.Recorder, m *metrics.Recorder, logger zerolog.Logger) *Handler {
	return &Handler{
		charts:   charts,
		recorder: rec,
		metrics:  m,
		logger:   logger.With().Str("component", "api").Logger(),
	}
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// GetChart handles GET /api/v1/charts/{symbol}.png and streams the chart
// without storing it.
func (h *Handler) GetChart(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	l, _, err := h.charts.Layout(r.Context(), symbol)
	if err != nil {
		h.respondError(w, symbol, err)
		return
	}

	var buf bytes.Buffer
	if err := render.PNG(l, &buf); err != nil {
		h.respondError(w, symbol, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Content-Disposition", `inline; filename="`+render.FileName(l.Symbol, time.Now())+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

type chartResponse struct {
	Requested string  `json:"requested"`
	Symbol    string  `json:"symbol"`
	Path      string  `json:"path"`
	Points    int     `json:"points"`
	Days      int     `json:"days"`
	Segments  int     `json:"segments"`
	Labels    int     `json:"labels"`
	Direction string  `json:"direction,omitempty"`
	LastClose float64 `json:"last_close,omitempty"`
	RefClose  float64 `json:"ref_close,omitempty"`
	Warning   string  `json:"warning,omitempty"`
	TookMS    int64   `json:"took_ms"`
}

// CreateChart handles POST /api/v1/charts/{symbol} and writes the chart to
// the output directory.
func (h *Handler) CreateChart(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	out, err := h.charts.Generate(r.Context(), symbol)
	if err != nil {
		h.respondError(w, symbol, err)
		return
	}

	resp := chartResponse{
		Requested: out.Requested,
		Symbol:    out.Layout.Symbol,
		Path:      out.Path,
		Points:    out.Points,
		Days:      out.Days,
		Segments:  len(out.Layout.Traces),
		Labels:    len(out.Layout.DayLabels),
		TookMS:    out.Duration.Milliseconds(),
	}
	if b := out.Layout.Badge; b != nil {
		resp.Direction = string(b.Direction)
		resp.LastClose = b.Current
		resp.RefClose = b.Reference
	}
	if out.Warning != nil {
		resp.Warning = out.Warning.Error()
	}
	respondJSON(w, http.StatusCreated, resp)
}

type renderResponse struct {
	Time      time.Time `json:"time"`
	Requested string    `json:"requested"`
	Symbol    string    `json:"symbol"`
	Points    int       `json:"points"`
	Days      int       `json:"days"`
	Direction string    `json:"direction,omitempty"`
	LastClose float64   `json:"last_close"`
	Path      string    `json:"path"`
	Warning   string    `json:"warning,omitempty"`
}

// ListRenders handles GET /api/v1/renders?limit=N
func (h *Handler) ListRenders(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			http.Error(w, "limit must be between 1 and 500", http.StatusBadRequest)
			return
		}
		limit = n
	}

	events, err := h.recorder.Recent(limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("list renders failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	resp := make([]renderResponse, 0, len(events))
	for _, e := range events {
		resp = append(resp, renderResponse{
			Time:      e.Time,
			Requested: e.Requested,
			Symbol:    e.Symbol,
			Points:    e.Points,
			Days:      e.Days,
			Direction: e.Direction,
			LastClose: e.LastClose,
			Path:      e.Path,
			Warning:   e.Warning,
		})
	}
	respondJSON(w, http.StatusOK, resp)
}

// statusFor maps a generation error onto an HTTP status. A symbol the
// provider knows but returns no usable closes for is 422; an unknown one 404.
func statusFor(err error) int {
	switch {
	case errors.Is(err, chart.ErrEmptyData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, collector.ErrNoData):
		return http.StatusNotFound
	case errors.Is(err, chart.ErrInvalidConfiguration):
		return http.StatusInternalServerError
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func (h *Handler) respondError(w http.ResponseWriter, symbol string, err error) {
	status := statusFor(err)
	h.logger.Warn().Err(err).Str("symbol", symbol).Int("status", status).Msg("chart request failed")
	respondJSON(w, status, map[string]string{"error": err.Error()})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
