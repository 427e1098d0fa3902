package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"time"

	"ChartPress/internal/model"
)

// RESTFetcher implements Fetcher against a generic intraday bar API.
type RESTFetcher struct {
	BaseURL  string
	APIKey   string
	Location *time.Location // time zone to stamp bars in; UTC when nil
	Client   *http.Client
}

// NewRESTFetcher creates a new fetcher with optional proxy support.
func NewRESTFetcher(baseURL, apiKey, proxyURL string, loc *time.Location) *RESTFetcher {
	return &RESTFetcher{
		BaseURL:  baseURL,
		APIKey:   apiKey,
		Location: loc,
		Client:   newHTTPClient(proxyURL),
	}
}

func (f *RESTFetcher) Name() string { return "rest" }

// restBar is the expected JSON shape from the bar API. A null close is a
// missing sample.
type restBar struct {
	Timestamp int64    `json:"timestamp"`
	Open      float64  `json:"open"`
	High      float64  `json:"high"`
	Low       float64  `json:"low"`
	Close     *float64 `json:"close"`
	Volume    float64  `json:"volume"`
}

func (f *RESTFetcher) FetchIntraday(ctx context.Context, symbol, interval, rng string) ([]model.OHLCV, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", interval)
	q.Set("range", rng)
	endpoint := fmt.Sprintf("%s/api/v1/bars/intraday?%s", f.BaseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch bars: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("fetch bars: status %d, body: %s", resp.StatusCode, string(body))
	}
	var raw []restBar
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode bars: %w", err)
	}

	loc := f.Location
	if loc == nil {
		loc = time.UTC
	}
	bars := make([]model.OHLCV, len(raw))
	for i, rb := range raw {
		c := math.NaN()
		if rb.Close != nil {
			c = *rb.Close
		}
		bars[i] = model.OHLCV{
			Time:   time.Unix(rb.Timestamp, 0).In(loc),
			Open:   rb.Open,
			High:   rb.High,
			Low:    rb.Low,
			Close:  c,
			Volume: rb.Volume,
		}
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}
