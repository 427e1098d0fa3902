package collector

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yahooBody = `{"chart":{"result":[{
  "meta":{"symbol":"SAP.DE","exchangeTimezoneName":"Europe/Berlin","gmtoffset":3600},
  "timestamp":[1709539500,1709539200,1709539800],
  "indicators":{"quote":[{
    "open":[101.0,100.0,null],
    "high":[102.0,101.0,null],
    "low":[100.5,99.5,null],
    "close":[101.5,100.5,null],
    "volume":[2000,1000,null]
  }]}
}],"error":null}}`

func TestYahooFetcher_FetchIntraday(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Write([]byte(yahooBody))
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL

	bars, err := f.FetchIntraday(context.Background(), "SAP.DE", "5m", "5d")
	require.NoError(t, err)

	assert.Equal(t, "/v8/finance/chart/SAP.DE", gotPath)
	assert.Equal(t, "interval=5m&range=5d", gotQuery)
	require.Len(t, bars, 3)
	assert.Equal(t, 100.5, bars[0].Close)
	assert.Equal(t, 101.5, bars[1].Close)
	assert.True(t, math.IsNaN(bars[2].Close))
	assert.Zero(t, bars[2].Volume)

	_, offset := bars[0].Time.Zone()
	assert.Equal(t, 3600, offset)
	assert.Equal(t, 9, bars[0].Time.Hour())
}

func TestYahooFetcher_SymbolMap(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"chart":{"result":[],"error":null}}`))
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL

	bars, err := f.FetchIntraday(context.Background(), "DAX", "5m", "5d")
	require.NoError(t, err)
	assert.Empty(t, bars)
	assert.Equal(t, "/v8/finance/chart/^GDAXI", gotPath)
}

func TestYahooFetcher_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"http status", http.StatusNotFound, `not found`},
		{"api error", http.StatusOK, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`},
		{"bad json", http.StatusOK, `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			f := NewYahooFetcher("")
			f.BaseURL = srv.URL
			_, err := f.FetchIntraday(context.Background(), "XXX", "5m", "5d")
			assert.Error(t, err)
		})
	}
}

func TestRESTFetcher_FetchIntraday(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/bars/intraday", r.URL.Path)
		assert.Equal(t, "SAP", r.URL.Query().Get("symbol"))
		assert.Equal(t, "5m", r.URL.Query().Get("interval"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Write([]byte(`[{"timestamp":1709539500,"close":11},{"timestamp":1709539200,"close":10},{"timestamp":1709539800,"close":null}]`))
	}))
	defer srv.Close()

	f := NewRESTFetcher(srv.URL, "secret", "", nil)
	bars, err := f.FetchIntraday(context.Background(), "SAP", "5m", "5d")
	require.NoError(t, err)

	require.Len(t, bars, 3)
	assert.Equal(t, 10.0, bars[0].Close)
	assert.Equal(t, 11.0, bars[1].Close)
	assert.True(t, math.IsNaN(bars[2].Close))
}
