package mapbox

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/mgrs-geocode-etl/internal/observability"
)

const (
	testToken         = "test-token"
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func testClient(baseURL string, timeout time.Duration) (*Client, *observability.Metrics) {
	m := observability.NewMetricsForTesting()
	c := NewClient(testToken, timeout, m, slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.baseURL = baseURL
	return c, m
}

func TestClient_ReverseGeocode_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// lon,lat order
		assert.Equal(t, "/-77.035278,38.889484.json", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, testToken, r.URL.Query().Get("access_token"))

		resp := response{Features: []feature{{
			PlaceName: "National Mall, Washington, District of Columbia, United States",
			Text:      "National Mall",
			Relevance: 0.98,
		}}}
		w.Header().Set(headerContentType, contentTypeJSON)
		assert.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	c, m := testClient(srv.URL, 5*time.Second)
	result, err := c.ReverseGeocode(context.Background(), 38.889484, -77.035278)
	require.NoError(t, err)

	assert.Equal(t, "National Mall, Washington, District of Columbia, United States", result.FormattedAddress)
	assert.Equal(t, "National Mall", result.PlaceName)
	assert.InDelta(t, 0.98, result.Confidence, 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(m.GeocodeRequests.WithLabelValues("success")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.GeocodeAPIDuration))
}

func TestClient_ReverseGeocode_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"features":[]}`))
	}))
	defer srv.Close()

	c, m := testClient(srv.URL, 5*time.Second)
	result, err := c.ReverseGeocode(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Empty(t, result.FormattedAddress)
	assert.InDelta(t, 1, testutil.ToFloat64(m.GeocodeRequests.WithLabelValues("empty")), 0)
}

func TestClient_ReverseGeocode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		timeout time.Duration
		want    string
	}{
		{
			name: "api error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"message":"Not Authorized"}`))
			},
			timeout: 5 * time.Second,
			want:    "401",
		},
		{
			name: "bad body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`not json`))
			},
			timeout: 5 * time.Second,
			want:    "decode response",
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				time.Sleep(200 * time.Millisecond)
				w.WriteHeader(http.StatusOK)
			},
			timeout: 50 * time.Millisecond,
			want:    "reverse geocode request",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c, m := testClient(srv.URL, tt.timeout)
			_, err := c.ReverseGeocode(context.Background(), 1, 2)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.InDelta(t, 1, testutil.ToFloat64(m.GeocodeRequests.WithLabelValues("error")), 0)
		})
	}
}
