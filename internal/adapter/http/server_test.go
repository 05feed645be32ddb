package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/couchcryptid/mgrs-geocode-etl/internal/adapter/http"
	"github.com/couchcryptid/mgrs-geocode-etl/internal/pipeline"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

func newTestServer(readyErr error) *httpadapter.Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts := pipeline.Options{}
	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, pipeline.NewProcessor(opts, logger, nil), opts, logger)
}

func serve(srv *httpadapter.Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	rec := serve(newTestServer(nil), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := serve(newTestServer(nil), httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := serve(newTestServer(fmt.Errorf("not ready yet")), httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "not ready yet", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	rec := serve(newTestServer(nil), httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestConvertOne(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		status int
		mgrs   string
		lat    float64
		lon    float64
	}{
		{"compact", "/v1/mgrs/33TWM1234567890", http.StatusOK, "33TWM1234567890", 46.6644599, 15.1613786},
		{"escaped spaces", "/v1/mgrs/18S%20UJ%2023487%2006483", http.StatusOK, "18SUJ2348706483", 38.8895042, -77.0351913},
		{"format error", "/v1/mgrs/33TWM123", http.StatusBadRequest, "", 0, 0},
		{"range error", "/v1/mgrs/1CDK4000040000", http.StatusUnprocessableEntity, "", 0, 0},
	}

	srv := newTestServer(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(srv, httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.Equal(t, tt.status, rec.Code, rec.Body.String())

			var body struct {
				MGRS      string  `json:"mgrs"`
				Latitude  float64 `json:"latitude"`
				Longitude float64 `json:"longitude"`
				Error     string  `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			if tt.status != http.StatusOK {
				assert.NotEmpty(t, body.Error)
				return
			}
			assert.Equal(t, tt.mgrs, body.MGRS)
			assert.InDelta(t, tt.lat, body.Latitude, 1e-6)
			assert.InDelta(t, tt.lon, body.Longitude, 1e-6)
		})
	}
}

func TestConvertCSV(t *testing.T) {
	srv := newTestServer(nil)
	input := "name,grid\nalpha,32UMD\nbravo,not-a-ref\n"

	rec := serve(srv, httptest.NewRequest(http.MethodPost, "/v1/convert", strings.NewReader(input)))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "grid", rec.Header().Get("X-MGRS-Column"))
	assert.Equal(t, "2", rec.Header().Get("X-Rows"))
	assert.Equal(t, "1", rec.Header().Get("X-Converted"))

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "name,grid,latitude,longitude", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "alpha,32UMD,52.79"), lines[1])
	assert.Equal(t, "bravo,not-a-ref,,", lines[2])
}

func TestConvertCSV_ColumnOverride(t *testing.T) {
	srv := newTestServer(nil)
	input := "a,b\n33TWM1234567890,32UMD\n"

	rec := serve(srv, httptest.NewRequest(http.MethodPost, "/v1/convert?column=b", strings.NewReader(input)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "b", rec.Header().Get("X-MGRS-Column"))

	rec = serve(srv, httptest.NewRequest(http.MethodPost, "/v1/convert?column=zzz", strings.NewReader(input)))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestConvertCSV_EmptyBody(t *testing.T) {
	rec := serve(newTestServer(nil), httptest.NewRequest(http.MethodPost, "/v1/convert", strings.NewReader("")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
