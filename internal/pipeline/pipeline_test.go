package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/mgrs-geocode-etl/internal/domain"
	"github.com/couchcryptid/mgrs-geocode-etl/internal/observability"
	"github.com/couchcryptid/mgrs-geocode-etl/internal/pipeline"
)

// --- mocks ---

type mockExtractor struct {
	mu      sync.Mutex
	batches [][]domain.RawEvent
	errs    []error
}

func (m *mockExtractor) ExtractBatch(ctx context.Context, _ int) ([]domain.RawEvent, error) {
	m.mu.Lock()
	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		m.mu.Unlock()
		return nil, err
	}
	if len(m.batches) > 0 {
		b := m.batches[0]
		m.batches = m.batches[1:]
		m.mu.Unlock()
		return b, nil
	}
	m.mu.Unlock()

	// block until context cancelled to simulate waiting for messages
	<-ctx.Done()
	return nil, ctx.Err()
}

type mockTransformer struct {
	err error
}

func (m *mockTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	if m.err != nil {
		return domain.OutputEvent{}, m.err
	}
	return domain.OutputEvent{Key: raw.Key, Value: raw.Value}, nil
}

type mockLoader struct {
	mu     sync.Mutex
	loaded []domain.OutputEvent
	err    error
}

func (m *mockLoader) LoadBatch(_ context.Context, events []domain.OutputEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.loaded = append(m.loaded, events...)
	return nil
}

func newTestMetrics() *observability.Metrics {
	// Use a fresh registry to avoid "already registered" panics in tests.
	return observability.NewMetricsForTesting()
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	raw := makeRawEvent(t, "row-1", `{"id":"1","grid":"33TWM1234567890"}`)

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	ldr := &mockLoader{}
	metrics := newTestMetrics()

	p := pipeline.New(ext, &mockTransformer{}, ldr, slog.Default(), metrics, 10)
	require.Error(t, p.CheckReadiness(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := p.Run(ctx)
	require.NoError(t, err)
	assert.Len(t, ldr.loaded, 1)
	assert.Equal(t, raw.Value, ldr.loaded[0].Value)
	assert.True(t, p.Ready())
	require.NoError(t, p.CheckReadiness(context.Background()))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.MessagesConsumed))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.MessagesProduced))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.PipelineRunning))
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ext := &mockExtractor{} // no events; will block
	ldr := &mockLoader{}

	p := pipeline.New(ext, &mockTransformer{}, ldr, slog.Default(), newTestMetrics(), 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	err := p.Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, ldr.loaded)
}

func TestPipeline_Run_TransformError(t *testing.T) {
	committed := 0
	raw := makeRawEvent(t, "row-2", `not json`)
	raw.Commit = func(_ context.Context) error {
		committed++
		return nil
	}

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	ldr := &mockLoader{}
	metrics := newTestMetrics()

	p := pipeline.New(ext, &mockTransformer{err: errors.New("bad data")}, ldr, slog.Default(), metrics, 10)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := p.Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, ldr.loaded)
	assert.False(t, p.Ready())
	assert.Equal(t, 1, committed, "skipped messages are committed")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.TransformErrors))
}

func TestPipeline_Run_RetriesAfterExtractError(t *testing.T) {
	raw := makeRawEvent(t, "row-3", `{"grid":"32UMD"}`)
	ext := &mockExtractor{
		errs:    []error{errors.New("broker unavailable")},
		batches: [][]domain.RawEvent{{raw}},
	}
	ldr := &mockLoader{}

	p := pipeline.New(ext, &mockTransformer{}, ldr, slog.Default(), newTestMetrics(), 10)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.Len(t, ldr.loaded, 1)
}

func TestPipeline_Run_LoadErrorDoesNotCommit(t *testing.T) {
	committed := false
	raw := makeRawEvent(t, "row-4", `{"grid":"32UMD"}`)
	raw.Commit = func(_ context.Context) error {
		committed = true
		return nil
	}

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	ldr := &mockLoader{err: errors.New("sink down")}

	p := pipeline.New(ext, &mockTransformer{}, ldr, slog.Default(), newTestMetrics(), 10)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.False(t, committed)
	assert.False(t, p.Ready())
}

func TestPipeline_Run_CommitsAfterLoad(t *testing.T) {
	commitCalled := false

	raw := makeRawEvent(t, "row-5", `{"grid":"33TWM1234567890"}`)
	raw.Topic = "raw-mgrs-rows"
	raw.Commit = func(_ context.Context) error {
		commitCalled = true
		return nil
	}

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	ldr := &mockLoader{}

	p := pipeline.New(ext, &mockTransformer{}, ldr, slog.Default(), newTestMetrics(), 10)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := p.Run(ctx)
	require.NoError(t, err)
	assert.True(t, commitCalled)
}

func TestRecordTransformer_Transform(t *testing.T) {
	fakeClock := clockwork.NewFakeClockAt(time.Date(2024, time.April, 26, 15, 10, 0, 0, time.UTC))
	domain.SetClock(fakeClock)
	t.Cleanup(func() {
		domain.SetClock(nil)
	})

	tfm := pipeline.NewTransformer("", nil, slog.Default())

	t.Run("converted", func(t *testing.T) {
		raw := makeRawEvent(t, "row-6", `{"id":"6","grid":"18SUJ2348706483"}`)
		out, err := tfm.Transform(context.Background(), raw)
		require.NoError(t, err)

		assert.Equal(t, []byte("row-6"), out.Key)
		assert.Equal(t, domain.StatusConverted, out.Headers["mgrs_status"])
		assert.Equal(t, "2024-04-26T15:10:00Z", out.Headers["processed_at"])

		var rec struct {
			Fields    map[string]string `json:"fields"`
			Column    string            `json:"mgrs_column"`
			Latitude  float64           `json:"latitude"`
			Longitude float64           `json:"longitude"`
		}
		require.NoError(t, json.Unmarshal(out.Value, &rec))
		assert.Equal(t, "grid", rec.Column)
		assert.InDelta(t, 38.8895042, rec.Latitude, 1e-6)
		assert.InDelta(t, -77.0351913, rec.Longitude, 1e-6)
		assert.Equal(t, "6", rec.Fields["id"])
		assert.NotEmpty(t, rec.Fields["latitude"])
	})

	t.Run("keeps field order", func(t *testing.T) {
		raw := makeRawEvent(t, "row-7", `{"z":"1","grid":"32UMD","a":"2"}`)
		out, err := tfm.Transform(context.Background(), raw)
		require.NoError(t, err)

		var rec struct {
			Fields domain.Row `json:"fields"`
		}
		require.NoError(t, json.Unmarshal(out.Value, &rec))
		if diff := cmp.Diff([]string{"z", "grid", "a", "latitude", "longitude"}, rec.Fields.Columns()); diff != "" {
			t.Fatalf("column order mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("failed conversion is not an error", func(t *testing.T) {
		raw := makeRawEvent(t, "row-8", `{"grid":"33TWM123"}`)
		out, err := tfm.Transform(context.Background(), raw)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusUndetected, out.Headers["mgrs_status"])
	})

	t.Run("configured column", func(t *testing.T) {
		named := pipeline.NewTransformer("grid", nil, slog.Default())
		raw := makeRawEvent(t, "row-9", `{"grid":"33TWM123"}`)
		out, err := named.Transform(context.Background(), raw)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusFailed, out.Headers["mgrs_status"])
		assert.Contains(t, string(out.Value), `"error_kind":"format"`)
	})

	t.Run("undecodable", func(t *testing.T) {
		_, err := tfm.Transform(context.Background(), makeRawEvent(t, "row-10", `[1,2]`))
		assert.Error(t, err)
	})
}

// --- helpers ---

func makeRawEvent(t *testing.T, key, value string) domain.RawEvent {
	t.Helper()
	return domain.RawEvent{
		Key:   []byte(key),
		Value: []byte(value),
	}
}
