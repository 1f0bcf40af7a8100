package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/lou463/Underscore-Resume-BETA01/pkg/kafka"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	mu     sync.Mutex
	events []kafka.Event
}

func (f *fakePublisher) PublishBatch(ctx context.Context, events []kafka.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, events...)
	return nil
}

func (f *fakePublisher) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func TestCollectorPublishesOnClose(t *testing.T) {
	pub := &fakePublisher{}
	c := NewCollector(pub, 16, nil)
	c.Start(context.Background())

	c.Track(ScoreEvent{Type: EventScore, Score: 50})
	c.Track(ScoreEvent{Type: EventAnalysis, Score: 80})
	c.Close()

	require.Equal(t, 2, pub.len())
	assert.Equal(t, "score", pub.events[0].Key)
	ev := pub.events[1].Value.(ScoreEvent)
	assert.Equal(t, 80.0, ev.Score)
	assert.False(t, ev.Timestamp.IsZero())
}

func TestCollectorFlushesOnCancel(t *testing.T) {
	pub := &fakePublisher{}
	c := NewCollector(pub, 16, nil)
	ctx, cancel := context.WithCancel(context.Background())
	c.Track(ScoreEvent{Score: 1})
	c.Start(ctx)
	cancel()
	<-c.done
	assert.Equal(t, 1, pub.len())
}

func TestCollectorDropsWhenFull(t *testing.T) {
	dropped := prometheus.NewCounter(prometheus.CounterOpts{Name: "dropped_test"})
	c := NewCollector(&fakePublisher{}, 1, dropped)
	c.Track(ScoreEvent{Score: 1})
	c.Track(ScoreEvent{Score: 2})
	assert.Equal(t, 1.0, testutil.ToFloat64(dropped))
}

type failingPublisher struct{}

func (failingPublisher) PublishBatch(context.Context, []kafka.Event) error {
	return errors.New("broker unavailable")
}

func TestCollectorSurvivesPublishErrors(t *testing.T) {
	c := NewCollector(failingPublisher{}, 4, nil)
	c.Start(context.Background())
	c.Track(ScoreEvent{Score: 1})
	assert.NotPanics(t, c.Close)
}

func TestAggregatorStats(t *testing.T) {
	agg := NewAggregator()
	events := []ScoreEvent{
		{Type: EventScore, Score: 50, Missing: []string{"skills", "strong"}},
		{Type: EventScore, Score: 100, CacheHit: true},
		{Type: EventScore, Score: 0, Degenerate: true},
		{Type: EventAnalysis, Score: 25, Missing: []string{"skills"}},
	}
	handle := agg.HandleEvent()
	for _, ev := range events {
		data, err := json.Marshal(ev)
		require.NoError(t, err)
		require.NoError(t, handle(context.Background(), []byte(ev.Type), data))
	}
	require.NoError(t, handle(context.Background(), nil, []byte("{garbage")))

	stats := agg.Stats()
	assert.Equal(t, int64(3), stats.TotalScores)
	assert.Equal(t, int64(1), stats.TotalAnalyses)
	assert.Equal(t, int64(1), stats.CacheHits)
	assert.Equal(t, int64(3), stats.CacheMisses)
	assert.InDelta(t, 0.25, stats.CacheHitRate, 1e-9)
	assert.Equal(t, int64(1), stats.DegenerateCount)
	assert.InDelta(t, 43.75, stats.AvgScore, 1e-9)
	assert.Equal(t, 50.0, stats.P50Score)
	assert.Equal(t, 100.0, stats.P95Score)
	assert.Equal(t, []KeywordCount{{"skills", 2}, {"strong", 1}}, stats.MostMissing)
}

func TestAggregatorBoundsSamples(t *testing.T) {
	agg := NewAggregator()
	for i := 0; i < maxSamples+10; i++ {
		agg.Record(ScoreEvent{Score: 10})
	}
	assert.Len(t, agg.scores, maxSamples)
	assert.Equal(t, int64(maxSamples+10), agg.Stats().TotalScores)
}

func TestAggregatorBoundsMissingKeywords(t *testing.T) {
	agg := NewAggregator()
	for i := 0; i < 3; i++ {
		agg.Record(ScoreEvent{Missing: []string{"kubernetes"}})
	}
	for i := 0; i < maxMissingKeywords+100; i++ {
		agg.Record(ScoreEvent{Missing: []string{fmt.Sprintf("rare%d", i)}})
	}

	assert.LessOrEqual(t, len(agg.missingCounts), maxMissingKeywords)
	top := agg.Stats().MostMissing
	require.NotEmpty(t, top)
	assert.Equal(t, KeywordCount{"kubernetes", 3}, top[0])
}

type fakeSnapshots struct {
	stats []AggregatedStats
}

func (f fakeSnapshots) ListSnapshots(ctx context.Context, limit int) ([]AggregatedStats, error) {
	if limit < len(f.stats) {
		return f.stats[:limit], nil
	}
	return f.stats, nil
}

func TestHandler(t *testing.T) {
	agg := NewAggregator()
	agg.Record(ScoreEvent{Score: 40, Timestamp: time.Now()})

	h := NewHandler(agg, nil)
	rec := httptest.NewRecorder()
	h.Stats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var stats AggregatedStats
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
	assert.Equal(t, int64(1), stats.TotalScores)

	rec = httptest.NewRecorder()
	h.Snapshots(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/snapshots", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	h = NewHandler(agg, fakeSnapshots{stats: []AggregatedStats{{TotalScores: 3}, {TotalScores: 2}}})
	rec = httptest.NewRecorder()
	h.Snapshots(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/snapshots?limit=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count":1,"snapshots":[`+mustJSON(t, AggregatedStats{TotalScores: 3})+`]}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.Snapshots(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/snapshots?limit=0", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}
