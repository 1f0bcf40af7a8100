package analytics

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/lou463/Underscore-Resume-BETA01/pkg/kafka"
)

const (
	// maxSamples bounds the score window used for the percentiles.
	maxSamples = 10000
	// maxMissingKeywords bounds the distinct missing keywords tracked. Past
	// it the map is pruned to the most frequent half.
	maxMissingKeywords = 5000
)

type AggregatedStats struct {
	TotalScores     int64          `json:"total_scores"`
	TotalAnalyses   int64          `json:"total_analyses"`
	CacheHits       int64          `json:"cache_hits"`
	CacheMisses     int64          `json:"cache_misses"`
	CacheHitRate    float64        `json:"cache_hit_rate"`
	DegenerateCount int64          `json:"degenerate_count"`
	AvgScore        float64        `json:"avg_score"`
	P50Score        float64        `json:"p50_score"`
	P95Score        float64        `json:"p95_score"`
	MostMissing     []KeywordCount `json:"most_missing"`
	ScoresPerMinute float64        `json:"scores_per_minute"`
}

type KeywordCount struct {
	Keyword string `json:"keyword"`
	Count   int64  `json:"count"`
}

// Aggregator folds ScoreEvents into running statistics.
type Aggregator struct {
	mu            sync.RWMutex
	totalScores   int64
	totalAnalyses int64
	cacheHits     int64
	cacheMisses   int64
	degenerate    int64
	scores        []float64
	next          int
	missingCounts map[string]int64
	startTime     time.Time
	logger        *slog.Logger
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		scores:        make([]float64, 0, 1024),
		missingCounts: make(map[string]int64),
		startTime:     time.Now(),
		logger:        slog.Default().With("component", "analytics-aggregator"),
	}
}

// HandleEvent decodes Kafka messages into the aggregator. Undecodable
// messages are logged and skipped so they do not block the partition.
func (a *Aggregator) HandleEvent() kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[ScoreEvent](value)
		if err != nil {
			a.logger.Error("failed to decode analytics event", "key", string(key), "error", err)
			return nil
		}
		a.Record(event)
		return nil
	}
}

func (a *Aggregator) Record(event ScoreEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch event.Type {
	case EventAnalysis:
		a.totalAnalyses++
	default:
		a.totalScores++
	}
	if event.CacheHit {
		a.cacheHits++
	} else {
		a.cacheMisses++
	}
	if event.Degenerate {
		a.degenerate++
	}
	if len(a.scores) < maxSamples {
		a.scores = append(a.scores, event.Score)
	} else {
		a.scores[a.next] = event.Score
		a.next = (a.next + 1) % maxSamples
	}
	for _, kw := range event.Missing {
		a.missingCounts[kw]++
	}
	if len(a.missingCounts) > maxMissingKeywords {
		a.pruneMissing(maxMissingKeywords / 2)
	}
}

// pruneMissing keeps the keep most frequent missing keywords. Caller holds
// the write lock.
func (a *Aggregator) pruneMissing(keep int) {
	top := topN(a.missingCounts, keep)
	pruned := make(map[string]int64, maxMissingKeywords)
	for _, kc := range top {
		pruned[kc.Keyword] = kc.Count
	}
	a.logger.Debug("pruned missing keyword counts", "before", len(a.missingCounts), "after", len(pruned))
	a.missingCounts = pruned
}

func (a *Aggregator) Stats() AggregatedStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := AggregatedStats{
		TotalScores:     a.totalScores,
		TotalAnalyses:   a.totalAnalyses,
		CacheHits:       a.cacheHits,
		CacheMisses:     a.cacheMisses,
		DegenerateCount: a.degenerate,
	}
	if lookups := a.cacheHits + a.cacheMisses; lookups > 0 {
		stats.CacheHitRate = float64(a.cacheHits) / float64(lookups)
	}
	if len(a.scores) > 0 {
		sorted := make([]float64, len(a.scores))
		copy(sorted, a.scores)
		sort.Float64s(sorted)

		var sum float64
		for _, s := range sorted {
			sum += s
		}
		stats.AvgScore = sum / float64(len(sorted))
		stats.P50Score = percentile(sorted, 50)
		stats.P95Score = percentile(sorted, 95)
	}
	stats.MostMissing = topN(a.missingCounts, 10)
	elapsed := time.Since(a.startTime).Minutes()
	if elapsed > 0 {
		stats.ScoresPerMinute = float64(stats.TotalScores+stats.TotalAnalyses) / elapsed
	}
	return stats
}

func percentile(sorted []float64, pct int) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// topN orders by count, then keyword, so ties are stable.
func topN(counts map[string]int64, n int) []KeywordCount {
	result := make([]KeywordCount, 0, len(counts))
	for kw, count := range counts {
		result = append(result, KeywordCount{Keyword: kw, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Keyword < result[j].Keyword
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
