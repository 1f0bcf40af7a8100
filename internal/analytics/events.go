package analytics

import "time"

type EventType string

const (
	EventScore    EventType = "score"
	EventAnalysis EventType = "analysis"
)

// ScoreEvent is published once per keyword comparison. Analyses publish one
// event per scored resume with Type EventAnalysis.
type ScoreEvent struct {
	Type              EventType `json:"type"`
	Score             float64   `json:"score"`
	Degenerate        bool      `json:"degenerate"`
	CacheHit          bool      `json:"cache_hit"`
	CandidateKeywords int       `json:"candidate_keywords"`
	ReferenceKeywords int       `json:"reference_keywords"`
	Missing           []string  `json:"missing,omitempty"`
	Language          string    `json:"language"`
	Stemming          bool      `json:"stemming"`
	LatencyMs         int64     `json:"latency_ms"`
	Timestamp         time.Time `json:"timestamp"`
	RequestID         string    `json:"request_id,omitempty"`
}
