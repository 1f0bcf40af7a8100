// Package scoring is the entry point the API and CLI use for keyword
// extraction and overlap scoring. It applies per-request option overrides,
// consults the result cache and records metrics and analytics events.
package scoring

import (
	"context"
	"time"

	"github.com/lou463/Underscore-Resume-BETA01/internal/analytics"
	"github.com/lou463/Underscore-Resume-BETA01/internal/matcher/keyset"
	"github.com/lou463/Underscore-Resume-BETA01/internal/matcher/overlap"
	"github.com/lou463/Underscore-Resume-BETA01/internal/matcher/tokenizer"
	"github.com/lou463/Underscore-Resume-BETA01/pkg/logger"
	"github.com/lou463/Underscore-Resume-BETA01/pkg/metrics"
)

// maxEventMissing caps the missing keywords carried by one analytics event.
const maxEventMissing = 25

// Options override the service's tokenizer config for one call. Nil fields
// keep the configured value; ExtraStopwords add to it.
type Options struct {
	MinLength      *int     `json:"min_length,omitempty"`
	Stemming       *bool    `json:"stemming,omitempty"`
	ExtraStopwords []string `json:"extra_stopwords,omitempty"`
}

func (o Options) isZero() bool {
	return o.MinLength == nil && o.Stemming == nil && len(o.ExtraStopwords) == 0
}

// Apply returns base with the overrides applied. The result is not validated.
func (o Options) Apply(base tokenizer.Config) tokenizer.Config {
	cfg := base
	if o.MinLength != nil {
		cfg.MinLength = *o.MinLength
	}
	if o.Stemming != nil {
		cfg.Stemming = *o.Stemming
	}
	if len(o.ExtraStopwords) > 0 {
		cfg.ExtraStopwords = append(append([]string(nil), base.ExtraStopwords...), o.ExtraStopwords...)
	}
	return cfg
}

// Cache is implemented by cache.ResultCache.
type Cache interface {
	GetOrCompute(ctx context.Context, fingerprint, candidate, reference string, compute func() (overlap.Result, error)) (overlap.Result, bool, error)
}

// Tracker is implemented by analytics.Collector.
type Tracker interface {
	Track(event analytics.ScoreEvent)
}

type Service struct {
	base    tokenizer.Config
	scorer  *overlap.Scorer
	cache   Cache
	metrics *metrics.Metrics
	tracker Tracker
}

// NewService validates cfg. cache, m and tracker may each be nil.
func NewService(cfg tokenizer.Config, cache Cache, m *metrics.Metrics, tracker Tracker) (*Service, error) {
	scorer, err := overlap.New(cfg)
	if err != nil {
		return nil, err
	}
	return &Service{
		base:    cfg,
		scorer:  scorer,
		cache:   cache,
		metrics: m,
		tracker: tracker,
	}, nil
}

// Config returns the base tokenizer configuration.
func (s *Service) Config() tokenizer.Config {
	return s.base
}

func (s *Service) scorerFor(opts Options) (*overlap.Scorer, error) {
	if opts.isZero() {
		return s.scorer, nil
	}
	return overlap.New(opts.Apply(s.base))
}

// Keywords returns the sorted distinct keywords of text.
func (s *Service) Keywords(ctx context.Context, text string, opts Options) ([]string, error) {
	scorer, err := s.scorerFor(opts)
	if err != nil {
		s.countRequest("invalid")
		return nil, err
	}
	set := keyset.Build(scorer.Tokenizer(), text)
	logger.FromContext(ctx).Debug("keywords extracted", "component", "scoring", "keywords", set.Len())
	return set.Sorted(), nil
}

// Compare scores candidate against reference.
func (s *Service) Compare(ctx context.Context, candidate, reference string, opts Options) (overlap.Result, error) {
	return s.compare(ctx, analytics.EventScore, candidate, reference, opts)
}

// CompareResume is Compare for a resume scored as part of an analysis; it
// differs only in the analytics event it emits.
func (s *Service) CompareResume(ctx context.Context, resume, jobDescription string, opts Options) (overlap.Result, error) {
	return s.compare(ctx, analytics.EventAnalysis, resume, jobDescription, opts)
}

func (s *Service) compare(ctx context.Context, eventType analytics.EventType, candidate, reference string, opts Options) (overlap.Result, error) {
	start := time.Now()
	scorer, err := s.scorerFor(opts)
	if err != nil {
		s.countRequest("invalid")
		return overlap.Result{}, err
	}
	compute := func() (overlap.Result, error) {
		return scorer.Compare(candidate, reference), nil
	}

	var (
		result overlap.Result
		hit    bool
	)
	if s.cache != nil {
		result, hit, err = s.cache.GetOrCompute(ctx, scorer.Tokenizer().Fingerprint(), candidate, reference, compute)
		if err != nil {
			s.countRequest("error")
			return overlap.Result{}, err
		}
	} else {
		result, _ = compute()
	}
	elapsed := time.Since(start)

	s.observe(result, hit, elapsed)
	log := logger.FromContext(ctx)
	if result.Degenerate {
		log.Info("reference has no keywords, scoring zero", "component", "scoring",
			"candidate_keywords", result.CandidateKeywords)
	}
	log.Debug("overlap scored", "component", "scoring",
		"score", result.Score,
		"matched", len(result.Matched),
		"reference_keywords", result.ReferenceKeywords,
		"cache_hit", hit,
		"elapsed", elapsed,
	)

	if s.tracker != nil {
		missing := result.Missing
		if len(missing) > maxEventMissing {
			missing = missing[:maxEventMissing]
		}
		cfg := scorer.Tokenizer().Config()
		s.tracker.Track(analytics.ScoreEvent{
			Type:              eventType,
			Score:             result.Score,
			Degenerate:        result.Degenerate,
			CacheHit:          hit,
			CandidateKeywords: result.CandidateKeywords,
			ReferenceKeywords: result.ReferenceKeywords,
			Missing:           missing,
			Language:          scorer.Tokenizer().Language(),
			Stemming:          cfg.Stemming,
			LatencyMs:         elapsed.Milliseconds(),
			Timestamp:         time.Now().UTC(),
			RequestID:         logger.RequestID(ctx),
		})
	}
	return result, nil
}

func (s *Service) countRequest(result string) {
	if s.metrics != nil {
		s.metrics.ScoreRequestsTotal.WithLabelValues(result).Inc()
	}
}

func (s *Service) observe(result overlap.Result, hit bool, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	if result.Degenerate {
		s.metrics.ScoreRequestsTotal.WithLabelValues("degenerate").Inc()
	} else {
		s.metrics.ScoreRequestsTotal.WithLabelValues("ok").Inc()
	}
	s.metrics.OverlapScores.Observe(result.Score)
	s.metrics.KeywordSetSize.WithLabelValues("candidate").Observe(float64(result.CandidateKeywords))
	s.metrics.KeywordSetSize.WithLabelValues("reference").Observe(float64(result.ReferenceKeywords))
	s.metrics.ScoringDuration.Observe(elapsed.Seconds())
	if s.cache == nil {
		return
	}
	if hit {
		s.metrics.CacheHitsTotal.Inc()
	} else {
		s.metrics.CacheMissesTotal.Inc()
	}
}
