// Package overlap scores how well a candidate document covers the keywords
// of a reference document.
package overlap

import (
	"math"

	"github.com/lou463/Underscore-Resume-BETA01/internal/matcher/keyset"
	"github.com/lou463/Underscore-Resume-BETA01/internal/matcher/tokenizer"
)

const (
	MinScore = 0.0
	MaxScore = 100.0
)

// Result is the detailed outcome of comparing a candidate with a reference.
type Result struct {
	Score             float64  `json:"score"`
	Matched           []string `json:"matched"`
	Missing           []string `json:"missing"`
	CandidateKeywords int      `json:"candidate_keywords"`
	ReferenceKeywords int      `json:"reference_keywords"`
	// Degenerate is set when the reference has no keywords; Score is then 0.
	Degenerate bool `json:"degenerate"`
}

// Scorer normalises both documents with one tokenizer, so the candidate and
// the reference are always processed under identical rules.
type Scorer struct {
	tok *tokenizer.Tokenizer
}

// New validates cfg and returns a Scorer.
func New(cfg tokenizer.Config) (*Scorer, error) {
	tok, err := tokenizer.New(cfg)
	if err != nil {
		return nil, err
	}
	return &Scorer{tok: tok}, nil
}

// NewWithTokenizer wraps an existing tokenizer.
func NewWithTokenizer(tok *tokenizer.Tokenizer) *Scorer {
	return &Scorer{tok: tok}
}

// ScoreOverlap is a one-shot helper for callers that do not keep a Scorer.
func ScoreOverlap(candidate, reference string, cfg tokenizer.Config) (float64, error) {
	s, err := New(cfg)
	if err != nil {
		return 0, err
	}
	return s.Score(candidate, reference), nil
}

func (s *Scorer) Tokenizer() *tokenizer.Tokenizer {
	return s.tok
}

// Score returns the percentage of reference keywords found in the candidate,
// in [0, 100]. An empty reference keyword set scores 0.
func (s *Scorer) Score(candidate, reference string) float64 {
	return SetScore(keyset.Build(s.tok, candidate), keyset.Build(s.tok, reference))
}

// Compare scores candidate against reference and reports which reference
// keywords were matched and which are missing.
func (s *Scorer) Compare(candidate, reference string) Result {
	return CompareSets(keyset.Build(s.tok, candidate), keyset.Build(s.tok, reference))
}

// SetScore scores two pre-built keyword sets.
func SetScore(candidate, reference keyset.Set) float64 {
	if reference.Len() == 0 {
		return 0
	}
	matched := reference.Intersect(candidate).Len()
	return clamp(float64(matched) / float64(reference.Len()) * 100)
}

// CompareSets is the set-level form of Scorer.Compare.
func CompareSets(candidate, reference keyset.Set) Result {
	matched := reference.Intersect(candidate)
	return Result{
		Score:             SetScore(candidate, reference),
		Matched:           matched.Sorted(),
		Missing:           reference.Difference(candidate).Sorted(),
		CandidateKeywords: candidate.Len(),
		ReferenceKeywords: reference.Len(),
		Degenerate:        reference.Len() == 0,
	}
}

func clamp(score float64) float64 {
	if math.IsNaN(score) {
		return MinScore
	}
	return math.Max(MinScore, math.Min(MaxScore, score))
}
