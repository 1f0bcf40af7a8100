package overlap

import (
	"fmt"
	"strings"
	"testing"

	"github.com/lou463/Underscore-Resume-BETA01/internal/matcher/keyset"
	"github.com/lou463/Underscore-Resume-BETA01/internal/matcher/tokenizer"
	apperrors "github.com/lou463/Underscore-Resume-BETA01/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	growthJD     = "We need strong growth and funnel optimization skills."
	growthResume = "Led growth initiatives and funnel optimization programs."
)

func newScorer(t *testing.T) *Scorer {
	t.Helper()
	s, err := New(tokenizer.DefaultConfig())
	require.NoError(t, err)
	return s
}

func TestGrowthScenario(t *testing.T) {
	s := newScorer(t)

	res := s.Compare(growthResume, growthJD)
	assert.Equal(t, 50.0, res.Score)
	assert.Equal(t, []string{"funnel", "growth", "optimization"}, res.Matched)
	assert.Equal(t, []string{"need", "skills", "strong"}, res.Missing)
	assert.Equal(t, 6, res.ReferenceKeywords)
	assert.Equal(t, 6, res.CandidateKeywords)
	assert.False(t, res.Degenerate)

	assert.Equal(t, 50.0, s.Score(growthResume, growthJD))
}

func TestPossessivesMatchTheirHost(t *testing.T) {
	s := newScorer(t)
	assert.Equal(t, 100.0, s.Score("Scaled the company's Salesforce pipeline", "company salesforce pipeline"))
	assert.Equal(t, 100.0, s.Score("Owned the client’s onboarding", "client onboarding"))
}

func TestEmptyReferenceIsDefinedZero(t *testing.T) {
	s := newScorer(t)
	for _, reference := range []string{"", "   \n\t", "the and of", "2024 $100k !!", "a an"} {
		for _, candidate := range []string{"", growthResume, "the and of"} {
			assert.Equal(t, 0.0, s.Score(candidate, reference), "candidate %q reference %q", candidate, reference)
		}
		res := s.Compare(growthResume, reference)
		assert.True(t, res.Degenerate)
		assert.Empty(t, res.Matched)
		assert.Empty(t, res.Missing)
	}
}

func TestEmptyCandidateScoresZero(t *testing.T) {
	s := newScorer(t)
	res := s.Compare("", growthJD)
	assert.Equal(t, 0.0, res.Score)
	assert.False(t, res.Degenerate)
	assert.Len(t, res.Missing, 6)
}

func TestSelfMatchIsFull(t *testing.T) {
	s := newScorer(t)
	for _, text := range []string{growthJD, growthResume, "sql", "Python, SQL & Tableau; stakeholder management"} {
		assert.Equal(t, 100.0, s.Score(text, text), "text %q", text)
	}
}

func TestCaseInsensitive(t *testing.T) {
	s := newScorer(t)
	assert.Equal(t, 100.0, s.Score(strings.ToUpper(growthJD), growthJD))
	assert.Equal(t, s.Score(growthResume, growthJD), s.Score(strings.ToUpper(growthResume), strings.ToLower(growthJD)))
}

func TestBounds(t *testing.T) {
	s := newScorer(t)
	docs := []string{"", growthJD, growthResume, "the", "growth", strings.Repeat("growth funnel ", 100), "completely unrelated words here"}
	for _, c := range docs {
		for _, r := range docs {
			score := s.Score(c, r)
			assert.GreaterOrEqual(t, score, MinScore)
			assert.LessOrEqual(t, score, MaxScore)
		}
	}
}

func TestMonotonicity(t *testing.T) {
	s := newScorer(t)
	base := s.Score(growthResume, growthJD)

	withShared := s.Score(growthResume, growthJD+" initiatives")
	assert.GreaterOrEqual(t, withShared, base)

	withAbsent := s.Score(growthResume, growthJD+" kubernetes")
	assert.LessOrEqual(t, withAbsent, base)
}

func TestSetScoreDirect(t *testing.T) {
	ref := keyset.FromTokens([]string{"a", "b", "c", "d"})
	assert.Equal(t, 75.0, SetScore(keyset.FromTokens([]string{"a", "b", "c", "x", "y"}), ref))
	assert.Equal(t, 0.0, SetScore(keyset.FromTokens([]string{"a"}), keyset.Set{}))
	assert.Equal(t, 0.0, SetScore(nil, nil))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 100.0, clamp(140))
	assert.Equal(t, 0.0, clamp(-3))
	assert.Equal(t, 42.5, clamp(42.5))
}

func TestScoreOverlap(t *testing.T) {
	score, err := ScoreOverlap(growthResume, growthJD, tokenizer.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, 50.0, score)

	cfg := tokenizer.DefaultConfig()
	cfg.Language = "elvish"
	_, err = ScoreOverlap(growthResume, growthJD, cfg)
	assert.ErrorIs(t, err, apperrors.ErrInvalidConfiguration)
}

func TestStemmingImprovesRecall(t *testing.T) {
	cfg := tokenizer.DefaultConfig()
	cfg.Stemming = true
	stemmed, err := New(cfg)
	require.NoError(t, err)

	plain := newScorer(t)
	candidate := "Optimized funnels and managed stakeholders"
	reference := "optimize funnel, manage stakeholder"
	assert.Equal(t, 0.0, plain.Score(candidate, reference))
	assert.Equal(t, 100.0, stemmed.Score(candidate, reference))
}

func ExampleScorer_Score() {
	s, _ := New(tokenizer.DefaultConfig())
	fmt.Println(s.Score(
		"Led growth initiatives and funnel optimization programs.",
		"We need strong growth and funnel optimization skills.",
	))
	// Output: 50
}
