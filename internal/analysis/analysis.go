// Package analysis scores a resume, and optionally its tailored version,
// against a job description and assembles the ATS comparison.
package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/lou463/Underscore-Resume-BETA01/internal/ats"
	"github.com/lou463/Underscore-Resume-BETA01/internal/matcher/overlap"
	"github.com/lou463/Underscore-Resume-BETA01/internal/scoring"
	apperrors "github.com/lou463/Underscore-Resume-BETA01/pkg/errors"
)

// excerptRunes is how much of the job description an Analysis keeps.
const excerptRunes = 280

type Analysis struct {
	ID                    string          `json:"id"`
	CreatedAt             time.Time       `json:"created_at"`
	ResumeName            string          `json:"resume_name"`
	JobDescriptionExcerpt string          `json:"job_description_excerpt"`
	Original              overlap.Result  `json:"original"`
	Tailored              *overlap.Result `json:"tailored,omitempty"`
	Comparison            ats.Comparison  `json:"comparison"`
}

// Axes carries caller supplied values for the non-keyword axes. A nil map
// falls back to the configured placeholders.
type Axes struct {
	Original map[ats.Axis]float64
	Tailored map[ats.Axis]float64
}

type Request struct {
	ResumeName     string
	ResumeText     string
	JobDescription string
	// TailoredText is optional. Without it the tailored profile reuses the
	// original resume's keyword score.
	TailoredText string
	Axes         Axes
	Options      scoring.Options
}

// Scorer is implemented by scoring.Service.
type Scorer interface {
	CompareResume(ctx context.Context, resume, jobDescription string, opts scoring.Options) (overlap.Result, error)
}

type Analyzer struct {
	scorer          Scorer
	static          ats.StaticAxes
	industryAverage float64
	now             func() time.Time
}

func NewAnalyzer(scorer Scorer, static ats.StaticAxes, industryAverage float64) *Analyzer {
	return &Analyzer{
		scorer:          scorer,
		static:          static,
		industryAverage: industryAverage,
		now:             time.Now,
	}
}

// Analyze scores the request. It fails with ErrInvalidInput when the job
// description is blank or the supplied axes are incomplete.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*Analysis, error) {
	if strings.TrimSpace(req.JobDescription) == "" {
		return nil, fmt.Errorf("%w: job description is required", apperrors.ErrInvalidInput)
	}

	original, err := a.scorer.CompareResume(ctx, req.ResumeText, req.JobDescription, req.Options)
	if err != nil {
		return nil, err
	}
	var tailored *overlap.Result
	tailoredScore := original.Score
	if strings.TrimSpace(req.TailoredText) != "" {
		res, err := a.scorer.CompareResume(ctx, req.TailoredText, req.JobDescription, req.Options)
		if err != nil {
			return nil, err
		}
		tailored = &res
		tailoredScore = res.Score
	}

	origAxes := req.Axes.Original
	if origAxes == nil {
		origAxes = a.static.Original
	}
	tailAxes := req.Axes.Tailored
	if tailAxes == nil {
		tailAxes = a.static.Tailored
	}
	origProfile, err := ats.BuildProfile(original.Score, origAxes)
	if err != nil {
		return nil, fmt.Errorf("original resume: %w", err)
	}
	tailProfile, err := ats.BuildProfile(tailoredScore, tailAxes)
	if err != nil {
		return nil, fmt.Errorf("tailored resume: %w", err)
	}

	return &Analysis{
		ID:                    uuid.NewString(),
		CreatedAt:             a.now().UTC(),
		ResumeName:            req.ResumeName,
		JobDescriptionExcerpt: Excerpt(req.JobDescription, excerptRunes),
		Original:              original,
		Tailored:              tailored,
		Comparison:            ats.Compare(origProfile, tailProfile, a.industryAverage),
	}, nil
}

// Excerpt collapses whitespace and truncates s to at most n runes.
func Excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:n])) + "…"
}
