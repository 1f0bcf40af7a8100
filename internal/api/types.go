// Package api holds the request and response types of the scorer HTTP API.
package api

import (
	"github.com/lou463/Underscore-Resume-BETA01/internal/analysis"
	"github.com/lou463/Underscore-Resume-BETA01/internal/scoring"
	"github.com/lou463/Underscore-Resume-BETA01/internal/scoring/cache"
)

type KeywordsRequest struct {
	Text    string          `json:"text"`
	Options scoring.Options `json:"options"`
}

type KeywordsResponse struct {
	Keywords []string `json:"keywords"`
	Count    int      `json:"count"`
}

type ScoreRequest struct {
	Candidate string          `json:"candidate"`
	Reference string          `json:"reference"`
	Options   scoring.Options `json:"options"`
}

// AxesPayload is the optional "axes" form field of an analysis upload,
// keyed by axis name.
type AxesPayload struct {
	Original map[string]float64 `json:"original,omitempty"`
	Tailored map[string]float64 `json:"tailored,omitempty"`
}

// AnalysisForm is the parsed multipart form of POST /api/v1/analyses.
type AnalysisForm struct {
	ResumeName     string
	ResumeData     []byte
	ResumeKey      string
	JobDescription string
	TailoredName   string
	TailoredData   []byte
	TailoredText   string
	Axes           AxesPayload
	Options        scoring.Options
}

type AnalysisResponse struct {
	Analysis *analysis.Analysis `json:"analysis"`
	Stored   bool               `json:"stored"`
}

type AnalysisList struct {
	Analyses []analysis.Analysis `json:"analyses"`
	Count    int                 `json:"count"`
}

type CacheStatsResponse struct {
	Enabled bool        `json:"enabled"`
	Stats   cache.Stats `json:"stats"`
}
