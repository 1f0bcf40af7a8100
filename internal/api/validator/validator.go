// Package validator checks API requests and reports per-field errors.
package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lou463/Underscore-Resume-BETA01/internal/api"
	"github.com/lou463/Underscore-Resume-BETA01/internal/scoring"
)

const (
	maxTextLength      = 1 << 20
	maxExtraStopwords  = 500
	maxStopwordLength  = 64
	maxMinLengthOption = 64
)

// ValidationError holds per-field validation failure messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}

func ValidateKeywordsRequest(req *api.KeywordsRequest) error {
	errs := make(map[string]string)
	checkLength(errs, "text", req.Text)
	validateOptions(errs, req.Options)
	return result(errs)
}

// ValidateScoreRequest allows an empty reference; it scores zero.
func ValidateScoreRequest(req *api.ScoreRequest) error {
	errs := make(map[string]string)
	checkLength(errs, "candidate", req.Candidate)
	checkLength(errs, "reference", req.Reference)
	validateOptions(errs, req.Options)
	return result(errs)
}

func ValidateAnalysisForm(form *api.AnalysisForm) error {
	errs := make(map[string]string)
	switch {
	case len(form.ResumeData) == 0 && strings.TrimSpace(form.ResumeKey) == "":
		errs["resume"] = "please upload a resume first"
	case len(form.ResumeData) > 0 && form.ResumeKey != "":
		errs["resume"] = "send either a resume file or resume_key, not both"
	}
	if strings.TrimSpace(form.JobDescription) == "" {
		errs["job_description"] = "please enter a job description"
	} else {
		checkLength(errs, "job_description", form.JobDescription)
	}
	if len(form.TailoredData) > 0 && strings.TrimSpace(form.TailoredText) != "" {
		errs["tailored"] = "send either a tailored file or tailored_text, not both"
	}
	checkLength(errs, "tailored_text", form.TailoredText)
	validateOptions(errs, form.Options)
	return result(errs)
}

func checkLength(errs map[string]string, field, value string) {
	if len(value) > maxTextLength {
		errs[field] = fmt.Sprintf("%s must be at most %d bytes", field, maxTextLength)
	}
}

func validateOptions(errs map[string]string, opts scoring.Options) {
	if opts.MinLength != nil && (*opts.MinLength < 1 || *opts.MinLength > maxMinLengthOption) {
		errs["options.min_length"] = fmt.Sprintf("min_length must be between 1 and %d", maxMinLengthOption)
	}
	if len(opts.ExtraStopwords) > maxExtraStopwords {
		errs["options.extra_stopwords"] = fmt.Sprintf("at most %d extra stopwords are allowed", maxExtraStopwords)
		return
	}
	for _, w := range opts.ExtraStopwords {
		if len(w) > maxStopwordLength {
			errs["options.extra_stopwords"] = fmt.Sprintf("stopwords must be at most %d bytes", maxStopwordLength)
			return
		}
	}
}

func result(errs map[string]string) error {
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
