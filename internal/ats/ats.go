// Package ats assembles per-document ATS profiles: the keyword match score
// from the overlap scorer plus six caller supplied axes, averaged and
// compared between an original and a tailored resume.
package ats

import (
	"fmt"
	"math"
	"strings"

	"github.com/lou463/Underscore-Resume-BETA01/pkg/config"
	apperrors "github.com/lou463/Underscore-Resume-BETA01/pkg/errors"
)

type Axis string

const (
	AxisKeywordMatch       Axis = "Keyword Match"
	AxisSkillsHit          Axis = "Skills Hit"
	AxisExperienceDepth    Axis = "Experience Depth"
	AxisQuantitativeImpact Axis = "Quantitative Impact"
	AxisTitleFit           Axis = "Title Fit"
	AxisEducationMatch     Axis = "Education Match"
	AxisParseability       Axis = "Parseability"
)

// DefaultIndustryAverage is the reference line drawn for every axis.
const DefaultIndustryAverage = 70.0

// Axes lists every axis in display order.
var Axes = []Axis{
	AxisKeywordMatch,
	AxisSkillsHit,
	AxisExperienceDepth,
	AxisQuantitativeImpact,
	AxisTitleFit,
	AxisEducationMatch,
	AxisParseability,
}

// SuppliedAxes are the axes that do not come from the overlap scorer.
var SuppliedAxes = Axes[1:]

// Key is the snake_case form used in config files and JSON requests.
func (a Axis) Key() string {
	return strings.ReplaceAll(strings.ToLower(string(a)), " ", "_")
}

// ParseAxis accepts either the display name or the key, case-insensitively.
func ParseAxis(s string) (Axis, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	for _, a := range Axes {
		if norm == strings.ToLower(string(a)) || norm == a.Key() {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: unknown axis %q", apperrors.ErrInvalidInput, s)
}

// Profile holds one document's axis scores.
type Profile struct {
	Scores  map[Axis]float64 `json:"scores"`
	Average float64          `json:"average"`
}

// Score returns the value of one axis.
func (p Profile) Score(a Axis) float64 {
	return p.Scores[a]
}

// BuildProfile combines the keyword score with the six supplied axes. Every
// supplied axis must be present and within [0,100].
func BuildProfile(keywordScore float64, supplied map[Axis]float64) (Profile, error) {
	if err := checkRange(AxisKeywordMatch, keywordScore); err != nil {
		return Profile{}, err
	}
	if _, ok := supplied[AxisKeywordMatch]; ok {
		return Profile{}, fmt.Errorf("%w: %s is computed and cannot be supplied", apperrors.ErrInvalidInput, AxisKeywordMatch)
	}
	p := Profile{Scores: make(map[Axis]float64, len(Axes))}
	p.Scores[AxisKeywordMatch] = keywordScore
	var missing []string
	for _, a := range SuppliedAxes {
		v, ok := supplied[a]
		if !ok {
			missing = append(missing, string(a))
			continue
		}
		if err := checkRange(a, v); err != nil {
			return Profile{}, err
		}
		p.Scores[a] = v
	}
	if len(missing) > 0 {
		return Profile{}, fmt.Errorf("%w: missing axes: %s", apperrors.ErrInvalidInput, strings.Join(missing, ", "))
	}
	for k := range supplied {
		if _, err := ParseAxis(string(k)); err != nil {
			return Profile{}, err
		}
	}

	var sum float64
	for _, a := range Axes {
		sum += p.Scores[a]
	}
	p.Average = sum / float64(len(Axes))
	return p, nil
}

func checkRange(a Axis, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 100 {
		return fmt.Errorf("%w: %s must be within [0,100], got %v", apperrors.ErrInvalidInput, a, v)
	}
	return nil
}

// Comparison is the original resume against its tailored version.
type Comparison struct {
	Original        Profile `json:"original"`
	Tailored        Profile `json:"tailored"`
	IndustryAverage float64 `json:"industry_average"`
	Improvement     float64 `json:"improvement"`
}

// Compare builds a Comparison. Improvement is the difference of averages and
// may be negative.
func Compare(original, tailored Profile, industryAverage float64) Comparison {
	return Comparison{
		Original:        original,
		Tailored:        tailored,
		IndustryAverage: industryAverage,
		Improvement:     tailored.Average - original.Average,
	}
}

// StaticAxes are fixed values for the supplied axes, used when the caller
// provides none.
type StaticAxes struct {
	Original map[Axis]float64
	Tailored map[Axis]float64
}

// DefaultStaticAxes returns the built-in placeholder values.
func DefaultStaticAxes() StaticAxes {
	return StaticAxes{
		Original: map[Axis]float64{
			AxisSkillsHit:          62,
			AxisExperienceDepth:    68,
			AxisQuantitativeImpact: 45,
			AxisTitleFit:           58,
			AxisEducationMatch:     75,
			AxisParseability:       72,
		},
		Tailored: map[Axis]float64{
			AxisSkillsHit:          92,
			AxisExperienceDepth:    88,
			AxisQuantitativeImpact: 95,
			AxisTitleFit:           90,
			AxisEducationMatch:     85,
			AxisParseability:       93,
		},
	}
}

// StaticAxesFromConfig applies the "original" and "tailored" overrides from
// cfg.Placeholders on top of the defaults.
func StaticAxesFromConfig(cfg config.ATSConfig) (StaticAxes, error) {
	s := DefaultStaticAxes()
	for side, values := range cfg.Placeholders {
		var target map[Axis]float64
		switch strings.ToLower(side) {
		case "original":
			target = s.Original
		case "tailored":
			target = s.Tailored
		default:
			return StaticAxes{}, fmt.Errorf("%w: ats.placeholders.%s: expected original or tailored",
				apperrors.ErrInvalidConfiguration, side)
		}
		for name, v := range values {
			a, err := ParseAxis(name)
			if err != nil || a == AxisKeywordMatch {
				return StaticAxes{}, fmt.Errorf("%w: ats.placeholders.%s: unknown axis %q",
					apperrors.ErrInvalidConfiguration, side, name)
			}
			if checkRange(a, v) != nil {
				return StaticAxes{}, fmt.Errorf("%w: ats.placeholders.%s.%s out of range: %v",
					apperrors.ErrInvalidConfiguration, side, name, v)
			}
			target[a] = v
		}
	}
	return s, nil
}

// ParseSupplied converts a key/value map from a request into axis values.
func ParseSupplied(raw map[string]float64) (map[Axis]float64, error) {
	out := make(map[Axis]float64, len(raw))
	for k, v := range raw {
		a, err := ParseAxis(k)
		if err != nil {
			return nil, err
		}
		out[a] = v
	}
	return out, nil
}
