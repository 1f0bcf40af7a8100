package tokenizer

import (
	"fmt"

	apperrors "github.com/lou463/Underscore-Resume-BETA01/pkg/errors"
)

// Case folding policies.
const (
	FoldLower = "lower"
	FoldFull  = "fold"
)

const (
	DefaultMinLength = 3
	DefaultLanguage  = "english"
)

// Config controls keyword normalisation. The zero value is not valid; start
// from DefaultConfig.
type Config struct {
	MinLength int    `yaml:"minLength" json:"min_length"`
	Language  string `yaml:"language" json:"language"`
	// Stopwords replaces the language's default list when non-nil.
	Stopwords      []string `yaml:"stopwords" json:"stopwords,omitempty"`
	ExtraStopwords []string `yaml:"extraStopwords" json:"extra_stopwords,omitempty"`
	CaseFolding    string   `yaml:"caseFolding" json:"case_folding"`
	Stemming       bool     `yaml:"stemming" json:"stemming"`
}

// DefaultConfig returns min length 3, English stopwords, lowercase folding
// and no stemming.
func DefaultConfig() Config {
	return Config{
		MinLength:   DefaultMinLength,
		Language:    DefaultLanguage,
		CaseFolding: FoldLower,
	}
}

// Validate reports the first invalid field. All errors wrap
// ErrInvalidConfiguration.
func (c Config) Validate() error {
	_, err := c.resolve()
	return err
}

func (c Config) resolve() (*Ruleset, error) {
	if c.MinLength < 1 {
		return nil, fmt.Errorf("%w: min_length must be at least 1, got %d",
			apperrors.ErrInvalidConfiguration, c.MinLength)
	}
	rs, ok := Lookup(c.Language)
	if !ok {
		return nil, fmt.Errorf("%w: no tokenization rules for language %q (known: %v)",
			apperrors.ErrInvalidConfiguration, c.Language, Languages())
	}
	switch c.CaseFolding {
	case FoldLower, FoldFull:
	default:
		return nil, fmt.Errorf("%w: case_folding must be %q or %q, got %q",
			apperrors.ErrInvalidConfiguration, FoldLower, FoldFull, c.CaseFolding)
	}
	if c.Stemming && rs.Stemmer == "" {
		return nil, fmt.Errorf("%w: language %s has no stemmer",
			apperrors.ErrInvalidConfiguration, rs.Name)
	}
	return rs, nil
}
