// Package tokenizer turns free text into keyword tokens. It case-folds the
// input, splits it on Unicode word boundaries, detaches possessive and
// contraction clitics ("company's" keeps "company"), drops tokens that are not
// purely alphabetic or are shorter than the configured minimum, removes
// stopwords, and optionally applies a snowball stemmer.
package tokenizer

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kljensen/snowball"
	"github.com/rivo/uniseg"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Tokenizer is an immutable, validated normaliser. It is safe for concurrent
// use.
type Tokenizer struct {
	cfg       Config
	ruleset   *Ruleset
	tag       language.Tag
	stopwords map[string]struct{}
	stemmer   string
}

// New validates cfg and builds a Tokenizer from it.
func New(cfg Config) (*Tokenizer, error) {
	rs, err := cfg.resolve()
	if err != nil {
		return nil, err
	}
	t := &Tokenizer{
		cfg:     cfg,
		ruleset: rs,
		tag:     rs.Tag,
	}
	if cfg.Stemming {
		t.stemmer = rs.Stemmer
	}

	base := rs.Stopwords
	if cfg.Stopwords != nil {
		base = cfg.Stopwords
	}
	t.stopwords = make(map[string]struct{}, len(base)+len(cfg.ExtraStopwords))
	for _, list := range [][]string{base, cfg.ExtraStopwords} {
		for _, w := range list {
			w = strings.TrimSpace(t.fold(w))
			if w != "" {
				t.stopwords[w] = struct{}{}
			}
		}
	}
	return t, nil
}

// Normalize is a one-shot helper for callers that do not keep a Tokenizer.
func Normalize(text string, cfg Config) ([]string, error) {
	t, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return t.Normalize(text), nil
}

// Config returns the configuration the tokenizer was built from.
func (t *Tokenizer) Config() Config {
	return t.cfg
}

// Language returns the canonical name of the active ruleset.
func (t *Tokenizer) Language() string {
	return t.ruleset.Name
}

// Normalize returns the keyword tokens of text in document order. Duplicates
// are kept. It never fails: empty or malformed input yields an empty slice.
func (t *Tokenizer) Normalize(text string) []string {
	tokens := make([]string, 0, len(text)/8)
	if text == "" {
		return tokens
	}
	rest := t.fold(text)
	state := -1
	var word string
	for len(rest) > 0 {
		word, rest, state = uniseg.FirstWordInString(rest, state)
		word = stripClitic(word)
		if !isAlphabetic(word) {
			continue
		}
		if utf8.RuneCountInString(word) < t.cfg.MinLength {
			continue
		}
		if _, isStop := t.stopwords[word]; isStop {
			continue
		}
		if t.stemmer != "" {
			word = t.stem(word)
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// Fingerprint identifies the effective normalisation rules. Two tokenizers
// with equal fingerprints produce identical output for any input.
func (t *Tokenizer) Fingerprint() string {
	words := make([]string, 0, len(t.stopwords))
	for w := range t.stopwords {
		words = append(words, w)
	}
	sort.Strings(words)
	sum := sha256.Sum256([]byte(strings.Join(words, "\x00")))
	return fmt.Sprintf("%s|min=%d|fold=%s|stem=%s|sw=%x",
		t.ruleset.Name, t.cfg.MinLength, t.cfg.CaseFolding, t.stemmer, sum[:8])
}

func (t *Tokenizer) fold(s string) string {
	// cases.Caser keeps internal state, so one is created per call.
	if t.cfg.CaseFolding == FoldFull {
		return cases.Fold().String(s)
	}
	return cases.Lower(t.tag).String(s)
}

func (t *Tokenizer) stem(word string) string {
	stemmed, err := snowball.Stem(word, t.stemmer, true)
	if err != nil || stemmed == "" {
		return word
	}
	return stemmed
}

// clitics are split off the host word the way Treebank tokenization does:
// "don't" -> "do", "client’s" -> "client". Both apostrophe forms count.
var clitics = []string{
	"n't", "'s", "'ll", "'re", "'ve", "'d", "'m",
	"n’t", "’s", "’ll", "’re", "’ve", "’d", "’m",
}

// stripClitic returns word without a trailing clitic. Words with any other
// apostrophe are left alone and fail the alphabetic check.
func stripClitic(word string) string {
	if !strings.ContainsAny(word, "'’") {
		return word
	}
	for _, c := range clitics {
		if host, ok := strings.CutSuffix(word, c); ok {
			return host
		}
	}
	return word
}

func isAlphabetic(word string) bool {
	if word == "" {
		return false
	}
	for _, r := range word {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
