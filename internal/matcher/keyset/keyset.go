// Package keyset builds deduplicated keyword sets from documents.
package keyset

import (
	"sort"

	"github.com/lou463/Underscore-Resume-BETA01/internal/matcher/tokenizer"
)

// Set is a set of normalised keywords. The zero value is an empty set.
type Set map[string]struct{}

// Build normalises text with tok and collapses the tokens into a Set.
func Build(tok *tokenizer.Tokenizer, text string) Set {
	return FromTokens(tok.Normalize(text))
}

// BuildWithConfig validates cfg and builds the keyword set of text.
func BuildWithConfig(text string, cfg tokenizer.Config) (Set, error) {
	tok, err := tokenizer.New(cfg)
	if err != nil {
		return nil, err
	}
	return Build(tok, text), nil
}

// FromTokens collapses tokens into a Set by exact string equality.
func FromTokens(tokens []string) Set {
	s := make(Set, len(tokens))
	for _, t := range tokens {
		s[t] = struct{}{}
	}
	return s
}

func (s Set) Len() int {
	return len(s)
}

func (s Set) Contains(keyword string) bool {
	_, ok := s[keyword]
	return ok
}

// Sorted returns the members in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Intersect returns the members present in both s and other.
func (s Set) Intersect(other Set) Set {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	out := make(Set, len(small))
	for k := range small {
		if _, ok := large[k]; ok {
			out[k] = struct{}{}
		}
	}
	return out
}

// Difference returns the members of s absent from other.
func (s Set) Difference(other Set) Set {
	out := make(Set)
	for k := range s {
		if _, ok := other[k]; !ok {
			out[k] = struct{}{}
		}
	}
	return out
}

// Equal reports whether both sets hold exactly the same members.
func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	for k := range s {
		if _, ok := other[k]; !ok {
			return false
		}
	}
	return true
}
