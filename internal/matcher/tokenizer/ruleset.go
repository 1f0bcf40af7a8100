package tokenizer

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/kljensen/snowball"
	apperrors "github.com/lou463/Underscore-Resume-BETA01/pkg/errors"
	"golang.org/x/text/language"
)

// Ruleset bundles the language-specific resources the tokenizer needs:
// the tag driving case folding, the default stopword list and, optionally,
// the snowball stemmer to apply when stemming is enabled.
type Ruleset struct {
	Name      string
	Aliases   []string
	Tag       language.Tag
	Stopwords []string
	// Stemmer is a snowball language name ("english", "spanish", ...).
	// Empty means the ruleset does not support stemming.
	Stemmer string
}

var (
	builtinsOnce sync.Once
	registryMu   sync.RWMutex
	registry     = map[string]*Ruleset{}
)

func registerBuiltins() {
	english := &Ruleset{
		Name:      "english",
		Aliases:   []string{"en"},
		Tag:       language.English,
		Stopwords: englishStopwords,
		Stemmer:   "english",
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	addLocked(english)
}

// Register makes a ruleset available to Config.Language under its name and
// aliases. Rulesets are meant to be registered during process start; a
// registered ruleset must not be mutated afterwards.
func Register(rs Ruleset) error {
	builtinsOnce.Do(registerBuiltins)

	name := strings.ToLower(strings.TrimSpace(rs.Name))
	if name == "" {
		return fmt.Errorf("%w: ruleset name is required", apperrors.ErrInvalidConfiguration)
	}
	if rs.Stemmer != "" {
		if _, err := snowball.Stem("testing", rs.Stemmer, true); err != nil {
			return fmt.Errorf("%w: ruleset %s: stemmer %q: %v",
				apperrors.ErrInvalidConfiguration, name, rs.Stemmer, err)
		}
	}

	cp := rs
	cp.Name = name
	cp.Stopwords = append([]string(nil), rs.Stopwords...)
	cp.Aliases = append([]string(nil), rs.Aliases...)

	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[name]; exists {
		return fmt.Errorf("%w: ruleset %s already registered", apperrors.ErrInvalidConfiguration, name)
	}
	addLocked(&cp)
	return nil
}

func addLocked(rs *Ruleset) {
	registry[rs.Name] = rs
	for _, alias := range rs.Aliases {
		registry[strings.ToLower(alias)] = rs
	}
}

// Lookup returns the ruleset registered under name or alias.
func Lookup(name string) (*Ruleset, bool) {
	builtinsOnce.Do(registerBuiltins)
	registryMu.RLock()
	defer registryMu.RUnlock()
	rs, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	return rs, ok
}

// Languages lists the canonical names of all registered rulesets.
func Languages() []string {
	builtinsOnce.Do(registerBuiltins)
	registryMu.RLock()
	defer registryMu.RUnlock()
	seen := make(map[string]struct{}, len(registry))
	names := make([]string, 0, len(registry))
	for _, rs := range registry {
		if _, ok := seen[rs.Name]; ok {
			continue
		}
		seen[rs.Name] = struct{}{}
		names = append(names, rs.Name)
	}
	sort.Strings(names)
	return names
}
