package tokenizer

import (
	"strings"
	"sync"
	"testing"

	apperrors "github.com/lou463/Underscore-Resume-BETA01/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustNew(t *testing.T, cfg Config) *Tokenizer {
	t.Helper()
	tok, err := New(cfg)
	require.NoError(t, err)
	return tok
}

func TestNormalize(t *testing.T) {
	tok := mustNew(t, DefaultConfig())

	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "punctuation adjacent words separate",
			text: "We need strong growth, and funnel optimization skills.",
			want: []string{"need", "strong", "growth", "funnel", "optimization", "skills"},
		},
		{
			name: "lowercases",
			text: "Led GROWTH Initiatives",
			want: []string{"led", "growth", "initiatives"},
		},
		{
			name: "drops digits and mixed tokens",
			text: "2024 python3 $112k 11x grew revenue",
			want: []string{"grew", "revenue"},
		},
		{
			name: "drops short tokens",
			text: "go ml ai sql",
			want: []string{"sql"},
		},
		{
			name: "contractions keep their stopword or short host",
			text: "don't won't shouldn't",
			want: []string{},
		},
		{
			name: "possessive straight apostrophe",
			text: "the company's growth",
			want: []string{"company", "growth"},
		},
		{
			name: "possessive curly apostrophe",
			text: "Client’s pipeline and Python's ecosystem",
			want: []string{"client", "pipeline", "python", "ecosystem"},
		},
		{
			name: "clitics after content words",
			text: "Marketing'll scale; analysts're hiring; we've shipped; she'd led",
			want: []string{"marketing", "scale", "analysts", "hiring", "shipped", "led"},
		},
		{
			name: "inner apostrophes are not clitics",
			text: "O'Brien rock'n'roll",
			want: []string{},
		},
		{
			name: "uppercase clitic after folding",
			text: "ACME'S REVENUE",
			want: []string{"acme", "revenue"},
		},
		{
			name: "keeps duplicates in order",
			text: "growth growth Growth",
			want: []string{"growth", "growth", "growth"},
		},
		{
			name: "hyphenated compounds split on word boundaries",
			text: "cross-functional teams",
			want: []string{"cross", "functional", "teams"},
		},
		{
			name: "no stemming by default",
			text: "optimize optimized optimization",
			want: []string{"optimize", "optimized", "optimization"},
		},
		{
			name: "empty",
			text: "",
			want: []string{},
		},
		{
			name: "only stopwords",
			text: "the and of",
			want: []string{},
		},
		{
			name: "non latin letters are alphabetic",
			text: "Müller café résumé",
			want: []string{"müller", "café", "résumé"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tok.Normalize(tt.text))
		})
	}
}

func TestNormalizeMalformedInput(t *testing.T) {
	tok := mustNew(t, DefaultConfig())
	inputs := []string{
		"\x00\x01\x02 control\tchars\r\n",
		string([]byte{0xff, 0xfe, 'a', 'b', 'c', 'd'}),
		"ﬁnance ﬂow",
		strings.Repeat("│ col one │ col two │\n", 50),
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() { tok.Normalize(in) })
	}
	assert.Equal(t, []string{"control", "chars"}, tok.Normalize(inputs[0]))
}

func TestNormalizeMinLength(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinLength = 1
	tok := mustNew(t, cfg)
	assert.Equal(t, []string{"x", "go"}, tok.Normalize("x go the"))

	cfg.MinLength = 6
	tok = mustNew(t, cfg)
	assert.Equal(t, []string{"funnel", "growth"}, tok.Normalize("funnel growth skills"))
}

func TestCustomStopwords(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Stopwords = []string{"Growth"}
	tok := mustNew(t, cfg)
	assert.Equal(t, []string{"the", "funnel"}, tok.Normalize("the growth funnel"))

	cfg = DefaultConfig()
	cfg.ExtraStopwords = []string{"responsibilities"}
	tok = mustNew(t, cfg)
	assert.Equal(t, []string{"growth"}, tok.Normalize("the responsibilities growth"))
}

func TestStemming(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Stemming = true
	tok := mustNew(t, cfg)
	got := tok.Normalize("optimize optimized optimizing")
	require.Len(t, got, 3)
	assert.Equal(t, got[0], got[1])
	assert.Equal(t, got[1], got[2])
}

func TestFullCaseFolding(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CaseFolding = FoldFull
	tok := mustNew(t, cfg)
	assert.Equal(t, []string{"strasse"}, tok.Normalize("STRASSE"))
	assert.Equal(t, tok.Normalize("Straße"), tok.Normalize("STRASSE"))
}

func TestInvalidConfiguration(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero min length", func(c *Config) { c.MinLength = 0 }},
		{"negative min length", func(c *Config) { c.MinLength = -2 }},
		{"unknown language", func(c *Config) { c.Language = "klingon" }},
		{"empty language", func(c *Config) { c.Language = "" }},
		{"unknown case folding", func(c *Config) { c.CaseFolding = "upper" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := New(cfg)
			assert.ErrorIs(t, err, apperrors.ErrInvalidConfiguration)
			assert.ErrorIs(t, cfg.Validate(), apperrors.ErrInvalidConfiguration)
		})
	}
}

func TestLanguageAlias(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Language = "EN"
	tok := mustNew(t, cfg)
	assert.Equal(t, "english", tok.Language())
}

func TestRegisterRuleset(t *testing.T) {
	err := Register(Ruleset{
		Name:      "pirate",
		Stopwords: []string{"arr", "matey"},
	})
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Language = "pirate"
	tok := mustNew(t, cfg)
	assert.Equal(t, []string{"treasure", "the"}, tok.Normalize("arr treasure the matey"))
	assert.Contains(t, Languages(), "pirate")

	cfg.Stemming = true
	_, err = New(cfg)
	assert.ErrorIs(t, err, apperrors.ErrInvalidConfiguration)

	assert.ErrorIs(t, Register(Ruleset{Name: "Pirate"}), apperrors.ErrInvalidConfiguration)
	assert.ErrorIs(t, Register(Ruleset{Name: "x", Stemmer: "klingon"}), apperrors.ErrInvalidConfiguration)
}

func TestFingerprint(t *testing.T) {
	a := mustNew(t, DefaultConfig())
	b := mustNew(t, DefaultConfig())
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	cfg := DefaultConfig()
	cfg.ExtraStopwords = []string{"growth"}
	c := mustNew(t, cfg)
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}

func TestConcurrentUse(t *testing.T) {
	tok := mustNew(t, DefaultConfig())
	want := tok.Normalize("Distributed search engines process queries across shards")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				assert.Equal(t, want, tok.Normalize("Distributed search engines process queries across shards"))
			}
		}()
	}
	wg.Wait()
}
