package tokenizer

import (
	"strings"
	"testing"
)

var benchText = strings.Repeat("Led cross-functional growth initiatives, owned funnel optimization "+
	"and grew qualified pipeline by 40% across three product lines. ", 50)

func BenchmarkNormalize(b *testing.B) {
	tok, err := New(DefaultConfig())
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.SetBytes(int64(len(benchText)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = tok.Normalize(benchText)
	}
}

func BenchmarkNormalizeStemming(b *testing.B) {
	cfg := DefaultConfig()
	cfg.Stemming = true
	tok, err := New(cfg)
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.SetBytes(int64(len(benchText)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = tok.Normalize(benchText)
	}
}

// BenchmarkNormalizeParallel measures throughput of one shared Tokenizer.
func BenchmarkNormalizeParallel(b *testing.B) {
	tok, err := New(DefaultConfig())
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = tok.Normalize(benchText)
		}
	})
}
