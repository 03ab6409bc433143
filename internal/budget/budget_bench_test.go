package budget

import (
	"fmt"
	"strings"
	"testing"
)

func BenchmarkEstimateTokens(b *testing.B) {
	for _, n := range []int{256, 4096, 65536} {
		s := strings.Repeat("uçuş ", n/5)
		b.Run(fmt.Sprintf("runes=%d", n), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_ = EstimateTokens(s)
			}
		})
	}
}

func BenchmarkFitsInContext(b *testing.B) {
	cases := []struct {
		name   string
		model  string
		prompt int
	}{
		{"gpt-4o-mini mid prompt", "gpt-4o-mini", 20_000},
		{"unknown model default 8k", "mystery-model", 4_000},
	}
	for _, cs := range cases {
		b.Run(cs.name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_ = FitsInContext(cs.model, 1024, cs.prompt)
			}
		})
	}
}
