package selection

import (
	"math/rand"
	"testing"
)

func benchScores(n int) []float64 {
	r := rand.New(rand.NewSource(1))
	s := make([]float64, n)
	for i := range s {
		s[i] = r.Float64()
	}
	return s
}

func BenchmarkSelectPercentage(b *testing.B) {
	scores := benchScores(100000)
	p := PercentagePolicy(0.1, false)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Select(scores, p)
	}
}

func BenchmarkFuseLinear(b *testing.B) {
	sim, div := benchScores(100000), benchScores(100000)
	p := PercentagePolicy(0.1, false)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Fuse(sim, div, p, DefaultWeights, LinearCombination)
	}
}
