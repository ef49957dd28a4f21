// Package metrics is the closed registry of similarity and diversity functions.
// Every registered score is oriented so that higher means more similar or more diverse.
package metrics

import (
	"fmt"
	"math"

	"github.com/hyperjump/domainsel/pkg/utils"
)

// Similarity names a similarity function between a reference distribution and candidates.
type Similarity string

const (
	JensenShannon Similarity = "jensen-shannon"
	Renyi         Similarity = "renyi"
	Cosine        Similarity = "cosine"
	Euclidean     Similarity = "euclidean"
	Variational   Similarity = "variational"
	Bhattacharyya Similarity = "bhattacharyya"
)

// SimilarityFunc scores each candidate against ref. Raw values may be
// distance-oriented; use Similarity.Score for oriented scores.
type SimilarityFunc func(ref []float64, candidates [][]float64) []float64

const renyiAlpha = 0.99

var similarities = map[Similarity]struct {
	fn       func(p, q []float64) float64
	distance bool
}{
	JensenShannon: {jensenShannon, false},
	Renyi:         {renyiDivergence, true},
	Cosine:        {cosine, false},
	Euclidean:     {euclidean, true},
	Variational:   {variational, true},
	Bhattacharyya: {bhattacharyya, true},
}

// Similarities lists every supported similarity name in a stable order.
func Similarities() []Similarity {
	return []Similarity{JensenShannon, Renyi, Cosine, Euclidean, Variational, Bhattacharyya}
}

// ParseSimilarity validates name against the registry.
func ParseSimilarity(name string) (Similarity, error) {
	s := Similarity(name)
	if _, ok := similarities[s]; !ok {
		return "", fmt.Errorf("unknown similarity function %q (supported: %v)", name, Similarities())
	}
	return s, nil
}

// DistanceOriented reports whether raw values grow as documents become less similar.
func (s Similarity) DistanceOriented() bool {
	return similarities[s].distance
}

// Func returns the raw batch function.
func (s Similarity) Func() SimilarityFunc {
	pair := similarities[s].fn
	return func(ref []float64, candidates [][]float64) []float64 {
		out := make([]float64, len(candidates))
		for i, c := range candidates {
			out[i] = pair(ref, c)
		}
		return out
	}
}

// Score returns one oriented similarity per candidate: distance-oriented
// functions are negated so that higher always means more similar. A candidate
// sharing no mass with ref, or with no mass at all, is infinitely far under
// renyi and bhattacharyya and scores -Inf.
func (s Similarity) Score(ref []float64, candidates [][]float64) []float64 {
	out := s.Func()(ref, candidates)
	if s.DistanceOriented() {
		for i := range out {
			out[i] = -out[i]
		}
	}
	return out
}

// finite maps NaN and ±Inf to 0 so degenerate inputs produce a defined score.
// Only bounded similarities use it; for them 0 is the least similar value.
func finite(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return x
}

// klDivergence is sum p*ln(p/q) after normalizing both inputs; terms with p == 0 vanish.
func klDivergence(p, q []float64) float64 {
	sp, sq := utils.Sum(p), utils.Sum(q)
	if sp == 0 || sq == 0 {
		return math.NaN()
	}
	var d float64
	for i := range p {
		pi := p[i] / sp
		if pi == 0 {
			continue
		}
		qi := q[i] / sq
		if qi == 0 {
			return math.Inf(1)
		}
		d += pi * math.Log(pi/qi)
	}
	return d
}

func jensenShannon(p, q []float64) float64 {
	if len(p) != len(q) {
		return 0
	}
	m := make([]float64, len(p))
	for i := range p {
		m[i] = 0.5 * (p[i] + q[i])
	}
	return finite(1 - 0.5*(klDivergence(p, m)+klDivergence(q, m)))
}

func renyiDivergence(p, q []float64) float64 {
	if len(p) != len(q) {
		return 0
	}
	var s float64
	for i := range p {
		if p[i] == 0 {
			continue
		}
		s += math.Pow(p[i], renyiAlpha) / math.Pow(q[i], renyiAlpha-1)
	}
	return farthest(1 / (renyiAlpha - 1) * math.Log(s))
}

func cosine(p, q []float64) float64 {
	if len(p) != len(q) {
		return 0
	}
	var dot, np, nq float64
	for i := range p {
		dot += p[i] * q[i]
		np += p[i] * p[i]
		nq += q[i] * q[i]
	}
	return finite(dot / (math.Sqrt(np) * math.Sqrt(nq)))
}

func euclidean(p, q []float64) float64 {
	if len(p) != len(q) {
		return 0
	}
	var s float64
	for i := range p {
		d := p[i] - q[i]
		s += d * d
	}
	return math.Sqrt(s)
}

func variational(p, q []float64) float64 {
	if len(p) != len(q) {
		return 0
	}
	var s float64
	for i := range p {
		s += math.Abs(p[i] - q[i])
	}
	return s
}

func bhattacharyya(p, q []float64) float64 {
	if len(p) != len(q) {
		return 0
	}
	var s float64
	for i := range p {
		s += math.Sqrt(p[i] * q[i])
	}
	return farthest(-math.Log(s))
}

// farthest maps an undefined distance to +Inf so it ranks behind every real match.
func farthest(d float64) float64 {
	if math.IsNaN(d) {
		return math.Inf(1)
	}
	return d
}
