package metrics

import (
	"fmt"
	"math"
)

// Diversity names a per-document diversity function.
type Diversity string

const (
	NumWordTypes   Diversity = "num_word_types"
	TypeTokenRatio Diversity = "type_token_ratio"
	Entropy        Diversity = "entropy"
	SimpsonsIndex  Diversity = "simpsons_index"
	RenyiEntropy   Diversity = "renyi_entropy"
)

// DiversityFunc scores a document's token ids against the corpus aggregate
// distribution. Ids index directly into corpus.
type DiversityFunc func(doc []int, corpus []float64) float64

var diversities = map[Diversity]struct {
	fn       DiversityFunc
	inverted bool
}{
	NumWordTypes:   {numWordTypes, false},
	TypeTokenRatio: {typeTokenRatio, true},
	Entropy:        {entropy, false},
	SimpsonsIndex:  {simpsonsIndex, false},
	RenyiEntropy:   {renyiEntropy, false},
}

// Diversities lists every supported diversity name in a stable order.
func Diversities() []Diversity {
	return []Diversity{NumWordTypes, TypeTokenRatio, Entropy, SimpsonsIndex, RenyiEntropy}
}

// ParseDiversity validates name against the registry.
func ParseDiversity(name string) (Diversity, error) {
	d := Diversity(name)
	if _, ok := diversities[d]; !ok {
		return "", fmt.Errorf("unknown diversity function %q (supported: %v)", name, Diversities())
	}
	return d, nil
}

// Inverted reports whether the raw value is negated by Score.
func (d Diversity) Inverted() bool {
	return diversities[d].inverted
}

// Func returns the raw function.
func (d Diversity) Func() DiversityFunc {
	return diversities[d].fn
}

// Score returns the oriented diversity of doc; type_token_ratio is negated.
func (d Diversity) Score(doc []int, corpus []float64) float64 {
	v := finite(diversities[d].fn(doc, corpus))
	if d.Inverted() {
		return -v
	}
	return v
}

// types returns the distinct ids of doc that fall inside the corpus vector,
// in first-occurrence order.
func types(doc []int, size int) []int {
	seen := make(map[int]struct{}, len(doc))
	var out []int
	for _, id := range doc {
		if id < 0 || id >= size {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func numWordTypes(doc []int, _ []float64) float64 {
	seen := make(map[int]struct{}, len(doc))
	for _, id := range doc {
		seen[id] = struct{}{}
	}
	return float64(len(seen))
}

func typeTokenRatio(doc []int, c []float64) float64 {
	if len(doc) == 0 {
		return 0
	}
	return numWordTypes(doc, c) / float64(len(doc))
}

func entropy(doc []int, c []float64) float64 {
	var s float64
	for _, id := range types(doc, len(c)) {
		p := c[id]
		if p > 0 {
			s += p * math.Log(p)
		}
	}
	return -s
}

func simpsonsIndex(doc []int, c []float64) float64 {
	var s float64
	for _, id := range types(doc, len(c)) {
		s += c[id] * c[id]
	}
	return s
}

func renyiEntropy(doc []int, c []float64) float64 {
	var s float64
	for _, id := range types(doc, len(c)) {
		s += math.Pow(c[id], renyiAlpha)
	}
	if s == 0 {
		s = 1
	}
	return 1 / (1 - renyiAlpha) * math.Log(s)
}
