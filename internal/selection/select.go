// Package selection ranks score series and turns them into position-aligned
// selection masks, alone or fused from a similarity and a diversity series.
package selection

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Kind is the selection policy variant.
type Kind int

const (
	// Percentage selects floor(N*Pct) documents.
	Percentage Kind = iota
	// Count selects N documents.
	Count
	// Threshold selects every document whose score passes Threshold.
	Threshold
)

// String returns the policy kind name.
func (k Kind) String() string {
	switch k {
	case Percentage:
		return "percentage"
	case Count:
		return "count"
	case Threshold:
		return "threshold"
	default:
		return "unknown"
	}
}

// ErrInvalidPolicy is returned for policies that cannot be applied.
var ErrInvalidPolicy = errors.New("invalid selection policy")

// Policy describes how many documents to keep and from which end of the ranking.
type Policy struct {
	Kind      Kind
	Pct       float64
	N         int
	Threshold float64
	// Invert selects the lowest scores (or scores <= Threshold) instead.
	Invert bool
}

// PercentagePolicy returns a percentage policy.
func PercentagePolicy(pct float64, invert bool) Policy {
	return Policy{Kind: Percentage, Pct: pct, Invert: invert}
}

// CountPolicy returns a fixed-count policy.
func CountPolicy(n int, invert bool) Policy {
	return Policy{Kind: Count, N: n, Invert: invert}
}

// ThresholdPolicy returns a threshold policy.
func ThresholdPolicy(t float64, invert bool) Policy {
	return Policy{Kind: Threshold, Threshold: t, Invert: invert}
}

// Validate checks the policy parameters independent of corpus size.
func (p Policy) Validate() error {
	switch p.Kind {
	case Percentage:
		if !(p.Pct > 0 && p.Pct <= 1) {
			return fmt.Errorf("%w: percentage %v not in (0, 1]", ErrInvalidPolicy, p.Pct)
		}
	case Count:
		if p.N < 1 {
			return fmt.Errorf("%w: document count %d < 1", ErrInvalidPolicy, p.N)
		}
	case Threshold:
		if math.IsNaN(p.Threshold) {
			return fmt.Errorf("%w: threshold is NaN", ErrInvalidPolicy)
		}
	default:
		return fmt.Errorf("%w: unknown kind %d", ErrInvalidPolicy, p.Kind)
	}
	return nil
}

// Target returns the number of documents a ranked policy keeps out of n, or
// -1 for threshold policies whose cardinality depends on the data.
func (p Policy) Target(n int) int {
	switch p.Kind {
	case Percentage:
		return int(math.Floor(float64(n) * p.Pct))
	case Count:
		if p.N > n {
			return n
		}
		return p.N
	default:
		return -1
	}
}

// Mask marks selected documents by position.
type Mask []bool

// Count returns the number of selected documents.
func (m Mask) Count() int {
	n := 0
	for _, v := range m {
		if v {
			n++
		}
	}
	return n
}

// Indices returns the selected positions in ascending order.
func (m Mask) Indices() []int {
	var out []int
	for i, v := range m {
		if v {
			out = append(out, i)
		}
	}
	return out
}

// Or returns the element-wise union of m and other. Both must have equal length.
func (m Mask) Or(other Mask) Mask {
	out := make(Mask, len(m))
	for i := range m {
		out[i] = m[i] || (i < len(other) && other[i])
	}
	return out
}

// Select applies p to scores and returns a mask of the same length.
// Ranked policies use a stable sort, so on equal scores the earlier position wins.
func Select(scores []float64, p Policy) (Mask, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	mask := make(Mask, len(scores))
	if p.Kind == Threshold {
		for i, s := range scores {
			if p.Invert {
				mask[i] = s <= p.Threshold
			} else {
				mask[i] = s >= p.Threshold
			}
		}
		return mask, nil
	}
	for _, i := range Rank(scores, p.Invert)[:p.Target(len(scores))] {
		mask[i] = true
	}
	return mask, nil
}

// Rank returns positions ordered by descending score (ascending when ascending
// is true). Ties keep their original relative order.
func Rank(scores []float64, ascending bool) []int {
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return before(scores[order[a]], scores[order[b]], ascending)
	})
	return order
}

// before orders NaN after every number so NaN scores are never preferred.
func before(a, b float64, ascending bool) bool {
	if math.IsNaN(a) {
		return false
	}
	if math.IsNaN(b) {
		return true
	}
	if ascending {
		return a < b
	}
	return a > b
}
