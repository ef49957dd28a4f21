package selection

import (
	"fmt"
	"math"
)

// FuseMode is how a similarity and a diversity series are combined.
type FuseMode string

const (
	// LinearCombination selects once on w_sim*minmax(sim) + w_div*minmax(div).
	LinearCombination FuseMode = "linear_combination"
	// Union selects on each series with the same policy and ORs the masks.
	// The union size is only approximately controlled by the policy.
	Union FuseMode = "union"
)

// ParseFuseMode validates a fuse mode name.
func ParseFuseMode(name string) (FuseMode, error) {
	switch m := FuseMode(name); m {
	case LinearCombination, Union:
		return m, nil
	default:
		return "", fmt.Errorf("%w: unknown fuse mode %q", ErrInvalidPolicy, name)
	}
}

// Weights scale the normalized similarity and diversity series. Zero and
// negative weights are allowed and change the ranking direction.
type Weights struct {
	Sim float64
	Div float64
}

// DefaultWeights weigh both series equally.
var DefaultWeights = Weights{Sim: 1, Div: 1}

// MinMax rescales scores to [0, 1] using the series' own finite min and max.
// A constant series maps to all zeros. -Inf and NaN map to 0, +Inf to 1.
func MinMax(scores []float64) []float64 {
	out := make([]float64, len(scores))
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range scores {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			continue
		}
		lo = math.Min(lo, s)
		hi = math.Max(hi, s)
	}
	span := hi - lo
	for i, s := range scores {
		switch {
		case math.IsInf(s, 1):
			out[i] = 1
		case math.IsInf(s, -1), math.IsNaN(s):
			out[i] = 0
		case span > 0:
			out[i] = (s - lo) / span
		}
	}
	return out
}

// Combine returns w.Sim*MinMax(sim) + w.Div*MinMax(div).
func Combine(sim, div []float64, w Weights) ([]float64, error) {
	if len(sim) != len(div) {
		return nil, fmt.Errorf("score series length mismatch: similarity %d, diversity %d", len(sim), len(div))
	}
	ns, nd := MinMax(sim), MinMax(div)
	out := make([]float64, len(sim))
	for i := range out {
		out[i] = w.Sim*ns[i] + w.Div*nd[i]
	}
	return out, nil
}

// Fuse selects documents from a similarity and a diversity series.
func Fuse(sim, div []float64, p Policy, w Weights, mode FuseMode) (Mask, error) {
	if len(sim) != len(div) {
		return nil, fmt.Errorf("score series length mismatch: similarity %d, diversity %d", len(sim), len(div))
	}
	switch mode {
	case LinearCombination:
		composite, err := Combine(sim, div, w)
		if err != nil {
			return nil, err
		}
		return Select(composite, p)
	case Union:
		simMask, err := Select(sim, p)
		if err != nil {
			return nil, err
		}
		divMask, err := Select(div, p)
		if err != nil {
			return nil, err
		}
		return simMask.Or(divMask), nil
	default:
		return nil, fmt.Errorf("%w: unknown fuse mode %q", ErrInvalidPolicy, mode)
	}
}
