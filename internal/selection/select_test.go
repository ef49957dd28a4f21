package selection

import (
	"errors"
	"math"
	"math/rand"
	"reflect"
	"testing"
)

func randomScores(r *rand.Rand, n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		// Coarse values so ties are common.
		s[i] = float64(r.Intn(7)) - 3
	}
	return s
}

func TestSelect_percentage(t *testing.T) {
	scores := []float64{0.1, 0.9, 0.5, 0.7, 0.3, 0.2, 0.8, 0.4, 0.6, 0.0}
	mask, err := Select(scores, PercentagePolicy(0.3, false))
	if err != nil {
		t.Fatal(err)
	}
	if got := mask.Indices(); !reflect.DeepEqual(got, []int{1, 3, 6}) {
		t.Errorf("top 30%% = %v, want [1 3 6]", got)
	}
	mask, _ = Select(scores, PercentagePolicy(0.3, true))
	if got := mask.Indices(); !reflect.DeepEqual(got, []int{0, 5, 9}) {
		t.Errorf("bottom 30%% = %v, want [0 5 9]", got)
	}
}

func TestSelect_tiesPreferEarlierPositions(t *testing.T) {
	scores := []float64{1, 2, 2, 2, 1}
	mask, _ := Select(scores, CountPolicy(2, false))
	if got := mask.Indices(); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Errorf("got %v, want [1 2]", got)
	}
	mask, _ = Select(scores, CountPolicy(1, true))
	if got := mask.Indices(); !reflect.DeepEqual(got, []int{0}) {
		t.Errorf("got %v, want [0]", got)
	}
}

func TestSelect_countClampsToCorpusSize(t *testing.T) {
	mask, err := Select([]float64{3, 1}, CountPolicy(5, false))
	if err != nil {
		t.Fatal(err)
	}
	if mask.Count() != 2 {
		t.Errorf("count = %d, want 2", mask.Count())
	}
}

func TestSelect_threshold(t *testing.T) {
	scores := []float64{0.2, 0.5, 0.8, 0.5}
	mask, _ := Select(scores, ThresholdPolicy(0.5, false))
	if !reflect.DeepEqual(mask, Mask{false, true, true, true}) {
		t.Errorf("got %v", mask)
	}
	mask, _ = Select(scores, ThresholdPolicy(0.5, true))
	if !reflect.DeepEqual(mask, Mask{true, true, false, true}) {
		t.Errorf("inverted got %v", mask)
	}
	mask, err := Select(scores, ThresholdPolicy(9, false))
	if err != nil {
		t.Fatalf("no matches must not be an error: %v", err)
	}
	if len(mask) != 4 || mask.Count() != 0 {
		t.Errorf("expected empty mask of length 4, got %v", mask)
	}
}

func TestSelect_invalidPolicy(t *testing.T) {
	for _, p := range []Policy{
		PercentagePolicy(0, false),
		PercentagePolicy(1.5, false),
		PercentagePolicy(math.NaN(), false),
		CountPolicy(0, false),
		ThresholdPolicy(math.NaN(), false),
		{Kind: Kind(42)},
	} {
		if _, err := Select([]float64{1}, p); !errors.Is(err, ErrInvalidPolicy) {
			t.Errorf("policy %+v: err = %v, want ErrInvalidPolicy", p, err)
		}
	}
}

func TestSelect_nanNeverPreferred(t *testing.T) {
	scores := []float64{math.NaN(), 1, 2}
	top, _ := Select(scores, CountPolicy(2, false))
	bottom, _ := Select(scores, CountPolicy(2, true))
	if !reflect.DeepEqual(top.Indices(), []int{1, 2}) || !reflect.DeepEqual(bottom.Indices(), []int{1, 2}) {
		t.Errorf("top %v bottom %v", top.Indices(), bottom.Indices())
	}
}

func TestSelect_properties(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for iter := 0; iter < 200; iter++ {
		n := r.Intn(40)
		scores := randomScores(r, n)
		pct := float64(r.Intn(100)+1) / 100
		invert := r.Intn(2) == 0

		mask, err := Select(scores, PercentagePolicy(pct, invert))
		if err != nil {
			t.Fatal(err)
		}
		if len(mask) != n {
			t.Fatalf("len(mask) = %d, want %d", len(mask), n)
		}
		if want := int(math.Floor(float64(n) * pct)); mask.Count() != want {
			t.Fatalf("pct %v over %d: selected %d, want %d", pct, n, mask.Count(), want)
		}

		if n > 0 {
			k := r.Intn(n) + 1
			top, _ := Select(scores, CountPolicy(k, false))
			if top.Count() != k {
				t.Fatalf("count policy selected %d, want %d", top.Count(), k)
			}
			negated := make([]float64, n)
			for i, s := range scores {
				negated[i] = -s
			}
			bottom, _ := Select(negated, CountPolicy(k, true))
			if !reflect.DeepEqual(top, bottom) {
				t.Fatalf("top-k on scores %v != bottom-k on negated %v", top, bottom)
			}
		}

		thr := float64(r.Intn(7)) - 3
		above, _ := Select(scores, ThresholdPolicy(thr, false))
		below, _ := Select(scores, ThresholdPolicy(thr, true))
		for i, s := range scores {
			if above[i] != (s >= thr) || below[i] != (s <= thr) {
				t.Fatalf("threshold mismatch at %d: score %v thr %v", i, s, thr)
			}
		}
	}
}
