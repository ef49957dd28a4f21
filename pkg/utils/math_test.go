package utils

import (
	"math"
	"testing"
)

func TestNormalizeL1(t *testing.T) {
	x := []float64{1, 3, 0, 4}
	NormalizeL1(x)
	if math.Abs(Sum(x)-1) > 1e-12 {
		t.Errorf("sum = %f, want 1", Sum(x))
	}
	if x[3] != 0.5 {
		t.Errorf("x[3] = %f, want 0.5", x[3])
	}

	zero := []float64{0, 0}
	NormalizeL1(zero)
	if zero[0] != 0 || zero[1] != 0 {
		t.Error("zero vector should be unchanged")
	}
}
