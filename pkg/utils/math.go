package utils

import "math"

// NormalizeL1 scales x in place so its entries sum to 1.
// If the sum is zero, the slice is unchanged.
func NormalizeL1(x []float64) {
	var sum float64
	for _, v := range x {
		sum += math.Abs(v)
	}
	if sum == 0 {
		return
	}
	for i := range x {
		x[i] /= sum
	}
}

// Sum returns the sum of x.
func Sum(x []float64) float64 {
	var s float64
	for _, v := range x {
		s += v
	}
	return s
}
