package utils

import "testing"

func TestShortDigest(t *testing.T) {
	sum := "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"checksum", sum, 12, "9f86d081884c"},
		{"shorter than n", "abc", 12, "abc"},
		{"exactly n", sum[:12], 12, sum[:12]},
		{"non-positive n", sum, 0, sum},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShortDigest(tt.in, tt.n); got != tt.want {
				t.Errorf("ShortDigest(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
			}
		})
	}
}
