// Package utils holds small helpers shared across packages.
package utils

// ShortDigest abbreviates a hex checksum or identifier to its first n
// characters for tabular output. Values of at most n characters, and any n <= 0,
// are returned unchanged.
func ShortDigest(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}
