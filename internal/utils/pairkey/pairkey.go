package pairkey

import "fmt"

// Canonical returns the order-independent key for a pair of user ids,
// together with the pair in ascending order. Both participants compute the
// same key, which is what makes match and chat upserts idempotent.
func Canonical(a, b uint64) (key string, lo, hi uint64) {
	lo, hi = a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	return fmt.Sprintf("%d_%d", lo, hi), lo, hi
}
