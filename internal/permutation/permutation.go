// Package permutation derives the display order of an exercise's choices.
//
// The order is never stored. It is recomputed from the exercise id whenever
// choices are shown or a response is graded, so both sides always agree.
package permutation

import "math"

// Positions returns a permutation of [0, n) seeded by seed.
// Element i of the result is the canonical index shown at display position i.
func Positions(seed int64, n int) []int {
	if n <= 0 {
		return []int{}
	}

	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}

	rng := newSineSource(seed)
	for i := n - 1; i > 0; i-- {
		j := int(math.Floor(rng.next() * float64(i+1)))
		perm[i], perm[j] = perm[j], perm[i]
	}

	return perm
}

// IndexOf returns the display position holding the canonical index, or -1.
func IndexOf(perm []int, canonical int) int {
	for display, c := range perm {
		if c == canonical {
			return display
		}
	}
	return -1
}

// Canonical maps a display position back to its canonical index.
func Canonical(perm []int, display int) (int, bool) {
	if display < 0 || display >= len(perm) {
		return 0, false
	}
	return perm[display], true
}

// Apply reorders items into display order.
func Apply[T any](perm []int, items []T) []T {
	out := make([]T, len(perm))
	for display, c := range perm {
		out[display] = items[c]
	}
	return out
}

// sineSource yields frac(sin(seed) * 10000) and advances the seed by one.
type sineSource struct {
	seed float64
}

func newSineSource(seed int64) *sineSource {
	return &sineSource{seed: float64(seed)}
}

func (s *sineSource) next() float64 {
	x := math.Sin(s.seed) * 10000
	s.seed++
	return x - math.Floor(x)
}
