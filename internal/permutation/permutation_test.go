package permutation

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPositions_KnownSequences(t *testing.T) {
	tests := []struct {
		name string
		seed int64
		n    int
		want []int
	}{
		{name: "seed 7 of 4", seed: 7, n: 4, want: []int{2, 0, 1, 3}},
		{name: "seed 1 of 4", seed: 1, n: 4, want: []int{1, 0, 3, 2}},
		{name: "seed 12 of 3", seed: 12, n: 3, want: []int{2, 1, 0}},
		{name: "seed 42 of 6", seed: 42, n: 6, want: []int{2, 5, 3, 0, 1, 4}},
		{name: "seed 9 of 5", seed: 9, n: 5, want: []int{1, 2, 4, 3, 0}},
		{name: "single element", seed: 99, n: 1, want: []int{0}},
		{name: "empty", seed: 3, n: 0, want: []int{}},
		{name: "negative length", seed: 3, n: -2, want: []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Positions(tt.seed, tt.n))
		})
	}
}

func TestPositions_Deterministic(t *testing.T) {
	for seed := int64(1); seed <= 50; seed++ {
		assert.Equal(t, Positions(seed, 7), Positions(seed, 7), "seed %d", seed)
	}
}

func TestPositions_IsBijection(t *testing.T) {
	for seed := int64(1); seed <= 200; seed++ {
		for n := 1; n <= 10; n++ {
			perm := Positions(seed, n)
			require.Len(t, perm, n)

			sorted := append([]int(nil), perm...)
			sort.Ints(sorted)
			for i := range sorted {
				require.Equal(t, i, sorted[i], "seed %d n %d: %v", seed, n, perm)
			}
		}
	}
}

func TestApplyAndCanonical_RoundTrip(t *testing.T) {
	canonical := []string{"A", "B", "C", "D", "E"}
	for seed := int64(1); seed <= 30; seed++ {
		perm := Positions(seed, len(canonical))
		shown := Apply(perm, canonical)

		for display, choice := range shown {
			c, ok := Canonical(perm, display)
			require.True(t, ok)
			assert.Equal(t, canonical[c], choice)
			assert.Equal(t, display, IndexOf(perm, c))
		}
	}
}

func TestApply_SeedSeven(t *testing.T) {
	perm := Positions(7, 4)
	assert.Equal(t, []string{"C", "A", "B", "D"}, Apply(perm, []string{"A", "B", "C", "D"}))
	assert.Equal(t, 1, IndexOf(perm, 0))
}

func TestCanonical_OutOfRange(t *testing.T) {
	perm := Positions(5, 3)

	_, ok := Canonical(perm, -1)
	assert.False(t, ok)

	_, ok = Canonical(perm, 3)
	assert.False(t, ok)
}

func TestIndexOf_Missing(t *testing.T) {
	assert.Equal(t, -1, IndexOf([]int{0, 1}, 5))
}
