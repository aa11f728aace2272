package tsp

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vrpdfd/pkg/apperror"
)

func isPermutation(tour []int) bool {
	sorted := slices.Clone(tour)
	slices.Sort(sorted)
	for i, c := range sorted {
		if c != i {
			return false
		}
	}
	return true
}

func TestCrossover(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))
	first := []int{0, 1, 2, 3, 4, 5, 6, 7}
	second := []int{7, 6, 5, 4, 3, 2, 1, 0}

	for i := 0; i < 50; i++ {
		a, b := crossover(first, second, rng)
		require.True(t, isPermutation(a), "child %v", a)
		require.True(t, isPermutation(b), "child %v", b)

		// The first child starts with a prefix of first.
		assert.Equal(t, 0, a[0])
	}
}

func TestCrossover_MatchesSomeSplitPoint(t *testing.T) {
	first := []int{0, 1, 2, 3, 4}
	second := []int{4, 2, 0, 3, 1}

	// Children for split point p: a keeps first[:p] and takes the rest in
	// second's order; b takes first[:p] in second's order, then first[p:].
	expected := func(p int) ([]int, []int) {
		a := slices.Clone(first[:p])
		var b []int
		for _, c := range second {
			if slices.Contains(first[:p], c) {
				b = append(b, c)
			} else {
				a = append(a, c)
			}
		}
		return a, append(b, first[p:]...)
	}

	rng := rand.New(rand.NewPCG(3, 3))
	for i := 0; i < 20; i++ {
		a, b := crossover(first, second, rng)
		matched := false
		for p := 1; p < len(first); p++ {
			ea, eb := expected(p)
			if slices.Equal(a, ea) && slices.Equal(b, eb) {
				matched = true
				break
			}
		}
		assert.True(t, matched, "children %v %v match no split point", a, b)
	}
}

func TestMutate(t *testing.T) {
	rng := rand.New(rand.NewPCG(2, 2))
	tour := []int{0, 1, 2, 3, 4}
	mutate(tour, rng)

	assert.True(t, isPermutation(tour))
	diff := 0
	for i, c := range tour {
		if c != i {
			diff++
		}
	}
	assert.Equal(t, 2, diff)

	single := []int{0}
	mutate(single, rng)
	assert.Equal(t, []int{0}, single)
}

func TestGenetic_StepImprovesOrKeepsBest(t *testing.T) {
	rng := rand.New(rand.NewPCG(6, 6))
	dist := distances(randomCities(rng, 20), 2)
	g := NewGenetic(dist, GeneticParams{Population: 30, Generations: 15, MutationRate: 0.4}, rng, nil)

	_, prev := g.Best()
	for !g.Done() {
		g.Step()
		tour, length := g.Best()
		require.True(t, isPermutation(tour))
		require.LessOrEqual(t, length, prev)
		assert.InDelta(t, tourLength(dist, tour), length, 1e-9)
		prev = length
	}
	assert.Equal(t, 15, g.Generation())
}

func TestGenetic_SeedIsKept(t *testing.T) {
	rng := rand.New(rand.NewPCG(4, 4))
	cities := randomCities(rng, 20)
	dist := distances(cities, 2)
	seed := twoOptTour(dist, nil)

	g := NewGenetic(dist, GeneticParams{Population: 10, Generations: 5, MutationRate: 0.4}, rng, seed)
	_, length := g.Best()
	assert.LessOrEqual(t, length, tourLength(dist, seed))
}

func TestSolve_GeneticContinueStops(t *testing.T) {
	rng := rand.New(rand.NewPCG(12, 12))
	cities := randomCities(rng, 25)

	calls := 0
	opts := DefaultOptions().
		WithHeuristic(HeuristicGenetic).
		WithContinue(func(generation int) bool {
			calls++
			return generation < 3
		})

	res, err := Solve(cities, opts)
	require.NoError(t, err)
	assert.Equal(t, MethodGenetic, res.Method)
	assert.Equal(t, 4, calls)
	assertValidTour(t, cities, res, 0)
}

func TestGeneticParams_Validate(t *testing.T) {
	require.NoError(t, DefaultGeneticParams().Validate())

	tests := []struct {
		name  string
		p     GeneticParams
		field string
	}{
		{"population", GeneticParams{Population: 1, MutationRate: 0.1}, "population"},
		{"generations", GeneticParams{Population: 2, Generations: -1}, "generations"},
		{"mutation", GeneticParams{Population: 2, MutationRate: 1.5}, "mutation_rate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			var appErr *apperror.Error
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.field, appErr.Field)
		})
	}
}
