package tsp

import (
	"math/rand/v2"
	"slices"
)

// =============================================================================
// Genetic heuristic
// =============================================================================
//
// Each generation the population is doubled with children of random parent
// pairs (prefix crossover, then swap mutation with probability
// MutationRate), sorted by tour length and cut back to Population.
//
// The evolution is exposed step by step so that callers can enforce a wall
// clock budget between generations; a single Step never blocks on anything
// but computation.
// =============================================================================

type individual struct {
	tour   []int
	length float64
}

// Genetic holds the state of one evolution.
type Genetic struct {
	dist       [][]float64
	params     GeneticParams
	rng        *rand.Rand
	population []individual
	best       individual
	generation int
}

// NewGenetic seeds a population of random permutations for the distance
// matrix. A non-nil seed tour replaces the first random individual.
func NewGenetic(dist [][]float64, params GeneticParams, rng *rand.Rand, seed []int) *Genetic {
	n := len(dist)
	g := &Genetic{
		dist:       dist,
		params:     params,
		rng:        rng,
		population: make([]individual, 0, 2*params.Population),
	}
	for i := 0; i < params.Population; i++ {
		var tour []int
		if i == 0 && seed != nil {
			tour = slices.Clone(seed)
		} else {
			tour = identity(n)
			rng.Shuffle(n, func(a, b int) { tour[a], tour[b] = tour[b], tour[a] })
		}
		g.population = append(g.population, g.evaluate(tour))
	}

	g.best = g.population[0]
	for _, ind := range g.population[1:] {
		if ind.length < g.best.length {
			g.best = ind
		}
	}
	return g
}

// Done reports whether the configured number of generations has run.
func (g *Genetic) Done() bool {
	return g.generation >= g.params.Generations
}

// Generation returns the number of completed generations.
func (g *Genetic) Generation() int {
	return g.generation
}

// Best returns a copy of the best tour seen so far and its length.
func (g *Genetic) Best() ([]int, float64) {
	return slices.Clone(g.best.tour), g.best.length
}

// Step runs one generation.
func (g *Genetic) Step() {
	size := g.params.Population
	for len(g.population) < 2*size {
		i := g.rng.IntN(len(g.population))
		j := g.rng.IntN(len(g.population))
		for i == j {
			i = g.rng.IntN(len(g.population))
			j = g.rng.IntN(len(g.population))
		}

		a, b := crossover(g.population[i].tour, g.population[j].tour, g.rng)
		if g.rng.Float64() < g.params.MutationRate {
			mutate(a, g.rng)
		}
		if g.rng.Float64() < g.params.MutationRate {
			mutate(b, g.rng)
		}
		g.population = append(g.population, g.evaluate(a), g.evaluate(b))
	}

	slices.SortStableFunc(g.population, func(x, y individual) int {
		switch {
		case x.length < y.length:
			return -1
		case x.length > y.length:
			return 1
		}
		return 0
	})
	g.population = g.population[:size]

	if g.population[0].length < g.best.length {
		g.best = g.population[0]
	}
	g.generation++
}

func (g *Genetic) evaluate(tour []int) individual {
	return individual{tour: tour, length: tourLength(g.dist, tour)}
}

// crossover splits first at a random point. The first child keeps the prefix
// of first and takes the remaining cities in the order they appear in
// second; the second child takes the prefix cities in second's order,
// followed by the suffix of first.
func crossover(first, second []int, rng *rand.Rand) ([]int, []int) {
	n := len(first)
	if n < 2 {
		return slices.Clone(first), slices.Clone(second)
	}
	point := 1 + rng.IntN(n-1)

	inPrefix := make([]bool, n)
	a := make([]int, n)
	b := make([]int, n)
	for i := 0; i < n; i++ {
		if i < point {
			a[i] = first[i]
			inPrefix[first[i]] = true
		} else {
			b[i] = first[i]
		}
	}

	ai, bi := point, 0
	for _, city := range second {
		if inPrefix[city] {
			b[bi] = city
			bi++
		} else {
			a[ai] = city
			ai++
		}
	}
	return a, b
}

// mutate swaps two distinct random positions.
func mutate(tour []int, rng *rand.Rand) {
	n := len(tour)
	if n < 2 {
		return
	}
	i, j := rng.IntN(n), rng.IntN(n)
	for i == j {
		i, j = rng.IntN(n), rng.IntN(n)
	}
	tour[i], tour[j] = tour[j], tour[i]
}

// evolve runs the genetic heuristic for the configured generations, or until
// opts.Continue asks it to stop.
func evolve(dist [][]float64, opts *Options) []int {
	g := NewGenetic(dist, opts.Genetic, opts.rng(), opts.Hint)
	for !g.Done() {
		if opts.Continue != nil && !opts.Continue(g.Generation()) {
			break
		}
		g.Step()
	}
	tour, _ := g.Best()
	return tour
}
