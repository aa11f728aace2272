package tsp

import (
	"math/rand/v2"
	"slices"

	"vrpdfd/pkg/apperror"
	"vrpdfd/pkg/domain"
)

// Fake returns the hint (or a random permutation when hint is nil) rotated
// to first, with its length measured on unrounded distances. It does no
// optimisation and stands in for Solve when benchmarking callers.
func Fake(cities []domain.Point, first int, hint []int, rng *rand.Rand) (*Result, error) {
	n := len(cities)
	if n == 0 {
		return nil, apperror.New(apperror.CodeEmptyInput, "empty TSP map")
	}
	if err := validateHint(hint, n); err != nil {
		return nil, err
	}

	var tour []int
	if hint != nil {
		tour = slices.Clone(hint)
	} else {
		if rng == nil {
			rng = rand.New(rand.NewPCG(DefaultSeed, DefaultSeed))
		}
		tour = identity(n)
		rng.Shuffle(n, func(a, b int) { tour[a], tour[b] = tour[b], tour[a] })
	}

	tour, err := Rotate(tour, first)
	if err != nil {
		return nil, err
	}
	return &Result{
		Length: TourLength(cities, tour, -1),
		Tour:   tour,
		Method: MethodFake,
	}, nil
}
