package tsp

import (
	"vrpdfd/pkg/apperror"
	"vrpdfd/pkg/domain"
)

// Result is a closed tour and its length.
type Result struct {
	Length float64 `json:"length"`
	Tour   []int   `json:"tour"`
	Method Method  `json:"method"`
}

// Solve returns a short closed tour through all cities, rotated so that
// opts.First is at position 0. A nil opts means DefaultOptions().
//
// Errors:
//   - EMPTY_INPUT when cities is empty
//   - HINT_MISMATCH when opts.Hint is not a permutation of all cities
//   - CITY_NOT_FOUND when opts.First is not a city index
//   - INVALID_ARGUMENT for unusable options
func Solve(cities []domain.Point, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	n := len(cities)
	if n == 0 {
		return nil, apperror.New(apperror.CodeEmptyInput, "empty TSP map")
	}
	if err := opts.validate(n); err != nil {
		return nil, err
	}

	dist := distances(cities, opts.Precision)

	var (
		tour   []int
		method Method
	)
	switch {
	case n <= 3:
		tour, method = identity(n), MethodTrivial
	case n <= opts.HeldKarpLimit:
		tour, method = heldKarp(dist), MethodHeldKarp
	case opts.Heuristic == HeuristicGenetic:
		tour, method = evolve(dist, opts), MethodGenetic
	default:
		tour, method = twoOptTour(dist, opts.Hint), MethodTwoOpt
	}

	length := tourLength(dist, tour)
	rotated, err := Rotate(tour, opts.First)
	if err != nil {
		return nil, err
	}
	return &Result{Length: length, Tour: rotated, Method: method}, nil
}

// Rotate returns a copy of tour rotated so that first is at position 0.
func Rotate(tour []int, first int) ([]int, error) {
	for pos, city := range tour {
		if city == first {
			out := make([]int, 0, len(tour))
			out = append(out, tour[pos:]...)
			return append(out, tour[:pos]...), nil
		}
	}
	return nil, apperror.NewWithField(apperror.CodeCityNotFound, "first city not found in tour", "first").
		WithDetails("first", first)
}

// TourLength sums the legs of the closed tour using rounded distances.
func TourLength(cities []domain.Point, tour []int, precision int) float64 {
	total := 0.0
	for _, leg := range Legs(cities, tour, precision) {
		total += leg
	}
	return total
}

// Legs returns the distance from each tour position to the next one, the
// last entry closing the cycle.
func Legs(cities []domain.Point, tour []int, precision int) []float64 {
	legs := make([]float64, len(tour))
	for i, c := range tour {
		legs[i] = legDistance(cities[c], cities[tour[(i+1)%len(tour)]], precision)
	}
	return legs
}

func tourLength(dist [][]float64, tour []int) float64 {
	n := len(tour)
	total := 0.0
	for i := 0; i < n; i++ {
		total += dist[tour[i]][tour[(i+1)%n]]
	}
	return total
}

func distances(cities []domain.Point, precision int) [][]float64 {
	if precision < 0 {
		n := len(cities)
		dist := make([][]float64, n)
		for i := range dist {
			dist[i] = make([]float64, n)
			for j := range dist[i] {
				dist[i][j] = domain.RawDistance(cities[i], cities[j])
			}
		}
		return dist
	}
	return domain.DistanceMatrix(cities, precision)
}

func legDistance(a, b domain.Point, precision int) float64 {
	if precision < 0 {
		return domain.RawDistance(a, b)
	}
	return domain.Distance(a, b, precision)
}

func identity(n int) []int {
	tour := make([]int, n)
	for i := range tour {
		tour[i] = i
	}
	return tour
}
