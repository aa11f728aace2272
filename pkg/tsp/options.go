// Package tsp solves the symmetric Euclidean travelling salesman problem.
//
// Instances with up to Options.HeldKarpLimit cities are solved exactly by the
// Held–Karp subset dynamic program. Larger instances fall back to a
// heuristic: farthest insertion refined by 2-opt (default) or a genetic
// algorithm. Distances are rounded up to Options.Precision decimals before
// optimisation, so reported lengths are sums of rounded legs.
package tsp

import (
	"math/rand/v2"

	"vrpdfd/pkg/apperror"
	"vrpdfd/pkg/domain"
)

// Heuristic selects the solver used above the Held–Karp limit.
type Heuristic string

const (
	HeuristicTwoOpt  Heuristic = "two_opt"
	HeuristicGenetic Heuristic = "genetic"
)

// Method reports which solver produced a Result.
type Method string

const (
	MethodTrivial  Method = "trivial"
	MethodHeldKarp Method = "held_karp"
	MethodTwoOpt   Method = "two_opt"
	MethodGenetic  Method = "genetic"
	MethodFake     Method = "fake"
)

// Значения по умолчанию
const (
	DefaultHeldKarpLimit = 17
	// MaxHeldKarpLimit ограничивает память DP: 2^(n-1)·(n-1) состояний
	MaxHeldKarpLimit = 20

	DefaultPopulation   = 100
	DefaultGenerations  = 100
	DefaultMutationRate = 0.4

	DefaultSeed uint64 = 0x5eed
)

// GeneticParams настраивает генетический алгоритм.
type GeneticParams struct {
	Population   int     `koanf:"population"`
	Generations  int     `koanf:"generations"`
	MutationRate float64 `koanf:"mutation_rate"`
}

// DefaultGeneticParams returns population 100, 100 generations, mutation 0.4.
func DefaultGeneticParams() GeneticParams {
	return GeneticParams{
		Population:   DefaultPopulation,
		Generations:  DefaultGenerations,
		MutationRate: DefaultMutationRate,
	}
}

// Validate checks that the parameters describe a runnable evolution.
func (p GeneticParams) Validate() error {
	if p.Population < 2 {
		return apperror.NewWithField(apperror.CodeInvalidArgument, "population must be at least 2", "population").
			WithDetails("population", p.Population)
	}
	if p.Generations < 0 {
		return apperror.NewWithField(apperror.CodeInvalidArgument, "generations must be non-negative", "generations").
			WithDetails("generations", p.Generations)
	}
	if p.MutationRate < 0 || p.MutationRate > 1 {
		return apperror.NewWithField(apperror.CodeInvalidArgument, "mutation rate must be within [0, 1]", "mutation_rate").
			WithDetails("mutation_rate", p.MutationRate)
	}
	return nil
}

// Options configures Solve.
//
// Zero values are not usable directly; start from DefaultOptions().
//
// Example:
//
//	opts := tsp.DefaultOptions().
//	    WithFirst(depot).
//	    WithHint(previous).
//	    WithHeuristic(tsp.HeuristicGenetic)
type Options struct {
	// First is the city placed at position 0 of the returned tour.
	First int

	// Hint is an optional initial tour for the heuristic solvers. It must be
	// a permutation of all city indices.
	Hint []int

	// Heuristic is used when the instance exceeds HeldKarpLimit.
	Heuristic Heuristic

	// HeldKarpLimit is the largest instance solved exactly.
	HeldKarpLimit int

	// Precision is the number of decimals distances are rounded up to.
	// A negative value disables rounding.
	Precision int

	Genetic GeneticParams

	// Rand drives every random choice. Nil means a fixed-seed generator,
	// so results are reproducible by default.
	Rand *rand.Rand

	// Continue is consulted by the genetic heuristic between generations;
	// returning false stops the evolution and keeps the best tour so far.
	Continue func(generation int) bool
}

// DefaultOptions returns options with the documented defaults.
func DefaultOptions() *Options {
	return &Options{
		First:         0,
		Heuristic:     HeuristicTwoOpt,
		HeldKarpLimit: DefaultHeldKarpLimit,
		Precision:     domain.DefaultPrecision,
		Genetic:       DefaultGeneticParams(),
	}
}

// WithFirst sets the city the tour is rotated to.
func (o *Options) WithFirst(first int) *Options {
	o.First = first
	return o
}

// WithHint sets the heuristic seed tour.
func (o *Options) WithHint(hint []int) *Options {
	o.Hint = hint
	return o
}

// WithHeuristic selects the large-instance solver.
func (o *Options) WithHeuristic(h Heuristic) *Options {
	o.Heuristic = h
	return o
}

// WithHeldKarpLimit sets the exact-solver cutoff.
func (o *Options) WithHeldKarpLimit(limit int) *Options {
	o.HeldKarpLimit = limit
	return o
}

// WithPrecision sets the distance rounding precision.
func (o *Options) WithPrecision(precision int) *Options {
	o.Precision = precision
	return o
}

// WithGenetic sets the genetic algorithm parameters.
func (o *Options) WithGenetic(p GeneticParams) *Options {
	o.Genetic = p
	return o
}

// WithRand sets the random source.
func (o *Options) WithRand(rng *rand.Rand) *Options {
	o.Rand = rng
	return o
}

// WithContinue sets the between-generation stop check.
func (o *Options) WithContinue(fn func(generation int) bool) *Options {
	o.Continue = fn
	return o
}

func (o *Options) rng() *rand.Rand {
	if o.Rand != nil {
		return o.Rand
	}
	return rand.New(rand.NewPCG(DefaultSeed, DefaultSeed))
}

func (o *Options) validate(n int) error {
	if o.HeldKarpLimit > MaxHeldKarpLimit {
		return apperror.NewWithField(apperror.CodeInvalidArgument, "held-karp limit too large", "held_karp_limit").
			WithDetails("limit", o.HeldKarpLimit).
			WithDetails("max", MaxHeldKarpLimit)
	}
	switch o.Heuristic {
	case HeuristicTwoOpt:
	case HeuristicGenetic:
		if err := o.Genetic.Validate(); err != nil {
			return err
		}
	default:
		return apperror.NewWithField(apperror.CodeInvalidArgument, "unknown heuristic", "heuristic").
			WithDetails("heuristic", string(o.Heuristic))
	}
	return validateHint(o.Hint, n)
}

// validateHint requires the hint, when present, to be a permutation of 0..n-1.
func validateHint(hint []int, n int) error {
	if hint == nil {
		return nil
	}
	if len(hint) != n {
		return apperror.NewWithField(apperror.CodeHintMismatch, "hint size does not match city count", "hint").
			WithDetails("hint_size", len(hint)).
			WithDetails("cities", n)
	}
	seen := make([]bool, n)
	for pos, city := range hint {
		if city < 0 || city >= n || seen[city] {
			return apperror.NewWithField(apperror.CodeHintMismatch, "hint is not a permutation of the cities", "hint").
				WithDetails("position", pos).
				WithDetails("city", city)
		}
		seen[city] = true
	}
	return nil
}
