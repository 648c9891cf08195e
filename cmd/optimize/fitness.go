package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/sandbox/config"
	"github.com/pthm-cable/sandbox/sim"
	"github.com/pthm-cable/sandbox/telemetry"
)

// Fitness penalties.
const (
	deathPenalty   = 20.0  // added in full for a robot dead at tick 0, scaled by lost time
	noLightPenalty = 100.0 // final distance when no target light is lit
)

// FitnessEvaluator runs simulations and computes fitness.
type FitnessEvaluator struct {
	params     *ParamVector
	seeds      []uint64
	runs       int
	baseConfig *config.Config
	logger     *slog.Logger

	// Best run tracking
	mu           sync.Mutex
	bestFitness  float64
	bestResults  []sim.Result
	lastSurvival float64 // mean survival fraction from the most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator. Each seed runs runs
// consecutive perturbed runs.
func NewFitnessEvaluator(params *ParamVector, seeds []uint64, runs int, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		seeds:       seeds,
		runs:        max(runs, 1),
		baseConfig:  baseCfg,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		bestFitness: math.Inf(1),
	}
}

// BestResults returns the run results of the best seed of the best evaluation.
func (fe *FitnessEvaluator) BestResults() []sim.Result {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestResults
}

// LastSurvival returns the survival fraction from the most recent evaluation.
func (fe *FitnessEvaluator) LastSurvival() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastSurvival
}

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	fitness  float64
	survival float64
	results  []sim.Result
}

// Evaluate computes fitness for a parameter vector (lower = better). Seeds
// run concurrently, at most GOMAXPROCS at a time; the first failing seed
// cancels the rest.
func (fe *FitnessEvaluator) Evaluate(ctx context.Context, x []float64) (float64, error) {
	results := make([]seedResult, len(fe.seeds))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, seed := range fe.seeds {
		g.Go(func() error {
			r, err := fe.runSeed(gctx, x, seed)
			if err != nil {
				return fmt.Errorf("seed %d: %w", seed, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return math.Inf(1), err
	}

	var totalFitness, totalSurvival float64
	bestSeed := seedResult{fitness: math.Inf(1)}
	for _, r := range results {
		totalFitness += r.fitness
		totalSurvival += r.survival
		if r.fitness < bestSeed.fitness {
			bestSeed = r
		}
	}
	n := float64(len(fe.seeds))
	avgFitness := totalFitness / n

	fe.mu.Lock()
	if avgFitness < fe.bestFitness {
		fe.bestFitness = avgFitness
		fe.bestResults = bestSeed.results
	}
	fe.lastSurvival = totalSurvival / n
	fe.mu.Unlock()

	return avgFitness, nil
}

// runSeed builds a fresh simulation for one seed and scores its runs.
func (fe *FitnessEvaluator) runSeed(ctx context.Context, x []float64, seed uint64) (seedResult, error) {
	cfg, err := fe.baseConfig.Clone()
	if err != nil {
		return seedResult{}, err
	}
	cfg.Simulation.Seed = seed
	fe.params.ApplyToConfig(cfg, x)

	s, err := sim.Build(cfg, sim.Options{Logger: fe.logger})
	if err != nil {
		return seedResult{}, err
	}
	runs, err := s.RunMany(ctx, fe.runs)
	if err != nil {
		return seedResult{}, err
	}

	robot := cfg.Robots[fe.params.Robot].Name
	var lifetimes []telemetry.LifetimeStats
	for _, r := range runs {
		for _, l := range r.Lifetimes {
			if l.Agent == robot {
				lifetimes = append(lifetimes, l)
			}
		}
	}
	fitness, survival := computeFitness(lifetimes, cfg.Simulation.Duration)
	return seedResult{fitness: fitness, survival: survival, results: runs}, nil
}

// computeFitness scores lifetimes of one robot (lower = better).
// Formula: mean(final light distance + deathPenalty × lost time fraction).
// It also returns the mean survival fraction.
func computeFitness(lifetimes []telemetry.LifetimeStats, duration float64) (fitness, survival float64) {
	if len(lifetimes) == 0 {
		return math.Inf(1), 0
	}
	for _, l := range lifetimes {
		d := l.LightDistance
		if d < 0 {
			d = noLightPenalty
		}
		frac := 1.0
		if !l.Alive && duration > 0 {
			frac = clamp01(l.SurvivalTimeSec / duration)
		}
		fitness += d + deathPenalty*(1-frac)
		survival += frac
	}
	n := float64(len(lifetimes))
	return fitness / n, survival / n
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
