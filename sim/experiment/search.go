package experiment

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"

	"github.com/sirupsen/logrus"

	"github.com/simul-sim/simul/sim"
)

// SearchResult holds every trial a search evaluated and the best one found.
type SearchResult[P any] struct {
	Best   Trial[P]
	Trials []Trial[P] // In evaluation order
	// Accepted counts annealing moves to a new current candidate; zero for other searches.
	Accepted int
}

// Sweep evaluates every candidate and returns the best.
func Sweep[P any](ctx context.Context, r *Runner[P], candidates []P) (SearchResult[P], error) {
	trials, err := r.Run(ctx, candidates)
	if err != nil {
		return SearchResult[P]{Trials: trials}, err
	}
	best, err := Best(trials)
	return SearchResult[P]{Best: best, Trials: trials}, err
}

// MonteCarloSearch draws limit candidates from generate, evaluates them (in parallel when
// the runner allows) and returns the best. The candidate stream depends only on seed.
func MonteCarloSearch[P any](ctx context.Context, r *Runner[P], generate func(*rand.Rand) P, limit int, seed uint64) (SearchResult[P], error) {
	if limit <= 0 {
		return SearchResult[P]{}, errors.New("experiment: monte carlo limit must be positive")
	}
	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(seed)).ForSubsystem(sim.SubsystemSearch)
	candidates := make([]P, limit)
	for i := range candidates {
		candidates[i] = generate(rng)
	}
	return Sweep(ctx, r, candidates)
}

// Schedule returns the annealing temperature for iteration k (k starts at 0).
type Schedule func(k int) float64

// GeometricSchedule cools as start * rate^k.
func GeometricSchedule(start, rate float64) Schedule {
	return func(k int) float64 {
		return start * math.Pow(rate, float64(k))
	}
}

// AnnealingConfig configures SimulatedAnnealing.
type AnnealingConfig[P any] struct {
	Initial P
	// Perturb proposes a neighbor of the current candidate. It must not modify its input.
	Perturb  func(current P, rng *rand.Rand) P
	Schedule Schedule
	// Limit is the number of proposals evaluated after the initial candidate.
	Limit int
	Seed  uint64
}

// SimulatedAnnealing evaluates cfg.Initial, then proposes cfg.Limit neighbors one at a
// time. A proposal replaces the current candidate when its score is not lower, or
// otherwise with probability exp(delta / T(k)). Failed proposals are always rejected.
// The result's Best is the highest score seen, never just the final current candidate.
func SimulatedAnnealing[P any](ctx context.Context, r *Runner[P], cfg AnnealingConfig[P]) (SearchResult[P], error) {
	if cfg.Perturb == nil {
		return SearchResult[P]{}, errors.New("experiment: annealing needs a Perturb function")
	}
	if cfg.Schedule == nil {
		return SearchResult[P]{}, errors.New("experiment: annealing needs a Schedule")
	}
	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(cfg.Seed))
	proposals := rng.ForSubsystem(sim.SubsystemSearch)
	acceptance := rng.ForSubsystem(sim.SubsystemAcceptance)

	var result SearchResult[P]
	evaluate := func(p P) (Trial[P], error) {
		trials, err := r.Run(ctx, []P{p})
		if err != nil {
			return Trial[P]{}, err
		}
		t := trials[0]
		t.Index = len(result.Trials)
		result.Trials = append(result.Trials, t)
		return t, nil
	}

	current, err := evaluate(cfg.Initial)
	if err != nil {
		return result, err
	}
	result.Best = current

	for k := 0; k < cfg.Limit; k++ {
		candidate, err := evaluate(cfg.Perturb(current.Params, proposals))
		if err != nil {
			return result, err
		}
		u := acceptance.Float64()
		if !accept(current, candidate, cfg.Schedule(k), u) {
			continue
		}
		current = candidate
		result.Accepted++
		if result.Best.Failed() || current.Score > result.Best.Score {
			result.Best = current
			logrus.Debugf("Annealing step %d: new best score %g", k, current.Score)
		}
	}

	if result.Best.Failed() {
		return result, ErrNoViableTrial
	}
	return result, nil
}

// accept applies the Metropolis rule for maximization.
func accept[P any](current, candidate Trial[P], temperature, u float64) bool {
	if candidate.Failed() {
		return false
	}
	if current.Failed() {
		return true
	}
	delta := candidate.Score - current.Score
	if delta >= 0 {
		return true
	}
	if temperature <= 0 {
		return false
	}
	return u < math.Exp(delta/temperature)
}
