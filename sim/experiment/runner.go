// Package experiment runs many independent simulations over candidate parameters
// and searches for the candidate that maximizes an objective.
//
// Every trial builds a fresh sim.Parameters (and therefore a fresh agent set) from its
// candidate; nothing is shared between trials. Trials may run in parallel, but the
// ticks of any single simulation always run sequentially.
package experiment

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/simul-sim/simul/sim"
)

var (
	// ErrNoViableTrial is returned when every trial of a search failed.
	ErrNoViableTrial = errors.New("no trial completed successfully")
	// ErrNotRun marks trials that were never started because the batch was aborted.
	ErrNotRun = errors.New("trial not run")
	// ErrInvalidScore marks trials whose objective returned NaN.
	ErrInvalidScore = errors.New("objective returned NaN")
)

// cancelCheckInterval is how many ticks run between context checks.
const cancelCheckInterval = 1024

// Trial is the outcome of one simulation run for one candidate.
type Trial[P any] struct {
	RunID  uuid.UUID
	Index  int // Position of the candidate in the batch
	Params P

	// Score is the objective value, or -Inf when the run failed.
	Score      float64
	FinalTime  sim.DiscreteTime
	Ticks      uint64
	HaltReason sim.HaltReason
	Err        error

	// Simulation is the halted simulation; set only when Runner.KeepSimulations is true.
	Simulation *sim.Simulation
}

// Failed reports whether the trial did not produce a score.
func (t Trial[P]) Failed() bool { return t.Err != nil }

// Runner builds, runs and scores simulations for candidate parameters of type P.
type Runner[P any] struct {
	// Build constructs fresh simulation parameters for a candidate. Required.
	// It must create new agents on every call.
	Build func(P) (sim.Parameters, error)
	// Objective scores a halted simulation; higher is better. Required.
	Objective func(*sim.Simulation) float64
	// Workers bounds the number of simulations run concurrently. Values below 2 run sequentially.
	Workers int
	// FailFast aborts the batch on the first failed trial.
	FailFast bool
	// KeepSimulations retains each halted simulation on its trial.
	KeepSimulations bool
}

func (r *Runner[P]) validate() error {
	if r.Build == nil {
		return errors.New("experiment: runner has no Build function")
	}
	if r.Objective == nil {
		return errors.New("experiment: runner has no Objective function")
	}
	return nil
}

// Run executes one trial per candidate and returns them in candidate order.
// A failed trial records its error and scores -Inf; the batch fails only when the
// context is cancelled or, with FailFast, when any trial fails. Candidates never
// started because the batch was aborted are returned failed with ErrNotRun.
func (r *Runner[P]) Run(ctx context.Context, candidates []P) ([]Trial[P], error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	trials := make([]Trial[P], len(candidates))
	for i, p := range candidates {
		trials[i] = Trial[P]{Index: i, Params: p, Score: math.Inf(-1), Err: ErrNotRun}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(r.Workers, 1))
	for i, p := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			trials[i] = r.runOne(gctx, i, p)
			if r.FailFast && trials[i].Failed() {
				return fmt.Errorf("trial %d (%s): %w", i, trials[i].RunID, trials[i].Err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return trials, err
	}
	return trials, ctx.Err()
}

func (r *Runner[P]) runOne(ctx context.Context, index int, p P) Trial[P] {
	t := Trial[P]{
		RunID:  uuid.Must(uuid.NewV7()),
		Index:  index,
		Params: p,
		Score:  math.Inf(-1),
	}

	params, err := r.Build(p)
	if err != nil {
		t.Err = fmt.Errorf("build: %w", err)
		return t
	}
	s, err := sim.NewSimulation(params)
	if err != nil {
		t.Err = err
		return t
	}
	err = runToHalt(ctx, s)
	t.FinalTime = s.Time()
	t.Ticks = s.Ticks()
	t.HaltReason = s.HaltReason()
	if r.KeepSimulations {
		t.Simulation = s
	}
	if err != nil {
		t.Err = err
		logrus.Warnf("Trial %d (%s) failed: %v", index, t.RunID, err)
		return t
	}

	score := r.Objective(s)
	if math.IsNaN(score) {
		t.Err = ErrInvalidScore
		logrus.Warnf("Trial %d (%s) failed: %v", index, t.RunID, t.Err)
		return t
	}
	t.Score = score
	logrus.Debugf("Trial %d (%s): score %g after %d ticks", index, t.RunID, t.Score, t.Ticks)
	return t
}

// runToHalt steps s until it halts, checking ctx between ticks.
func runToHalt(ctx context.Context, s *sim.Simulation) error {
	for !s.Halted() {
		if s.Ticks()%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := s.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Best returns the highest-scoring successful trial; ties go to the lowest index.
// Trials scoring NaN are skipped.
func Best[P any](trials []Trial[P]) (Trial[P], error) {
	bestIdx := -1
	for i := range trials {
		if trials[i].Failed() || math.IsNaN(trials[i].Score) {
			continue
		}
		if bestIdx < 0 || trials[i].Score > trials[bestIdx].Score {
			bestIdx = i
		}
	}
	if bestIdx < 0 {
		return Trial[P]{}, ErrNoViableTrial
	}
	return trials[bestIdx], nil
}
