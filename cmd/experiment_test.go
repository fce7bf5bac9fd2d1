package cmd

import (
	"context"
	"math"
	"math/rand/v2"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simul-sim/simul/sim"
	"github.com/simul-sim/simul/sim/experiment"
)

func TestRunExperiment_Sweep_PicksSmallestBacklog(t *testing.T) {
	// GIVEN a sweep over consumer periods 1, 2, 3 with a producer sending every tick
	sc := mustLoad(t, "consumer_sweep.yaml")

	// WHEN the experiment runs
	result, err := runExperiment(context.Background(), sc, sc.Seed)
	require.NoError(t, err)

	// THEN the trials come back in candidate order with the expected backlogs
	require.Len(t, result.Trials, 3)
	scores := make([]float64, len(result.Trials))
	for i, tr := range result.Trials {
		scores[i] = tr.Score
	}
	assert.Equal(t, []float64{-1, -7, -9}, scores)
	assert.Equal(t, 1.0, result.Best.Params)

	// AND the scenario itself is left untouched
	a, _ := sc.FindAgent("consumer")
	assert.Equal(t, uint64(1), a.Period)
}

func TestRunExperiment_MonteCarlo_WholePeriodsAndReproducible(t *testing.T) {
	// GIVEN a Monte-Carlo search over a worker period in [1, 8]
	sc := mustLoad(t, "backlog_drain.yaml")

	// WHEN it runs twice
	first, err := runExperiment(context.Background(), sc, sc.Seed)
	require.NoError(t, err)
	second, err := runExperiment(context.Background(), sc, sc.Seed)
	require.NoError(t, err)

	// THEN both runs sample the same whole-tick periods
	require.Len(t, first.Trials, 20)
	lowest := math.Inf(1)
	for i, tr := range first.Trials {
		p := tr.Params
		assert.Equal(t, p, second.Trials[i].Params)
		assert.Equal(t, math.Round(p), p, "period must be whole")
		assert.GreaterOrEqual(t, p, 1.0)
		assert.LessOrEqual(t, p, 8.0)
		// 50 jobs, one every p ticks: the last is taken at 49p and the run halts at 49p+1
		assert.Equal(t, -(49*p+1)+p, tr.Score, "trial %d", i)
		lowest = min(lowest, p)
	}

	// AND the fastest sampled worker wins
	assert.Equal(t, lowest, first.Best.Params)
}

func TestRunExperiment_Annealing_StaysInBounds(t *testing.T) {
	// GIVEN the cafe annealing experiment on the barista's mean service rate
	sc := mustLoad(t, "cafe.yaml")

	// WHEN it runs twice
	first, err := runExperiment(context.Background(), sc, sc.Seed)
	require.NoError(t, err)
	second, err := runExperiment(context.Background(), sc, sc.Seed)
	require.NoError(t, err)

	// THEN it evaluates the initial candidate plus every proposal, within bounds
	require.Len(t, first.Trials, 41)
	assert.Equal(t, 3.25, first.Trials[0].Params, "starts at the midpoint")
	for i, tr := range first.Trials {
		assert.GreaterOrEqual(t, tr.Params, 0.5)
		assert.LessOrEqual(t, tr.Params, 6.0)
		assert.Equal(t, tr.Params, second.Trials[i].Params)
		assert.Equal(t, tr.Score, second.Trials[i].Score)
	}
	assert.Equal(t, first.Best.Params, second.Best.Params)
	for _, tr := range first.Trials {
		assert.LessOrEqual(t, tr.Score, first.Best.Score)
	}
}

func TestRunExperiment_FailedCandidate_DoesNotAbortSweep(t *testing.T) {
	// GIVEN a sweep containing an invalid (negative) period
	sc := mustLoad(t, "consumer_sweep.yaml")
	sc.Experiment.Values = []float64{-1, 2}

	// WHEN the experiment runs
	result, err := runExperiment(context.Background(), sc, sc.Seed)
	require.NoError(t, err)

	// THEN the invalid candidate fails alone and the valid one wins
	require.Len(t, result.Trials, 2)
	assert.True(t, result.Trials[0].Failed())
	assert.True(t, math.IsInf(result.Trials[0].Score, -1))
	assert.Equal(t, 2.0, result.Best.Params)
}

func TestRunExperiment_InvalidSetup_ReturnsError(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Scenario)
	}{
		{"no experiment section", func(sc *Scenario) { sc.Experiment = nil }},
		{"unknown agent", func(sc *Scenario) { sc.Experiment.Agent = "ghost" }},
		{"unknown objective", func(sc *Scenario) { sc.Experiment.Objective = "vibes" }},
		{"unknown strategy", func(sc *Scenario) { sc.Experiment.Strategy = "guess" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sc := mustLoad(t, "consumer_sweep.yaml")
			tc.mutate(sc)
			_, err := runExperiment(context.Background(), sc, 0)
			assert.Error(t, err)
		})
	}
}

func TestScenario_WithParameter(t *testing.T) {
	sc := mustLoad(t, "cafe.yaml")

	// GIVEN a mean override
	variant, err := sc.withParameter("barista", ParameterMean, 4.5)
	require.NoError(t, err)

	// THEN only the copy changes
	v, _ := variant.FindAgent("barista")
	o, _ := sc.FindAgent("barista")
	assert.Equal(t, 4.5, v.Mean)
	assert.Equal(t, 2.0, o.Mean)

	// AND period overrides round to whole ticks
	variant, err = sc.withParameter("barista", ParameterPeriod, 2.6)
	require.NoError(t, err)
	v, _ = variant.FindAgent("barista")
	assert.Equal(t, uint64(3), v.Period)

	_, err = sc.withParameter("barista", ParameterPeriod, -1)
	assert.Error(t, err)
	_, err = sc.withParameter("barista", "colour", 1)
	assert.Error(t, err)
	_, err = sc.withParameter("ghost", ParameterMean, 1)
	assert.Error(t, err)
}

func TestObjectiveFor_ProducerConsumer(t *testing.T) {
	// GIVEN the finished producer/consumer run: time 10, backlog 7, 3 consumed, consumer period 3
	sc := mustLoad(t, "producer_consumer.yaml")
	s, err := runScenario(sc, 0)
	require.NoError(t, err)

	tests := []struct {
		objective string
		want      float64
	}{
		{ObjectiveTime, -10},
		{ObjectiveTimeCost, -7},
		{ObjectiveBacklog, -7},
		{ObjectiveThroughput, 3},
	}
	for _, tc := range tests {
		t.Run(tc.objective, func(t *testing.T) {
			score, err := objectiveFor(tc.objective, "consumer")
			require.NoError(t, err)
			assert.Equal(t, tc.want, score(s))
		})
	}

	_, err = objectiveFor("vibes", "consumer")
	assert.Error(t, err)
}

func TestExperimentSpec_Clamp(t *testing.T) {
	period := &ExperimentSpec{Parameter: ParameterPeriod, Min: 1, Max: 8}
	mean := &ExperimentSpec{Parameter: ParameterMean, Min: 0.5, Max: 6}

	tests := []struct {
		name string
		spec *ExperimentSpec
		in   float64
		want float64
	}{
		{"period below range", period, -3, 1},
		{"period above range", period, 12, 8},
		{"period rounds", period, 4.4, 4},
		{"mean in range", mean, 2.75, 2.75},
		{"mean below range", mean, 0.1, 0.5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.spec.clamp(tc.in))
		})
	}
}

func TestExperimentSpec_Perturb_PeriodMovesOneTick(t *testing.T) {
	spec := &ExperimentSpec{Parameter: ParameterPeriod, Min: 1, Max: 8}
	rng := rand.New(rand.NewPCG(1, 2))

	for i := 0; i < 100; i++ {
		next := spec.perturb(4, rng)
		assert.Contains(t, []float64{3, 5}, next)
	}
	// at the lower bound the move clamps
	for i := 0; i < 100; i++ {
		next := spec.perturb(1, rng)
		assert.Contains(t, []float64{1, 2}, next)
	}
}

func TestSaveExperiment_StoresEveryTrial(t *testing.T) {
	// GIVEN a finished sweep
	sc := mustLoad(t, "consumer_sweep.yaml")
	result, err := runExperiment(context.Background(), sc, 0)
	require.NoError(t, err)

	// WHEN its trials are saved
	path := filepath.Join(t.TempDir(), "trials.db")
	require.NoError(t, saveExperiment(context.Background(), path, "sweep-1", result.Trials))

	// THEN they can be read back, best first
	store, err := experiment.Open(path)
	require.NoError(t, err)
	defer store.Close()

	records, err := store.Trials(context.Background(), "sweep-1")
	require.NoError(t, err)
	assert.Len(t, records, 3)

	best, err := store.Best(context.Background(), "sweep-1")
	require.NoError(t, err)
	assert.Equal(t, -1.0, best.Score)
	p, err := experiment.DecodeParams[float64](best)
	require.NoError(t, err)
	assert.Equal(t, 1.0, p)
	assert.Equal(t, sim.HaltPredicateSatisfied.String(), best.HaltReason)
}

func TestExperimentCmd_WorkersFlag_NoConflictingDefault(t *testing.T) {
	f := experimentCmd.Flags().Lookup("workers")
	require.NotNil(t, f)

	// a zero default leaves the scenario setting in charge and keeps cobra from printing a default
	assert.Equal(t, "0", f.DefValue)
	assert.NotContains(t, f.Usage, "default")
}
