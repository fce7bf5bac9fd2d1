package cmd

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/simul-sim/simul/sim"
	"github.com/simul-sim/simul/sim/experiment"
)

// Search strategies, tunable parameters and objectives accepted in the experiment section.
const (
	StrategySweep      = "sweep"
	StrategyMonteCarlo = "monte-carlo"
	StrategyAnnealing  = "annealing"

	ParameterPeriod = "period"
	ParameterMean   = "mean"

	ObjectiveTime       = "time"
	ObjectiveTimeCost   = "time-cost"
	ObjectiveBacklog    = "backlog"
	ObjectiveThroughput = "throughput"
)

// Annealing defaults applied when the scenario leaves them unset.
const (
	defaultTemperature = 10.0
	defaultCooling     = 0.9
)

// ExperimentSpec tunes one numeric parameter of one agent across repeated runs.
type ExperimentSpec struct {
	Strategy    string    `yaml:"strategy"`
	Agent       string    `yaml:"agent"`     // agent whose parameter is tuned
	Parameter   string    `yaml:"parameter"` // "period" or "mean"
	Objective   string    `yaml:"objective"`
	Values      []float64 `yaml:"values"` // sweep candidates
	Min         float64   `yaml:"min"`
	Max         float64   `yaml:"max"`
	Trials      int       `yaml:"trials"` // monte-carlo samples or annealing proposals
	Workers     int       `yaml:"workers"`
	Temperature float64   `yaml:"temperature"`
	Cooling     float64   `yaml:"cooling"`
	Seed        uint64    `yaml:"seed"`
}

// experimentCmd searches the scenario's experiment section and reports the best candidate
var experimentCmd = &cobra.Command{
	Use:   "experiment",
	Short: "Search a scenario parameter over repeated independent runs",
	Run: func(cmd *cobra.Command, args []string) {
		sc, err := LoadScenario(scenarioPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if sc.Experiment == nil {
			logrus.Fatalf("Scenario %q has no experiment section", sc.Name)
		}
		if cmd.Flags().Changed("workers") {
			sc.Experiment.Workers = workers
		}

		result, err := runExperiment(cmd.Context(), sc, resolveSeed(cmd, sc))
		if len(result.Trials) > 0 {
			fmt.Fprintln(cmd.OutOrStdout(), RenderExperimentReport(sc, result))
		}
		if err != nil {
			logrus.Fatalf("Experiment failed: %v", err)
		}

		if dbPath != "" {
			id := experimentID
			if id == "" {
				id = uuid.NewString()
			}
			if err := saveExperiment(cmd.Context(), dbPath, id, result.Trials); err != nil {
				logrus.Fatalf("Failed to store trials: %v", err)
			}
			logrus.Infof("Stored %d trials in %s under experiment %s", len(result.Trials), dbPath, id)
		}
	},
}

// runExperiment runs the scenario's experiment. runSeed seeds the agents of every
// trial; the search itself is seeded from the experiment section.
func runExperiment(ctx context.Context, sc *Scenario, runSeed uint64) (experiment.SearchResult[float64], error) {
	var none experiment.SearchResult[float64]
	spec := sc.Experiment
	if spec == nil {
		return none, fmt.Errorf("scenario %q has no experiment section", sc.Name)
	}
	if _, ok := sc.FindAgent(spec.Agent); !ok {
		return none, fmt.Errorf("experiment: unknown agent %q", spec.Agent)
	}
	objective, err := objectiveFor(spec.Objective, spec.Agent)
	if err != nil {
		return none, err
	}

	runner := &experiment.Runner[float64]{
		Build: func(v float64) (sim.Parameters, error) {
			variant, err := sc.withParameter(spec.Agent, spec.Parameter, v)
			if err != nil {
				return sim.Parameters{}, err
			}
			return variant.Parameters(runSeed)
		},
		Objective: objective,
		Workers:   spec.Workers,
	}

	logrus.Infof("Starting %s experiment on %s.%s (objective %s)", spec.Strategy, spec.Agent, spec.Parameter, spec.Objective)
	switch spec.Strategy {
	case StrategySweep:
		return experiment.Sweep(ctx, runner, spec.Values)
	case StrategyMonteCarlo:
		return experiment.MonteCarloSearch(ctx, runner, spec.sample, spec.Trials, spec.Seed)
	case StrategyAnnealing:
		temperature, cooling := spec.Temperature, spec.Cooling
		if temperature <= 0 {
			temperature = defaultTemperature
		}
		if cooling <= 0 || cooling >= 1 {
			cooling = defaultCooling
		}
		return experiment.SimulatedAnnealing(ctx, runner, experiment.AnnealingConfig[float64]{
			Initial:  spec.clamp((spec.Min + spec.Max) / 2),
			Perturb:  spec.perturb,
			Schedule: experiment.GeometricSchedule(temperature, cooling),
			Limit:    spec.Trials,
			Seed:     spec.Seed,
		})
	default:
		return none, fmt.Errorf("experiment: unknown strategy %q", spec.Strategy)
	}
}

// withParameter returns a copy of the scenario with the named agent's parameter set to v.
func (sc *Scenario) withParameter(name, parameter string, v float64) (*Scenario, error) {
	variant := *sc
	variant.Agents = slices.Clone(sc.Agents)
	a, ok := variant.FindAgent(name)
	if !ok {
		return nil, fmt.Errorf("unknown agent %q", name)
	}
	switch parameter {
	case ParameterPeriod:
		if v < 0 || math.IsNaN(v) {
			return nil, fmt.Errorf("period must be non-negative, got %g", v)
		}
		a.Period = uint64(math.Round(v))
	case ParameterMean:
		a.Mean = v
	default:
		return nil, fmt.Errorf("unknown parameter %q", parameter)
	}
	return &variant, nil
}

// objectiveFor returns the scoring function for an objective name. Higher is better.
func objectiveFor(name, agentName string) (func(*sim.Simulation) float64, error) {
	switch name {
	case ObjectiveTime:
		return func(s *sim.Simulation) float64 { return -float64(s.Time()) }, nil
	case ObjectiveTimeCost:
		// agents report cost as a negated period, so this rewards finishing early
		// without running the tuned agent more often than needed
		return func(s *sim.Simulation) float64 {
			cost := 0.0
			if a := s.FindByName(agentName); a != nil {
				cost = a.Cost()
			}
			return -float64(s.Time()) - cost
		}, nil
	case ObjectiveBacklog:
		return func(s *sim.Simulation) float64 {
			backlog := 0
			for _, a := range s.Agents() {
				backlog += a.State.Queue.Len()
			}
			return -float64(backlog)
		}, nil
	case ObjectiveThroughput:
		return func(s *sim.Simulation) float64 {
			consumed := 0
			for _, a := range s.Agents() {
				consumed += len(a.State.Consumed)
			}
			return float64(consumed)
		}, nil
	default:
		return nil, fmt.Errorf("experiment: unknown objective %q", name)
	}
}

// sample draws a uniform candidate in [Min, Max]; periods are whole ticks.
func (e *ExperimentSpec) sample(rng *rand.Rand) float64 {
	return e.clamp(e.Min + rng.Float64()*(e.Max-e.Min))
}

// perturb moves a period by one tick or a mean by up to a tenth of the range.
func (e *ExperimentSpec) perturb(v float64, rng *rand.Rand) float64 {
	if e.Parameter == ParameterPeriod {
		if rng.IntN(2) == 0 {
			return e.clamp(v - 1)
		}
		return e.clamp(v + 1)
	}
	step := (e.Max - e.Min) / 10
	return e.clamp(v + (2*rng.Float64()-1)*step)
}

func (e *ExperimentSpec) clamp(v float64) float64 {
	v = max(e.Min, min(e.Max, v))
	if e.Parameter == ParameterPeriod {
		v = math.Round(v)
	}
	return v
}

func saveExperiment(ctx context.Context, path, id string, trials []experiment.Trial[float64]) error {
	store, err := experiment.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()
	return experiment.SaveTrials(ctx, store, id, trials)
}

func init() {
	experimentCmd.Flags().StringVarP(&scenarioPath, "file", "f", "", "Scenario YAML file with an experiment section")
	experimentCmd.Flags().Uint64Var(&seed, "seed", 0, "Seed for stochastic agents in every trial (default: the scenario's seed)")
	experimentCmd.Flags().IntVar(&workers, "workers", 0, "Number of simulations run concurrently; overrides the scenario's workers setting when given")
	experimentCmd.Flags().StringVar(&dbPath, "db", "", "SQLite file to store every trial in")
	experimentCmd.Flags().StringVar(&experimentID, "id", "", "Experiment identifier used in the trial store (default: a new UUID)")
	_ = experimentCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(experimentCmd)
}
