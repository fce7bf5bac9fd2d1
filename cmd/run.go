package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/simul-sim/simul/sim"
)

// runCmd runs one scenario to completion and prints its summary
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a scenario until it halts",
	Run: func(cmd *cobra.Command, args []string) {
		sc, err := LoadScenario(scenarioPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		s, err := runScenario(sc, resolveSeed(cmd, sc))
		if s != nil {
			fmt.Fprintln(cmd.OutOrStdout(), RenderRunReport(sc.Name, s))
		}
		if err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}

		if telemetryOut != "" {
			if err := writeCSV(telemetryOut, s, sim.WriteQueueDepthCSV); err != nil {
				logrus.Fatalf("Failed to write queue depth telemetry: %v", err)
			}
			logrus.Infof("Queue depth telemetry written to %s", telemetryOut)
		}
		if idleOut != "" {
			if err := writeCSV(idleOut, s, sim.WriteIdleCyclesCSV); err != nil {
				logrus.Fatalf("Failed to write idle cycle telemetry: %v", err)
			}
			logrus.Infof("Idle cycle telemetry written to %s", idleOut)
		}
	},
}

// runScenario builds and runs the scenario. The simulation is returned whenever it
// was constructed, including when the run failed.
func runScenario(sc *Scenario, runSeed uint64) (*sim.Simulation, error) {
	params, err := sc.Parameters(runSeed)
	if err != nil {
		return nil, err
	}
	s, err := sim.NewSimulation(params)
	if err != nil {
		return nil, err
	}

	logrus.Infof("Starting scenario %q with %d agents, seed=%d", sc.Name, len(sc.Agents), runSeed)
	startTime := time.Now()
	err = s.Run()
	logrus.Infof("Scenario %q stopped at time %d after %v", sc.Name, s.Time(), time.Since(startTime))
	return s, err
}

// writeCSV creates path and fills it with one of the sim CSV exporters.
func writeCSV(path string, s *sim.Simulation, export func(io.Writer, *sim.Simulation) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export(f, s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func init() {
	runCmd.Flags().StringVarP(&scenarioPath, "file", "f", "", "Scenario YAML file")
	runCmd.Flags().Uint64Var(&seed, "seed", 0, "Seed for stochastic agents (default: the scenario's seed)")
	runCmd.Flags().StringVar(&telemetryOut, "telemetry-out", "", "Write the queue depth series as CSV to this file")
	runCmd.Flags().StringVar(&idleOut, "idle-out", "", "Write per-agent idle cycle counts as CSV to this file")
	_ = runCmd.MarkFlagRequired("file")

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
