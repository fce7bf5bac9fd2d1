package cmd

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueyaml "cuelang.org/go/encoding/yaml"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

//go:embed scenario.cue
var scenarioSchema string

// ValidateScenario checks YAML scenario data against the embedded CUE schema.
func ValidateScenario(filename string, data []byte) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(scenarioSchema, cue.Filename("scenario.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile scenario schema: %w", err)
	}

	file, err := cueyaml.Extract(filename, data)
	if err != nil {
		return fmt.Errorf("cannot read YAML scenario: %w", err)
	}
	value := ctx.BuildFile(file)
	if err := value.Err(); err != nil {
		return fmt.Errorf("cannot read YAML scenario: %w", err)
	}

	final := schema.LookupPath(cue.ParsePath("#Scenario")).Unify(value)
	if err := final.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("scenario validation failed: %w", err)
	}
	return nil
}

// validateCmd checks a scenario file without running it
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a scenario file against the schema",
	Run: func(cmd *cobra.Command, args []string) {
		sc, err := LoadScenario(scenarioPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if _, err := sc.Parameters(sc.Seed); err != nil {
			logrus.Fatalf("Scenario %s is invalid: %v", scenarioPath, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d agents)\n", scenarioPath, len(sc.Agents))
	},
}

func init() {
	validateCmd.Flags().StringVarP(&scenarioPath, "file", "f", "", "Scenario YAML file")
	_ = validateCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(validateCmd)
}
