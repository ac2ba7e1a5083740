package cmd

import (
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fieldmcs/fieldmcs/mcs"
	"github.com/fieldmcs/fieldmcs/mcs/fieldmodel"
)

var (
	runSimDir  string   // Simulation directory to run
	runTrials  string   // Trial numbers, e.g. "0-99,200" (default: all)
	runFields  []string // Field names to limit the run to
	runWorkers int      // Parallel workers per field
	runSeed    int64    // Sampling seed, used only if trial data must be generated
)

// runsimCmd runs trials for an existing simulation directory
var runsimCmd = &cobra.Command{
	Use:   "runsim",
	Short: "Run Monte Carlo trials for a simulation directory",
	Run: func(cmd *cobra.Command, args []string) {
		if runSimDir == "" {
			logrus.Fatalf("--sim-dir is required")
		}

		meta, err := mcs.ReadMetadata(runSimDir)
		if err != nil {
			logrus.Fatalf("Failed to read simulation metadata: %v", err)
		}
		logrus.Infof("Simulation %q: analysis=%q trials=%d fields=%v",
			runSimDir, meta.AnalysisName, meta.Trials, meta.FieldNames)

		cfg := mcs.SimConfig{
			Loader:    fieldmodel.Loader{},
			Evaluator: fieldmodel.Evaluator{},
			Seed:      runSeed,
		}

		var fields []string
		if len(runFields) > 0 {
			fields = runFields
		}

		sim, err := mcs.LoadSimulation(runSimDir, fields, cfg)
		if err != nil {
			logrus.Fatalf("Failed to load simulation: %v", err)
		}

		trialNums, err := parseTrialList(runTrials, meta.Trials)
		if err != nil {
			logrus.Fatalf("Invalid --trials: %v", err)
		}

		if err := sim.Run(trialNums, nil, runWorkers); err != nil {
			logrus.Fatalf("Run failed: %v", err)
		}
		logrus.Info("Simulation complete.")
	},
}

// parseTrialList parses a trial-number spec like "0-4,10,20-24" into a list.
// An empty spec returns nil, meaning all trials. Numbers must lie in
// [0, trials).
func parseTrialList(spec string, trials int) ([]int, error) {
	if spec == "" {
		return nil, nil
	}

	var nums []int
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		lo, hi, found := strings.Cut(part, "-")
		first, err := strconv.Atoi(lo)
		if err != nil {
			return nil, mcs.Userf("invalid trial number %q", part)
		}
		last := first
		if found {
			if last, err = strconv.Atoi(hi); err != nil {
				return nil, mcs.Userf("invalid trial range %q", part)
			}
		}
		if first > last {
			return nil, mcs.Userf("invalid trial range %q", part)
		}
		if first < 0 || last >= trials {
			return nil, mcs.Userf("trial range %q is outside [0, %d)", part, trials)
		}
		for n := first; n <= last; n++ {
			nums = append(nums, n)
		}
	}
	return nums, nil
}

func init() {
	runsimCmd.Flags().StringVar(&runSimDir, "sim-dir", "", "Top-level simulation directory")
	runsimCmd.Flags().StringVar(&runTrials, "trials", "", "Trial numbers to run, e.g. \"0-99,200\" (default: all)")
	runsimCmd.Flags().StringSliceVar(&runFields, "fields", nil, "Comma-separated field names (default: all fields in the simulation)")
	runsimCmd.Flags().IntVar(&runWorkers, "workers", 1, "Parallel workers per field")
	runsimCmd.Flags().Int64Var(&runSeed, "seed", 42, "Sampling seed (used only when trial data must be generated)")

	rootCmd.AddCommand(runsimCmd)
}
