package mcs

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scaledEvaluator returns CI = A/10 and Combustion = A for the sampled
// attribute A, with zero emissions in every other category.
var scaledEvaluator = EvaluatorFunc(func(f Field, trialNum int) (*EvalResult, error) {
	a := f.(*fakeField).attrs["A"].value
	return &EvalResult{
		CarbonIntensity: a / 10,
		GHG:             map[string]float64{CategoryCombustion: a},
	}, nil
})

func newRunnableSim(t *testing.T, trials int, eval Evaluator) *Simulation {
	t.Helper()
	simDir := filepath.Join(t.TempDir(), "mcs")
	loader := oneFieldLoader("f1", map[string]fakeAttrDef{"A": {}, "B": {}})
	reg := NewRegistry()
	_, err := reg.Register("A", UniformRV(0, 10))
	require.NoError(t, err)
	_, err = reg.Register("B", WeightedBinary(0.5))
	require.NoError(t, err)

	cfg := testConfig(loader, reg)
	cfg.Evaluator = eval
	sim, err := NewSimulation(simDir, nil, "test", trials, nil, false, cfg)
	require.NoError(t, err)
	return sim
}

func TestRunFieldEndToEnd(t *testing.T) {
	sim := newRunnableSim(t, 5, scaledEvaluator)

	table, err := ReadTrialTable(sim.TrialDataPath("f1", false))
	require.NoError(t, err)
	require.Equal(t, []string{"A", "B"}, table.Columns)
	require.Equal(t, 5, table.Trials())

	results, failures, completed, err := sim.RunField("f1", nil)
	require.NoError(t, err)
	assert.Empty(t, failures)
	assert.Equal(t, 5, completed)
	require.Len(t, results, 5)

	for _, r := range results {
		row, err := table.Trial(r.TrialNum)
		require.NoError(t, err)
		a, b := row[0], row[1]
		assert.GreaterOrEqual(t, a, 0.0)
		assert.LessOrEqual(t, a, 10.0)
		assert.Contains(t, []float64{0, 1}, b)

		assert.InDelta(t, roundTo(a/10, DefaultDigits), r.CI, 1e-9)
		assert.InDelta(t, roundTo(a, DefaultDigits), r.Combustion, 1e-9)
		assert.InDelta(t, roundTo(a, DefaultDigits), r.TotalGHG, 1e-9)
		assert.Zero(t, r.LandUse)
		assert.Zero(t, r.VFF)
		assert.Zero(t, r.Other)
	}
}

func TestRunFieldIsolatesFailures(t *testing.T) {
	failAtThree := EvaluatorFunc(func(f Field, trialNum int) (*EvalResult, error) {
		if trialNum == 3 {
			return nil, fmt.Errorf("solver did not converge")
		}
		return scaledEvaluator(f, trialNum)
	})
	sim := newRunnableSim(t, 5, failAtThree)

	results, failures, completed, err := sim.RunField("f1", nil)
	require.NoError(t, err)

	assert.Equal(t, 4, completed)
	require.Len(t, results, 4)
	for _, r := range results {
		assert.NotEqual(t, 3, r.TrialNum)
	}

	require.Len(t, failures, 1)
	assert.Equal(t, 3, failures[0].TrialNum)
	assert.Equal(t, "solver did not converge", failures[0].Message)
}

func TestRunFieldCompletedPlusFailedEqualsRequested(t *testing.T) {
	flaky := EvaluatorFunc(func(f Field, trialNum int) (*EvalResult, error) {
		if trialNum%3 == 0 {
			return nil, fmt.Errorf("trial %d rejected", trialNum)
		}
		return scaledEvaluator(f, trialNum)
	})
	sim := newRunnableSim(t, 10, flaky)

	requested := []int{0, 2, 4, 6, 8}
	results, failures, completed, err := sim.RunField("f1", requested)
	require.NoError(t, err)

	assert.Equal(t, len(requested), completed+len(failures))

	seen := map[int]bool{}
	for _, r := range results {
		assert.False(t, seen[r.TrialNum])
		seen[r.TrialNum] = true
	}
	for _, f := range failures {
		assert.False(t, seen[f.TrialNum], "trial %d in both tables", f.TrialNum)
		seen[f.TrialNum] = true
	}
	for _, num := range requested {
		assert.True(t, seen[num], "trial %d missing from both tables", num)
	}
}

func TestRunTrialIsolation(t *testing.T) {
	// An evaluator that scribbles on an attribute the registry does not
	// sample. If trials shared a model instance, the scribble would be
	// visible to the next trial; a fresh instantiation per trial means it
	// never is.
	const sentinel = 12345.0
	polluting := EvaluatorFunc(func(f Field, trialNum int) (*EvalResult, error) {
		scratch := f.(*fakeField).attrs["scratch"]
		if scratch.value == sentinel {
			return nil, fmt.Errorf("observed state from a previous trial")
		}
		scratch.value = sentinel
		return scaledEvaluator(f, trialNum)
	})

	simDir := filepath.Join(t.TempDir(), "mcs")
	loader := oneFieldLoader("f1", map[string]fakeAttrDef{"A": {}, "B": {}, "scratch": {}})
	reg := uniformRegistry(t, "A", "B")
	cfg := testConfig(loader, reg)
	cfg.Evaluator = polluting
	sim, err := NewSimulation(simDir, nil, "test", 5, nil, false, cfg)
	require.NoError(t, err)

	_, failures, completed, err := sim.RunField("f1", nil)
	require.NoError(t, err)
	assert.Equal(t, 5, completed)
	assert.Empty(t, failures)
}

func TestRunTrialDeterministic(t *testing.T) {
	sim := newRunnableSim(t, 5, scaledEvaluator)

	first, _, _, err := sim.RunField("f1", []int{2})
	require.NoError(t, err)
	second, _, _, err := sim.RunField("f1", []int{2})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRunFieldMissingTrialNum(t *testing.T) {
	sim := newRunnableSim(t, 3, scaledEvaluator)

	// Trial 99 is not in the table; it degrades to a recorded failure.
	results, failures, completed, err := sim.RunField("f1", []int{0, 99})
	require.NoError(t, err)
	assert.Equal(t, 1, completed)
	require.Len(t, results, 1)
	require.Len(t, failures, 1)
	assert.Equal(t, 99, failures[0].TrialNum)
}

func TestRunFieldParallelMatchesSerial(t *testing.T) {
	flaky := EvaluatorFunc(func(f Field, trialNum int) (*EvalResult, error) {
		if trialNum == 7 {
			return nil, fmt.Errorf("trial 7 rejected")
		}
		return scaledEvaluator(f, trialNum)
	})
	sim := newRunnableSim(t, 20, flaky)

	serialResults, serialFailures, serialCompleted, err := sim.RunField("f1", nil)
	require.NoError(t, err)
	parallelResults, parallelFailures, parallelCompleted, err := sim.RunFieldParallel("f1", nil, 4)
	require.NoError(t, err)

	assert.Equal(t, serialCompleted, parallelCompleted)
	assert.Equal(t, serialResults, parallelResults)
	assert.Equal(t, serialFailures, parallelFailures)
}

func TestRoundTo(t *testing.T) {
	assert.Equal(t, 1.235, roundTo(1.23456, 3))
	assert.Equal(t, 1.234, roundTo(1.23449, 3))
	assert.Equal(t, -1.235, roundTo(-1.23456, 3))
	assert.Equal(t, 0.0, roundTo(0, 3))
}
