package mcs

import (
	"math"
	"sort"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// TrialResult is one successfully completed trial: the carbon intensity and
// the greenhouse-gas breakdown, each rounded to the configured digit count.
type TrialResult struct {
	TrialNum   int
	CI         float64
	TotalGHG   float64
	Combustion float64
	LandUse    float64
	VFF        float64
	Other      float64
}

// TrialFailure records a trial whose evaluation failed. Failures are data,
// not errors: they are collected alongside results and never abort a batch.
type TrialFailure struct {
	TrialNum int
	Message  string
}

// RunField runs the given trial numbers for one field, one trial at a time.
// A nil trialNums runs every trial in the field's trial table.
//
// Every trial evaluates a fresh model instantiated from the cached template,
// never the previous trial's mutated graph, so no trial can observe state
// written by another. Any failure inside a trial is recorded and the batch
// continues; the returned error covers only setup problems (unreadable trial
// data, missing evaluator).
func (s *Simulation) RunField(fieldName string, trialNums []int) ([]TrialResult, []TrialFailure, int, error) {
	table, trialNums, err := s.prepareRun(fieldName, trialNums)
	if err != nil {
		return nil, nil, 0, err
	}

	results := make([]TrialResult, 0, len(trialNums))
	failures := []TrialFailure{}
	for _, trialNum := range trialNums {
		res, err := s.runTrial(fieldName, table, trialNum)
		if err != nil {
			logrus.Warnf("Trial %d failed in %q: %v", trialNum, fieldName, err)
			failures = append(failures, TrialFailure{TrialNum: trialNum, Message: err.Error()})
			continue
		}
		results = append(results, *res)
	}
	return results, failures, len(results), nil
}

// RunFieldParallel is RunField with the trial numbers partitioned across
// workers. Each worker instantiates its own models; the only shared inputs
// are the immutable template and the trial table, so no locking is needed.
// Results and failures are merged by disjoint trial-number union and sorted
// by trial number.
func (s *Simulation) RunFieldParallel(fieldName string, trialNums []int, workers int) ([]TrialResult, []TrialFailure, int, error) {
	if workers <= 1 {
		return s.RunField(fieldName, trialNums)
	}

	table, trialNums, err := s.prepareRun(fieldName, trialNums)
	if err != nil {
		return nil, nil, 0, err
	}
	if workers > len(trialNums) {
		workers = len(trialNums)
	}

	partResults := make([][]TrialResult, workers)
	partFailures := make([][]TrialFailure, workers)

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			for i := w; i < len(trialNums); i += workers {
				trialNum := trialNums[i]
				res, err := s.runTrial(fieldName, table, trialNum)
				if err != nil {
					logrus.Warnf("Trial %d failed in %q: %v", trialNum, fieldName, err)
					partFailures[w] = append(partFailures[w], TrialFailure{TrialNum: trialNum, Message: err.Error()})
					continue
				}
				partResults[w] = append(partResults[w], *res)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, 0, err
	}

	results := []TrialResult{}
	failures := []TrialFailure{}
	for w := 0; w < workers; w++ {
		results = append(results, partResults[w]...)
		failures = append(failures, partFailures[w]...)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].TrialNum < results[j].TrialNum })
	sort.Slice(failures, func(i, j int) bool { return failures[i].TrialNum < failures[j].TrialNum })
	return results, failures, len(results), nil
}

func (s *Simulation) prepareRun(fieldName string, trialNums []int) (*TrialTable, []int, error) {
	if s.cfg.Evaluator == nil {
		return nil, nil, Systemf("running trials requires an evaluator")
	}
	table, err := s.fieldTrialData(fieldName)
	if err != nil {
		return nil, nil, err
	}
	if trialNums == nil {
		trialNums = table.TrialNums()
	}
	return table, trialNums, nil
}

// runTrial executes one trial. Any returned error becomes a recorded failure
// for this trial number.
func (s *Simulation) runTrial(fieldName string, table *TrialTable, trialNum int) (*TrialResult, error) {
	// Fresh model from the cached template, never a reused graph.
	model, err := s.cfg.Loader.Load(s.template, s.Meta.AnalysisName, s.Meta.FieldNames)
	if err != nil {
		return nil, err
	}

	// Field handles from prior instantiations are invalid here.
	field, err := model.GetField(fieldName)
	if err != nil {
		return nil, err
	}

	row, err := table.Trial(trialNum)
	if err != nil {
		return nil, err
	}

	for i, col := range table.Columns {
		name, err := ParseAttrName(col)
		if err != nil {
			return nil, err
		}
		attr, err := model.ResolveAttribute(field, name)
		if err != nil {
			return nil, err
		}
		// Explicit first: the model's default logic must not recompute
		// the sampled value.
		attr.SetExplicit(true)
		attr.SetValue(row[i])
	}

	res, err := s.cfg.Evaluator.Run(field, trialNum)
	if err != nil {
		return nil, err
	}

	digits := s.cfg.digits()
	total := 0.0
	for _, v := range res.GHG {
		total += v
	}
	vff := res.GHG[CategoryVenting] + res.GHG[CategoryFlaring] + res.GHG[CategoryFugitives]

	return &TrialResult{
		TrialNum:   trialNum,
		CI:         roundTo(res.CarbonIntensity, digits),
		TotalGHG:   roundTo(total, digits),
		Combustion: roundTo(res.GHG[CategoryCombustion], digits),
		LandUse:    roundTo(res.GHG[CategoryLandUse], digits),
		VFF:        roundTo(vff, digits),
		Other:      roundTo(res.GHG[CategoryOther], digits),
	}, nil
}

func roundTo(v float64, digits int) float64 {
	p := math.Pow10(digits)
	return math.Round(v*p) / p
}
