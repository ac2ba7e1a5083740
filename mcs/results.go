package mcs

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"
	"github.com/sirupsen/logrus"
)

// Header of results.csv. The order matches TrialResult's fields.
var resultColumns = []string{"trial_num", "CI", "total_GHG", "combustion", "land_use", "VFF", "other"}

// SaveTrialResults writes the field's results and failures tables,
// overwriting any prior contents. The trial numbers in the two tables are
// disjoint; together they cover exactly the trial numbers that were run.
func (s *Simulation) SaveTrialResults(fieldName string, results []TrialResult, failures []TrialFailure) error {
	path := s.ResultsPath(fieldName, true)
	logrus.Infof("Writing %q", path)
	if err := writeResults(path, results); err != nil {
		return err
	}

	failuresPath := s.FailuresPath(fieldName)
	logrus.Infof("Writing %d failures to %q", len(failures), failuresPath)
	return writeFailures(failuresPath, failures)
}

func formatMetric(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeResults(path string, results []TrialResult) error {
	f, err := os.Create(path)
	if err != nil {
		return Systemf("create results %q: %v", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(resultColumns); err != nil {
		return Systemf("write results %q: %v", path, err)
	}
	for _, r := range results {
		record := []string{
			strconv.Itoa(r.TrialNum),
			formatMetric(r.CI),
			formatMetric(r.TotalGHG),
			formatMetric(r.Combustion),
			formatMetric(r.LandUse),
			formatMetric(r.VFF),
			formatMetric(r.Other),
		}
		if err := w.Write(record); err != nil {
			return Systemf("write results %q: %v", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return Systemf("write results %q: %v", path, err)
	}
	return nil
}

// writeFailures writes the failures table. Messages are always
// double-quote-wrapped, with embedded quotes doubled per CSV convention.
func writeFailures(path string, failures []TrialFailure) error {
	f, err := os.Create(path)
	if err != nil {
		return Systemf("create failures %q: %v", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString("trial_num,message\n"); err != nil {
		return Systemf("write failures %q: %v", path, err)
	}
	for _, fail := range failures {
		msg := strings.ReplaceAll(fail.Message, `"`, `""`)
		if _, err := fmt.Fprintf(f, "%d,\"%s\"\n", fail.TrialNum, msg); err != nil {
			return Systemf("write failures %q: %v", path, err)
		}
	}
	return nil
}

// ReadResults reads back a results.csv written by SaveTrialResults.
func ReadResults(path string) ([]TrialResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Systemf("open results %q: %v", path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, Systemf("read results %q: %v", path, err)
	}
	if len(records) == 0 || len(records[0]) != len(resultColumns) {
		return nil, Systemf("results %q has a malformed header", path)
	}

	results := make([]TrialResult, 0, len(records)-1)
	for i, record := range records[1:] {
		nums := make([]float64, len(resultColumns))
		trialNum, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, Systemf("results %q row %d: invalid trial_num %q", path, i+2, record[0])
		}
		for j := 1; j < len(record); j++ {
			if nums[j], err = strconv.ParseFloat(record[j], 64); err != nil {
				return nil, Systemf("results %q row %d: invalid value %q", path, i+2, record[j])
			}
		}
		results = append(results, TrialResult{
			TrialNum:   trialNum,
			CI:         nums[1],
			TotalGHG:   nums[2],
			Combustion: nums[3],
			LandUse:    nums[4],
			VFF:        nums[5],
			Other:      nums[6],
		})
	}
	return results, nil
}

// ReadFailures reads back a failures.csv written by SaveTrialResults.
func ReadFailures(path string) ([]TrialFailure, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Systemf("open failures %q: %v", path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, Systemf("read failures %q: %v", path, err)
	}
	failures := make([]TrialFailure, 0, len(records))
	for i, record := range records {
		if i == 0 { // header
			continue
		}
		if len(record) != 2 {
			return nil, Systemf("failures %q row %d: expected 2 columns", path, i+1)
		}
		trialNum, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, Systemf("failures %q row %d: invalid trial_num %q", path, i+1, record[0])
		}
		failures = append(failures, TrialFailure{TrialNum: trialNum, Message: record[1]})
	}
	return failures, nil
}

// ResultsSummary aggregates the carbon-intensity column of a completed run.
type ResultsSummary struct {
	Completed int
	Failed    int
	MeanCI    float64
	StdevCI   float64
	P5CI      float64
	MedianCI  float64
	P95CI     float64
}

// Summarize computes summary statistics over the completed trials' carbon
// intensities. Safe for empty results (counts only). The tail percentiles use
// nearest-rank, which is defined for any sample size; interpolated
// percentiles would reject samples smaller than 20 at p5/p95.
func Summarize(results []TrialResult, failures []TrialFailure) (ResultsSummary, error) {
	summary := ResultsSummary{Completed: len(results), Failed: len(failures)}
	if len(results) == 0 {
		return summary, nil
	}

	ci := make([]float64, len(results))
	for i, r := range results {
		ci[i] = r.CI
	}

	var err error
	if summary.MeanCI, err = stats.Mean(ci); err != nil {
		return summary, Systemf("summarizing CI: %v", err)
	}
	if summary.StdevCI, err = stats.StandardDeviation(ci); err != nil {
		return summary, Systemf("summarizing CI: %v", err)
	}
	if summary.P5CI, err = stats.PercentileNearestRank(ci, 5); err != nil {
		return summary, Systemf("summarizing CI: %v", err)
	}
	if summary.MedianCI, err = stats.Median(ci); err != nil {
		return summary, Systemf("summarizing CI: %v", err)
	}
	if summary.P95CI, err = stats.PercentileNearestRank(ci, 95); err != nil {
		return summary, Systemf("summarizing CI: %v", err)
	}
	return summary, nil
}

// Run executes the given trial numbers for every chosen field and writes
// each field's results and failures tables. Disabled fields are skipped with
// a log line. A field completing zero trials is reported, not fatal: the
// remaining fields still run.
//
// trialNums nil means all trials; fieldNames nil means every field in the
// simulation's metadata; workers <= 1 runs serially.
func (s *Simulation) Run(trialNums []int, fieldNames []string, workers int) error {
	if fieldNames == nil {
		fieldNames = s.Meta.FieldNames
	}

	for _, fieldName := range fieldNames {
		field, err := s.model.GetField(fieldName)
		if err != nil {
			return err
		}
		if !field.Enabled() {
			logrus.Infof("Ignoring disabled field %q", fieldName)
			continue
		}

		results, failures, completed, err := s.RunFieldParallel(fieldName, trialNums, workers)
		if err != nil {
			return err
		}
		if err := s.SaveTrialResults(fieldName, results, failures); err != nil {
			return err
		}

		// A summary problem is diagnostic only; the field's tables are
		// already on disk and the remaining fields still run.
		summary, err := Summarize(results, failures)
		if err != nil {
			logrus.Warnf("Summarizing %q failed: %v", fieldName, err)
			continue
		}
		if completed == 0 {
			logrus.Warnf("Field %q completed no trials (%d failures)", fieldName, summary.Failed)
			continue
		}
		logrus.Infof("Field %q: %d completed, %d failed, CI mean=%.3f stdev=%.3f p5=%.3f median=%.3f p95=%.3f",
			fieldName, summary.Completed, summary.Failed,
			summary.MeanCI, summary.StdevCI, summary.P5CI, summary.MedianCI, summary.P95CI)
	}
	return nil
}
