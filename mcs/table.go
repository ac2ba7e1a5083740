package mcs

import (
	"encoding/csv"
	"os"
	"strconv"
)

// TrialTable holds the sampled parameter values for one field: one row per
// trial, one column per sampled distribution. Generated tables are indexed by
// contiguous trial numbers 0..T-1; tables read back from disk keep whatever
// trial numbers they contain.
type TrialTable struct {
	Columns []string
	nums    []int
	rows    [][]float64
	byNum   map[int]int
}

// NewTrialTable builds a table over the given columns and row-major values,
// indexed by trial numbers 0..len(rows)-1.
func NewTrialTable(columns []string, rows [][]float64) *TrialTable {
	nums := make([]int, len(rows))
	byNum := make(map[int]int, len(rows))
	for i := range rows {
		nums[i] = i
		byNum[i] = i
	}
	return &TrialTable{Columns: columns, nums: nums, rows: rows, byNum: byNum}
}

// Trials returns the number of rows.
func (t *TrialTable) Trials() int { return len(t.rows) }

// TrialNums returns the trial numbers present, in row order.
func (t *TrialTable) TrialNums() []int {
	nums := make([]int, len(t.nums))
	copy(nums, t.nums)
	return nums
}

// Trial returns the sampled values for the given trial number, aligned with
// Columns. Requesting a trial number the table does not contain is a
// SystemError.
func (t *TrialTable) Trial(trialNum int) ([]float64, error) {
	i, ok := t.byNum[trialNum]
	if !ok {
		return nil, Systemf("trial %d was not found in trial data", trialNum)
	}
	return t.rows[i], nil
}

// WriteCSV writes the table with a leading trial_num column.
func (t *TrialTable) WriteCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return Systemf("create trial data %q: %v", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := append([]string{"trial_num"}, t.Columns...)
	if err := w.Write(header); err != nil {
		return Systemf("write trial data %q: %v", path, err)
	}

	record := make([]string, len(header))
	for i, row := range t.rows {
		record[0] = strconv.Itoa(t.nums[i])
		for j, v := range row {
			record[j+1] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := w.Write(record); err != nil {
			return Systemf("write trial data %q: %v", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return Systemf("write trial data %q: %v", path, err)
	}
	return nil
}

// ReadTrialTable reads a trial-data CSV written by WriteCSV.
func ReadTrialTable(path string) (*TrialTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Systemf("can't read trial data: %q doesn't exist or is unreadable: %v", path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, Systemf("can't read trial data from %q: %v", path, err)
	}
	if len(records) == 0 || len(records[0]) < 1 || records[0][0] != "trial_num" {
		return nil, Systemf("trial data %q is missing its trial_num header", path)
	}

	t := &TrialTable{
		Columns: records[0][1:],
		byNum:   make(map[int]int, len(records)-1),
	}
	for i, record := range records[1:] {
		if len(record) != len(records[0]) {
			return nil, Systemf("trial data %q row %d: expected %d columns", path, i+2, len(records[0]))
		}
		num, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, Systemf("trial data %q row %d: invalid trial_num %q", path, i+2, record[0])
		}
		row := make([]float64, len(record)-1)
		for j, cell := range record[1:] {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, Systemf("trial data %q row %d: invalid value %q", path, i+2, cell)
			}
			row[j] = v
		}
		t.byNum[num] = len(t.rows)
		t.nums = append(t.nums, num)
		t.rows = append(t.rows, row)
	}
	return t, nil
}
