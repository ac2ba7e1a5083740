package mcs

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// Columns of the parameter-distribution spec file.
var distroColumns = []string{
	"distribution_type",
	"variable_name",
	"low_bound",
	"high_bound",
	"mean",
	"SD",
	"default_value",
	"prob_of_yes",
	"pathname",
}

// distroRow is one parsed row of the spec file; empty cells stay "".
type distroRow struct {
	shape     string
	name      string
	low       string
	high      string
	mean      string
	stdev     string
	dflt      string
	probOfYes string
	pathname  string
}

func (row *distroRow) float(colname, cell string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		return 0, Userf("distribution for %q: %s must be numeric, got %q", row.name, colname, cell)
	}
	return v, nil
}

// ReadDistributions reads parameter distributions from the designated CSV
// file into the registry. These are combined with any distributions already
// registered in code; the two share one namespace and later registrations
// win.
//
// Rows are skipped (with a diagnostic, without being registered) when the
// variable name is empty, when every parameter cell is empty and the shape is
// not empirical (the value is presumed derived by the model's own defaults),
// or when the distribution is degenerate: a binary with prob_of_yes 0 or 1, a
// uniform or triangular with equal bounds, a normal or lognormal with zero
// stdev.
func ReadDistributions(reg *Registry, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return Systemf("open distributions file %q: %v", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comment = '#'
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return Systemf("read distributions file %q: %v", path, err)
	}
	if len(records) == 0 {
		return Userf("distributions file %q is empty", path)
	}

	colIdx := make(map[string]int)
	for i, name := range records[0] {
		colIdx[strings.TrimSpace(name)] = i
	}
	for _, name := range distroColumns {
		if _, ok := colIdx[name]; !ok {
			return Userf("distributions file %q is missing column %q", path, name)
		}
	}

	cell := func(record []string, colname string) string {
		idx := colIdx[colname]
		if idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	for _, record := range records[1:] {
		row := &distroRow{
			shape:     strings.ToLower(cell(record, "distribution_type")),
			name:      cell(record, "variable_name"),
			low:       cell(record, "low_bound"),
			high:      cell(record, "high_bound"),
			mean:      cell(record, "mean"),
			stdev:     cell(record, "SD"),
			dflt:      cell(record, "default_value"),
			probOfYes: cell(record, "prob_of_yes"),
			pathname:  cell(record, "pathname"),
		}

		if row.name == "" {
			continue
		}

		if row.low == "" && row.high == "" && row.mean == "" && row.probOfYes == "" && row.shape != "empirical" {
			logrus.Infof("* %s depends on other distributions / smart defaults", row.name)
			continue
		}

		rv, err := buildRV(row, filepath.Dir(path))
		if err != nil {
			return err
		}
		if rv == nil { // degenerate row, diagnostic already logged
			continue
		}

		if _, err := reg.Register(row.name, rv); err != nil {
			return err
		}
	}
	return nil
}

// buildRV constructs the frozen random variable for one spec row. A nil
// RandomVar with a nil error means the row was skipped as degenerate.
func buildRV(row *distroRow, baseDir string) (RandomVar, error) {
	switch row.shape {
	case "binary":
		probOfYes := 0.5
		if row.probOfYes != "" {
			v, err := row.float("prob_of_yes", row.probOfYes)
			if err != nil {
				return nil, err
			}
			probOfYes = v
		}
		if probOfYes == 0 || probOfYes == 1 {
			logrus.Infof("* Ignoring distribution on %s, Binary distribution has prob_of_yes = %v", row.name, probOfYes)
			return nil, nil
		}
		return WeightedBinary(probOfYes), nil

	case "uniform":
		low, err := row.float("low_bound", row.low)
		if err != nil {
			return nil, err
		}
		high, err := row.float("high_bound", row.high)
		if err != nil {
			return nil, err
		}
		if low == high {
			logrus.Infof("* Ignoring distribution on %s, Uniform high and low bounds are both %v", row.name, low)
			return nil, nil
		}
		return UniformRV(low, high), nil

	case "triangular":
		low, err := row.float("low_bound", row.low)
		if err != nil {
			return nil, err
		}
		high, err := row.float("high_bound", row.high)
		if err != nil {
			return nil, err
		}
		mode, err := row.float("default_value", row.dflt)
		if err != nil {
			return nil, err
		}
		if low == high {
			logrus.Infof("* Ignoring distribution on %s, Triangle high and low bounds are both %v", row.name, low)
			return nil, nil
		}
		return TriangleRV(low, mode, high)

	case "normal", "lognormal":
		mean, err := row.float("mean", row.mean)
		if err != nil {
			return nil, err
		}
		stdev, err := row.float("SD", row.stdev)
		if err != nil {
			return nil, err
		}
		// Exact zero only; a near-zero stdev is a legitimate narrow distribution.
		if stdev == 0.0 {
			label := "Normal"
			if row.shape == "lognormal" {
				label = "Lognormal"
			}
			logrus.Infof("* Ignoring distribution on %s, %s has stdev = 0", row.name, label)
			return nil, nil
		}
		truncate := row.low != "" && row.high != ""
		var low, high float64
		if truncate {
			if low, err = row.float("low_bound", row.low); err != nil {
				return nil, err
			}
			if high, err = row.float("high_bound", row.high); err != nil {
				return nil, err
			}
		}
		if row.shape == "normal" {
			if !truncate {
				return NormalRV(mean, stdev), nil
			}
			return TruncatedNormalRV(mean, stdev, low, high)
		}
		if !truncate {
			return LognormalRV(mean, stdev), nil
		}
		return TruncatedLognormalRV(mean, stdev, low, high)

	case "empirical":
		pathname := row.pathname
		if pathname == "" {
			return nil, Userf("empirical distribution for %q has no pathname", row.name)
		}
		if !filepath.IsAbs(pathname) {
			pathname = filepath.Join(baseDir, pathname)
		}
		return EmpiricalFromCSV(pathname, row.name)

	default:
		return nil, Systemf("unknown distribution shape: %q", row.shape)
	}
}
