package mcs

import (
	"encoding/csv"
	"os"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// RandomVar is a frozen random variable: fully parameterized at construction
// and immutable afterwards. Ppf (the inverse CDF) is the only operation Latin
// Hypercube Sampling needs: each stratum's quantile is mapped to a value.
type RandomVar interface {
	// Ppf returns the value at quantile q, for q in [0, 1].
	Ppf(q float64) float64
}

// ppfFunc adapts a quantile function to the RandomVar interface.
type ppfFunc func(q float64) float64

func (f ppfFunc) Ppf(q float64) float64 { return f(q) }

// WeightedBinary returns a 0/1 random variable that yields 1 with probability
// probOfOne.
func WeightedBinary(probOfOne float64) RandomVar {
	d := distuv.Bernoulli{P: probOfOne}
	probOfZero := d.CDF(0)
	return ppfFunc(func(q float64) float64 {
		if q <= probOfZero {
			return 0
		}
		return 1
	})
}

// UniformRV returns a uniform random variable on [min, max].
func UniformRV(min, max float64) RandomVar {
	d := distuv.Uniform{Min: min, Max: max}
	return ppfFunc(d.Quantile)
}

// TriangleRV returns a triangular random variable on [min, max] with the
// given mode.
func TriangleRV(min, mode, max float64) (RandomVar, error) {
	if min >= max || mode < min || mode > max {
		return nil, Userf("invalid triangular parameters: min=%v mode=%v max=%v", min, mode, max)
	}
	d := distuv.NewTriangle(min, max, mode, nil)
	return ppfFunc(d.Quantile), nil
}

// NormalRV returns a normal random variable.
func NormalRV(mean, stdev float64) RandomVar {
	d := distuv.Normal{Mu: mean, Sigma: stdev}
	return ppfFunc(d.Quantile)
}

// LognormalRV returns a lognormal random variable parameterized by the mean
// and standard deviation of the underlying normal.
func LognormalRV(logmean, logstdev float64) RandomVar {
	d := distuv.LogNormal{Mu: logmean, Sigma: logstdev}
	return ppfFunc(d.Quantile)
}

// contDist is the slice of distuv behavior truncation needs.
type contDist interface {
	CDF(x float64) float64
	Quantile(p float64) float64
}

// truncated restricts a continuous distribution to [low, high] by rescaling
// quantiles into the CDF interval covered by the bounds.
type truncated struct {
	dist contDist
	plo  float64
	phi  float64
}

func (t truncated) Ppf(q float64) float64 {
	return t.dist.Quantile(t.plo + q*(t.phi-t.plo))
}

func newTruncated(dist contDist, low, high float64) (RandomVar, error) {
	plo := dist.CDF(low)
	phi := dist.CDF(high)
	if phi <= plo {
		return nil, Userf("truncation bounds [%v, %v] leave no probability mass", low, high)
	}
	return truncated{dist: dist, plo: plo, phi: phi}, nil
}

// TruncatedNormalRV returns a normal random variable truncated to [low, high].
func TruncatedNormalRV(mean, stdev, low, high float64) (RandomVar, error) {
	return newTruncated(distuv.Normal{Mu: mean, Sigma: stdev}, low, high)
}

// TruncatedLognormalRV returns a lognormal random variable truncated to
// [low, high].
func TruncatedLognormalRV(logmean, logstdev, low, high float64) (RandomVar, error) {
	return newTruncated(distuv.LogNormal{Mu: logmean, Sigma: logstdev}, low, high)
}

// empirical draws from observed data: quantiles interpolate the order
// statistics of the sample.
type empirical struct {
	sorted []float64
}

func (e empirical) Ppf(q float64) float64 {
	return stat.Quantile(q, stat.Empirical, e.sorted, nil)
}

// EmpiricalRV returns a random variable backed by the given observations.
func EmpiricalRV(values []float64) (RandomVar, error) {
	if len(values) == 0 {
		return nil, Userf("empirical distribution requires at least one observation")
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return empirical{sorted: sorted}, nil
}

// EmpiricalFromCSV reads the named column from a CSV file of observations and
// returns an empirical random variable over it.
func EmpiricalFromCSV(path, colname string) (RandomVar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Systemf("open empirical data %q: %v", path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, Systemf("read empirical data %q: %v", path, err)
	}
	if len(records) < 2 {
		return nil, Systemf("empirical data %q has no observations", path)
	}

	col := -1
	for i, name := range records[0] {
		if name == colname {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, Systemf("empirical data %q has no column %q", path, colname)
	}

	values := make([]float64, 0, len(records)-1)
	for i, record := range records[1:] {
		v, err := strconv.ParseFloat(record[col], 64)
		if err != nil {
			return nil, Systemf("empirical data %q row %d: invalid value %q", path, i+2, record[col])
		}
		values = append(values, v)
	}
	return EmpiricalRV(values)
}
