package mcs

import (
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// LHS draws trials Latin-Hypercube samples for each random variable: each
// column's [0,1] range is divided into trials equal-probability strata, one
// point is drawn per stratum, and the strata are permuted independently per
// column. Returns a row-major [trials][len(rvs)] matrix. Deterministic for a
// fixed rng.
func LHS(rvs []RandomVar, trials int, rng *rand.Rand) [][]float64 {
	k := len(rvs)
	rows := make([][]float64, trials)
	for i := range rows {
		rows[i] = make([]float64, k)
	}

	for j, rv := range rvs {
		perm := rng.Perm(trials)
		for i := 0; i < trials; i++ {
			q := (float64(i) + rng.Float64()) / float64(trials)
			rows[perm[i]][j] = rv.Ppf(q)
		}
	}
	return rows
}

// LHSCorrelated draws Latin-Hypercube samples whose columns approximate the
// requested rank correlation matrix, using the Iman-Conover method: van der
// Waerden scores are rotated through the Cholesky factors of their sample
// correlation and of the target matrix, and each column's stratified values
// are reordered to match the rotated scores' ranks. Marginals are unchanged.
//
// A nil corr falls back to independent LHS. corr must be len(rvs) square and
// positive definite.
func LHSCorrelated(rvs []RandomVar, trials int, corr *mat.SymDense, rng *rand.Rand) ([][]float64, error) {
	if corr == nil {
		return LHS(rvs, trials, rng), nil
	}
	k := len(rvs)
	if corr.SymmetricDim() != k {
		return nil, Systemf("correlation matrix is %dx%d, want %dx%d",
			corr.SymmetricDim(), corr.SymmetricDim(), k, k)
	}
	if trials < 2 {
		// No rank structure to induce with fewer than two trials.
		return LHS(rvs, trials, rng), nil
	}

	// Van der Waerden scores, independently permuted per column.
	base := make([]float64, trials)
	for i := range base {
		base[i] = distuv.UnitNormal.Quantile(float64(i+1) / float64(trials+1))
	}
	scores := mat.NewDense(trials, k, nil)
	for j := 0; j < k; j++ {
		perm := rng.Perm(trials)
		for i, p := range perm {
			scores.Set(p, j, base[i])
		}
	}

	// Rotate scores so their rank correlation matches corr.
	sampleCorr := mat.NewSymDense(k, nil)
	stat.CorrelationMatrix(sampleCorr, scores, nil)

	var cholSample, cholTarget mat.Cholesky
	if !cholSample.Factorize(sampleCorr) {
		return nil, Systemf("sample score correlation is not positive definite")
	}
	if !cholTarget.Factorize(corr) {
		return nil, Systemf("correlation matrix is not positive definite")
	}

	var lowerSample, lowerTarget mat.TriDense
	cholSample.LTo(&lowerSample)
	cholTarget.LTo(&lowerTarget)

	var inv mat.Dense
	if err := inv.Inverse(&lowerSample); err != nil {
		return nil, Systemf("inverting score correlation factor: %v", err)
	}
	var rotation mat.Dense
	rotation.Mul(&lowerTarget, &inv)
	var rotated mat.Dense
	rotated.Mul(scores, rotation.T())

	// Stratified marginal values per column, ascending (Ppf is monotone),
	// reordered to the rotated scores' ranks.
	rows := make([][]float64, trials)
	for i := range rows {
		rows[i] = make([]float64, k)
	}
	for j, rv := range rvs {
		values := make([]float64, trials)
		for i := 0; i < trials; i++ {
			q := (float64(i) + rng.Float64()) / float64(trials)
			values[i] = rv.Ppf(q)
		}
		for i, r := range ranks(mat.Col(nil, j, &rotated)) {
			rows[i][j] = values[r]
		}
	}
	return rows, nil
}

// ranks returns the 0-based rank of each element; ties break by position.
func ranks(v []float64) []int {
	idx := make([]int, len(v))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return v[idx[a]] < v[idx[b]] })
	r := make([]int, len(v))
	for pos, id := range idx {
		r[id] = pos
	}
	return r
}
