package mcs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const distroHeader = "distribution_type,variable_name,low_bound,high_bound,mean,SD,default_value,prob_of_yes,pathname\n"

func writeDistros(t *testing.T, rows string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "parameter_distributions.csv")
	require.NoError(t, os.WriteFile(path, []byte(distroHeader+rows), 0o644))
	return path
}

func TestReadDistributionsShapes(t *testing.T) {
	rows := "" +
		"uniform,WOR,0,10,,,,,\n" +
		"triangular,GOR,100,2000,,,500,,\n" +
		"normal,API,,,32,4,,,\n" +
		"normal,temp,40,90,60,10,,,\n" +
		"lognormal,depth,,,7,0.5,,,\n" +
		"binary,has_flaring,,,,,,0.3,\n"
	path := writeDistros(t, rows)

	reg := NewRegistry()
	require.NoError(t, ReadDistributions(reg, path))

	assert.Equal(t, 6, reg.Len())
	for _, name := range []string{"WOR", "GOR", "API", "temp", "depth", "has_flaring"} {
		assert.NotNil(t, reg.Lookup(name), "expected %s to be registered", name)
	}

	// Bounded normal is truncated.
	temp := reg.Lookup("temp")
	for _, q := range []float64{0, 0.5, 1} {
		v := temp.RV.Ppf(q)
		assert.GreaterOrEqual(t, v, 40.0)
		assert.LessOrEqual(t, v, 90.0)
	}
}

func TestReadDistributionsSkipRules(t *testing.T) {
	tests := []struct {
		name string
		row  string
	}{
		{"uniform equal bounds", "uniform,X,5,5,,,,,\n"},
		{"triangular equal bounds", "triangular,X,5,5,,,5,,\n"},
		{"normal zero stdev", "normal,X,,,10,0,,,\n"},
		{"lognormal zero stdev", "lognormal,X,,,10,0,,,\n"},
		{"binary prob zero", "binary,X,,,,,,0,\n"},
		{"binary prob one", "binary,X,,,,,,1,\n"},
		{"empty variable name", "uniform,,0,10,,,,,\n"},
		{"smart default row", "normal,X,,,,,,,\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry()
			require.NoError(t, ReadDistributions(reg, writeDistros(t, tt.row)))
			assert.Equal(t, 0, reg.Len())
		})
	}
}

func TestReadDistributionsNearZeroStdevIsKept(t *testing.T) {
	// Only exact zero is degenerate.
	reg := NewRegistry()
	require.NoError(t, ReadDistributions(reg, writeDistros(t, "normal,X,,,10,1e-12,,,\n")))
	assert.Equal(t, 1, reg.Len())
}

func TestReadDistributionsUnknownShape(t *testing.T) {
	reg := NewRegistry()
	err := ReadDistributions(reg, writeDistros(t, "cauchy,X,0,10,,,,,\n"))
	require.Error(t, err)
	assert.True(t, IsSystemError(err))
}

func TestReadDistributionsMalformedRow(t *testing.T) {
	reg := NewRegistry()
	err := ReadDistributions(reg, writeDistros(t, "uniform,X,zero,10,,,,,\n"))
	require.Error(t, err)
	assert.True(t, IsUserError(err))
}

func TestReadDistributionsCommentsAndBlanks(t *testing.T) {
	rows := "# a comment line\n\nuniform,WOR,0,10,,,,,\n"
	reg := NewRegistry()
	require.NoError(t, ReadDistributions(reg, writeDistros(t, rows)))
	assert.Equal(t, 1, reg.Len())
}

func TestReadDistributionsOverridesCodeRegistration(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Register("WOR", UniformRV(100, 200))
	require.NoError(t, err)

	require.NoError(t, ReadDistributions(reg, writeDistros(t, "uniform,WOR,0,10,,,,,\n")))

	assert.Equal(t, 1, reg.Len())
	dist := reg.Lookup("WOR")
	require.NotNil(t, dist)
	assert.InDelta(t, 0.0, dist.RV.Ppf(0), 1e-9) // the CSV row won
}

func TestReadDistributionsEmpirical(t *testing.T) {
	dir := t.TempDir()
	obsPath := filepath.Join(dir, "observed.csv")
	require.NoError(t, os.WriteFile(obsPath, []byte("WOR\n1\n2\n3\n"), 0o644))

	// Pathname is resolved relative to the distros CSV.
	distrosPath := filepath.Join(dir, "parameter_distributions.csv")
	content := distroHeader + "empirical,WOR,,,,,,,observed.csv\n"
	require.NoError(t, os.WriteFile(distrosPath, []byte(content), 0o644))

	reg := NewRegistry()
	require.NoError(t, ReadDistributions(reg, distrosPath))
	dist := reg.Lookup("WOR")
	require.NotNil(t, dist)
	assert.InDelta(t, 3.0, dist.RV.Ppf(1.0), 1e-9)
}

func TestReadDistributionsMissingFile(t *testing.T) {
	err := ReadDistributions(NewRegistry(), filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.True(t, IsSystemError(err))
}
