package masterdata

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValidates(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadRoundTrip(t *testing.T) {
	b, err := json.Marshal(Default())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "masterdata.json")
	require.NoError(t, os.WriteFile(path, b, 0o644))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), got)
}

func TestLoadRejectsBrokenTables(t *testing.T) {
	broken := Default()
	broken.GradeBuckets = []GradeBucket{
		{Name: "a", Min: 0, Max: 0.5},
		{Name: "b", Min: 0.6, Max: 0}, // gap at 0.5
	}
	b, err := json.Marshal(broken)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "masterdata.json")
	require.NoError(t, os.WriteFile(path, b, 0o644))

	_, err = Load(path)
	assert.Error(t, err)
}

func TestParamRangeClamp(t *testing.T) {
	r := ParamRange{Min: 0.5, Max: 0.9, Default: 0.7}
	assert.Equal(t, 0.5, r.Clamp(0.1))
	assert.Equal(t, 0.9, r.Clamp(1.25))
	assert.Equal(t, 0.7, r.Clamp(0.7))
}

func TestDensityLookup(t *testing.T) {
	tbl := Default()

	d, usedDefault, ok := tbl.Density("As殻")
	require.True(t, ok)
	assert.False(t, usedDefault)
	assert.Equal(t, 2.5, d)

	d, usedDefault, ok = tbl.Density("謎の材料")
	require.True(t, ok)
	assert.True(t, usedDefault)
	assert.Equal(t, tbl.Materials.DefaultDensity, d)

	tbl.Materials.DefaultDensity = 0
	_, _, ok = tbl.Density("謎の材料")
	assert.False(t, ok)
}

func TestCapacityClass(t *testing.T) {
	tbl := Default()

	for capacity, want := range map[float64]string{
		2.0:  "light",
		4.0:  "medium",
		10.0: "heavy",
		25.0: "extra-heavy",
	} {
		got, ok := tbl.CapacityClass(capacity)
		require.True(t, ok, "capacity %v", capacity)
		assert.Equal(t, want, got)
	}

	_, ok := tbl.CapacityClass(-1)
	assert.False(t, ok)
}

func TestGradeBuckets(t *testing.T) {
	tbl := Default()

	for ratio, want := range map[float64]string{
		0.0:  "under-loaded",
		0.49: "under-loaded",
		0.5:  "light-loaded",
		0.95: "well-loaded",
		1.0:  "over-loaded",
		3.7:  "over-loaded", // last bucket unbounded above
	} {
		got, ok := tbl.Grade(ratio)
		require.True(t, ok, "ratio %v", ratio)
		assert.Equal(t, want, got, "ratio %v", ratio)
	}
}
