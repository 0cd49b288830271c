package matrix

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadJSON(t *testing.T) {
	in := `[[0.1, 0.2, 0.7], [0.8, 0.1, 0.1]]`
	m, err := LoadJSON(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, 2, m.TimeDim)
	assert.Equal(t, 3, m.ClassDim)
	assert.Equal(t, []float64{0.8, 0.1, 0.1}, m.Row(1))
}

func TestLoadJSON_Ragged(t *testing.T) {
	_, err := LoadJSON(strings.NewReader(`[[0.5, 0.5], [1.0]]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ragged")
}

func TestLoadJSON_Invalid(t *testing.T) {
	_, err := LoadJSON(strings.NewReader(`{"not": "a matrix"}`))
	require.Error(t, err)
}

func TestLoadJSON_NegativeValue(t *testing.T) {
	_, err := LoadJSON(strings.NewReader(`[[0.5, -0.5]]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "negative")
}

func TestLoadCSV(t *testing.T) {
	in := "0.1, 0.2, 0.7\n0.8, 0.1, 0.1\n"
	m, err := LoadCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, 2, m.TimeDim)
	assert.Equal(t, 3, m.ClassDim)
	assert.Equal(t, []float64{0.1, 0.2, 0.7}, m.Row(0))
}

func TestLoadCSV_BadField(t *testing.T) {
	_, err := LoadCSV(strings.NewReader("0.1, x, 0.7\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid value")
}

func TestLoad_ByExtension(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "probs.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`[[0.5, 0.5]]`), 0o644))
	m, err := Load(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, 1, m.TimeDim)

	csvPath := filepath.Join(dir, "probs.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("0.5,0.5\n"), 0o644))
	m, err = Load(csvPath)
	require.NoError(t, err)
	assert.Equal(t, 2, m.ClassDim)

	_, err = Load(filepath.Join(dir, "probs.txt"))
	require.Error(t, err)
}

func TestLoadFeatures_AllowsNegative(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "feat.json")
	require.NoError(t, os.WriteFile(path, []byte(`[[-1.5, 2.0], [0.3, -0.7]]`), 0o644))

	_, err := Load(path)
	require.Error(t, err)

	m, err := LoadFeatures(path)
	require.NoError(t, err)
	assert.Equal(t, 2, m.TimeDim)
	assert.Equal(t, []float64{-1.5, 2.0}, m.Row(0))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestCheckDistributions(t *testing.T) {
	m, err := LoadJSON(strings.NewReader(`[[0.5, 0.5], [0.9, 0.3], [0.2, 0.2]]`))
	require.NoError(t, err)
	assert.Equal(t, 2, m.CheckDistributions(nil))

	clean, err := LoadJSON(strings.NewReader(`[[0.25, 0.75]]`))
	require.NoError(t, err)
	assert.Zero(t, clean.CheckDistributions(nil))
}

func TestEmptyMatrix(t *testing.T) {
	m, err := LoadJSON(strings.NewReader(`[]`))
	require.NoError(t, err)
	assert.Zero(t, m.TimeDim)
}
