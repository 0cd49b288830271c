package batch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/beamdec/internal/alphabet"
)

func testAlphabet(t *testing.T) *alphabet.Alphabet {
	t.Helper()
	ab, err := alphabet.New([]string{"a", "b", " "})
	require.NoError(t, err)
	return ab
}

func TestProcessSingleFile_ClassMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wide.json")
	writeMatrixFile(t, path, [][]float64{{0.2, 0.2, 0.2, 0.2, 0.2}})

	_, err := processSingleFile(path, testAlphabet(t), testConfig(""), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "alphabet expects 4")
}

func TestProcessSingleFile_Empty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.json")
	writeMatrixFile(t, path, [][]float64{})

	_, err := processSingleFile(path, testAlphabet(t), testConfig(""), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no time steps")
}

func TestProcessSingleFile_NumResultsCap(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "utt.json")
	writeMatrixFile(t, path, [][]float64{peakedRow(0), peakedRow(1), peakedRow(0)})

	cfg := testConfig("")
	cfg.NumResults = 1
	hyps, err := processSingleFile(path, testAlphabet(t), cfg, nil)
	require.NoError(t, err)
	assert.Len(t, hyps, 1)
}

func TestProcessFilesParallel_OrderStable(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"u1.json", "u2.json", "u3.json", "u4.json"} {
		p := filepath.Join(dir, name)
		writeMatrixFile(t, p, [][]float64{peakedRow(0)})
		paths = append(paths, p)
	}

	cfg := testConfig("")
	cfg.Workers = 3
	results, err := processFilesParallel(paths, testAlphabet(t), cfg, nil)
	require.NoError(t, err)
	require.Len(t, results, len(paths))
	for i, fr := range results {
		assert.Equal(t, paths[i], fr.File)
		assert.Empty(t, fr.Error)
	}
}

func TestProcessSingleFile_MissingFile(t *testing.T) {
	_, err := processSingleFile(filepath.Join(os.TempDir(), "does-not-exist.json"), testAlphabet(t), testConfig(""), nil)
	require.Error(t, err)
}
