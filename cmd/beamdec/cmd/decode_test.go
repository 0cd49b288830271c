package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDecodeFixtures(t *testing.T) (alphabetPath, matrixPath string) {
	t.Helper()
	dir := t.TempDir()

	alphabetPath = filepath.Join(dir, "labels.txt")
	require.NoError(t, os.WriteFile(alphabetPath, []byte("a\nb\n \n"), 0o600))

	matrixPath = filepath.Join(dir, "utt.json")
	rows := `[[0.85, 0.05, 0.05, 0.05], [0.05, 0.85, 0.05, 0.05]]`
	require.NoError(t, os.WriteFile(matrixPath, []byte(rows), 0o600))
	return alphabetPath, matrixPath
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := rootCmd
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestDecodeCommand(t *testing.T) {
	assert.NotNil(t, decodeCmd)
	assert.Equal(t, "decode", decodeCmd.Use)
}

func TestDecodeCommandFlags(t *testing.T) {
	for _, name := range []string{
		"format", "output", "beam-width", "cutoff-prob", "cutoff-top-n",
		"num-results", "greedy", "lm", "alpha", "beta", "char-lm", "model",
	} {
		assert.NotNil(t, decodeCmd.Flags().Lookup(name), "missing flag %s", name)
	}
}

func TestDecodeCommandWithoutFile(t *testing.T) {
	_, err := runCommand(t, "decode")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no input files")
}

func TestDecodeCommandMissingAlphabet(t *testing.T) {
	_, matrixPath := writeDecodeFixtures(t)
	_, err := runCommand(t, "decode", matrixPath, "--alphabet", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "alphabet")
}

func TestDecodeCommandInvalidFormat(t *testing.T) {
	alphabetPath, matrixPath := writeDecodeFixtures(t)
	_, err := runCommand(t, "decode", matrixPath, "--alphabet", alphabetPath, "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid output format")
}

func TestDecodeCommandBeamSearch(t *testing.T) {
	alphabetPath, matrixPath := writeDecodeFixtures(t)
	outPath := filepath.Join(t.TempDir(), "out.txt")

	_, err := runCommand(t, "decode", matrixPath,
		"--alphabet", alphabetPath,
		"--format", "text",
		"--output", outPath)
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ab")
}

func TestDecodeCommandGreedy(t *testing.T) {
	alphabetPath, matrixPath := writeDecodeFixtures(t)
	outPath := filepath.Join(t.TempDir(), "out.txt")

	_, err := runCommand(t, "decode", matrixPath,
		"--alphabet", alphabetPath,
		"--format", "text",
		"--output", outPath,
		"--greedy")
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ab")
}

func TestDecodeCommandNonExistentFile(t *testing.T) {
	alphabetPath, _ := writeDecodeFixtures(t)
	_, err := runCommand(t, "decode", "/nonexistent/matrix.json",
		"--alphabet", alphabetPath, "--format", "text")
	require.Error(t, err)
}

func TestBatchCommand(t *testing.T) {
	assert.NotNil(t, batchCmd)
	assert.Equal(t, "batch", batchCmd.Use)
}

func TestBatchCommandWithoutArgs(t *testing.T) {
	_, err := runCommand(t, "batch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no input files")
}

func TestBatchCommandDecodesDirectory(t *testing.T) {
	alphabetPath, matrixPath := writeDecodeFixtures(t)
	outPath := filepath.Join(t.TempDir(), "out.json")

	_, err := runCommand(t, "batch", filepath.Dir(matrixPath),
		"--alphabet", alphabetPath,
		"--format", "json",
		"--output", outPath,
		"--workers", "2",
		"--quiet")
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"text": "ab"`)
}

func TestServeCommandFlags(t *testing.T) {
	for _, name := range []string{
		"host", "port", "cors-origin", "timeout", "shutdown-timeout",
		"beam-width", "lm", "rate-limit-enabled",
	} {
		assert.NotNil(t, serveCmd.Flags().Lookup(name), "missing flag %s", name)
	}
}

func TestServeCommandInvalidPort(t *testing.T) {
	alphabetPath, _ := writeDecodeFixtures(t)
	_, err := runCommand(t, "serve", "--alphabet", alphabetPath, "--port", "99999")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid port")
}
