// Package support holds the godog step implementations for the CLI
// integration suite.
package support

import (
	"fmt"
	"os"
	"path/filepath"
)

// TestContext holds the state for integration tests.
type TestContext struct {
	// Command execution state
	LastOutput   string
	LastExitCode int

	// Test environment
	WorkingDir   string
	TempDir      string
	BinPath      string
	AlphabetPath string
}

// NewTestContext creates a new test context rooted at the project directory.
func NewTestContext() (*TestContext, error) {
	workingDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	// Walk up to the module root so the binary path is stable regardless of
	// where the test runner chdirs to.
	currentDir := workingDir
	for {
		if _, err := os.Stat(filepath.Join(currentDir, "go.mod")); err == nil {
			workingDir = currentDir
			break
		}
		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	tempDir, err := os.MkdirTemp("", "beamdec-test-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	binPath := os.Getenv("BEAMDEC_BIN")
	if binPath == "" {
		binPath = filepath.Join(workingDir, "bin", "beamdec")
	}

	return &TestContext{
		WorkingDir: workingDir,
		TempDir:    tempDir,
		BinPath:    binPath,
	}, nil
}

// Cleanup removes the scenario's temporary artifacts.
func (testCtx *TestContext) Cleanup() error {
	if testCtx.TempDir != "" {
		return os.RemoveAll(testCtx.TempDir)
	}
	return nil
}
