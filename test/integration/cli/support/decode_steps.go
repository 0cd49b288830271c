package support

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/cucumber/godog"
)

// RegisterDecodeSteps wires the decode scenario steps.
func (testCtx *TestContext) RegisterDecodeSteps(sc *godog.ScenarioContext) {
	sc.Step(`^an alphabet file with the labels "a", "b" and space$`, testCtx.anAlphabetFile)
	sc.Step(`^a probability matrix file "([^"]*)" that spells "ab"$`, testCtx.aMatrixFileSpellingAB)
	sc.Step(`^I run beamdec with "([^"]*)"$`, testCtx.iRunBeamdecWith)
	sc.Step(`^I run beamdec without an alphabet using "([^"]*)"$`, testCtx.iRunBeamdecWithoutAlphabet)
	sc.Step(`^the command succeeds$`, testCtx.theCommandSucceeds)
	sc.Step(`^the command fails$`, testCtx.theCommandFails)
	sc.Step(`^the output contains "([^"]*)"$`, testCtx.theOutputContains)
}

func (testCtx *TestContext) anAlphabetFile() error {
	path := filepath.Join(testCtx.TempDir, "labels.txt")
	if err := os.WriteFile(path, []byte("a\nb\n \n"), 0o600); err != nil {
		return fmt.Errorf("failed to write alphabet file: %w", err)
	}
	testCtx.AlphabetPath = path
	return nil
}

func (testCtx *TestContext) aMatrixFileSpellingAB(name string) error {
	// Two timesteps over four classes (a, b, space, blank), each peaked on
	// the class to emit.
	rows := `[[0.85, 0.05, 0.05, 0.05], [0.05, 0.85, 0.05, 0.05]]`
	path := filepath.Join(testCtx.TempDir, name)
	if err := os.WriteFile(path, []byte(rows), 0o600); err != nil {
		return fmt.Errorf("failed to write matrix file: %w", err)
	}
	return nil
}

func (testCtx *TestContext) iRunBeamdecWith(argLine string) error {
	args := strings.Fields(argLine)
	args = append(args, "--alphabet", testCtx.AlphabetPath)
	return testCtx.runBinary(args)
}

func (testCtx *TestContext) iRunBeamdecWithoutAlphabet(argLine string) error {
	return testCtx.runBinary(strings.Fields(argLine))
}

func (testCtx *TestContext) runBinary(args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, testCtx.BinPath, args...) //nolint:gosec
	cmd.Dir = testCtx.TempDir
	out, err := cmd.CombinedOutput()
	testCtx.LastOutput = string(out)
	testCtx.LastExitCode = 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			testCtx.LastExitCode = exitErr.ExitCode()
			return nil
		}
		return fmt.Errorf("failed to run %s: %w", testCtx.BinPath, err)
	}
	return nil
}

func (testCtx *TestContext) theCommandSucceeds() error {
	if testCtx.LastExitCode != 0 {
		return fmt.Errorf("expected exit code 0, got %d; output:\n%s", testCtx.LastExitCode, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theCommandFails() error {
	if testCtx.LastExitCode == 0 {
		return fmt.Errorf("expected a non-zero exit code; output:\n%s", testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theOutputContains(expected string) error {
	if !strings.Contains(testCtx.LastOutput, expected) {
		return fmt.Errorf("output does not contain %q:\n%s", expected, testCtx.LastOutput)
	}
	return nil
}
