package support

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MeKo-Tech/pixspace/internal/testutil"
)

// TestContext holds the state for integration tests.
type TestContext struct {
	// Command execution state
	LastCommand   string
	LastOutput    string
	LastStderr    string
	LastError     error
	LastExitCode  int
	LastStartTime time.Time
	LastDuration  time.Duration

	// Test environment
	TempDir          string
	FixtureFile      string
	CalibrationsFile string

	// Server management
	HTTPTestServer *HTTPTestServerWrapper

	// HTTP response state
	LastHTTPStatusCode int
	LastHTTPResponse   string
	LastHTTPHeaders    map[string]string
}

// NewTestContext creates a new test context.
func NewTestContext() (*TestContext, error) {
	tempDir, err := os.MkdirTemp("", "pixspace-test-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	return &TestContext{
		TempDir:          tempDir,
		CalibrationsFile: filepath.Join(tempDir, "calibrations.yaml"),
		LastHTTPHeaders:  map[string]string{},
	}, nil
}

// Cleanup stops the server and removes the temp directory.
func (testCtx *TestContext) Cleanup() error {
	var errors []error

	if err := testCtx.StopServer(); err != nil {
		errors = append(errors, fmt.Errorf("failed to stop server: %w", err))
	}

	if err := os.RemoveAll(testCtx.TempDir); err != nil && !os.IsNotExist(err) {
		errors = append(errors, fmt.Errorf("failed to remove temp directory %s: %w", testCtx.TempDir, err))
	}

	if len(errors) > 0 {
		return fmt.Errorf("cleanup errors: %v", errors)
	}
	return nil
}

// ensureFixtures writes the fixture descriptor file once per scenario.
func (testCtx *TestContext) ensureFixtures() (string, error) {
	if testCtx.FixtureFile != "" {
		return testCtx.FixtureFile, nil
	}
	path, err := testutil.WriteFixtures(testCtx.TempDir)
	if err != nil {
		return "", fmt.Errorf("failed to write fixtures: %w", err)
	}
	testCtx.FixtureFile = path
	return path, nil
}

// substituteCommandVariables replaces {fixtures}, {calibrations} and {tmp}.
func (testCtx *TestContext) substituteCommandVariables(command string) (string, error) {
	if strings.Contains(command, "{fixtures}") {
		path, err := testCtx.ensureFixtures()
		if err != nil {
			return "", err
		}
		command = strings.ReplaceAll(command, "{fixtures}", path)
	}
	command = strings.ReplaceAll(command, "{calibrations}", testCtx.CalibrationsFile)
	command = strings.ReplaceAll(command, "{tmp}", testCtx.TempDir)
	return command, nil
}
