package support

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cucumber/godog"

	"github.com/MeKo-Tech/pixspace/cmd/pixspace/cmd"
	"github.com/MeKo-Tech/pixspace/internal/calibration"
)

// iRunCommand runs a pixspace command line in process.
func (testCtx *TestContext) iRunCommand(command string) error {
	command, err := testCtx.substituteCommandVariables(command)
	if err != nil {
		return err
	}

	testCtx.LastCommand = command
	testCtx.LastStartTime = time.Now()

	parts := strings.Fields(command)
	if len(parts) == 0 {
		return errors.New("empty command")
	}
	if parts[0] == "pixspace" {
		parts = parts[1:]
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmd.ResetFlags()
	defer cmd.ResetFlags()

	root := cmd.GetRootCommand()
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(parts)
	defer func() {
		root.SetOut(nil)
		root.SetErr(nil)
		root.SetArgs(nil)
	}()

	err = root.ExecuteContext(ctx)
	testCtx.LastOutput = stdout.String()
	testCtx.LastStderr = stderr.String()
	testCtx.LastError = err
	testCtx.LastDuration = time.Since(testCtx.LastStartTime)

	if err != nil {
		testCtx.LastExitCode = 1
	} else {
		testCtx.LastExitCode = 0
	}

	return nil
}

// theCommandShouldSucceed verifies the command succeeded.
func (testCtx *TestContext) theCommandShouldSucceed() error {
	if testCtx.LastExitCode != 0 {
		return fmt.Errorf("command failed with exit code %d: %w\nOutput: %s",
			testCtx.LastExitCode, testCtx.LastError, testCtx.LastOutput)
	}
	return nil
}

// theCommandShouldFail verifies the command failed.
func (testCtx *TestContext) theCommandShouldFail() error {
	if testCtx.LastExitCode == 0 {
		return fmt.Errorf("command succeeded when it should have failed\nOutput: %s", testCtx.LastOutput)
	}
	return nil
}

// theOutputShouldContain verifies the output contains specific text.
func (testCtx *TestContext) theOutputShouldContain(expectedText string) error {
	if !strings.Contains(testCtx.LastOutput, expectedText) {
		return fmt.Errorf("output does not contain '%s'\nActual output: %s", expectedText, testCtx.LastOutput)
	}
	return nil
}

// theOutputShouldBe verifies the trimmed output equals expected.
func (testCtx *TestContext) theOutputShouldBe(expected string) error {
	if got := strings.TrimSpace(testCtx.LastOutput); got != expected {
		return fmt.Errorf("output is '%s', want '%s'", got, expected)
	}
	return nil
}

// theOutputShouldBeValidJSON verifies the output is valid JSON.
func (testCtx *TestContext) theOutputShouldBeValidJSON() error {
	var js json.RawMessage
	if err := json.Unmarshal([]byte(testCtx.LastOutput), &js); err != nil {
		return fmt.Errorf("output is not valid JSON: %w\nOutput: %s", err, testCtx.LastOutput)
	}
	return nil
}

// theJSONFieldShouldBe compares a dotted field path of the JSON output with
// want. Array elements are addressed by index, e.g. "0.spacing.unit".
func (testCtx *TestContext) theJSONFieldShouldBe(field, want string) error {
	got, err := jsonField(testCtx.LastOutput, field)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("field '%s' is '%s', want '%s'", field, got, want)
	}
	return nil
}

// theErrorShouldMention verifies the error message contains specific text.
func (testCtx *TestContext) theErrorShouldMention(errorText string) error {
	if testCtx.LastError == nil {
		return fmt.Errorf("no error occurred, but expected error containing '%s'", errorText)
	}
	full := testCtx.LastError.Error() + " " + testCtx.LastStderr
	if !strings.Contains(strings.ToLower(full), strings.ToLower(errorText)) {
		return fmt.Errorf("error does not contain '%s'\nActual error: %s", errorText, full)
	}
	return nil
}

// theFileShouldExist verifies that a file was written.
func (testCtx *TestContext) theFileShouldExist(filename string) error {
	filename, err := testCtx.substituteCommandVariables(filename)
	if err != nil {
		return err
	}
	if _, err := os.Stat(filename); err != nil {
		return fmt.Errorf("file %s does not exist: %w", filename, err)
	}
	return nil
}

// theCalibrationFactorOfShouldBe reads the calibration file of the scenario.
func (testCtx *TestContext) theCalibrationFactorOfShouldBe(imageID string, want float64) error {
	store, err := calibration.LoadFile(testCtx.CalibrationsFile)
	if err != nil {
		return err
	}
	if got := store.Factor(imageID); got != want {
		return fmt.Errorf("calibration factor of %s is %g, want %g", imageID, got, want)
	}
	return nil
}

// jsonField walks a dotted path through decoded JSON and formats the leaf.
func jsonField(data, field string) (string, error) {
	var v interface{}
	dec := json.NewDecoder(strings.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return "", fmt.Errorf("failed to parse JSON: %w\nJSON: %s", err, data)
	}

	for _, part := range strings.Split(field, ".") {
		switch node := v.(type) {
		case map[string]interface{}:
			next, ok := node[part]
			if !ok {
				return "", fmt.Errorf("field '%s' not found in JSON", field)
			}
			v = next
		case []interface{}:
			var i int
			if _, err := fmt.Sscanf(part, "%d", &i); err != nil || i < 0 || i >= len(node) {
				return "", fmt.Errorf("invalid index '%s' in '%s'", part, field)
			}
			v = node[i]
		default:
			return "", fmt.Errorf("cannot navigate into '%s' of '%s'", part, field)
		}
	}

	return fmt.Sprint(v), nil
}

// RegisterCommandSteps registers the CLI steps.
func (testCtx *TestContext) RegisterCommandSteps(sc *godog.ScenarioContext) {
	sc.Step(`^I run "([^"]*)"$`, testCtx.iRunCommand)
	sc.Step(`^the command should succeed$`, testCtx.theCommandShouldSucceed)
	sc.Step(`^the command should fail$`, testCtx.theCommandShouldFail)

	sc.Step(`^the output should contain "([^"]*)"$`, testCtx.theOutputShouldContain)
	sc.Step(`^the output should be "([^"]*)"$`, testCtx.theOutputShouldBe)
	sc.Step(`^the output should be valid JSON$`, testCtx.theOutputShouldBeValidJSON)
	sc.Step(`^the JSON field "([^"]*)" should be "([^"]*)"$`, testCtx.theJSONFieldShouldBe)
	sc.Step(`^the error should mention "([^"]*)"$`, testCtx.theErrorShouldMention)

	sc.Step(`^the file "([^"]*)" should exist$`, testCtx.theFileShouldExist)
	sc.Step(`^the calibration factor of "([^"]*)" should be ([0-9.]+)$`, testCtx.theCalibrationFactorOfShouldBe)
}
