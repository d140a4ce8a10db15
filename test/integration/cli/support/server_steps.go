package support

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/cucumber/godog"

	"github.com/MeKo-Tech/pixspace/internal/calibration"
	"github.com/MeKo-Tech/pixspace/internal/metadata"
	"github.com/MeKo-Tech/pixspace/internal/server"
	"github.com/MeKo-Tech/pixspace/internal/spacing"
	"github.com/MeKo-Tech/pixspace/internal/testutil"
)

// HTTPTestServerWrapper wraps httptest.Server for integration tests.
type HTTPTestServerWrapper struct {
	Server       *httptest.Server
	TestServer   *server.Server
	Calibrations *calibration.Store
}

// startTestHTTPServer serves the fixtures with a fresh calibration store.
func (testCtx *TestContext) startTestHTTPServer(cfg server.Config) error {
	if testCtx.HTTPTestServer != nil {
		return nil
	}

	fixtures := testutil.Fixtures()
	descriptors := make([]spacing.Descriptor, 0, len(fixtures))
	for _, id := range testutil.FixtureIDs() {
		descriptors = append(descriptors, fixtures[id])
	}

	store := calibration.NewStore()
	cfg.Calibrations = store
	cfg.Descriptors = metadata.NewMemory(descriptors...)

	srv, err := server.NewServer(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	mux := http.NewServeMux()
	srv.SetupRoutes(mux)

	testCtx.HTTPTestServer = &HTTPTestServerWrapper{
		Server:       httptest.NewServer(mux),
		TestServer:   srv,
		Calibrations: store,
	}
	return nil
}

// StopServer stops the running server.
func (testCtx *TestContext) StopServer() error {
	if testCtx.HTTPTestServer == nil {
		return nil
	}
	testCtx.HTTPTestServer.Server.Close()
	err := testCtx.HTTPTestServer.TestServer.Close()
	testCtx.HTTPTestServer = nil
	return err
}

func (testCtx *TestContext) theServerIsRunning() error {
	return testCtx.startTestHTTPServer(server.Config{CORSOrigin: "*"})
}

func (testCtx *TestContext) theServerIsRunningWithALimitOfRequestsPerMinute(limit int) error {
	return testCtx.startTestHTTPServer(server.Config{CORSOrigin: "*", RequestsPerMinute: limit})
}

// iSendTo sends a request with an optional JSON body.
func (testCtx *TestContext) iSendTo(method, path string, body *godog.DocString) error {
	if testCtx.HTTPTestServer == nil {
		return fmt.Errorf("server is not running")
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewBufferString(body.Content)
	}

	req, err := http.NewRequest(method, testCtx.HTTPTestServer.Server.URL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := testCtx.HTTPTestServer.Server.Client().Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	testCtx.LastHTTPStatusCode = resp.StatusCode
	testCtx.LastHTTPResponse = string(data)
	testCtx.LastHTTPHeaders = map[string]string{}
	for name := range resp.Header {
		testCtx.LastHTTPHeaders[name] = resp.Header.Get(name)
	}
	return nil
}

func (testCtx *TestContext) iSendWithBody(method, path string, body *godog.DocString) error {
	return testCtx.iSendTo(method, path, body)
}

func (testCtx *TestContext) iSendWithoutBody(method, path string) error {
	return testCtx.iSendTo(method, path, nil)
}

func (testCtx *TestContext) theResponseStatusShouldBe(status int) error {
	if testCtx.LastHTTPStatusCode != status {
		return fmt.Errorf("status is %d, want %d\nBody: %s", testCtx.LastHTTPStatusCode, status, testCtx.LastHTTPResponse)
	}
	return nil
}

func (testCtx *TestContext) theResponseFieldShouldBe(field, want string) error {
	got, err := jsonField(testCtx.LastHTTPResponse, field)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("response field '%s' is '%s', want '%s'", field, got, want)
	}
	return nil
}

func (testCtx *TestContext) theResponseShouldContain(text string) error {
	if !strings.Contains(testCtx.LastHTTPResponse, text) {
		return fmt.Errorf("response does not contain '%s'\nBody: %s", text, testCtx.LastHTTPResponse)
	}
	return nil
}

func (testCtx *TestContext) theResponseHeaderShouldBe(name, want string) error {
	if got := testCtx.LastHTTPHeaders[http.CanonicalHeaderKey(name)]; got != want {
		return fmt.Errorf("header %s is '%s', want '%s'", name, got, want)
	}
	return nil
}

// RegisterServerSteps registers the HTTP server steps.
func (testCtx *TestContext) RegisterServerSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the server is running$`, testCtx.theServerIsRunning)
	sc.Step(`^the server is running with a limit of (\d+) requests per minute$`,
		testCtx.theServerIsRunningWithALimitOfRequestsPerMinute)
	sc.Step(`^I send (GET|POST|PUT|DELETE) "([^"]*)" with:$`, testCtx.iSendWithBody)
	sc.Step(`^I send (GET|POST|PUT|DELETE) "([^"]*)"$`, testCtx.iSendWithoutBody)
	sc.Step(`^the response status should be (\d+)$`, testCtx.theResponseStatusShouldBe)
	sc.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, testCtx.theResponseFieldShouldBe)
	sc.Step(`^the response should contain "([^"]*)"$`, testCtx.theResponseShouldContain)
	sc.Step(`^the response header "([^"]*)" should be "([^"]*)"$`, testCtx.theResponseHeaderShouldBe)
}
