package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/pixspace/internal/metadata"
	"github.com/MeKo-Tech/pixspace/internal/spacing"
)

// planeImage is a descriptor with 0.5 mm square pixels.
func planeImage(id string) spacing.Descriptor {
	return spacing.Descriptor{
		ImageID: id,
		Plane:   &spacing.Plane{RowPixelSpacing: 0.5, ColumnPixelSpacing: 0.5},
	}
}

// newTestServer creates a server that knows the image "known".
func newTestServer(t *testing.T, modify ...func(*Config)) *Server {
	t.Helper()

	cfg := Config{
		CORSOrigin:  "*",
		MaxBodyKB:   64,
		TimeoutSec:  5,
		Descriptors: metadata.NewMemory(planeImage("known")),
	}
	for _, m := range modify {
		m(&cfg)
	}

	s, err := NewServer(cfg)
	require.NoError(t, err)
	return s
}

// doJSON sends body as JSON through the server's routes and returns the recorder.
func doJSON(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	mux := http.NewServeMux()
	s.SetupRoutes(mux)
	mux.ServeHTTP(rec, req)
	return rec
}

// decode unmarshals the recorded response body into v.
func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}
