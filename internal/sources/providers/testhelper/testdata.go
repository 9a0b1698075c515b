// Package testhelper provides utilities for provider tests: loading recorded
// API responses from testdata and serving them from a local HTTP server.
package testhelper

import (
	"flag"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/agentstation/gamemeta/pkg/constants"
)

// UpdateTestdata is the global flag for updating testdata files.
var UpdateTestdata = flag.Bool("update", false, "update testdata files")

// LoadTestdata loads a testdata file from the caller's testdata directory.
func LoadTestdata(t testing.TB, filename string) []byte {
	t.Helper()

	testdataPath := filepath.Join("testdata", filename)
	data, err := os.ReadFile(testdataPath) //nolint:gosec // Test file paths are controlled
	if err != nil {
		t.Fatalf("Failed to load testdata file %s: %v", testdataPath, err)
	}
	return data
}

// SaveTestdata saves data to a testdata file if the -update flag is set.
func SaveTestdata(t testing.TB, filename string, data []byte) {
	t.Helper()

	if !*UpdateTestdata {
		return
	}
	if err := os.MkdirAll("testdata", constants.DirPermissions); err != nil {
		t.Fatalf("Failed to create testdata directory: %v", err)
	}
	testdataPath := filepath.Join("testdata", filename)
	if err := os.WriteFile(testdataPath, data, constants.FilePermissions); err != nil {
		t.Fatalf("Failed to save testdata file %s: %v", testdataPath, err)
	}
	t.Logf("Updated testdata file: %s", testdataPath)
}

// Route answers one request path.
type Route struct {
	Status      int    // defaults to 200
	File        string // testdata file served as the body
	Body        string // literal body, used when File is empty
	ContentType string // defaults to application/json
}

// Server is a fake provider API serving testdata by request path.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	requests []*http.Request
	bodies   [][]byte
}

// NewServer starts a server answering each path in routes. Unknown paths get 404.
// The server is closed when the test ends.
func NewServer(t testing.TB, routes map[string]Route) *Server {
	t.Helper()

	payloads := make(map[string][]byte, len(routes))
	for path, route := range routes {
		if route.File != "" {
			payloads[path] = LoadTestdata(t, route.File)
		} else {
			payloads[path] = []byte(route.Body)
		}
	}

	s := &Server{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		s.requests = append(s.requests, r.Clone(r.Context()))
		s.bodies = append(s.bodies, body)
		s.mu.Unlock()

		route, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		contentType := route.ContentType
		if contentType == "" {
			contentType = "application/json"
		}
		w.Header().Set("Content-Type", contentType)
		status := route.Status
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		_, _ = w.Write(payloads[r.URL.Path])
	}))
	t.Cleanup(s.Close)
	return s
}

// Requests returns the requests received so far.
func (s *Server) Requests() []*http.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*http.Request(nil), s.requests...)
}

// Body returns the body of the i-th request.
func (s *Server) Body(i int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.bodies) {
		return ""
	}
	return string(s.bodies[i])
}
