package ingest

import (
	"compress/gzip"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"

	"mercator-hq/saturn/pkg/report"
)

// MockServer is a mock trace ingestion endpoint for testing the reporting
// pipeline. It decodes the gzip JSON report payloads it receives and
// records them together with the authentication headers.
type MockServer struct {
	server *httptest.Server

	mu           sync.Mutex
	statusCode   int
	payloads     []*report.Payload
	apiKeys      []string
	graphRefs    []string
	requestCount int
}

// NewMockServer creates a mock ingestion server that accepts all reports
// with 200 OK until SetStatusCode changes that.
func NewMockServer() *MockServer {
	ms := &MockServer{statusCode: http.StatusOK}
	ms.server = httptest.NewServer(http.HandlerFunc(ms.handler))
	return ms
}

// URL returns the mock server's base URL.
func (ms *MockServer) URL() string {
	return ms.server.URL
}

// Close closes the mock server.
func (ms *MockServer) Close() {
	ms.server.Close()
}

// SetStatusCode sets the status returned for subsequent reports.
func (ms *MockServer) SetStatusCode(code int) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.statusCode = code
}

// Payloads returns the decoded reports received so far.
func (ms *MockServer) Payloads() []*report.Payload {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return append([]*report.Payload(nil), ms.payloads...)
}

// RequestCount returns the number of report requests received.
func (ms *MockServer) RequestCount() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.requestCount
}

// TraceCount returns the total number of traces across all received
// reports.
func (ms *MockServer) TraceCount() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	total := 0
	for _, p := range ms.payloads {
		total += len(p.Traces)
	}
	return total
}

// Headers returns the API key and graph ref headers seen on each request,
// in arrival order.
func (ms *MockServer) Headers() (apiKeys, graphRefs []string) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return append([]string(nil), ms.apiKeys...), append([]string(nil), ms.graphRefs...)
}

func (ms *MockServer) handler(w http.ResponseWriter, r *http.Request) {
	ms.mu.Lock()
	ms.requestCount++
	ms.apiKeys = append(ms.apiKeys, r.Header.Get("X-Api-Key"))
	ms.graphRefs = append(ms.graphRefs, r.Header.Get("X-Graph-Ref"))
	status := ms.statusCode
	ms.mu.Unlock()

	body := r.Body
	if r.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(r.Body)
		if err != nil {
			http.Error(w, "bad gzip body", http.StatusBadRequest)
			return
		}
		defer gz.Close()
		body = gz
	}

	var payload report.Payload
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		http.Error(w, "bad report payload", http.StatusBadRequest)
		return
	}

	ms.mu.Lock()
	ms.payloads = append(ms.payloads, &payload)
	ms.mu.Unlock()

	w.WriteHeader(status)
}
