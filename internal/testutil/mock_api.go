// Package testutil provides testing utilities for the Polymarket data client.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"
)

// MockResponse defines the behavior for a mock API endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockAPI is a configurable mock of the Gamma and CLOB APIs for testing.
// It serves both the paginated /events endpoint and /prices-history from
// one server, with per-path custom handlers and request tracking.
type MockAPI struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// events served by the default /events handler, paginated by the
	// limit/offset query parameters
	events []map[string]any

	// prices served by the default /prices-history handler
	history []map[string]any

	// failNext[path] requests to path fail with a 500 before any handler
	// runs, for exercising retry behavior
	failNext map[string]int

	// Tracking
	RequestCount int
	EventOffsets []int
	LastQuery    map[string]string
}

// NewMockAPI creates a new mock API server.
func NewMockAPI() *MockAPI {
	mock := &MockAPI{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
		failNext: make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.LastQuery = map[string]string{}
		for k := range r.URL.Query() {
			mock.LastQuery[k] = r.URL.Query().Get(k)
		}
		if r.URL.Path == "/events" {
			offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
			mock.EventOffsets = append(mock.EventOffsets, offset)
		}
		fail := mock.failNext[r.URL.Path] > 0
		if fail {
			mock.failNext[r.URL.Path]--
		}
		mock.mu.Unlock()

		if fail {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error": "Internal server error"}`))
			return
		}

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL, usable as both the Gamma and CLOB base.
func (m *MockAPI) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockAPI) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.EventOffsets = nil
	m.LastQuery = nil
}

// SetHandler sets a custom handler for a specific path.
func (m *MockAPI) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// FailNext makes the next n requests to path fail with a 500 before any
// handler runs.
func (m *MockAPI) FailNext(path string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext[path] = n
}

// SetResponse configures a fixed response for a path.
func (m *MockAPI) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SeedEvents populates the dataset served by the default /events handler.
// Each event carries a sequential id and the given tag.
func (m *MockAPI) SeedEvents(count int, tagID string) {
	events := make([]map[string]any, count)
	for i := range events {
		events[i] = map[string]any{
			"id":    fmt.Sprintf("%d", i),
			"title": fmt.Sprintf("Event %d", i),
			"tags": []map[string]any{
				{"id": tagID, "label": "Test", "slug": "test"},
			},
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = events
}

// SeedHistory populates the point series served by the default
// /prices-history handler.
func (m *MockAPI) SeedHistory(points []map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = points
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockAPI) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// defaultHandler serves the seeded datasets in the shapes the real APIs
// use: a bare JSON array for /events, a history envelope for
// /prices-history.
func (m *MockAPI) defaultHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	switch r.URL.Path {
	case "/events":
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit <= 0 {
			limit = 1000
		}

		m.mu.RLock()
		page := []map[string]any{}
		for i := offset; i < len(m.events) && i < offset+limit; i++ {
			page = append(page, m.events[i])
		}
		m.mu.RUnlock()

		json.NewEncoder(w).Encode(page)

	case "/prices-history":
		m.mu.RLock()
		history := m.history
		m.mu.RUnlock()
		if history == nil {
			history = []map[string]any{}
		}
		json.NewEncoder(w).Encode(map[string]any{"history": history})

	default:
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": "not found"}`))
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "Internal server error"}`,
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"error": "Rate limit exceeded"}`,
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}
