package integration

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"polymarket-data/internal/testutil"
	"polymarket-data/pkg/cache"
	"polymarket-data/pkg/client"
	"polymarket-data/pkg/collect"
	"polymarket-data/pkg/config"
	"polymarket-data/pkg/events"
	"polymarket-data/pkg/prices"
	"polymarket-data/pkg/ratelimit"
)

// stack wires the full client stack against a mock API with a fresh
// cache directory.
type stack struct {
	mock      *testutil.MockAPI
	store     *cache.Store
	collector *collect.Collector
	prices    *prices.Fetcher
}

func setupStack(t *testing.T) *stack {
	t.Helper()

	mock := testutil.NewMockAPI()
	t.Cleanup(mock.Close)

	apiClient, err := client.New(client.Config{
		GammaURL:       mock.URL(),
		CLOBURL:        mock.URL(),
		UserAgent:      "polymarket-data-integration/0.0.0",
		Timeout:        5 * time.Second,
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("client.New: %v", err)
	}

	store := cache.NewStore(t.TempDir(), zerolog.Nop())
	limiter := ratelimit.NewLimiter(0, zerolog.Nop())
	fetcher := events.NewFetcher(events.NewAPISource(apiClient), store, limiter, zerolog.Nop())

	return &stack{
		mock:      mock,
		store:     store,
		collector: collect.New(fetcher, config.FetchConfig{PageSize: 10}, zerolog.Nop()),
		prices:    prices.NewFetcher(apiClient, store, limiter, zerolog.Nop()),
	}
}

func closedEventsReq() collect.ClosedEventsRequest {
	return collect.ClosedEventsRequest{
		StartDateMin: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDateMax:   time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestEndToEndEventPull(t *testing.T) {
	s := setupStack(t)
	s.mock.SeedEvents(35, "7")

	got, err := s.collector.ClosedEvents(context.Background(), closedEventsReq())
	if err != nil {
		t.Fatalf("ClosedEvents: %v", err)
	}
	if len(got) != 35 {
		t.Fatalf("got %d events, want 35", len(got))
	}

	// 3 full pages, 1 short page, 1 empty terminator.
	if n := s.mock.GetRequestCount(); n != 5 {
		t.Errorf("request count = %d, want 5", n)
	}

	// The rerun is served from the consolidated cache without traffic.
	s.mock.Reset()
	again, err := s.collector.ClosedEvents(context.Background(), closedEventsReq())
	if err != nil {
		t.Fatalf("ClosedEvents rerun: %v", err)
	}
	if len(again) != 35 {
		t.Errorf("rerun got %d events, want 35", len(again))
	}
	if n := s.mock.GetRequestCount(); n != 0 {
		t.Errorf("rerun issued %d requests, want 0", n)
	}
}

func TestEventPullSurvivesTransientServerError(t *testing.T) {
	s := setupStack(t)
	s.mock.SeedEvents(15, "7")

	// The first request 500s; the client retries and the pull completes.
	s.mock.FailNext("/events", 1)

	got, err := s.collector.ClosedEvents(context.Background(), closedEventsReq())
	if err != nil {
		t.Fatalf("ClosedEvents: %v", err)
	}
	if len(got) != 15 {
		t.Errorf("got %d events, want 15", len(got))
	}
}

func TestPriceHistoryEndToEnd(t *testing.T) {
	s := setupStack(t)
	s.mock.SeedHistory([]map[string]any{
		{"t": 100, "p": 0.4},
		{"t": 160, "p": 0.5},
		{"t": 100, "p": 0.9},
	})

	points, err := s.prices.History(context.Background(), prices.HistoryRequest{
		Market:      "tok1",
		StartTs:     100,
		EndTs:       200,
		FidelityMin: 1,
	})
	if err != nil {
		t.Fatalf("History: %v", err)
	}

	// Merged and sorted, first-seen t=100 kept.
	if len(points) != 2 || points[0].T != 100 || points[0].P != 0.4 || points[1].T != 160 {
		t.Errorf("points = %v", points)
	}

	// Second pull is served from the trades cache.
	s.mock.Reset()
	if _, err := s.prices.History(context.Background(), prices.HistoryRequest{
		Market:      "tok1",
		StartTs:     100,
		EndTs:       200,
		FidelityMin: 1,
	}); err != nil {
		t.Fatalf("History rerun: %v", err)
	}
	if n := s.mock.GetRequestCount(); n != 0 {
		t.Errorf("rerun issued %d requests, want 0", n)
	}
}

func TestCacheSharedAcrossRestarts(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SeedEvents(12, "7")

	dir := t.TempDir()
	pull := func() int {
		apiClient, err := client.New(client.Config{
			GammaURL:  mock.URL(),
			CLOBURL:   mock.URL(),
			UserAgent: "polymarket-data-integration/0.0.0",
			Timeout:   5 * time.Second,
		}, zerolog.Nop())
		if err != nil {
			t.Fatalf("client.New: %v", err)
		}
		store := cache.NewStore(dir, zerolog.Nop())
		fetcher := events.NewFetcher(events.NewAPISource(apiClient), store, ratelimit.NewLimiter(0, zerolog.Nop()), zerolog.Nop())
		collector := collect.New(fetcher, config.FetchConfig{PageSize: 10}, zerolog.Nop())

		got, err := collector.ClosedEvents(context.Background(), closedEventsReq())
		if err != nil {
			t.Fatalf("ClosedEvents: %v", err)
		}
		return len(got)
	}

	// Two fully independent stacks over the same cache directory behave
	// like one process restarting.
	if n := pull(); n != 12 {
		t.Fatalf("first pull got %d events, want 12", n)
	}
	requestsAfterFirst := mock.GetRequestCount()

	if n := pull(); n != 12 {
		t.Fatalf("second pull got %d events, want 12", n)
	}
	if mock.GetRequestCount() != requestsAfterFirst {
		t.Errorf("restart issued %d extra requests, want 0", mock.GetRequestCount()-requestsAfterFirst)
	}
}
