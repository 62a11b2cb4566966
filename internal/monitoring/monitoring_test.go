// internal/monitoring/monitoring_test.go
package monitoring

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/leadscape/leadminer/internal/miner"
	"github.com/leadscape/leadminer/pkg/types"
)

// The engine records through this contract.
var _ miner.Metrics = (*Metrics)(nil)

func TestMetricsInstancesAreIndependent(t *testing.T) {
	// Two instances must not collide on registration.
	a := NewMetrics()
	b := NewMetrics()
	a.RecordIteration()
	a.RecordOutcome("target_reached")
	b.RecordStall()
}

func TestMetricsEndpointExposesCounters(t *testing.T) {
	metrics := NewMetrics()
	metrics.RecordIteration()
	metrics.RecordIteration()
	metrics.RecordCards(10)
	metrics.RecordQualified(3)
	metrics.RecordOutcome("end_of_results")

	server := NewServer(":0", metrics, nil, nil)
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics request failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	text := string(body)

	for _, want := range []string{
		"leadminer_iterations_total 2",
		"leadminer_cards_seen_total 10",
		"leadminer_leads_qualified_total 3",
		`leadminer_run_outcomes_total{reason="end_of_results"} 1`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestHealthEndpoint(t *testing.T) {
	server := NewServer(":0", NewMetrics(), nil, nil)
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	var payload map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("health response is not JSON: %v", err)
	}
	if payload["status"] != "ok" {
		t.Errorf("unexpected health payload: %v", payload)
	}
}

func TestStatusEndpoint(t *testing.T) {
	status := func() types.Progress {
		return types.Progress{
			Status:    string(types.StateRunning),
			Percent:   40,
			Qualified: 8,
			Iteration: 12,
		}
	}
	server := NewServer(":0", NewMetrics(), status, nil)
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/status")
	if err != nil {
		t.Fatalf("status request failed: %v", err)
	}
	defer resp.Body.Close()

	var progress types.Progress
	if err := json.NewDecoder(resp.Body).Decode(&progress); err != nil {
		t.Fatalf("status response is not JSON: %v", err)
	}
	if progress.Qualified != 8 || progress.Iteration != 12 {
		t.Errorf("unexpected status: %+v", progress)
	}
}

func TestStatusEndpointIdleWithoutSource(t *testing.T) {
	server := NewServer(":0", NewMetrics(), nil, nil)
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/status")
	if err != nil {
		t.Fatalf("status request failed: %v", err)
	}
	defer resp.Body.Close()

	var payload map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("status response is not JSON: %v", err)
	}
	if payload["status"] != string(types.StateIdle) {
		t.Errorf("expected idle status, got %v", payload)
	}
}
