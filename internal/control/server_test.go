package control

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vietddude/cascade/internal/core/domain"
	"github.com/vietddude/cascade/internal/fallback"
	"github.com/vietddude/cascade/internal/health"
)

func newTestServer(t *testing.T) (*httptest.Server, *Daemon) {
	t.Helper()
	d := mustDaemon(t, testDaemonConfig())
	ts := httptest.NewServer(d.server.server.Handler)
	t.Cleanup(ts.Close)
	return ts, d
}

func TestHealthEndpointHealthy(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var system health.SystemStatus
	if err := json.NewDecoder(resp.Body).Decode(&system); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if system.Overall != health.StatusHealthy {
		t.Fatalf("expected healthy, got %s", system.Overall)
	}
}

func TestStatusEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/status")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var status fallback.Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(status.Categories) != 3 {
		t.Fatalf("expected 3 categories, got %d", len(status.Categories))
	}
	if status.Timestamp.IsZero() {
		t.Fatal("expected timestamp to be set")
	}
}

func TestAdminEndpointsRejectGet(t *testing.T) {
	ts, _ := newTestServer(t)

	for _, path := range []string{"/admin/emergency-cache/clear", "/admin/stats/reset"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Fatalf("%s: expected 405, got %d", path, resp.StatusCode)
		}
	}
}

func TestClearEmergencyCacheEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/admin/emergency-cache/clear", "application/json", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var out map[string]int
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := out["cleared"]; !ok {
		t.Fatalf("expected cleared count in response, got %v", out)
	}
}

func TestResetStatsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/admin/stats/reset", "application/json", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
}

func TestKVEndpointRoundTrip(t *testing.T) {
	ts, _ := newTestServer(t)
	client := ts.Client()

	put, err := http.NewRequest(http.MethodPut, ts.URL+"/kv/alpha?value=one", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	putResp, err := client.Do(put)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	putResp.Body.Close()
	if putResp.StatusCode != http.StatusOK {
		t.Fatalf("put: expected 200, got %d", putResp.StatusCode)
	}

	getResp, err := http.Get(ts.URL + "/kv/alpha")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got kvResponse
	if err := json.NewDecoder(getResp.Body).Decode(&got); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	getResp.Body.Close()
	if getResp.StatusCode != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", getResp.StatusCode)
	}
	if got.Value != "one" {
		t.Fatalf("expected value %q, got %v", "one", got.Value)
	}
	if got.LevelUsed != "primary" {
		t.Fatalf("expected primary, got %s", got.LevelUsed)
	}
	if got.Source != "live" {
		t.Fatalf("expected live source, got %s", got.Source)
	}

	del, err := http.NewRequest(http.MethodDelete, ts.URL+"/kv/alpha", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	delResp, err := client.Do(del)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	delResp.Body.Close()
	if delResp.StatusCode != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", delResp.StatusCode)
	}

	missResp, err := http.Get(ts.URL + "/kv/alpha")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	missResp.Body.Close()
	if missResp.StatusCode != http.StatusBadGateway {
		t.Fatalf("miss: expected 502, got %d", missResp.StatusCode)
	}
}

func TestKVEndpointMissingKey(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/kv/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestAuthEndpointRefusesWhenUnverifiable(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/auth/bob")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	var refusal fallback.Refusal
	if err := json.NewDecoder(resp.Body).Decode(&refusal); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if refusal.Authenticated {
		t.Fatal("refusal must not authenticate")
	}
	if refusal.Source != "emergency" {
		t.Fatalf("expected emergency source, got %s", refusal.Source)
	}
}

func TestAuthEndpointAuthenticatesKnownClient(t *testing.T) {
	ts, d := newTestServer(t)

	seed := d.Orchestrator().ExecuteWithFallback(context.Background(), domain.CategoryCacheWrite, KVSet("auth:alice", "token-9", 0))
	if !seed.Success {
		t.Fatalf("seed failed: %s", seed.ErrorMessage)
	}

	resp, err := http.Get(ts.URL + "/auth/alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out struct {
		Value map[string]any `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Value["authenticated"] != true {
		t.Fatalf("expected authenticated client, got %v", out.Value)
	}
	if out.Value["token"] != "token-9" {
		t.Fatalf("expected stored token, got %v", out.Value["token"])
	}
}
