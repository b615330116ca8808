package control

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vietddude/cascade/internal/core/domain"
	"github.com/vietddude/cascade/internal/fallback"
	"github.com/vietddude/cascade/internal/health"
)

// Server exposes health, status, metrics, admin and demo KV endpoints for a
// running daemon.
type Server struct {
	orch   *fallback.Orchestrator
	server *http.Server
}

func NewServer(orch *fallback.Orchestrator, port int) *Server {
	mux := http.NewServeMux()
	s := &Server{
		orch: orch,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
	}

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/admin/emergency-cache/clear", s.handleClearCache)
	mux.HandleFunc("/admin/stats/reset", s.handleResetStats)
	mux.HandleFunc("/kv/", s.handleKV)
	mux.HandleFunc("/auth/", s.handleAuth)
	mux.Handle("/metrics", promhttp.Handler())

	return s
}

// Start blocks serving HTTP until Stop is called.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	system := s.orch.GetFallbackStatus().System

	w.Header().Set("Content-Type", "application/json")
	if system.Overall == health.StatusCritical {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	json.NewEncoder(w).Encode(system)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.orch.GetFallbackStatus())
}

func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	cleared := s.orch.ClearEmergencyCache()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{"cleared": cleared})
}

func (s *Server) handleResetStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.orch.ResetFallbackStats()
	w.WriteHeader(http.StatusNoContent)
}

// kvResponse is the wire shape of the demo KV endpoints.
type kvResponse struct {
	Key       string `json:"key"`
	Value     any    `json:"value,omitempty"`
	LevelUsed string `json:"level_used"`
	Degraded  bool   `json:"degraded"`
	Source    string `json:"source"`
	Error     string `json:"error,omitempty"`
}

// handleKV routes GET/PUT/DELETE /kv/{key} through the orchestrator using
// the built-in cache categories.
func (s *Server) handleKV(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/kv/")
	if key == "" {
		http.Error(w, "missing key", http.StatusBadRequest)
		return
	}

	var res *domain.ExecutionResult
	switch r.Method {
	case http.MethodGet:
		res = s.orch.ExecuteWithFallback(r.Context(), domain.CategoryCacheRead, KVGet(key),
			fallback.WithCacheKey("kv:"+key),
			fallback.WithContextData(map[string]any{"key": key}))
	case http.MethodPut, http.MethodPost:
		value := r.URL.Query().Get("value")
		ttl, _ := time.ParseDuration(r.URL.Query().Get("ttl"))
		res = s.orch.ExecuteWithFallback(r.Context(), domain.CategoryCacheWrite, KVSet(key, value, ttl))
	case http.MethodDelete:
		res = s.orch.ExecuteWithFallback(r.Context(), domain.CategoryCacheWrite, KVDelete(key))
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := kvResponse{
		Key:       key,
		Value:     res.Value,
		LevelUsed: res.LevelUsed.String(),
		Degraded:  res.Degraded,
		Source:    string(res.Source),
		Error:     res.ErrorMessage,
	}

	w.Header().Set("Content-Type", "application/json")
	if !res.Success {
		w.WriteHeader(http.StatusBadGateway)
	}
	json.NewEncoder(w).Encode(resp)
}

// handleAuth verifies a client credential through the authentication
// category. An emergency refusal maps to 401, never to a fabricated
// success.
func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	clientID := strings.TrimPrefix(r.URL.Path, "/auth/")
	if clientID == "" {
		http.Error(w, "missing client id", http.StatusBadRequest)
		return
	}

	res := s.orch.ExecuteWithFallback(r.Context(), domain.CategoryAuthentication, AuthCheck(clientID),
		fallback.WithCacheKey("auth:"+clientID),
		fallback.WithContextData(map[string]any{"client_id": clientID}))

	w.Header().Set("Content-Type", "application/json")
	if !res.Success {
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]any{"authenticated": false, "error": res.ErrorMessage})
		return
	}
	if refusal, ok := res.Value.(fallback.Refusal); ok {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(refusal)
		return
	}
	json.NewEncoder(w).Encode(map[string]any{
		"value":    res.Value,
		"degraded": res.Degraded,
		"source":   string(res.Source),
	})
}
