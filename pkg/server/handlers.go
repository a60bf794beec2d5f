package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"mercator-hq/ganymede/pkg/compression"
	"mercator-hq/ganymede/pkg/dispatch"
)

// routeRequest is the JSON body accepted by POST /v1/route.
type routeRequest struct {
	Provider string            `json:"provider"`
	Model    string            `json:"model"`
	Messages []routeMessage    `json:"messages"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type routeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// credentialRequest is the JSON body accepted by POST /v1/credentials.
type credentialRequest struct {
	ID        string `json:"id"`
	Provider  string `json:"provider"`
	Model     string `json:"model"`
	SecretRef string `json:"secret_ref"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// handleRoute dispatches one request through the router. Routing failures
// still produce a 200 with success=false in the body; only malformed
// requests are rejected outright.
func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body routeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if body.Provider == "" || body.Model == "" {
		writeError(w, http.StatusBadRequest, "provider and model are required")
		return
	}
	if len(body.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "messages must not be empty")
		return
	}

	messages := make([]compression.Message, len(body.Messages))
	for i, m := range body.Messages {
		kind := compression.KindMessage
		if m.Role == compression.RoleSystem {
			kind = compression.KindSystem
		}
		messages[i] = compression.Message{
			Role:    m.Role,
			Content: m.Content,
			Kind:    kind,
		}
	}

	result := s.router.Route(r.Context(), &dispatch.Request{
		RequestID: requestIDFrom(r.Context()),
		Provider:  body.Provider,
		Model:     body.Model,
		Messages:  messages,
		Metadata:  body.Metadata,
	})

	writeJSON(w, http.StatusOK, result)
}

// handleCredentials registers a credential at runtime.
func (s *Server) handleCredentials(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body credentialRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if err := s.router.RegisterCredential(body.ID, body.Provider, body.Model, body.SecretRef); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"id":       body.ID,
		"provider": body.Provider,
		"model":    body.Model,
	})
}

// handleUsage returns per-(provider, model) usage metrics plus a total.
func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"pairs": s.router.UsageSnapshot(),
		"total": s.router.UsageAggregate(),
	})
}

// handlePool returns the credential buckets. Secret references are never
// included in the snapshot.
func (s *Server) handlePool(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"buckets": s.router.PoolSnapshot(),
	})
}

// handleJournal returns recent journal records, newest first. Accepts
// provider, model, and limit query parameters.
func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	if !s.router.JournalEnabled() {
		writeError(w, http.StatusNotFound, "usage journal is disabled")
		return
	}

	records, err := s.router.JournalRecent(r.Context(),
		r.URL.Query().Get("provider"),
		r.URL.Query().Get("model"),
		limit,
	)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "reading journal: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"records": records,
	})
}

// handleHealthz is the liveness probe.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
	})
}
