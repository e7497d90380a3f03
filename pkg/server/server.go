// Package server exposes the orchestrator's user events as a local JSON API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pario-ai/rex/pkg/log"
	"github.com/pario-ai/rex/pkg/orchestrator"
)

const maxBodySize = 1 << 20

// Server serves the rex JSON API.
type Server struct {
	addr string
	orch *orchestrator.Orchestrator
	mux  *http.ServeMux
}

// New creates a Server bound to addr.
func New(addr string, o *orchestrator.Orchestrator) *Server {
	s := &Server{
		addr: addr,
		orch: o,
		mux:  http.NewServeMux(),
	}
	s.mux.HandleFunc("POST /api/query", s.handleQuery)
	s.mux.HandleFunc("PUT /api/credential", s.handleCredential)
	s.mux.HandleFunc("GET /api/entries", s.handleHistory)
	s.mux.HandleFunc("DELETE /api/entries", s.handleClear)
	s.mux.HandleFunc("GET /api/entries/{key...}", s.handleEntry)
	s.mux.HandleFunc("DELETE /api/entries/{key...}", s.handleDelete)
	s.mux.HandleFunc("GET /api/keys", s.handleKeys)
	s.mux.HandleFunc("GET /api/status", s.handleStatus)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID := r.Header.Get("X-Request-ID")
	if reqID == "" {
		reqID = uuid.NewString()
	}
	w.Header().Set("X-Request-ID", reqID)

	start := time.Now()
	s.mux.ServeHTTP(w, r)
	log.Debugw("http request", "request_id", reqID, "method", r.Method, "path", r.URL.Path, "latency", time.Since(start))
}

// ListenAndServe starts the server with graceful shutdown support.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.addr,
		Handler: s,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("rex api listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		return err
	}
}

type queryRequest struct {
	Query string `json:"query"`
}

type credentialRequest struct {
	APIKey string `json:"api_key"`
	Model  string `json:"model"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reply, err := s.orch.Submit(r.Context(), req.Query)
	var rerr *orchestrator.RemoteError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, reply)
	case errors.Is(err, orchestrator.ErrEmptyInput):
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, orchestrator.ErrMissingCredential):
		writeJSONError(w, http.StatusPreconditionRequired,
			"Please save your OpenRouter API key (PUT /api/credential) before sending requests.")
	case errors.Is(err, orchestrator.ErrBusy):
		writeJSONError(w, http.StatusConflict, err.Error())
	case errors.As(err, &rerr):
		writeJSONError(w, http.StatusBadGateway, rerr.Message)
	default:
		writeJSONError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleCredential(w http.ResponseWriter, r *http.Request) {
	var req credentialRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if _, err := s.orch.SaveCredential(r.Context(), req.APIKey, req.Model); err != nil {
		log.Error("save credential", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to save credential")
		return
	}
	writeJSON(w, http.StatusOK, s.orch.Status())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.orch.History(r.URL.Query().Get("filter")))
}

func (s *Server) handleEntry(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.orch.Entry(r.PathValue("key"))
	if !ok {
		writeJSONError(w, http.StatusNotFound, "entry not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.orch.DeleteEntry(r.Context(), r.PathValue("key")); err != nil {
		log.Error("delete entry", err)
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	n, err := s.orch.ClearAll(r.Context())
	if err != nil {
		log.Error("clear brain", err)
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": n})
}

func (s *Server) handleKeys(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	keys := s.orch.ExportKeys()
	if len(keys) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	io.WriteString(w, strings.Join(keys, "\n"))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.orch.Status())
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(v)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("encode response", err)
	}
}

func writeJSONError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"message": message,
			"type":    "rex_error",
			"code":    code,
		},
	})
}
