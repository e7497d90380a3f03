package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/pario-ai/rex/pkg/brain"
	"github.com/pario-ai/rex/pkg/credential"
	"github.com/pario-ai/rex/pkg/models"
	"github.com/pario-ai/rex/pkg/orchestrator"
	"github.com/pario-ai/rex/pkg/remote"
	"github.com/pario-ai/rex/pkg/storage/memory"
)

func setupServer(t *testing.T, upstream *httptest.Server) *Server {
	t.Helper()
	ctx := context.Background()
	blobs := memory.New()

	b, err := brain.Load(ctx, blobs)
	if err != nil {
		t.Fatal(err)
	}
	creds, err := credential.Load(ctx, blobs, "test-model")
	if err != nil {
		t.Fatal(err)
	}

	o := orchestrator.New(orchestrator.Session{
		Brain:       b,
		Credentials: creds,
		Remote:      remote.New(remote.Options{URL: upstream.URL}),
	})
	return New(":0", o)
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func TestQueryFlow(t *testing.T) {
	var calls atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("Authorization") != "Bearer sk-user" {
			t.Error("expected saved credential in upstream request")
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": "Entropy is a measure of disorder."}}},
			"usage":   map[string]int{"total_tokens": 9},
		})
	}))
	defer upstream.Close()

	srv := setupServer(t, upstream)

	// No credential yet
	w := do(t, srv, http.MethodPost, "/api/query", `{"query":"What is entropy?"}`)
	if w.Code != http.StatusPreconditionRequired {
		t.Fatalf("expected 428, got %d: %s", w.Code, w.Body.String())
	}

	w = do(t, srv, http.MethodPut, "/api/credential", `{"api_key":"sk-user","model":""}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w = do(t, srv, http.MethodPost, "/api/query", `{"query":"What is entropy?"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var reply orchestrator.Reply
	if err := json.Unmarshal(w.Body.Bytes(), &reply); err != nil {
		t.Fatal(err)
	}
	if reply.FromMemory || reply.Text != "Entropy is a measure of disorder." {
		t.Errorf("unexpected first reply: %+v", reply)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected generated request id")
	}

	// Second query is served from the brain
	w = do(t, srv, http.MethodPost, "/api/query", `{"query":"entropy"}`)
	if err := json.Unmarshal(w.Body.Bytes(), &reply); err != nil {
		t.Fatal(err)
	}
	if !reply.FromMemory || !strings.HasPrefix(reply.Text, orchestrator.MemoryMarker) {
		t.Errorf("expected memory hit, got %+v", reply)
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 upstream call, got %d", calls.Load())
	}

	w = do(t, srv, http.MethodGet, "/api/keys", "")
	if w.Body.String() != "entropy" {
		t.Errorf("unexpected keys export: %q", w.Body.String())
	}

	w = do(t, srv, http.MethodGet, "/api/status", "")
	var st models.BrainStats
	json.Unmarshal(w.Body.Bytes(), &st)
	if !st.APIKeySet || st.Entries != 1 || st.Model != "test-model" {
		t.Errorf("unexpected status: %+v", st)
	}
}

func TestEmptyQuery(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer upstream.Close()

	srv := setupServer(t, upstream)
	w := do(t, srv, http.MethodPost, "/api/query", `{"query":"   "}`)
	if w.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", w.Code)
	}
}

func TestUpstreamError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer upstream.Close()

	srv := setupServer(t, upstream)
	do(t, srv, http.MethodPut, "/api/credential", `{"api_key":"sk"}`)

	w := do(t, srv, http.MethodPost, "/api/query", `{"query":"who is ada"}`)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "API Error 429") {
		t.Errorf("expected upstream status in error, got %s", w.Body.String())
	}

	w = do(t, srv, http.MethodGet, "/api/keys", "")
	if w.Code != http.StatusNoContent {
		t.Errorf("failed call must not be cached, got %d %q", w.Code, w.Body.String())
	}
}

func TestUpstreamErrorWithControlBytes(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("bad\x00body\x1b"))
	}))
	defer upstream.Close()

	srv := setupServer(t, upstream)
	do(t, srv, http.MethodPut, "/api/credential", `{"api_key":"sk"}`)

	w := do(t, srv, http.MethodPost, "/api/query", `{"query":"who is ada"}`)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
	if !json.Valid(w.Body.Bytes()) {
		t.Fatalf("error body is not valid JSON: %q", w.Body.String())
	}
	var body struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    int    `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Error.Message != "API Error 500: bad\x00body\x1b" {
		t.Errorf("message = %q", body.Error.Message)
	}
	if body.Error.Type != "rex_error" || body.Error.Code != http.StatusBadGateway {
		t.Errorf("unexpected error envelope: %+v", body.Error)
	}
}

func TestEntriesManagement(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":"answer"}}]}`))
	}))
	defer upstream.Close()

	srv := setupServer(t, upstream)
	do(t, srv, http.MethodPut, "/api/credential", `{"api_key":"sk"}`)
	do(t, srv, http.MethodPost, "/api/query", `{"query":"who is ada lovelace"}`)
	do(t, srv, http.MethodPost, "/api/query", `{"query":"define recursion"}`)

	w := do(t, srv, http.MethodGet, "/api/entries?filter=ada", "")
	var entries []models.BrainEntry
	if err := json.Unmarshal(w.Body.Bytes(), &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Key != "ada lovelace" {
		t.Fatalf("unexpected filtered entries: %+v", entries)
	}

	w = do(t, srv, http.MethodGet, "/api/entries/"+url.PathEscape("ada lovelace"), "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w = do(t, srv, http.MethodDelete, "/api/entries/"+url.PathEscape("ada lovelace"), "")
	if w.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", w.Code)
	}
	w = do(t, srv, http.MethodGet, "/api/entries/"+url.PathEscape("ada lovelace"), "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", w.Code)
	}

	w = do(t, srv, http.MethodDelete, "/api/entries", "")
	if !strings.Contains(w.Body.String(), `"deleted":1`) {
		t.Errorf("unexpected clear response: %s", w.Body.String())
	}
}

func TestInvalidBody(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer upstream.Close()

	srv := setupServer(t, upstream)
	w := do(t, srv, http.MethodPost, "/api/query", `not json`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}
