// Package orchestrator decides, per query, between a brain hit and a remote
// call, and exposes the user-facing operations on the brain and credential.
package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pario-ai/rex/pkg/brain"
	"github.com/pario-ai/rex/pkg/credential"
	"github.com/pario-ai/rex/pkg/log"
	"github.com/pario-ai/rex/pkg/models"
	"github.com/pario-ai/rex/pkg/tracker"
)

// MemoryMarker prefixes every answer served from the brain.
const MemoryMarker = "[FROM MEMORY] "

var (
	// ErrEmptyInput is returned for blank submissions. Callers ignore it silently.
	ErrEmptyInput = errors.New("empty query")
	// ErrMissingCredential is returned when no API key is configured.
	ErrMissingCredential = errors.New("no API key configured")
	// ErrBusy is returned when a query is submitted while another is in flight.
	ErrBusy = errors.New("a query is already in progress")
)

// RemoteError carries the failure text of a remote call verbatim.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string { return e.Message }

// Completer is the remote completion service.
type Completer interface {
	Complete(ctx context.Context, query, credential, model string) models.CompletionResult
}

// Session bundles the state one orchestrator works on. Tracker may be nil.
type Session struct {
	Brain       *brain.Store
	Credentials *credential.Store
	Remote      Completer
	Tracker     tracker.Tracker
}

// Reply is the outcome of a successful submission.
type Reply struct {
	Text       string              `json:"text"`
	FromMemory bool                `json:"from_memory"`
	Key        string              `json:"key,omitempty"`
	Record     models.AnswerRecord `json:"record"`
	TokenInfo  string              `json:"token_info,omitempty"`
}

// Orchestrator runs at most one query at a time.
type Orchestrator struct {
	s    Session
	busy atomic.Bool
}

// New creates an Orchestrator over s.
func New(s Session) *Orchestrator {
	return &Orchestrator{s: s}
}

// Submit answers text from the brain if possible, otherwise from the remote
// service, storing successful remote answers under the original query.
// Remote failures come back as *RemoteError and are never stored.
func (o *Orchestrator) Submit(ctx context.Context, text string) (Reply, error) {
	query := strings.TrimSpace(text)
	if query == "" {
		return Reply{}, ErrEmptyInput
	}
	if !o.busy.CompareAndSwap(false, true) {
		return Reply{}, ErrBusy
	}
	defer o.busy.Store(false)

	cred := o.s.Credentials.Get()
	if !cred.HasKey() {
		return Reply{}, ErrMissingCredential
	}

	if rec, ok := o.s.Brain.Lookup(query); ok {
		log.Infow("brain hit", "query", query)
		return Reply{Text: MemoryMarker + rec.Response, FromMemory: true, Record: rec}, nil
	}

	log.Infow("brain miss, asking remote", "query", query, "model", cred.Model)
	start := time.Now()
	res := o.s.Remote.Complete(ctx, query, cred.APIKey, cred.Model)
	latency := time.Since(start)
	if !res.Success {
		log.Warnw("remote call failed", "query", query, "error", res.Error)
		msg := res.Error
		if msg == "" {
			msg = "Unknown error"
		}
		return Reply{}, &RemoteError{Message: msg}
	}

	rec := res.Record(query)
	key, err := o.s.Brain.Insert(ctx, query, rec)
	if err != nil {
		log.Warnw("brain write failed, keeping answer in memory only", "key", key, "error", err)
	}
	if stored, ok := o.s.Brain.Get(key); ok {
		rec = stored
	}
	o.track(ctx, query, res, latency)

	return Reply{Text: res.Response, Key: key, Record: rec, TokenInfo: res.TokenInfo}, nil
}

// Busy reports whether a query is in flight.
func (o *Orchestrator) Busy() bool {
	return o.busy.Load()
}

func (o *Orchestrator) track(ctx context.Context, query string, res models.CompletionResult, latency time.Duration) {
	if o.s.Tracker == nil || res.Usage == nil {
		return
	}
	err := o.s.Tracker.Record(ctx, models.UsageRecord{
		Model:            res.Model,
		Query:            query,
		PromptTokens:     res.Usage.PromptTokens,
		CompletionTokens: res.Usage.CompletionTokens,
		TotalTokens:      res.Usage.Total(),
		LatencyMs:        latency.Milliseconds(),
		CreatedAt:        time.Now().UTC(),
	})
	if err != nil {
		log.Warnw("usage tracking failed", "error", err)
	}
}

// SaveCredential stores a new API key and, if non-blank, a new model.
func (o *Orchestrator) SaveCredential(ctx context.Context, apiKey, model string) (models.Credential, error) {
	return o.s.Credentials.Save(ctx, apiKey, model)
}

// ResetCredential forgets the saved API key and model.
func (o *Orchestrator) ResetCredential(ctx context.Context) (models.Credential, error) {
	return o.s.Credentials.Reset(ctx)
}

// DeleteEntry removes one brain entry by key. Unknown keys are a no-op.
func (o *Orchestrator) DeleteEntry(ctx context.Context, key string) error {
	return o.s.Brain.Delete(ctx, key)
}

// ClearAll empties the brain and reports how many entries were removed.
func (o *Orchestrator) ClearAll(ctx context.Context) (int, error) {
	return o.s.Brain.Clear(ctx)
}

// ExportKeys returns every brain key.
func (o *Orchestrator) ExportKeys() []string {
	return o.s.Brain.Keys()
}

// History lists brain entries newest first, optionally filtered.
func (o *Orchestrator) History(filter string) []models.BrainEntry {
	return o.s.Brain.EntriesByRecency(filter)
}

// Entry returns the record stored under key.
func (o *Orchestrator) Entry(key string) (models.AnswerRecord, bool) {
	return o.s.Brain.Get(key)
}

// Status summarises the current model, credential state and brain size.
func (o *Orchestrator) Status() models.BrainStats {
	cred := o.s.Credentials.Get()
	return models.BrainStats{
		Model:     cred.Model,
		APIKeySet: cred.HasKey(),
		Entries:   o.s.Brain.Len(),
	}
}
