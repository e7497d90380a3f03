package tracker

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/pario-ai/rex/pkg/models"
)

func newTestTracker(t *testing.T) *SQLiteTracker {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	tr, err := New(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = tr.Close() })
	return tr
}

func TestRecordAndRecent(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for i, q := range []string{"first", "second"} {
		rec := models.UsageRecord{
			Model:            "gpt-4",
			Query:            q,
			PromptTokens:     100,
			CompletionTokens: 50,
			TotalTokens:      150,
			CreatedAt:        now.Add(time.Duration(i) * time.Second),
		}
		if err := tr.Record(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	records, err := tr.Recent(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Query != "second" {
		t.Errorf("expected newest first, got %q", records[0].Query)
	}
	if records[0].TotalTokens != 150 {
		t.Errorf("expected 150 tokens, got %d", records[0].TotalTokens)
	}

	limited, _ := tr.Recent(ctx, 1)
	if len(limited) != 1 {
		t.Errorf("expected limit to apply, got %d", len(limited))
	}
}

func TestTotalSince(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for i := 0; i < 3; i++ {
		_ = tr.Record(ctx, models.UsageRecord{
			Model: "gpt-4", PromptTokens: 100, CompletionTokens: 50, TotalTokens: 150, CreatedAt: now,
		})
	}
	_ = tr.Record(ctx, models.UsageRecord{
		Model: "gpt-4", TotalTokens: 1000, CreatedAt: now.Add(-48 * time.Hour),
	})

	total, err := tr.TotalSince(ctx, now.Add(-time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if total != 450 {
		t.Errorf("expected 450, got %d", total)
	}
}

func TestSummary(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()

	_ = tr.Record(ctx, models.UsageRecord{Model: "a", PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15})
	_ = tr.Record(ctx, models.UsageRecord{Model: "a", PromptTokens: 20, CompletionTokens: 5, TotalTokens: 25})
	_ = tr.Record(ctx, models.UsageRecord{Model: "b", PromptTokens: 1, CompletionTokens: 1, TotalTokens: 2})

	summaries, err := tr.Summary(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(summaries))
	}
	if summaries[0].Model != "a" || summaries[0].RequestCount != 2 || summaries[0].TotalTokens != 40 {
		t.Errorf("unexpected summary for a: %+v", summaries[0])
	}
	if summaries[1].TotalPrompt != 1 {
		t.Errorf("unexpected summary for b: %+v", summaries[1])
	}
}
