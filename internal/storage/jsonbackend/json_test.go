package jsonbackend

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/hwibalyu/geminaverblog/internal/storage"
)

func TestJSONStore(t *testing.T) {
	tmpDir := t.TempDir()
	filePath := filepath.Join(tmpDir, "outcomes.jsonl")

	s, err := New(filePath)
	if err != nil {
		t.Fatalf("Failed to create JSON store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	now := time.Now().Truncate(time.Millisecond).UTC() // JSON marshals with precision limits

	out1 := &storage.RenderOutcome{
		ID:        "out1",
		URL:       "https://blog.naver.com/a/1",
		Status:    storage.StatusRendered,
		Reason:    "실적 분석 포함",
		PDFPath:   "acme/blog.naver.com_a_1.pdf",
		Duration:  3 * time.Second,
		CreatedAt: now.Add(-2 * time.Hour),
	}
	out2 := &storage.RenderOutcome{
		ID:        "out2",
		URL:       "https://blog.naver.com/b/2",
		Status:    storage.StatusSkipped,
		Reason:    "시황 분석",
		Duration:  time.Second,
		CreatedAt: now.Add(-1 * time.Hour),
	}

	if err := s.Save(ctx, out1); err != nil {
		t.Fatalf("Failed to save outcome 1: %v", err)
	}
	if err := s.Save(ctx, out2); err != nil {
		t.Fatalf("Failed to save outcome 2: %v", err)
	}

	// URL filter
	byURL, err := s.Query(ctx, storage.Filter{URL: "https://blog.naver.com/b/2"})
	if err != nil {
		t.Fatalf("Failed to query by URL: %v", err)
	}
	if len(byURL) != 1 || byURL[0].ID != "out2" {
		t.Fatalf("URL filter: expected out2, got %+v", byURL)
	}

	// Status filter
	byStatus, err := s.Query(ctx, storage.Filter{Status: storage.StatusRendered})
	if err != nil {
		t.Fatalf("Failed to query by status: %v", err)
	}
	if len(byStatus) != 1 || byStatus[0].ID != "out1" {
		t.Fatalf("status filter: expected out1, got %+v", byStatus)
	}

	// Since filter
	past := now.Add(-90 * time.Minute)
	bySince, err := s.Query(ctx, storage.Filter{Since: &past})
	if err != nil {
		t.Fatalf("Failed to query by Since: %v", err)
	}
	if len(bySince) != 1 || bySince[0].ID != "out2" {
		t.Fatalf("Since filter: expected out2, got %+v", bySince)
	}

	// No filters: newest first
	all, err := s.Query(ctx, storage.Filter{})
	if err != nil {
		t.Fatalf("Failed to query all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("Expected 2 outcomes, got %d", len(all))
	}
	if all[0].ID != "out2" {
		t.Errorf("Expected out2 first, got %s", all[0].ID)
	}

	// Limit and offset
	limited, err := s.Query(ctx, storage.Filter{Limit: 1})
	if err != nil {
		t.Fatalf("Failed to query limit: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("Expected 1 outcome, got %d", len(limited))
	}
	offset, err := s.Query(ctx, storage.Filter{Offset: 1})
	if err != nil {
		t.Fatalf("Failed to query offset: %v", err)
	}
	if len(offset) != 1 || offset[0].ID != "out1" {
		t.Fatalf("offset 1: expected out1, got %+v", offset)
	}
}
