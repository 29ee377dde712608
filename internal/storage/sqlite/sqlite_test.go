package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/hwibalyu/geminaverblog/internal/storage"
)

func TestSQLiteStore(t *testing.T) {
	// In-memory database
	s, err := New("file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("Failed to create SQLite store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	now := time.Now().UTC()

	out := &storage.RenderOutcome{
		ID:          "sq1",
		URL:         "https://blog.naver.com/a/1",
		Status:      storage.StatusRendered,
		Reason:      "service failure: 상태 확인 불가",
		Unavailable: true,
		PDFPath:     "acme/blog.naver.com_a_1.pdf",
		Duration:    2500 * time.Millisecond,
		CreatedAt:   now,
	}

	if err := s.Save(ctx, out); err != nil {
		t.Fatalf("Failed to save outcome: %v", err)
	}

	results, err := s.Query(ctx, storage.Filter{URL: "https://blog.naver.com/a/1"})
	if err != nil {
		t.Fatalf("Failed to query outcomes: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 outcome, got %d", len(results))
	}

	got := results[0]
	if got.ID != out.ID {
		t.Errorf("Expected ID %s, got %s", out.ID, got.ID)
	}
	if got.Status != storage.StatusRendered {
		t.Errorf("Expected status %s, got %s", storage.StatusRendered, got.Status)
	}
	if got.Duration != out.Duration {
		t.Errorf("Expected duration %v, got %v", out.Duration, got.Duration)
	}
	if got.PDFPath != out.PDFPath {
		t.Errorf("Expected pdf path %s, got %s", out.PDFPath, got.PDFPath)
	}
	if !got.Unavailable {
		t.Error("Expected unavailable flag to survive the round trip")
	}

	// Status filter misses
	none, err := s.Query(ctx, storage.Filter{Status: storage.StatusFailed})
	if err != nil {
		t.Fatalf("Failed to query by status: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("Expected 0 outcomes for status filter, got %d", len(none))
	}
}

func TestSQLiteStore_LimitOffset(t *testing.T) {
	s, err := New("file::memory:")
	if err != nil {
		t.Fatalf("Failed to create SQLite store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		out := &storage.RenderOutcome{
			ID:        string(rune('a' + i)),
			URL:       "https://blog.naver.com/x",
			Status:    storage.StatusSkipped,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.Save(ctx, out); err != nil {
			t.Fatalf("Failed to save outcome %d: %v", i, err)
		}
	}

	page, err := s.Query(ctx, storage.Filter{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("Failed to query page: %v", err)
	}
	if len(page) != 1 {
		t.Fatalf("Expected 1 outcome, got %d", len(page))
	}
	// Newest first, so offset 1 is the middle row
	if page[0].ID != "b" {
		t.Errorf("Expected ID b, got %s", page[0].ID)
	}
}
