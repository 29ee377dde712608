package storage

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestResultSet_RoundTrip(t *testing.T) {
	records := []SearchResultRecord{
		{Title: "실적 분석", Description: "3분기 실적", URL: "https://blog.naver.com/a/1", Date: "2025. 1. 2."},
		{Title: "N/A", Description: "N/A", URL: "https://blog.naver.com/b/2", Date: "N/A"},
	}

	dir := t.TempDir()
	path, err := WriteResultSet(dir, "acme", records)
	if err != nil {
		t.Fatalf("WriteResultSet: %v", err)
	}

	want := filepath.Join(dir, "acme", "acme_rawdata.json")
	if path != want {
		t.Errorf("artifact path = %q, want %q", path, want)
	}

	got, err := ReadResultSet(path)
	if err != nil {
		t.Fatalf("ReadResultSet: %v", err)
	}
	if !reflect.DeepEqual(got, records) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, records)
	}
}

func TestWriteResultSet_EmptySet(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteResultSet(dir, "empty", []SearchResultRecord{})
	if err != nil {
		t.Fatalf("WriteResultSet: %v", err)
	}
	got, err := ReadResultSet(path)
	if err != nil {
		t.Fatalf("ReadResultSet: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty set, got %d records", len(got))
	}
}

// Ensure OutcomeStore is implementable outside the package tree.
type mockStore struct{}

func (m *mockStore) Save(ctx context.Context, outcome *RenderOutcome) error { return nil }
func (m *mockStore) Query(ctx context.Context, filter Filter) ([]*RenderOutcome, error) {
	return nil, nil
}
func (m *mockStore) Close() error { return nil }

func TestOutcomeStoreInterface(t *testing.T) {
	var s OutcomeStore = &mockStore{}
	_ = s

	_ = RenderOutcome{
		ID:        "out-1",
		URL:       "https://blog.naver.com/a/1",
		Status:    StatusRendered,
		Reason:    "기업 분석 포함",
		PDFPath:   "acme/blog.naver.com_a_1.pdf",
		Duration:  3 * time.Second,
		CreatedAt: time.Now(),
	}
}
