package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// SearchResultRecord is one discovered blog post from a search-results page.
// The URL is the identity key downstream; it is not deduplicated here.
// Fields that could not be extracted hold the literal "N/A" placeholder.
type SearchResultRecord struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Date        string `json:"date"`
}

// Outcome status values for a processed post.
const (
	StatusRendered = "rendered"
	StatusSkipped  = "skipped"  // filter said NO
	StatusFailed   = "failed"   // rendering error
	StatusURLOnly  = "url-only" // gate passed, PDF generation disabled
)

// RenderOutcome records what happened to a single post during batch
// processing. One row per attempted post, success or not.
type RenderOutcome struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Status string `json:"status"`
	Reason string `json:"reason"`
	// Unavailable marks a fail-open verdict: the gate could not answer and
	// the post proceeded anyway.
	Unavailable bool          `json:"unavailable,omitempty"`
	PDFPath     string        `json:"pdf_path,omitempty"`
	Duration    time.Duration `json:"duration"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Filter allows querying for specific RenderOutcomes.
type Filter struct {
	URL    string
	Status string
	Since  *time.Time
	Limit  int
	Offset int
}

// OutcomeStore defines the interface for persisting and querying render outcomes.
type OutcomeStore interface {
	Save(ctx context.Context, outcome *RenderOutcome) error
	Query(ctx context.Context, filter Filter) ([]*RenderOutcome, error)
	Close() error
}

// WriteResultSet persists a harvested record sequence as the batch artifact
// <baseDir>/<keyword>/<keyword>_rawdata.json, creating the directory if
// needed. It returns the artifact path. The artifact is written once per
// harvest and never mutated afterwards.
func WriteResultSet(baseDir, keyword string, records []SearchResultRecord) (string, error) {
	dir := filepath.Join(baseDir, keyword)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal result set: %w", err)
	}

	path := filepath.Join(dir, keyword+"_rawdata.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write result set: %w", err)
	}
	return path, nil
}

// ReadResultSet loads a previously persisted result-set artifact.
func ReadResultSet(path string) ([]SearchResultRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read result set: %w", err)
	}

	var records []SearchResultRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse result set: %w", err)
	}
	return records, nil
}
