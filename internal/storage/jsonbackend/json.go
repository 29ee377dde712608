package jsonbackend

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/hwibalyu/geminaverblog/internal/storage"
)

// ensure jsonStore implements storage.OutcomeStore
var _ storage.OutcomeStore = (*jsonStore)(nil)

// jsonStore appends one JSON line per outcome to a file. It is the default
// backend: the outcome log lands next to the PDFs in the company directory.
type jsonStore struct {
	mu   sync.Mutex
	file *os.File
}

// New creates a new NDJSON-backed storage.OutcomeStore.
func New(filePath string) (storage.OutcomeStore, error) {
	f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("open outcome log: %w", err)
	}
	return &jsonStore{file: f}, nil
}

func (s *jsonStore) Save(ctx context.Context, outcome *storage.RenderOutcome) error {
	data, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("marshal outcome: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("append outcome: %w", err)
	}
	return nil
}

func (s *jsonStore) Query(ctx context.Context, filter storage.Filter) ([]*storage.RenderOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek outcome log: %w", err)
	}
	defer func() {
		// Restore pointer to end for appending
		_, _ = s.file.Seek(0, io.SeekEnd)
	}()

	scanner := bufio.NewScanner(s.file)

	var matched []*storage.RenderOutcome
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var o storage.RenderOutcome
		if err := json.Unmarshal(line, &o); err != nil {
			return nil, fmt.Errorf("parse outcome line: %w", err)
		}

		if filter.URL != "" && o.URL != filter.URL {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		if filter.Since != nil && o.CreatedAt.Before(*filter.Since) {
			continue
		}

		matched = append(matched, &o)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan outcome log: %w", err)
	}

	// Order by created_at DESC (reverse the slice; lines are appended in order)
	for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
		matched[i], matched[j] = matched[j], matched[i]
	}

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return []*storage.RenderOutcome{}, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}

	return matched, nil
}

func (s *jsonStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}
