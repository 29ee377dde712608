package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/hwibalyu/geminaverblog/internal/storage"
)

func TestGenerateSummary(t *testing.T) {
	now := time.Now()

	outcomes := []*storage.RenderOutcome{
		{
			Status:    storage.StatusRendered,
			PDFPath:   "삼성전자/blog.naver.com_a_1.pdf",
			CreatedAt: now,
		},
		{
			Status:    storage.StatusSkipped,
			Reason:    "시황 위주",
			CreatedAt: now.Add(1 * time.Second),
		},
		{
			Status:    storage.StatusFailed,
			Reason:    "navigation timed out",
			CreatedAt: now.Add(2 * time.Second),
		},
		{
			Status:    storage.StatusURLOnly,
			CreatedAt: now.Add(3 * time.Second),
		},
	}

	summary := GenerateSummary("삼성전자", 10, 4, outcomes)

	if summary.Harvested != 10 {
		t.Errorf("expected 10 harvested, got %d", summary.Harvested)
	}
	if summary.Accepted != 4 {
		t.Errorf("expected 4 accepted, got %d", summary.Accepted)
	}
	if summary.Rendered != 1 {
		t.Errorf("expected 1 rendered, got %d", summary.Rendered)
	}
	if summary.Skipped != 1 {
		t.Errorf("expected 1 skipped, got %d", summary.Skipped)
	}
	if summary.Failed != 1 {
		t.Errorf("expected 1 failed, got %d", summary.Failed)
	}
	if summary.URLOnly != 1 {
		t.Errorf("expected 1 url-only, got %d", summary.URLOnly)
	}
	if summary.Duration != 3*time.Second {
		t.Errorf("expected 3s duration, got %v", summary.Duration)
	}
}

func TestGenerateSummary_CountsUnavailableVerdicts(t *testing.T) {
	now := time.Now()

	outcomes := []*storage.RenderOutcome{
		{
			Status:      storage.StatusRendered,
			Reason:      "service failure: gemini: service call failed",
			Unavailable: true,
			CreatedAt:   now,
		},
		{
			Status:    storage.StatusRendered,
			CreatedAt: now,
		},
		{
			Status:      storage.StatusURLOnly,
			Reason:      "unknown verdict \"MAYBE\"",
			Unavailable: true,
			CreatedAt:   now,
		},
	}

	summary := GenerateSummary("삼성전자", 3, 3, outcomes)

	if summary.ServiceFailures != 2 {
		t.Errorf("expected 2 service failures, got %d", summary.ServiceFailures)
	}
	if summary.Rendered != 2 {
		t.Errorf("expected 2 rendered, got %d", summary.Rendered)
	}
}

func TestGenerateSummary_NoOutcomes(t *testing.T) {
	summary := GenerateSummary("키워드", 0, 0, nil)
	if summary.Rendered != 0 || summary.Failed != 0 {
		t.Errorf("empty input must yield zero counts, got %+v", summary)
	}
	if !summary.StartTime.IsZero() {
		t.Errorf("expected zero start time, got %v", summary.StartTime)
	}
}

func TestWriteJSON(t *testing.T) {
	summary := Summary{
		Keyword:  "삼성전자",
		Rendered: 5,
	}
	var buf bytes.Buffer
	err := WriteJSON(&buf, summary)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(buf.String(), `"Rendered": 5`) {
		t.Errorf("expected JSON to contain Rendered: 5")
	}
}

func TestWriteText(t *testing.T) {
	summary := Summary{
		Keyword:   "삼성전자",
		Harvested: 12,
		Accepted:  5,
		Rendered:  4,
		Skipped:   1,
	}
	var buf bytes.Buffer
	err := WriteText(&buf, summary)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Harvested:        12 posts") {
		t.Errorf("expected text to contain harvested count, got:\n%s", out)
	}
	if !strings.Contains(out, "Rendered:         4 PDFs") {
		t.Errorf("expected text to contain rendered count, got:\n%s", out)
	}
}

func TestWriteHTML(t *testing.T) {
	summary := Summary{
		Keyword:  "삼성전자",
		Rendered: 10,
		Failed:   2,
	}
	var buf bytes.Buffer
	err := WriteHTML(&buf, summary)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "<title>Batch Report: 삼성전자</title>") {
		t.Errorf("expected HTML title")
	}
	if !strings.Contains(out, "red") {
		t.Errorf("expected failed count highlighted")
	}
}

func TestWriteHTML_EscapesKeyword(t *testing.T) {
	summary := Summary{Keyword: `<script>alert("x")</script>`}
	var buf bytes.Buffer
	if err := WriteHTML(&buf, summary); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if strings.Contains(out, "<script>alert") {
		t.Errorf("keyword interpolated unescaped:\n%s", out)
	}
	if !strings.Contains(out, "&lt;script&gt;") {
		t.Errorf("expected escaped keyword, got:\n%s", out)
	}
}
