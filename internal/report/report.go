// Package report aggregates the outcomes of one batch run into a summary
// and renders it as text, JSON, or HTML.
package report

import (
	"encoding/json"
	"fmt"
	htmltemplate "html/template"
	"io"
	"text/template"
	"time"

	"github.com/hwibalyu/geminaverblog/internal/storage"
)

// Summary contains aggregated metrics about one batch run.
type Summary struct {
	Keyword         string
	Harvested       int
	Accepted        int
	Rendered        int
	Skipped         int
	Failed          int
	URLOnly         int
	ServiceFailures int
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
}

// GenerateSummary folds per-post outcomes into a Summary. Harvested and
// Accepted are set by the caller since outcomes only exist for accepted
// records. ServiceFailures counts the posts that proceeded on an
// unavailable gate verdict.
func GenerateSummary(keyword string, harvested, accepted int, outcomes []*storage.RenderOutcome) Summary {
	s := Summary{
		Keyword:   keyword,
		Harvested: harvested,
		Accepted:  accepted,
	}
	if len(outcomes) == 0 {
		return s
	}

	s.StartTime = outcomes[0].CreatedAt
	s.EndTime = outcomes[0].CreatedAt

	for _, o := range outcomes {
		switch o.Status {
		case storage.StatusRendered:
			s.Rendered++
		case storage.StatusSkipped:
			s.Skipped++
		case storage.StatusFailed:
			s.Failed++
		case storage.StatusURLOnly:
			s.URLOnly++
		}
		if o.Unavailable {
			s.ServiceFailures++
		}
		if o.CreatedAt.Before(s.StartTime) {
			s.StartTime = o.CreatedAt
		}
		if o.CreatedAt.After(s.EndTime) {
			s.EndTime = o.CreatedAt
		}
	}

	s.Duration = s.EndTime.Sub(s.StartTime)
	return s
}

// WriteJSON writes the summary to the provided writer in JSON format.
func WriteJSON(w io.Writer, summary Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	return nil
}

// WriteText writes a human-readable text summary to the provided writer.
func WriteText(w io.Writer, summary Summary) error {
	const textTmpl = `Batch Summary: {{.Keyword}}
------------------
Time:             {{.StartTime.Format "2006-01-02 15:04:05"}} - {{.EndTime.Format "2006-01-02 15:04:05"}}
Duration:         {{.Duration}}
Harvested:        {{.Harvested}} posts
Accepted:         {{.Accepted}}
Rendered:         {{.Rendered}} PDFs
URL Only:         {{.URLOnly}}
Skipped:          {{.Skipped}}
Failed:           {{.Failed}}
Service Failures: {{.ServiceFailures}}
`

	t, err := template.New("textReport").Parse(textTmpl)
	if err != nil {
		return fmt.Errorf("parse text template: %w", err)
	}
	if err := t.Execute(w, summary); err != nil {
		return fmt.Errorf("render text summary: %w", err)
	}
	return nil
}

// WriteHTML writes a basic HTML report to the provided writer. The keyword
// is user input, so the template escapes it.
func WriteHTML(w io.Writer, summary Summary) error {
	const htmlTmpl = `<!DOCTYPE html>
<html>
<head>
<title>Batch Report: {{.Keyword}}</title>
<style>
  body { font-family: sans-serif; margin: 40px; color: #333; }
  h1 { border-bottom: 2px solid #ccc; padding-bottom: 10px; }
  .stat-card { display: inline-block; padding: 20px; margin: 10px 10px 10px 0; background: #f4f4f4; border-radius: 5px; min-width: 150px; }
  .stat-val { font-size: 24px; font-weight: bold; }
</style>
</head>
<body>
  <h1>Batch Report: {{.Keyword}}</h1>
  <p><strong>Time:</strong> {{.StartTime.Format "2006-01-02 15:04:05"}} to {{.EndTime.Format "2006-01-02 15:04:05"}} ({{.Duration}})</p>

  <div class="stat-card">
    <div>Harvested</div>
    <div class="stat-val">{{.Harvested}}</div>
  </div>
  <div class="stat-card">
    <div>Accepted</div>
    <div class="stat-val">{{.Accepted}}</div>
  </div>
  <div class="stat-card">
    <div>Rendered</div>
    <div class="stat-val">{{.Rendered}}</div>
  </div>
  <div class="stat-card">
    <div>Skipped</div>
    <div class="stat-val">{{.Skipped}}</div>
  </div>
  <div class="stat-card">
    <div>Failed</div>
    <div class="stat-val" style="color: {{if gt .Failed 0}}red{{else}}green{{end}};">{{.Failed}}</div>
  </div>
  <div class="stat-card">
    <div>Service Failures</div>
    <div class="stat-val">{{.ServiceFailures}}</div>
  </div>
</body>
</html>
`
	t, err := htmltemplate.New("htmlReport").Parse(htmlTmpl)
	if err != nil {
		return fmt.Errorf("parse html template: %w", err)
	}
	if err := t.Execute(w, summary); err != nil {
		return fmt.Errorf("render html summary: %w", err)
	}
	return nil
}
