package metrics

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/hwibalyu/geminaverblog/internal/storage"
)

func TestMetricsServer(t *testing.T) {
	srv := Start(8888)
	// Give it a tiny bit of time to start up
	time.Sleep(100 * time.Millisecond)

	defer srv.Stop(context.Background())

	RecordOutcome(&storage.RenderOutcome{
		Status:   storage.StatusRendered,
		Duration: 3 * time.Second,
	})
	FilterDecisions.WithLabelValues("batch", "accepted").Inc()

	resp, err := http.Get("http://localhost:8888/metrics")
	if err != nil {
		t.Fatalf("failed to fetch metrics: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}

	output := string(body)

	if !strings.Contains(output, `geminaverblog_renders_total{status="rendered"}`) {
		t.Errorf("expected renders_total metric for rendered status")
	}
	if !strings.Contains(output, "geminaverblog_render_duration_seconds_bucket") {
		t.Errorf("expected render duration histogram")
	}
	if !strings.Contains(output, `geminaverblog_filter_decisions_total{gate="batch",result="accepted"}`) {
		t.Errorf("expected filter decision counter")
	}
}

func TestRecordOutcome_Nil(t *testing.T) {
	// Must not panic.
	RecordOutcome(nil)
}
