// Package filter implements the two Gemini-backed relevance gates: a batch
// gate that prunes a harvested result list, and a per-post gate that decides
// whether a rendered post is worth keeping.
package filter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hwibalyu/geminaverblog/internal/gemini"
	"github.com/hwibalyu/geminaverblog/internal/metrics"
	"github.com/hwibalyu/geminaverblog/internal/storage"
)

// Result is the per-post gate verdict.
type Result string

const (
	ResultYes Result = "YES"
	ResultNo  Result = "NO"
	// ResultUnavailable means the service could not produce a verdict.
	// The pipeline treats it as acceptance (fail-open) and says so in the log.
	ResultUnavailable Result = "UNAVAILABLE"
)

// Decision is the per-post gate outcome with its stated rationale.
type Decision struct {
	Result Result `json:"result"`
	Reason string `json:"reason"`
}

// Allows reports whether the post should proceed to PDF generation.
// An unavailable verdict allows: over-inclusion beats silent data loss.
func (d Decision) Allows() bool {
	return d.Result == ResultYes || d.Result == ResultUnavailable
}

// Unavailable reports whether the verdict is a stand-in for a service failure.
func (d Decision) Unavailable() bool {
	return d.Result == ResultUnavailable
}

// Completer is the slice of the gemini client the filter needs.
type Completer interface {
	GenerateJSON(ctx context.Context, prompt string) (string, error)
}

// Filter wraps the completion service with the two gate prompts.
type Filter struct {
	svc    Completer
	logger *slog.Logger
}

// New creates a Filter. A nil logger falls back to slog.Default().
func New(svc Completer, logger *slog.Logger) *Filter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Filter{svc: svc, logger: logger}
}

// defaultBatchChecklist is applied by FilterBatch when no condition override
// is given. Kept in Korean: the model judges Korean blog posts against it.
const defaultBatchChecklist = `
		0. 기업의 정성적인 분석 내용 위주인 경우만 포함
		1. 기업의 실적분석이나, 실적 추정 내용이 있는 경우 반드시 포함
		2. 사업부문 분석, 비지니스모델 분석, 재무분석, 밸류에이션, 산업분석, 경제적 해자 분석, 경쟁력 분석, 경쟁우위, 경쟁사 분석 중 어느 하나라도 포함되어 있으면 반드시 포함
		3. 애널리스트의 리포트 내용을 요약한 경우는 제외(예를 들어, xxx 애널리스트의 리포트 요약 등은 제외할 것)
		4. 주가의 급등락, 거래량, 거래대금 등의 정량적인 내용에 집중한 경우는 제외
		5. 기업의 제품에 대한 리뷰 포스팅은 제외`

// decisionChecklist builds the per-post default checklist for a company.
func decisionChecklist(companyName string) string {
	return fmt.Sprintf(`
		1. %[1]s에 대한 분석을 위주로 분석한 경우(예를 들면, %[1]s의 실적분석, 밸류에이션, 산업분석 등).
		2. 분석 내용이 %[1]s이 아닌 타기업에 대한 분석의 비중이 큰 경우에는 제외.
		3. 가치투자의 측면에서 정성적으로 분석한 경우
		4. 분석 내용이 유용하고, 정보가 풍부한 경우, 내용이 직접 작성한 경우
		5. 단순히 타인의 블로그 분석한 내용을 인용한 것에 불과한 경우는 제외
		6. 증권사 애널리스트의 리포트 내용을 단순 요약한 경우는 제외(예를 들어, xxx 애널리스트의 리포트 요약 등은 제외할 것)
		7. 단순히 주가나 거래량 등의 정량적인 내용에 집중한 경우는 제외
		8. 시황에 관한 분석은 반드시 제외할 것
		9. 특징주, 이슈주, 테마주, 급등주 등에 대한 포스팅은 반드시 제외할 것`, companyName)
}

// FilterBatch sends the whole record list through the batch gate and returns
// the accepted subset. A service or parse failure is returned as an error
// (wrapping gemini.ErrServiceCall or gemini.ErrResponseParse); there is no
// sentinel value, and no retry.
func (f *Filter) FilterBatch(ctx context.Context, records []storage.SearchResultRecord, condition string) ([]storage.SearchResultRecord, error) {
	if len(records) == 0 {
		return nil, nil
	}
	if strings.TrimSpace(condition) == "" {
		condition = defaultBatchChecklist
	}

	listJSON, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("marshal record list: %w", err)
	}

	prompt := fmt.Sprintf(`
	아래의 블로그 리스트를 읽고, 판단조건을 만족할 가능성이 낮은 포스트는 제외하고, 반드시 JSON만 반환하세요. 불필요한 설명, 코드블록, 주석, 텍스트는 제거하세요.
	판단조건 :
	%s

	분석 대상 리스트 :
	%s`, condition, listJSON)

	answer, err := f.svc.GenerateJSON(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("batch gate: %w", err)
	}

	var accepted []storage.SearchResultRecord
	if err := json.Unmarshal([]byte(answer), &accepted); err != nil {
		return nil, fmt.Errorf("batch gate: %w: %v", gemini.ErrResponseParse, err)
	}

	f.logger.Info("batch gate complete", "in", len(records), "accepted", len(accepted))
	return accepted, nil
}

// Decide runs the per-post gate over the extracted body text. Service and
// parse failures do not come back as errors: they surface as an explicit
// ResultUnavailable verdict that callers treat as acceptance (fail-open).
// Only context cancellation is returned as an error.
func (f *Filter) Decide(ctx context.Context, companyName, bodyText, condition string) (Decision, error) {
	if strings.TrimSpace(condition) == "" {
		condition = decisionChecklist(companyName)
	}

	prompt := fmt.Sprintf(`
	아래 블로그 본문을 읽고 PDF로 저장할 가치가 있는지를 판단하여, 저장가치가 있으면 'YES', 그렇지 않으면 'NO'만 대답하세요. 반드시 그렇게 판단한 이유도 함께 작성하세요.

	답변 형식은 다음과 같습니다.
	답변형식:
	{"result": "YES" || "NO" , "reason": 판단근거 }

	다음의 판단조건을 모두 만족해야 합니다.
	판단조건 :
	%s

	분석 대상 블로그 본문 : %s`, condition, bodyText)

	answer, err := f.svc.GenerateJSON(ctx, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return Decision{}, ctx.Err()
		}
		metrics.ServiceFailures.Inc()
		f.logger.Error("decision gate service failure, failing open", "err", err)
		return Decision{Result: ResultUnavailable, Reason: fmt.Sprintf("service failure: %v", err)}, nil
	}

	var d Decision
	if err := json.Unmarshal([]byte(answer), &d); err != nil {
		metrics.ServiceFailures.Inc()
		f.logger.Error("decision gate returned non-contract JSON, failing open", "err", err)
		return Decision{Result: ResultUnavailable, Reason: fmt.Sprintf("unparseable verdict: %v", err)}, nil
	}
	if d.Result != ResultYes && d.Result != ResultNo {
		metrics.ServiceFailures.Inc()
		f.logger.Error("decision gate returned unknown verdict, failing open", "result", string(d.Result))
		return Decision{Result: ResultUnavailable, Reason: fmt.Sprintf("unknown verdict %q", d.Result)}, nil
	}

	return d, nil
}
