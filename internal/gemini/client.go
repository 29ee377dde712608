// Package gemini is a minimal client for Google's generative-language API,
// restricted to the single JSON-constrained completion call this tool needs.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hwibalyu/geminaverblog/pkg/httpclient"
)

// Errors returned by the client. Both count as service failures for the
// caller's fail-open accounting; they are distinct so logs can tell a dead
// endpoint from a malformed completion.
var (
	ErrServiceCall   = errors.New("gemini: service call failed")
	ErrResponseParse = errors.New("gemini: malformed service response")
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-2.0-flash-lite"

	// Sent when no key is configured. The service rejects it; the caller's
	// error policy takes over rather than pre-validating credentials.
	placeholderKey = "MISSING_API_KEY"
)

// Config sets up a Client. Zero values select the defaults above.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Client calls the generateContent endpoint with a JSON-only response
// constraint. It performs no retries; a single failed call is a failed call.
type Client struct {
	httpc   *httpclient.Client
	apiKey  string
	model   string
	baseURL string
}

// New creates a Client from the given configuration.
func New(cfg Config) (*Client, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.APIKey == "" {
		cfg.APIKey = placeholderKey
	}

	httpc, err := httpclient.New(httpclient.Config{Timeout: cfg.Timeout, MaxRedirects: 3})
	if err != nil {
		return nil, fmt.Errorf("create http client: %w", err)
	}

	return &Client{
		httpc:   httpc,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}, nil
}

type generateRequest struct {
	Contents         []requestContent `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type requestContent struct {
	Parts []requestPart `json:"parts"`
}

type requestPart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMIMEType string `json:"responseMimeType"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// GenerateJSON sends the prompt with responseMimeType application/json and
// returns the first candidate's text, trimmed. The caller parses the text
// against its own contract.
func (c *Client) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	body := generateRequest{
		Contents:         []requestContent{{Parts: []requestPart{{Text: prompt}}}},
		GenerationConfig: generationConfig{ResponseMIMEType: "application/json"},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		c.baseURL, c.model, url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrServiceCall, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: status %d", ErrServiceCall, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", ErrServiceCall, err)
	}

	var decoded generateResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("%w: %v", ErrResponseParse, err)
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: no candidates", ErrResponseParse)
	}

	answer := strings.TrimSpace(decoded.Candidates[0].Content.Parts[0].Text)
	if answer == "" {
		return "", fmt.Errorf("%w: empty candidate text", ErrResponseParse)
	}
	return answer, nil
}
