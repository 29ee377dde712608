package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// respond wraps text in the service's candidates envelope.
func respond(t *testing.T, w http.ResponseWriter, text string) {
	t.Helper()
	env := map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]any{{"text": text}}}},
		},
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(env); err != nil {
		t.Fatalf("encode response: %v", err)
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(handler)
	c, err := New(Config{APIKey: "test-key", BaseURL: ts.URL})
	if err != nil {
		ts.Close()
		t.Fatalf("New: %v", err)
	}
	return c, ts
}

func TestGenerateJSON_RequestContract(t *testing.T) {
	var gotPath, gotKey string
	var gotBody generateRequest

	c, ts := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		respond(t, w, `{"result":"YES","reason":"ok"}`)
	})
	defer ts.Close()

	answer, err := c.GenerateJSON(context.Background(), "판단하세요")
	if err != nil {
		t.Fatalf("GenerateJSON: %v", err)
	}

	if gotPath != "/models/"+DefaultModel+":generateContent" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotKey != "test-key" {
		t.Errorf("expected key query parameter, got %q", gotKey)
	}
	if len(gotBody.Contents) != 1 || len(gotBody.Contents[0].Parts) != 1 {
		t.Fatalf("unexpected contents shape: %+v", gotBody)
	}
	if gotBody.Contents[0].Parts[0].Text != "판단하세요" {
		t.Errorf("prompt not carried: %q", gotBody.Contents[0].Parts[0].Text)
	}
	if gotBody.GenerationConfig.ResponseMIMEType != "application/json" {
		t.Errorf("expected application/json response constraint, got %q", gotBody.GenerationConfig.ResponseMIMEType)
	}
	if !strings.Contains(answer, `"YES"`) {
		t.Errorf("unexpected answer %q", answer)
	}
}

func TestGenerateJSON_TrimsAnswer(t *testing.T) {
	c, ts := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respond(t, w, "  [\"a\"]\n ")
	})
	defer ts.Close()

	answer, err := c.GenerateJSON(context.Background(), "p")
	if err != nil {
		t.Fatalf("GenerateJSON: %v", err)
	}
	if answer != `["a"]` {
		t.Errorf("expected trimmed answer, got %q", answer)
	}
}

func TestGenerateJSON_Non2xx(t *testing.T) {
	c, ts := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	})
	defer ts.Close()

	_, err := c.GenerateJSON(context.Background(), "p")
	if !errors.Is(err, ErrServiceCall) {
		t.Fatalf("expected ErrServiceCall, got %v", err)
	}
}

func TestGenerateJSON_MalformedEnvelope(t *testing.T) {
	c, ts := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	})
	defer ts.Close()

	_, err := c.GenerateJSON(context.Background(), "p")
	if !errors.Is(err, ErrResponseParse) {
		t.Fatalf("expected ErrResponseParse, got %v", err)
	}
}

func TestGenerateJSON_NotJSONBody(t *testing.T) {
	c, ts := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>nope</html>"))
	})
	defer ts.Close()

	_, err := c.GenerateJSON(context.Background(), "p")
	if !errors.Is(err, ErrResponseParse) {
		t.Fatalf("expected ErrResponseParse, got %v", err)
	}
}

func TestGenerateJSON_DeadEndpoint(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close() // refuse connections

	c, err := New(Config{APIKey: "k", BaseURL: ts.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = c.GenerateJSON(context.Background(), "p")
	if !errors.Is(err, ErrServiceCall) {
		t.Fatalf("expected ErrServiceCall, got %v", err)
	}
}

func TestNew_PlaceholderKey(t *testing.T) {
	var gotKey string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("key")
		// The real service rejects the placeholder; simulate that.
		http.Error(w, "invalid key", http.StatusBadRequest)
	}))
	defer ts.Close()

	c, err := New(Config{BaseURL: ts.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = c.GenerateJSON(context.Background(), "p")
	if !errors.Is(err, ErrServiceCall) {
		t.Fatalf("expected ErrServiceCall for placeholder key, got %v", err)
	}
	if gotKey != placeholderKey {
		t.Errorf("expected placeholder key to be sent, got %q", gotKey)
	}
}
