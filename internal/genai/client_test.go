package genai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *GeminiClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewGeminiClient("test-key", srv.URL)
}

func TestGenerate_ReturnsCandidateText(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "models/gemini-pro:generateContent") {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("key"); got != "test-key" {
			t.Errorf("key = %q, want %q", got, "test-key")
		}

		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Contents) != 1 || len(req.Contents[0].Parts) != 1 {
			t.Fatalf("request shape = %+v", req)
		}
		if req.Contents[0].Parts[0].Text != "Tell me about the operator ODEG." {
			t.Errorf("prompt = %q", req.Contents[0].Parts[0].Text)
		}

		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"ODEG is "},{"text":"a regional operator."}]}}]}`))
	})

	text, err := client.Generate(context.Background(), "Tell me about the operator ODEG.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "ODEG is a regional operator." {
		t.Errorf("text = %q", text)
	}
}

func TestGenerate_EmptyResponseIsErrNoContent(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "no candidates", body: `{"candidates":[]}`},
		{name: "empty parts", body: `{"candidates":[{"content":{"parts":[]}}]}`},
		{name: "blank text", body: `{"candidates":[{"content":{"parts":[{"text":""}]}}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})
			_, err := client.Generate(context.Background(), "prompt")
			if !errors.Is(err, ErrNoContent) {
				t.Errorf("err = %v, want ErrNoContent", err)
			}
		})
	}
}

func TestGenerate_BackendErrorSurfaces(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"message":"API key not valid"}}`))
	})

	_, err := client.Generate(context.Background(), "prompt")
	if err == nil {
		t.Fatal("expected error for non-200 response")
	}
	if errors.Is(err, ErrNoContent) {
		t.Error("backend rejection must not be classified as ErrNoContent")
	}
}
