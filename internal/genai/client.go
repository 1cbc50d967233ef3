// Package genai provides a thin client over the Google generative-language
// REST API (Gemini).
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// defaultBaseURL is the public generative-language endpoint.
	defaultBaseURL = "https://generativelanguage.googleapis.com"

	// model is the Gemini model every prompt is sent to.
	model = "gemini-pro"

	// requestTimeout is the maximum duration for one generation call.
	// Generation is slow compared to data lookups, so the budget is wide.
	requestTimeout = 30 * time.Second
)

// ErrNoContent is returned when the backend answers successfully but
// produces no usable text.
var ErrNoContent = errors.New("generation produced no content")

// Generator produces free-form prose for a prompt.
type Generator interface {
	// Generate returns the model's text for the prompt. The output may
	// contain markup artifacts; callers strip those before exposing it.
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeminiClient implements Generator against the generateContent endpoint.
type GeminiClient struct {
	apiKey     string
	httpClient *http.Client
	// baseURL is the API root. Overrideable in tests.
	baseURL string
}

// NewGeminiClient creates a Generator using the given API key; an empty
// baseURL selects the public endpoint.
func NewGeminiClient(apiKey, baseURL string) *GeminiClient {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &GeminiClient{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// Generate sends the prompt to the model and returns the concatenated text
// of the first candidate.
func (g *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("genai: marshal request: %w", err)
	}

	u := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", g.baseURL, model, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("genai: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("genai: http: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("genai: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("genai: status %d: %s", resp.StatusCode, string(respBytes))
	}

	var apiResp generateResponse
	if err := json.Unmarshal(respBytes, &apiResp); err != nil {
		return "", fmt.Errorf("genai: unmarshal response: %w", err)
	}

	var b strings.Builder
	if len(apiResp.Candidates) > 0 {
		for _, p := range apiResp.Candidates[0].Content.Parts {
			b.WriteString(p.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("genai: %w", ErrNoContent)
	}
	return b.String(), nil
}

// --- JSON types for the generateContent endpoint ---

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content content `json:"content"`
}
