// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package formatter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/doc2md/internal/httputil"
	"github.com/pdiddy/doc2md/pkg/types"
)

const (
	// DefaultModel is the Gemini model used when none is configured.
	DefaultModel = "gemini-2.5-flash"

	// DefaultBaseURL is the Generative Language API root.
	DefaultBaseURL = "https://generativelanguage.googleapis.com"

	// DefaultTimeout bounds one generateContent call.
	DefaultTimeout = 10 * time.Minute
)

// Gemini calls the Gemini generateContent endpoint.
type Gemini struct {
	apiKey    string
	model     string
	endpoint  string
	userAgent string
	client    *http.Client
	logger    *slog.Logger
}

// NewGemini validates the credential and builds a client. It fails with
// ErrMissingCredential before any request can be made.
func NewGemini(cfg types.AIConfig, logger *slog.Logger) (*Gemini, error) {
	if err := CheckCredential(cfg.APIKey); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	g := &Gemini{
		apiKey:    strings.TrimSpace(cfg.APIKey),
		model:     model,
		endpoint:  base + "/v1beta/models/" + url.PathEscape(model) + ":generateContent",
		userAgent: cfg.UserAgent,
		client:    &http.Client{Timeout: cfg.Timeout},
		logger:    logger,
	}
	logger.Info("generative API configured", "model", model)
	return g, nil
}

// Model returns the configured model identifier.
func (g *Gemini) Model() string { return g.model }

type geminiPart struct {
	Text    string `json:"text,omitempty"`
	Thought bool   `json:"thought,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiCandidate struct {
	Content       geminiContent  `json:"content"`
	FinishReason  string         `json:"finishReason,omitempty"`
	SafetyRatings []SafetyRating `json:"safetyRatings,omitempty"`
}

type geminiPromptFeedback struct {
	BlockReason   string         `json:"blockReason,omitempty"`
	SafetyRatings []SafetyRating `json:"safetyRatings,omitempty"`
}

type geminiResponse struct {
	Candidates     []geminiCandidate     `json:"candidates"`
	PromptFeedback *geminiPromptFeedback `json:"promptFeedback,omitempty"`
}

type geminiErrorBody struct {
	Error struct {
		Code    int               `json:"code"`
		Message string            `json:"message"`
		Status  string            `json:"status"`
		Details []json.RawMessage `json:"details"`
	} `json:"error"`
}

// Format sends prompt in a single request and returns the trimmed text of
// the reply.
func (g *Gemini) Format(ctx context.Context, prompt string) (string, error) {
	g.logger.Info("sending request to generative API", "model", g.model, "chars", len([]rune(prompt)))

	header := http.Header{}
	header.Set("x-goog-api-key", g.apiKey)
	if g.userAgent != "" {
		header.Set("User-Agent", g.userAgent)
	}

	req := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
	}
	var resp geminiResponse
	if err := httputil.PostJSON(ctx, g.client, g.endpoint, header, req, &resp); err != nil {
		return "", g.callError(err)
	}

	if len(resp.Candidates) == 0 {
		refusal := &RefusalError{}
		if fb := resp.PromptFeedback; fb != nil {
			refusal.BlockReason = fb.BlockReason
			refusal.Ratings = fb.SafetyRatings
		}
		g.logger.Warn("generative API returned no candidates; the prompt may have been blocked by safety settings",
			"block_reason", refusal.BlockReason)
		for i, r := range refusal.Ratings {
			g.logger.Warn("prompt safety rating", "index", i, "category", r.Category, "probability", r.Probability)
		}
		return "", refusal
	}

	text := responseText(resp)
	if strings.TrimSpace(text) == "" {
		g.logger.Warn("generative API returned empty text", "finish_reason", resp.Candidates[0].FinishReason)
		return "", ErrEmptyResponse
	}

	g.logger.Info("generative API returned content", "chars", len([]rune(text)))
	return strings.TrimSpace(text), nil
}

// responseText prefers the text of the first candidate and falls back to
// concatenating the text parts of every candidate.
func responseText(resp geminiResponse) string {
	if text := candidateText(resp.Candidates[0]); strings.TrimSpace(text) != "" {
		return text
	}
	var b strings.Builder
	for _, c := range resp.Candidates {
		b.WriteString(candidateText(c))
	}
	return b.String()
}

func candidateText(c geminiCandidate) string {
	var b strings.Builder
	for _, p := range c.Content.Parts {
		if p.Thought {
			continue
		}
		b.WriteString(p.Text)
	}
	return b.String()
}

// callError converts a failed call into an APIError or an ErrTransport
// wrap, logging any nested diagnostics the service returned.
func (g *Gemini) callError(err error) error {
	var se *httputil.StatusError
	if !errors.As(err, &se) {
		g.logger.Error("generative API call failed", "error", err)
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}

	apiErr := &APIError{StatusCode: se.StatusCode}
	var body geminiErrorBody
	if json.Unmarshal(se.Body, &body) == nil && body.Error.Message != "" {
		apiErr.Status = body.Error.Status
		apiErr.Message = body.Error.Message
		for _, d := range body.Error.Details {
			apiErr.Details = append(apiErr.Details, string(d))
		}
	} else {
		apiErr.Message = strings.TrimSpace(string(se.Body))
	}

	g.logger.Error("generative API returned an error",
		"status_code", apiErr.StatusCode, "status", apiErr.Status, "message", apiErr.Message)
	for i, d := range apiErr.Details {
		g.logger.Error("generative API error detail", "index", i, "detail", d)
	}
	return apiErr
}
