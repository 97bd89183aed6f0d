// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package formatter sends rendered prompts to a hosted text-generation
// model and returns the Markdown it produces.
package formatter

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// PlaceholderAPIKey is the template value shipped in example configs. It is
// treated the same as an empty key.
const PlaceholderAPIKey = "YOUR_GEMINI_API_KEY"

var (
	// ErrMissingCredential means no usable API key is configured.
	ErrMissingCredential = errors.New("API key is not set")

	// ErrRefused means the service returned no candidates, typically
	// because safety filtering blocked the prompt.
	ErrRefused = errors.New("model returned no candidates")

	// ErrEmptyResponse means the service answered with blank text.
	ErrEmptyResponse = errors.New("model returned empty text")

	// ErrTransport covers network failures and error responses from the
	// service. Calls are never retried.
	ErrTransport = errors.New("generative API call failed")
)

// Formatter turns a prompt into Markdown. Implementations make a single
// synchronous attempt per call.
type Formatter interface {
	Format(ctx context.Context, prompt string) (string, error)
}

// CheckCredential rejects an empty, blank, or placeholder API key.
func CheckCredential(key string) error {
	key = strings.TrimSpace(key)
	if key == "" || key == PlaceholderAPIKey {
		return fmt.Errorf("%w: set --api-key, DOC2MD_API_KEY, GEMINI_API_KEY, or .secrets/gemini-api-key", ErrMissingCredential)
	}
	return nil
}

// SafetyRating is one category/probability pair reported by the service.
type SafetyRating struct {
	Category    string `json:"category"`
	Probability string `json:"probability"`
	Blocked     bool   `json:"blocked,omitempty"`
}

// RefusalError reports a response without candidates.
type RefusalError struct {
	BlockReason string
	Ratings     []SafetyRating
}

func (e *RefusalError) Error() string {
	if e.BlockReason != "" {
		return fmt.Sprintf("%v (block reason %s)", ErrRefused, e.BlockReason)
	}
	return ErrRefused.Error()
}

func (e *RefusalError) Unwrap() error { return ErrRefused }

// APIError is an error response from the service, with the nested
// diagnostic fields it carried.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
	Details    []string
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "generative API returned %d", e.StatusCode)
	if e.Status != "" {
		fmt.Fprintf(&b, " %s", e.Status)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	return b.String()
}

func (e *APIError) Unwrap() error { return ErrTransport }
