// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package formatter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/doc2md/pkg/types"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestGemini starts a server that answers every request with status and
// body, and returns a client pointed at it plus a call counter.
func newTestGemini(t *testing.T, status int, body string) (*Gemini, *int32) {
	t.Helper()
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)

	g, err := NewGemini(types.AIConfig{APIKey: "test-key", BaseURL: ts.URL}, discardLogger())
	require.NoError(t, err)
	return g, &calls
}

func TestCheckCredential(t *testing.T) {
	tests := []struct {
		key     string
		wantErr bool
	}{
		{"", true},
		{"   ", true},
		{PlaceholderAPIKey, true},
		{"AIza-real-key", false},
	}
	for _, tt := range tests {
		err := CheckCredential(tt.key)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrMissingCredential, "key %q", tt.key)
		} else {
			assert.NoError(t, err, "key %q", tt.key)
		}
	}
}

func TestNewGemini_MissingCredential(t *testing.T) {
	_, err := NewGemini(types.AIConfig{APIKey: PlaceholderAPIKey}, discardLogger())
	assert.ErrorIs(t, err, ErrMissingCredential)
}

func TestNewGemini_Defaults(t *testing.T) {
	g, err := NewGemini(types.AIConfig{APIKey: "k"}, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, g.Model())
	assert.Equal(t, DefaultBaseURL+"/v1beta/models/"+DefaultModel+":generateContent", g.endpoint)
}

func TestFormat_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		assert.Equal(t, "doc2md/test", r.Header.Get("User-Agent"))

		var req geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		require.Len(t, req.Contents[0].Parts, 1)
		assert.Equal(t, "the prompt", req.Contents[0].Parts[0].Text)

		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"  # Title\n"},{"text":"body  \n"}]}}]}`))
	}))
	defer ts.Close()

	g, err := NewGemini(types.AIConfig{
		HTTPConfig: types.HTTPConfig{UserAgent: "doc2md/test"},
		APIKey:     "test-key",
		Model:      "gemini-test",
		BaseURL:    ts.URL + "/",
	}, discardLogger())
	require.NoError(t, err)

	out, err := g.Format(context.Background(), "the prompt")
	require.NoError(t, err)
	assert.Equal(t, "# Title\nbody", out)
}

func TestFormat_FallsBackToAllCandidates(t *testing.T) {
	g, _ := newTestGemini(t, http.StatusOK,
		`{"candidates":[{"content":{"parts":[{"text":"  "}]}},{"content":{"parts":[{"text":"second"}]}}]}`)

	out, err := g.Format(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "second", out)
}

func TestFormat_SkipsThoughtParts(t *testing.T) {
	g, _ := newTestGemini(t, http.StatusOK,
		`{"candidates":[{"content":{"parts":[{"text":"thinking...","thought":true},{"text":"answer"}]}}]}`)

	out, err := g.Format(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "answer", out)
}

func TestFormat_Refused(t *testing.T) {
	var logs bytes.Buffer
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"promptFeedback":{"blockReason":"SAFETY","safetyRatings":[{"category":"HARM_CATEGORY_DANGEROUS_CONTENT","probability":"HIGH"}]}}`))
	}))
	defer ts.Close()

	g, err := NewGemini(types.AIConfig{APIKey: "k", BaseURL: ts.URL}, slog.New(slog.NewTextHandler(&logs, nil)))
	require.NoError(t, err)

	_, err = g.Format(context.Background(), "p")
	require.ErrorIs(t, err, ErrRefused)

	var refusal *RefusalError
	require.True(t, errors.As(err, &refusal))
	assert.Equal(t, "SAFETY", refusal.BlockReason)
	require.Len(t, refusal.Ratings, 1)
	assert.Equal(t, "HARM_CATEGORY_DANGEROUS_CONTENT", refusal.Ratings[0].Category)
	assert.Contains(t, logs.String(), "HARM_CATEGORY_DANGEROUS_CONTENT")
	assert.Contains(t, logs.String(), "block_reason=SAFETY")
}

func TestFormat_EmptyText(t *testing.T) {
	g, _ := newTestGemini(t, http.StatusOK,
		`{"candidates":[{"content":{"parts":[{"text":" \n\t "}]},"finishReason":"MAX_TOKENS"}]}`)

	_, err := g.Format(context.Background(), "p")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestFormat_APIErrorNotRetried(t *testing.T) {
	g, calls := newTestGemini(t, http.StatusBadRequest,
		`{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT","details":[{"reason":"API_KEY_INVALID"}]}}`)

	_, err := g.Format(context.Background(), "p")
	require.ErrorIs(t, err, ErrTransport)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "INVALID_ARGUMENT", apiErr.Status)
	assert.Equal(t, "API key not valid", apiErr.Message)
	require.Len(t, apiErr.Details, 1)
	assert.Contains(t, apiErr.Details[0], "API_KEY_INVALID")
	assert.Contains(t, err.Error(), "400 INVALID_ARGUMENT: API key not valid")
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestFormat_APIErrorPlainBody(t *testing.T) {
	g, _ := newTestGemini(t, http.StatusServiceUnavailable, "upstream down")

	_, err := g.Format(context.Background(), "p")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "upstream down", apiErr.Message)
}

func TestFormat_TransportError(t *testing.T) {
	g, err := NewGemini(types.AIConfig{APIKey: "k", BaseURL: "http://127.0.0.1:1"}, discardLogger())
	require.NoError(t, err)

	_, err = g.Format(context.Background(), "p")
	assert.ErrorIs(t, err, ErrTransport)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestFormat_ContextCancelled(t *testing.T) {
	g, _ := newTestGemini(t, http.StatusOK, `{}`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Format(ctx, "p")
	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, context.Canceled)
}
