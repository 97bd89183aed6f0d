// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/pdiddy/doc2md/internal/office"
)

// Legacy extracts .doc files through an office host runtime.
type Legacy struct {
	Host   office.Runtime
	Logger *slog.Logger
}

// Extract opens the document read-only in the host, reads the full text
// body and releases the host on every exit path.
func (l *Legacy) Extract(ctx context.Context, path string) (string, error) {
	if l.Host == nil {
		return "", fmt.Errorf("no office host for %s: %w", filepath.Base(path), ErrMissingDependency)
	}
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("opening legacy document", "file", filepath.Base(path), "host", l.Host.Name())

	text, err := office.ReadText(ctx, l.Host, path, logger)
	if err != nil {
		return "", fmt.Errorf("extracting %s: %w", filepath.Base(path), err)
	}
	logger.Info("extracted legacy document", "file", filepath.Base(path), "chars", len([]rune(text)))
	return text, nil
}
