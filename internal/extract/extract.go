// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract converts source documents into plain text, one extractor
// per format, and detects which formats this run can handle.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pdiddy/doc2md/internal/office"
	"github.com/pdiddy/doc2md/pkg/types"
)

var (
	// ErrMissingDependency means the library or host program a format
	// needs is not available in this run.
	ErrMissingDependency = errors.New("extractor dependency unavailable")

	// ErrEncrypted means a PDF is encrypted and could not be opened with
	// an empty password.
	ErrEncrypted = errors.New("encrypted PDF cannot be opened without a password")
)

// Extractor turns the document at path into plain text. An empty string
// with a nil error means the document holds no extractable text.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// Registry maps formats to their extractors.
type Registry struct {
	extractors map[types.Format]Extractor
}

// For returns the extractor registered for f.
func (r *Registry) For(f types.Format) (Extractor, bool) {
	e, ok := r.extractors[f]
	return e, ok
}

// Register installs e for f, replacing any previous extractor.
func (r *Registry) Register(f types.Format, e Extractor) {
	if r.extractors == nil {
		r.extractors = make(map[types.Format]Extractor)
	}
	r.extractors[f] = e
}

// NewRegistry builds the extractor set for caps. Formats the capability set
// does not support get an extractor that fails with ErrMissingDependency.
func NewRegistry(caps types.Capabilities, host office.Runtime, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{}
	for _, f := range types.AllFormats {
		if !caps.Supports(f) {
			r.Register(f, unavailable{format: f})
			continue
		}
		switch f {
		case types.FormatLegacyWord:
			r.Register(f, &Legacy{Host: host, Logger: logger})
		case types.FormatModernWord:
			r.Register(f, &Docx{Logger: logger})
		case types.FormatPDF:
			r.Register(f, &PDF{Logger: logger})
		}
	}
	return r
}

// DetectCapabilities computes the capability set from the outcome of host
// runtime detection. The .docx and .pdf libraries are compiled in, so those
// formats are always available.
func DetectCapabilities(host office.Runtime, hostErr error) types.Capabilities {
	caps := types.Capabilities{
		ModernWord: true,
		PDF:        true,
	}
	if hostErr == nil && host != nil {
		caps.LegacyWord = true
		caps.LegacyHost = host.Name()
	}
	return caps
}

// unavailable stands in for a format whose dependency is missing.
type unavailable struct {
	format types.Format
}

func (u unavailable) Extract(_ context.Context, path string) (string, error) {
	return "", fmt.Errorf("%s support for %s: %w", u.format, path, ErrMissingDependency)
}
