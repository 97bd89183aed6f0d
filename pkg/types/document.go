// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the doc2md pipeline:
// source formats, per-document statuses, capability sets, and stage
// configuration.
package types

import (
	"path/filepath"
	"strings"
)

// Format tags the kind of source document, detected from its extension.
type Format string

const (
	FormatLegacyWord Format = "legacy-word"
	FormatModernWord Format = "modern-word"
	FormatPDF        Format = "pdf"
)

// AllFormats lists every supported format in dispatch order.
var AllFormats = []Format{FormatLegacyWord, FormatModernWord, FormatPDF}

var formatByExt = map[string]Format{
	".doc":  FormatLegacyWord,
	".docx": FormatModernWord,
	".pdf":  FormatPDF,
}

// FormatForExt maps a file extension (with or without the leading dot, any
// case) to its Format. The second result is false for unsupported extensions.
func FormatForExt(ext string) (Format, bool) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	f, ok := formatByExt[ext]
	return f, ok
}

// Ext returns the canonical lower-case extension for the format.
func (f Format) Ext() string {
	switch f {
	case FormatLegacyWord:
		return ".doc"
	case FormatModernWord:
		return ".docx"
	case FormatPDF:
		return ".pdf"
	}
	return ""
}

// Label is the file-type hint substituted into the formatting prompt.
func (f Format) Label() string {
	switch f {
	case FormatLegacyWord:
		return "Word (.doc)"
	case FormatModernWord:
		return "Word (.docx)"
	case FormatPDF:
		return "PDF"
	}
	return "document"
}

// SourceDocument is a file discovered during the directory scan.
type SourceDocument struct {
	// Path is the filesystem path to the document.
	Path string `json:"path" yaml:"path"`

	// Format is detected from the path's extension.
	Format Format `json:"format" yaml:"format"`
}

// NewSourceDocument builds a SourceDocument from a path. The second result
// is false when the extension is not a supported format.
func NewSourceDocument(path string) (SourceDocument, bool) {
	f, ok := FormatForExt(filepath.Ext(path))
	if !ok {
		return SourceDocument{}, false
	}
	return SourceDocument{Path: path, Format: f}, true
}

// Name returns the base name of the document.
func (d SourceDocument) Name() string {
	return filepath.Base(d.Path)
}

// Stem returns the base name without its extension.
func (d SourceDocument) Stem() string {
	base := filepath.Base(d.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// MarkdownName returns the output file name derived from the stem.
func (d SourceDocument) MarkdownName() string {
	return d.Stem() + ".md"
}

// DocumentStatus is the final state a document reached in the pipeline.
type DocumentStatus string

const (
	StatusSaved         DocumentStatus = "saved"
	StatusExtractFailed DocumentStatus = "extract_failed"
	StatusEmpty         DocumentStatus = "empty"
	StatusFormatFailed  DocumentStatus = "format_failed"
	StatusSaveFailed    DocumentStatus = "save_failed"
	StatusUnsupported   DocumentStatus = "unsupported"
	StatusExists        DocumentStatus = "exists"
)

// Failed reports whether the status counts as a failed attempt.
func (s DocumentStatus) Failed() bool {
	switch s {
	case StatusExtractFailed, StatusFormatFailed, StatusSaveFailed:
		return true
	}
	return false
}
