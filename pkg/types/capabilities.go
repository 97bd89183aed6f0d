// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Capabilities records which source formats can be extracted in this run.
// It is computed once at startup and passed to the pipeline.
type Capabilities struct {
	// LegacyWord is true when an office host runtime can read .doc files.
	LegacyWord bool `json:"legacy_word" yaml:"legacy_word"`

	// LegacyHost names the detected host runtime (e.g. "soffice", "antiword").
	LegacyHost string `json:"legacy_host,omitempty" yaml:"legacy_host,omitempty"`

	// ModernWord is true when .docx extraction is available.
	ModernWord bool `json:"modern_word" yaml:"modern_word"`

	// PDF is true when .pdf extraction is available.
	PDF bool `json:"pdf" yaml:"pdf"`
}

// Supports reports whether the given format can be extracted.
func (c Capabilities) Supports(f Format) bool {
	switch f {
	case FormatLegacyWord:
		return c.LegacyWord
	case FormatModernWord:
		return c.ModernWord
	case FormatPDF:
		return c.PDF
	}
	return false
}

// Formats returns the supported formats in dispatch order.
func (c Capabilities) Formats() []Format {
	var out []Format
	for _, f := range AllFormats {
		if c.Supports(f) {
			out = append(out, f)
		}
	}
	return out
}
