package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout. Zero disables the timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "doc2md/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// AIConfig holds settings for the remote formatting pass.
type AIConfig struct {
	HTTPConfig `yaml:",inline"`

	// Model is the generative model identifier (e.g. "gemini-2.5-flash").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the generative API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL overrides the API endpoint root
	// (default https://generativelanguage.googleapis.com).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
}

// ConversionConfig holds settings for a batch conversion run.
type ConversionConfig struct {
	// InputDir is scanned (non-recursively) for source documents.
	InputDir string `json:"input_dir" yaml:"input_dir"`

	// OutputDir receives one <stem>.md per converted document.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// Subject is the subject-matter hint passed to the prompt.
	Subject string `json:"subject" yaml:"subject"`

	// Types restricts processing to these formats. Empty means every
	// format the capability set supports.
	Types []Format `json:"types,omitempty" yaml:"types,omitempty"`

	// SkipExisting leaves documents alone whose Markdown output already exists.
	SkipExisting bool `json:"skip_existing" yaml:"skip_existing"`

	// ReportPath, when set, receives a YAML report of the run.
	ReportPath string `json:"report_path,omitempty" yaml:"report_path,omitempty"`
}
