// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/doc2md/pkg/types"
)

// Report is the YAML record of one batch run.
type Report struct {
	StartedAt    time.Time          `yaml:"started_at"`
	FinishedAt   time.Time          `yaml:"finished_at"`
	InputDir     string             `yaml:"input_dir"`
	OutputDir    string             `yaml:"output_dir"`
	Subject      string             `yaml:"subject,omitempty"`
	Model        string             `yaml:"model,omitempty"`
	Capabilities types.Capabilities `yaml:"capabilities"`
	Summary      BatchResult        `yaml:"summary"`
	Documents    []DocumentReport   `yaml:"documents"`
}

// DocumentReport is one file's entry in a Report.
type DocumentReport struct {
	Name   string               `yaml:"name"`
	Format types.Format         `yaml:"format,omitempty"`
	Status types.DocumentStatus `yaml:"status"`
	Output string               `yaml:"output,omitempty"`
	Error  string               `yaml:"error,omitempty"`
}

// NewReport assembles a Report from a finished batch.
func NewReport(cfg types.ConversionConfig, caps types.Capabilities, model string, r BatchResult, started, finished time.Time) Report {
	rep := Report{
		StartedAt:    started,
		FinishedAt:   finished,
		InputDir:     cfg.InputDir,
		OutputDir:    cfg.OutputDir,
		Subject:      cfg.Subject,
		Model:        model,
		Capabilities: caps,
		Summary:      r,
		Documents:    make([]DocumentReport, 0, len(r.Outcomes)),
	}
	for _, o := range r.Outcomes {
		d := DocumentReport{
			Name:   o.Document.Name(),
			Format: o.Document.Format,
			Status: o.Status,
			Output: o.Output,
		}
		if o.Err != nil {
			d.Error = o.Err.Error()
		}
		rep.Documents = append(rep.Documents, d)
	}
	return rep
}

// WriteReport marshals r as YAML and writes it atomically to path,
// creating the parent directory if needed.
func WriteReport(path string, r Report) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}
	if err := writeFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
