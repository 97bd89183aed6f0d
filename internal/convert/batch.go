// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/pdiddy/doc2md/internal/extract"
	"github.com/pdiddy/doc2md/internal/formatter"
	"github.com/pdiddy/doc2md/internal/prompt"
	"github.com/pdiddy/doc2md/pkg/types"
)

// DefaultOutputDir is used when no output directory is configured.
const DefaultOutputDir = "output_markdown"

// Deps carries the collaborators RunBatch wires into a Pipeline.
type Deps struct {
	Registry     *extract.Registry
	Capabilities types.Capabilities
	// Formatter, when nil, is a Gemini client built from the AI config.
	Formatter formatter.Formatter
	// Prompt, when nil, is the built-in template.
	Prompt *prompt.Builder
	Logger *slog.Logger
	Out    io.Writer
}

// Bootstrap resolves the input and output directories to absolute paths and
// creates them. It reports whether the input directory holds no entries.
func Bootstrap(cfg types.ConversionConfig) (types.ConversionConfig, bool, error) {
	if cfg.InputDir == "" {
		return cfg, false, errors.New("input directory is required")
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultOutputDir
	}

	var err error
	if cfg.InputDir, err = filepath.Abs(cfg.InputDir); err != nil {
		return cfg, false, fmt.Errorf("resolving input directory: %w", err)
	}
	if cfg.OutputDir, err = filepath.Abs(cfg.OutputDir); err != nil {
		return cfg, false, fmt.Errorf("resolving output directory: %w", err)
	}

	for _, dir := range []string{cfg.InputDir, cfg.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return cfg, false, fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	entries, err := os.ReadDir(cfg.InputDir)
	if err != nil {
		return cfg, false, fmt.Errorf("reading input directory %s: %w", cfg.InputDir, err)
	}
	return cfg, len(entries) == 0, nil
}

// RunBatch checks the credential, prepares the directories, converts every
// selected document in the input directory, and writes the optional report.
// A missing credential aborts before any directory or file is touched.
func RunBatch(ctx context.Context, cfg types.ConversionConfig, ai types.AIConfig, deps Deps) (BatchResult, error) {
	if err := formatter.CheckCredential(ai.APIKey); err != nil {
		return BatchResult{}, err
	}

	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	out := deps.Out
	if out == nil {
		out = io.Discard
	}

	fm := deps.Formatter
	if fm == nil {
		g, err := formatter.NewGemini(ai, log)
		if err != nil {
			return BatchResult{}, err
		}
		fm = g
	}
	pb := deps.Prompt
	if pb == nil {
		pb = prompt.Default()
	}
	reg := deps.Registry
	if reg == nil {
		reg = extract.NewRegistry(deps.Capabilities, nil, log)
	}

	started := time.Now().UTC()
	cfg, empty, err := Bootstrap(cfg)
	if err != nil {
		return BatchResult{}, err
	}
	fmt.Fprintf(out, "Input:  %s\nOutput: %s\n", cfg.InputDir, cfg.OutputDir)
	if empty {
		log.Warn("input directory is empty; add .doc, .docx or .pdf files and run again", "dir", cfg.InputDir)
		return BatchResult{}, nil
	}

	p := &Pipeline{
		Extractors:   reg,
		Formatter:    fm,
		Prompt:       pb,
		Capabilities: deps.Capabilities,
		Logger:       log,
		Out:          out,
		SkipExisting: cfg.SkipExisting,
	}
	result, runErr := p.ProcessDir(ctx, cfg)

	if cfg.ReportPath != "" {
		model := ai.Model
		if model == "" {
			model = formatter.DefaultModel
		}
		report := NewReport(cfg, deps.Capabilities, model, result, started, time.Now().UTC())
		if err := WriteReport(cfg.ReportPath, report); err != nil {
			log.Error("writing report failed", "path", cfg.ReportPath, "error", err)
			if runErr == nil {
				runErr = err
			}
		} else {
			log.Info("wrote report", "path", cfg.ReportPath)
		}
	}
	return result, runErr
}
