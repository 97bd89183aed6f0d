// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert drives source documents through extraction, prompt
// assembly, remote formatting, and the Markdown write, one file at a time.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pdiddy/doc2md/internal/extract"
	"github.com/pdiddy/doc2md/internal/formatter"
	"github.com/pdiddy/doc2md/internal/prompt"
	"github.com/pdiddy/doc2md/pkg/types"
)

var (
	// ErrEmptyExtraction means the extractor produced only whitespace. The
	// document is not sent to the formatter.
	ErrEmptyExtraction = errors.New("extracted text is empty")

	// ErrSave means the Markdown could not be written.
	ErrSave = errors.New("saving markdown failed")
)

// Outcome is the final state of one document.
type Outcome struct {
	Document types.SourceDocument
	Status   types.DocumentStatus
	// Output is the Markdown path, set when Status is StatusSaved.
	Output string
	Err    error
}

// BatchResult holds the counters of a directory run.
type BatchResult struct {
	// Attempted counts documents of a selected format that entered the
	// pipeline.
	Attempted int `yaml:"attempted"`
	// Skipped counts files outside the selected formats and documents whose
	// output already existed.
	Skipped   int `yaml:"skipped"`
	Converted int `yaml:"converted"`
	Failed    int `yaml:"failed"`
	Empty     int `yaml:"empty"`

	Outcomes []Outcome `yaml:"-"`
}

// HasFailures reports whether any document failed extraction, formatting,
// or saving.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Pipeline converts documents with explicitly supplied collaborators.
type Pipeline struct {
	Extractors   *extract.Registry
	Formatter    formatter.Formatter
	Prompt       *prompt.Builder
	Capabilities types.Capabilities
	Logger       *slog.Logger
	// Out receives one status line per file and the batch summary.
	Out io.Writer
	// SkipExisting leaves documents alone whose Markdown already exists.
	SkipExisting bool
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

func (p *Pipeline) out() io.Writer {
	if p.Out == nil {
		return io.Discard
	}
	return p.Out
}

// ProcessFile drives one document to completion. Extraction failures and
// empty text stop the document before the formatter is called; a failed
// write leaves no file behind.
func (p *Pipeline) ProcessFile(ctx context.Context, path, outDir, subject string) Outcome {
	log := p.logger()
	w := p.out()

	doc, ok := types.NewSourceDocument(path)
	if !ok {
		fmt.Fprintf(w, "skipped:   %s (unsupported type)\n", filepath.Base(path))
		return Outcome{
			Document: types.SourceDocument{Path: path},
			Status:   types.StatusUnsupported,
			Err:      fmt.Errorf("unsupported file type %q", filepath.Ext(path)),
		}
	}
	out := Outcome{Document: doc}
	mdPath := filepath.Join(outDir, doc.MarkdownName())

	if p.SkipExisting {
		if _, err := os.Stat(mdPath); err == nil {
			fmt.Fprintf(w, "skipped:   %s (already exists)\n", doc.Name())
			out.Status = types.StatusExists
			return out
		}
	}

	log.Info("processing document", "file", doc.Name(), "format", doc.Format)

	ex, ok := p.Extractors.For(doc.Format)
	if !ok {
		return p.fail(w, out, types.StatusExtractFailed,
			fmt.Errorf("%w: no extractor for %s", extract.ErrMissingDependency, doc.Format.Label()))
	}
	text, err := ex.Extract(ctx, path)
	if err != nil {
		log.Error("extraction failed", "file", doc.Name(), "error", err)
		return p.fail(w, out, types.StatusExtractFailed, err)
	}
	if strings.TrimSpace(text) == "" {
		log.Warn("extracted text is empty, not sending to formatter", "file", doc.Name())
		return p.fail(w, out, types.StatusEmpty, ErrEmptyExtraction)
	}
	log.Debug("extracted text", "file", doc.Name(), "chars", len([]rune(text)))

	rendered, err := p.Prompt.Build(prompt.Request{
		Text:     text,
		FileType: doc.Format.Label(),
		Subject:  subject,
	})
	if err != nil {
		return p.fail(w, out, types.StatusFormatFailed, err)
	}

	markdown, err := p.Formatter.Format(ctx, rendered)
	if err != nil {
		log.Error("formatting failed", "file", doc.Name(), "error", err)
		return p.fail(w, out, types.StatusFormatFailed, err)
	}

	if err := writeFileAtomic(mdPath, []byte(markdown), 0o644); err != nil {
		log.Error("saving markdown failed", "file", doc.Name(), "error", err)
		return p.fail(w, out, types.StatusSaveFailed, fmt.Errorf("%w: %w", ErrSave, err))
	}

	log.Info("saved markdown", "file", doc.Name(), "output", mdPath)
	fmt.Fprintf(w, "converted: %s -> %s\n", doc.Name(), mdPath)
	out.Status = types.StatusSaved
	out.Output = mdPath
	return out
}

func (p *Pipeline) fail(w io.Writer, out Outcome, status types.DocumentStatus, err error) Outcome {
	label := "failed:"
	if status == types.StatusEmpty {
		label = "empty:"
	}
	fmt.Fprintf(w, "%-10s %s (%v)\n", label, out.Document.Name(), err)
	out.Status = status
	out.Err = err
	return out
}

// selectedFormats returns cfg.Types when given, otherwise every format the
// capability set supports.
func (p *Pipeline) selectedFormats(cfg types.ConversionConfig) []types.Format {
	if len(cfg.Types) > 0 {
		return cfg.Types
	}
	return p.Capabilities.Formats()
}

// ProcessDir lists cfg.InputDir (not recursively, sorted by name) and runs
// every file of a selected format through ProcessFile. Other files are
// counted as skipped and subdirectories are ignored. It returns early only
// when ctx is cancelled or the directory cannot be read.
func (p *Pipeline) ProcessDir(ctx context.Context, cfg types.ConversionConfig) (BatchResult, error) {
	var result BatchResult
	w := p.out()

	entries, err := os.ReadDir(cfg.InputDir)
	if err != nil {
		return result, fmt.Errorf("reading input directory %s: %w", cfg.InputDir, err)
	}

	selected := p.selectedFormats(cfg)
	// Markdown name -> source file that produced it.
	outputs := make(map[string]string)
	p.logger().Info("starting batch", "input", cfg.InputDir, "output", cfg.OutputDir, "formats", selected)

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			p.printSummary(w, result)
			return result, err
		}
		if e.IsDir() {
			continue
		}
		path := filepath.Join(cfg.InputDir, e.Name())

		f, ok := types.FormatForExt(filepath.Ext(e.Name()))
		if !ok || !slices.Contains(selected, f) {
			p.logger().Debug("skipping file", "file", e.Name())
			result.Skipped++
			result.Outcomes = append(result.Outcomes, Outcome{
				Document: types.SourceDocument{Path: path, Format: f},
				Status:   types.StatusUnsupported,
			})
			continue
		}

		md := types.SourceDocument{Path: path, Format: f}.MarkdownName()
		if prev, dup := outputs[md]; dup {
			p.logger().Warn("markdown name already produced in this batch; the earlier output will be replaced",
				"file", e.Name(), "previous", prev, "output", md)
		} else {
			outputs[md] = e.Name()
		}

		o := p.ProcessFile(ctx, path, cfg.OutputDir, cfg.Subject)
		result.Outcomes = append(result.Outcomes, o)
		switch {
		case o.Status == types.StatusExists:
			result.Skipped++
			continue
		case o.Status == types.StatusSaved:
			result.Converted++
		case o.Status == types.StatusEmpty:
			result.Empty++
		case o.Status.Failed():
			result.Failed++
		}
		result.Attempted++
	}

	p.printSummary(w, result)
	return result, nil
}

func (p *Pipeline) printSummary(w io.Writer, r BatchResult) {
	fmt.Fprintf(w, "\nBatch summary: %d attempted (%d converted, %d empty, %d failed), %d skipped\n",
		r.Attempted, r.Converted, r.Empty, r.Failed, r.Skipped)
}
