// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package office runs an external office host program to read legacy
// word-processor (.doc) files. The host is LibreOffice in headless mode
// (soffice or libreoffice) or, failing that, antiword.
package office

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const (
	binSoffice     = "soffice"
	binLibreOffice = "libreoffice"
	binAntiword    = "antiword"
)

// Runtime is an installed host program able to open .doc files.
type Runtime interface {
	// Name returns the host binary name ("soffice", "libreoffice", "antiword").
	Name() string

	// Available reports whether the host binary exists on PATH and
	// responds to a probe command.
	Available() bool

	// Open starts the host on the document at path and returns the open
	// Document. The caller must Close it.
	Open(ctx context.Context, path string) (*Document, error)
}

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	RunSilent(ctx context.Context, name string, args ...string) error
	RunPiped(ctx context.Context, name string, args []string, stdout io.Writer) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) RunSilent(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

func (o *osExecutor) RunPiped(ctx context.Context, name string, args []string, stdout io.Writer) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}

// sofficeRuntime drives LibreOffice headless. Each Open gets a private user
// profile and output directory so concurrent LibreOffice sessions of the
// user are not disturbed.
type sofficeRuntime struct {
	bin     string
	tempDir string // parent for per-document workspaces; "" means os.TempDir()
	exec    executor
}

func (r *sofficeRuntime) Name() string { return r.bin }

func (r *sofficeRuntime) Available() bool {
	if _, err := r.exec.LookPath(r.bin); err != nil {
		return false
	}
	return r.exec.RunSilent(context.Background(), r.bin, "--version") == nil
}

func (r *sofficeRuntime) Open(ctx context.Context, path string) (*Document, error) {
	doc := &Document{path: path}

	profile, err := os.MkdirTemp(r.tempDir, "doc2md-profile-*")
	if err != nil {
		return nil, fmt.Errorf("creating %s profile: %w", r.bin, err)
	}
	doc.onClose(func() error { return os.RemoveAll(profile) })

	outDir, err := os.MkdirTemp(r.tempDir, "doc2md-out-*")
	if err != nil {
		doc.Close()
		return nil, fmt.Errorf("creating %s output directory: %w", r.bin, err)
	}
	doc.onClose(func() error { return os.RemoveAll(outDir) })

	profileURL := url.URL{Scheme: "file", Path: filepath.ToSlash(profile)}
	args := []string{
		"--headless", "--norestore", "--nologo", "--nolockcheck",
		"-env:UserInstallation=" + profileURL.String(),
		"--convert-to", "txt:Text (encoded):UTF8",
		"--outdir", outDir,
		path,
	}
	var out bytes.Buffer
	if err := r.exec.RunPiped(ctx, r.bin, args, &out); err != nil {
		doc.Close()
		return nil, fmt.Errorf("running %s on %s: %w", r.bin, filepath.Base(path), err)
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	txtPath := filepath.Join(outDir, stem+".txt")
	doc.read = func() ([]byte, error) {
		data, err := os.ReadFile(txtPath)
		if err != nil {
			return nil, fmt.Errorf("%s produced no text for %s: %w", r.bin, filepath.Base(path), err)
		}
		return data, nil
	}
	return doc, nil
}

// antiwordRuntime prints the document text on stdout; it holds no
// resources beyond the captured output.
type antiwordRuntime struct {
	exec executor
}

func (r *antiwordRuntime) Name() string { return binAntiword }

func (r *antiwordRuntime) Available() bool {
	_, err := r.exec.LookPath(binAntiword)
	return err == nil
}

func (r *antiwordRuntime) Open(ctx context.Context, path string) (*Document, error) {
	var out bytes.Buffer
	args := []string{"-m", "UTF-8.txt", "-w", "0", path}
	if err := r.exec.RunPiped(ctx, binAntiword, args, &out); err != nil {
		return nil, fmt.Errorf("running %s on %s: %w", binAntiword, filepath.Base(path), err)
	}
	return NewTextDocument(path, out.Bytes()), nil
}

func newSofficeRuntime(bin string, exec executor) *sofficeRuntime {
	return &sofficeRuntime{bin: bin, exec: exec}
}

func newAntiwordRuntime(exec executor) *antiwordRuntime {
	return &antiwordRuntime{exec: exec}
}

var defaultExec = &osExecutor{}

// DetectRuntime tries soffice, then libreoffice, then antiword. Returns an
// error if none is available.
func DetectRuntime() (Runtime, error) {
	return detectRuntime(defaultExec)
}

func detectRuntime(exec executor) (Runtime, error) {
	candidates := []Runtime{
		newSofficeRuntime(binSoffice, exec),
		newSofficeRuntime(binLibreOffice, exec),
		newAntiwordRuntime(exec),
	}
	for _, rt := range candidates {
		if rt.Available() {
			return rt, nil
		}
	}
	return nil, fmt.Errorf(
		"no office host available: none of %s, %s, %s found or operational",
		binSoffice, binLibreOffice, binAntiword,
	)
}
