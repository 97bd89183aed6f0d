// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package office

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

// Document is a .doc file opened by a host runtime. It owns every
// temporary resource the host needed; Close releases them and is safe to
// call more than once.
type Document struct {
	path    string
	read    func() ([]byte, error)
	cleanup []func() error
	closed  bool
}

// NewTextDocument wraps text a host already produced in memory. Such a
// document holds no external resources.
func NewTextDocument(path string, data []byte) *Document {
	return &Document{
		path: path,
		read: func() ([]byte, error) { return data, nil },
	}
}

// onClose registers a release step. Steps run in reverse order.
func (d *Document) onClose(fn func() error) {
	d.cleanup = append(d.cleanup, fn)
}

// Path returns the source path of the document.
func (d *Document) Path() string { return d.path }

// Text returns the full text body of the document with paragraph marks
// normalised to "\n".
func (d *Document) Text() (string, error) {
	if d.closed {
		return "", fmt.Errorf("document %s already closed", d.path)
	}
	if d.read == nil {
		return "", fmt.Errorf("document %s has no content", d.path)
	}
	data, err := d.read()
	if err != nil {
		return "", err
	}
	return decodeText(data)
}

// Close releases the document and the host resources behind it.
func (d *Document) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	var errs []error
	for i := len(d.cleanup) - 1; i >= 0; i-- {
		if err := d.cleanup[i](); err != nil {
			errs = append(errs, err)
		}
	}
	d.cleanup = nil
	return errors.Join(errs...)
}

// ReadText opens path with rt, reads its text, and closes the document on
// every exit path. A failure to release the document is logged but does not
// discard text that was read successfully.
func ReadText(ctx context.Context, rt Runtime, path string, logger *slog.Logger) (string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	doc, err := rt.Open(ctx, path)
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := doc.Close(); cerr != nil {
			logger.Warn("closing document", "path", path, "host", rt.Name(), "error", cerr)
		}
	}()
	return doc.Text()
}

// decodeText strips a UTF-8 byte order mark and converts Word paragraph
// marks (\r) and CRLF line ends to \n.
func decodeText(data []byte) (string, error) {
	decoded, err := unicode.UTF8BOM.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decoding host output: %w", err)
	}
	text := strings.ReplaceAll(string(decoded), "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n"), nil
}
