// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDF extracts the embedded text layer of .pdf files. Scanned, image-only
// pages carry no text layer and are skipped.
type PDF struct {
	Logger *slog.Logger
}

// Extract concatenates the text of every page, separated by a blank line.
// A document whose pages are all image-only yields "" and a nil error.
func (p *PDF) Extract(ctx context.Context, path string) (string, error) {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	name := filepath.Base(path)
	logger.Info("opening pdf", "file", name)

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", name, err)
	}

	r, encrypted, err := openPDF(data)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", name, err)
	}
	if encrypted {
		logger.Info("pdf decrypted with empty password", "file", name)
	}

	numPages := r.NumPage()
	logger.Info("pdf opened", "file", name, "pages", numPages)

	var b strings.Builder
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := pageText(r, i)
		if err != nil {
			logger.Warn("pdf page extraction failed", "file", name, "page", i, "error", err)
			continue
		}
		if strings.TrimSpace(text) == "" {
			logger.Warn("pdf page has no text (image or complex layout)", "file", name, "page", i)
			continue
		}
		b.WriteString(text)
		b.WriteString(paragraphSep)
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		logger.Warn("no text extracted from pdf; it is probably scanned and needs OCR", "file", name)
		return "", nil
	}
	logger.Info("extracted pdf", "file", name, "chars", len([]rune(text)))
	return text, nil
}

// openPDF parses data, reporting whether the file is encrypted. The pdf
// reader already tries the empty user password; when it cannot (for
// example AES-256 handlers) pdfcpu decrypts with an empty password and the
// plain copy is parsed instead.
func openPDF(data []byte) (*pdf.Reader, bool, error) {
	encrypted := bytes.Contains(data, []byte("/Encrypt"))

	r, err := newReader(data)
	if err == nil {
		return r, encrypted, nil
	}
	if !encrypted {
		return nil, false, err
	}

	plain, derr := decryptEmptyPassword(data)
	if derr != nil {
		return nil, true, fmt.Errorf("%w: %v", ErrEncrypted, derr)
	}
	r, err = newReader(plain)
	if err != nil {
		return nil, true, fmt.Errorf("reading decrypted copy: %w", err)
	}
	return r, true, nil
}

func newReader(data []byte) (r *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("malformed pdf: %v", rec)
		}
	}()
	return pdf.NewReader(bytes.NewReader(data), int64(len(data)))
}

var disablePdfcpuConfig sync.Once

func decryptEmptyPassword(data []byte) ([]byte, error) {
	disablePdfcpuConfig.Do(api.DisableConfigDir)

	conf := model.NewDefaultConfiguration()
	conf.UserPW = ""
	conf.OwnerPW = ""

	var out bytes.Buffer
	if err := api.Decrypt(bytes.NewReader(data), &out, conf); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// pageText returns the plain text of page i. The pdf library panics on
// some malformed content streams; those panics become errors.
func pageText(r *pdf.Reader, i int) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("page %d: %v", i, rec)
		}
	}()

	page := r.Page(i)
	if page.V.IsNull() {
		return "", nil
	}
	fonts := make(map[string]*pdf.Font)
	for _, name := range page.Fonts() {
		f := page.Font(name)
		fonts[name] = &f
	}
	return page.GetPlainText(fonts)
}
