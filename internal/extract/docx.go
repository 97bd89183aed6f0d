// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

// paragraphSep approximates the paragraph breaks of the original layout.
const paragraphSep = "\n\n"

// Docx extracts .docx files by reading the paragraphs of the main document part.
type Docx struct {
	Logger *slog.Logger
}

// Extract returns every paragraph of the document body, joined by a blank
// line. Empty paragraphs are kept so the vertical rhythm of the source
// survives.
func (d *Docx) Extract(_ context.Context, path string) (string, error) {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("opening docx", "file", filepath.Base(path))

	r, err := docx.ReadDocxFile(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", filepath.Base(path), err)
	}
	defer r.Close()

	paragraphs, err := docxParagraphs(r.Editable().GetContent())
	if err != nil {
		return "", fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}

	text := strings.Join(paragraphs, paragraphSep)
	logger.Info("extracted docx", "file", filepath.Base(path),
		"paragraphs", len(paragraphs), "chars", len([]rune(text)))
	return text, nil
}

// docxParagraphs walks WordprocessingML and returns the text of each w:p in
// document order. Only w:t runs contribute text. w:tab becomes a tab and
// w:br/w:cr a newline, while w:tabs stop definitions are ignored. Paragraphs
// nested in text boxes are emitted as their own paragraphs, and mc:Fallback
// copies of alternate content are skipped.
func docxParagraphs(content string) ([]string, error) {
	dec := xml.NewDecoder(strings.NewReader(content))

	var (
		paragraphs []string
		stack      []*strings.Builder
		inText     bool
		skipDepth  int
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if skipDepth > 0 {
				skipDepth++
				continue
			}
			switch t.Name.Local {
			case "Fallback", "tabs":
				skipDepth = 1
			case "p":
				stack = append(stack, &strings.Builder{})
			case "t":
				inText = len(stack) > 0
			case "tab":
				if len(stack) > 0 {
					stack[len(stack)-1].WriteByte('\t')
				}
			case "br", "cr":
				if len(stack) > 0 {
					stack[len(stack)-1].WriteByte('\n')
				}
			}

		case xml.CharData:
			if inText && skipDepth == 0 {
				stack[len(stack)-1].Write(t)
			}

		case xml.EndElement:
			if skipDepth > 0 {
				skipDepth--
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if len(stack) == 0 {
					continue
				}
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				paragraphs = append(paragraphs, top.String())
			}
		}
	}
	return paragraphs, nil
}
