// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package prompt renders the instruction sent with each document's raw text
// to the formatting model.
package prompt

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// DefaultSubject is used when no subject-matter hint is configured.
const DefaultSubject = "general study materials"

// defaultTemplate encodes the Markdown formatting policy. Templates see a
// Request as their data.
const defaultTemplate = `Please process the raw text below, extracted from a {{.FileType}} file containing exam papers, lecture notes or study materials on "{{.Subject}}".
Because of the original layout or the extraction process, the text may contain errors, stray spaces, garbled characters or a broken structure.
Produce Markdown that meets the following requirements:

1. Identify and correct the content
   * Read and understand the raw text; identify every question, chapter, paragraph, list and formula.
   * Fix errors, garbled characters and awkward phrasing caused by poor layout, overlapping fonts, OCR mistakes or extraction problems.
   * Restore context or structure lost to formatting problems so the text reads coherently.

2. Markdown structure
   * Document title: if a main title can be identified, use a level-one heading (# Title).
   * Chapters and question types: main chapters or question groups (such as "Chapter 1 Introduction" or "Part I Multiple choice") use level-two headings (## Title). Finer subsections use level-three headings (### Title).
   * Paragraphs: keep ordinary paragraphs as text, separated by one blank line.

3. Specific elements
   * Lists: convert ordered lists (1., 2., a., b.) and unordered lists (bullets) to Markdown lists.
   * Fill-in-the-blank questions: number, then the stem, with each blank written as ____ (four underscores). Example: 1. The Clausius statement of the second law of thermodynamics is ____.
   * True/false questions: number, then the stem, ending with ( ) as the answer space. Example: 1. A reversible process is always quasi-static. ( )
   * Multiple-choice questions: number, then the stem; each option on its own line starting with a capital letter and a period (A., B.):
     1. Which of the following processes is irreversible?
     A. Free expansion of an ideal gas
     B. The Carnot cycle
     C. Slow isothermal compression
   * Mathematics: every formula uses LaTeX syntax supported by Markdown.
     * Inline formulas are wrapped in single dollar signs, for example $E = mc^2$.
     * Display formulas are wrapped in double dollar signs, for example $$ Q = \int T dS $$
     * Convert every symbol (Greek letters, sub- and superscripts, integrals, sums) to correct LaTeX.
   * Code: wrap program code or command lines in fenced code blocks (three backticks), naming the language where possible.
   * Tables: convert recognisable tables to Markdown tables. If a table is too complex, describe its content and structure clearly in prose.

4. Figures
   * If the text mentions or implies a figure, chart or diagram whose content can be understood from context, replace it with a detailed description in the form [Figure description: ...].

5. Separation
   * Put exactly one blank line after each independent question, each main section and each logically separate block, so consecutive blocks are visibly apart.

6. Output
   * The Markdown must be syntactically correct, clearly structured, and render well in common Markdown editors.
   * Keep all important information accurate and complete while improving layout and wording.
   * Keep the text in its original language; do not translate it.
   * Output only the Markdown itself, with no preamble, explanation, summary or conversational text.

The raw text extracted from the {{.FileType}} file on "{{.Subject}}" follows:
---BEGIN RAW TEXT---
{{.Text}}
---END RAW TEXT---

Follow the requirements above strictly and output the Markdown directly.
`

// Request is the data a template is rendered with.
type Request struct {
	// Text is the extracted document text.
	Text string

	// FileType labels the source format (e.g. "Word (.docx)").
	FileType string

	// Subject is the subject-matter hint.
	Subject string
}

// Builder renders prompts from a parsed template.
type Builder struct {
	tmpl *template.Template
}

// Default returns a Builder using the built-in formatting policy.
func Default() *Builder {
	return &Builder{tmpl: template.Must(template.New("format").Parse(defaultTemplate))}
}

// New parses text as a replacement template. An empty or blank text
// selects the built-in template.
func New(text string) (*Builder, error) {
	if strings.TrimSpace(text) == "" {
		return Default(), nil
	}
	tmpl, err := template.New("format").Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parsing prompt template: %w", err)
	}
	return &Builder{tmpl: tmpl}, nil
}

// Build renders the prompt for req. A blank subject becomes DefaultSubject
// and a blank file type becomes "document".
func (b *Builder) Build(req Request) (string, error) {
	if strings.TrimSpace(req.Subject) == "" {
		req.Subject = DefaultSubject
	}
	if strings.TrimSpace(req.FileType) == "" {
		req.FileType = "document"
	}
	var buf bytes.Buffer
	if err := b.tmpl.Execute(&buf, req); err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}
	return buf.String(), nil
}
