// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/pdiddy/doc2md/internal/office"
	"github.com/pdiddy/doc2md/internal/testutil"
	"github.com/pdiddy/doc2md/pkg/types"
)

// fakeHost implements office.Runtime with canned text or an error and
// records whether every opened document was closed.
type fakeHost struct {
	text   string
	err    error
	opened int
}

func (f *fakeHost) Name() string    { return "fakeoffice" }
func (f *fakeHost) Available() bool { return true }

func (f *fakeHost) Open(_ context.Context, path string) (*office.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.opened++
	return office.NewTextDocument(path, []byte(f.text)), nil
}

func TestDocxRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteDocx(t, dir, "quiz.docx", []string{"Q1: 2+2=?", "A. 3", "B. 4"})

	text, err := (&Docx{}).Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Q1: 2+2=?\n\nA. 3\n\nB. 4", text)
}

func TestDocxKeepsEmptyParagraphs(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteDocx(t, dir, "gaps.docx", []string{"Title", "", "Body"})

	text, err := (&Docx{}).Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Title\n\n\n\nBody", text)
}

func TestDocxEmptyDocument(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteDocx(t, dir, "blank.docx", nil)

	text, err := (&Docx{}).Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "", text)
}

func TestDocxCorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.docx")
	require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0o644))

	_, err := (&Docx{}).Extract(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.docx")
}

func TestDocxParagraphs(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{
			name: "multiple runs concatenate",
			body: `<w:p><w:r><w:t>Heat </w:t></w:r><w:r><w:t>transfer</w:t></w:r></w:p>`,
			want: []string{"Heat transfer"},
		},
		{
			name: "tab and break inside runs",
			body: `<w:p><w:r><w:t>1.</w:t><w:tab/><w:t>Fourier</w:t><w:br/><w:t>law</w:t></w:r></w:p>`,
			want: []string{"1.\tFourier\nlaw"},
		},
		{
			name: "tab stop definitions ignored",
			body: `<w:p><w:pPr><w:tabs><w:tab w:val="left" w:pos="720"/></w:tabs></w:pPr><w:r><w:t>Name</w:t></w:r></w:p>`,
			want: []string{"Name"},
		},
		{
			name: "whitespace between tags ignored",
			body: "<w:p>\n  <w:r>\n    <w:t>A</w:t>\n  </w:r>\n</w:p>",
			want: []string{"A"},
		},
		{
			name: "table cell paragraphs in document order",
			body: `<w:p><w:r><w:t>Before</w:t></w:r></w:p>` +
				`<w:tbl><w:tr><w:tc><w:p><w:r><w:t>Cell</w:t></w:r></w:p></w:tc></w:tr></w:tbl>` +
				`<w:p><w:r><w:t>After</w:t></w:r></w:p>`,
			want: []string{"Before", "Cell", "After"},
		},
		{
			name: "fallback content skipped",
			body: `<w:p><w:r><mc:AlternateContent><mc:Choice Requires="wps"><w:t>Box</w:t></mc:Choice>` +
				`<mc:Fallback><w:t>Box</w:t></mc:Fallback></mc:AlternateContent></w:r></w:p>`,
			want: []string{"Box"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := docxParagraphs(testutil.DocumentXML(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPDFExtract(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WritePDF(t, dir, "notes.pdf", []string{"Page one text", "", "Page three text"})

	text, err := (&PDF{}).Extract(context.Background(), path)
	require.NoError(t, err)

	first := strings.Index(text, "Page one text")
	third := strings.Index(text, "Page three text")
	require.GreaterOrEqual(t, first, 0, "first page text missing from %q", text)
	require.Greater(t, third, first, "pages out of order in %q", text)
	assert.Contains(t, text[first:third], "\n\n", "pages are separated by a blank line")
	assert.Equal(t, strings.TrimSpace(text), text)
}

func TestPDFImageOnly(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WritePDF(t, dir, "scan.pdf", []string{"", ""})

	text, err := (&PDF{}).Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "", text, "image-only PDFs yield empty text, not an error")
}

func TestPDFFailures(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.pdf")
	require.NoError(t, os.WriteFile(garbage, []byte("hello, not a pdf"), 0o644))

	tests := []struct {
		name string
		path string
	}{
		{name: "not a pdf", path: garbage},
		{name: "missing file", path: filepath.Join(dir, "absent.pdf")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := (&PDF{}).Extract(context.Background(), tt.path)
			require.Error(t, err)
			assert.False(t, errors.Is(err, ErrEncrypted))
		})
	}
}

// writeEncryptedPDF encrypts a one-page fixture with conf and returns its path.
func writeEncryptedPDF(t *testing.T, dir, name, text string, conf *model.Configuration) string {
	t.Helper()
	disablePdfcpuConfig.Do(api.DisableConfigDir)

	var out bytes.Buffer
	require.NoError(t, api.Encrypt(bytes.NewReader(testutil.BuildPDF([]string{text})), &out, conf))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, out.Bytes(), 0o644))
	return path
}

func TestPDFEncrypted(t *testing.T) {
	tests := []struct {
		name    string
		conf    func() *model.Configuration
		wantErr bool
	}{
		{name: "rc4-128 empty user password", conf: func() *model.Configuration { return model.NewRC4Configuration("", "owner", 128) }},
		{name: "aes-128 empty user password", conf: func() *model.Configuration { return model.NewAESConfiguration("", "owner", 128) }},
		{name: "aes-256 empty user password", conf: func() *model.Configuration { return model.NewAESConfiguration("", "owner", 256) }},
		{name: "rc4-128 user password", conf: func() *model.Configuration { return model.NewRC4Configuration("user", "owner", 128) }, wantErr: true},
		{name: "aes-256 user password", conf: func() *model.Configuration { return model.NewAESConfiguration("user", "owner", 256) }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeEncryptedPDF(t, t.TempDir(), "locked.pdf", "Secret page text", tt.conf())

			text, err := (&PDF{}).Extract(context.Background(), path)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrEncrypted)
				assert.Empty(t, text)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, text, "Secret page text")
		})
	}
}

func TestLegacyExtract(t *testing.T) {
	host := &fakeHost{text: "Exam\r\rQ1. Define entropy."}
	text, err := (&Legacy{Host: host}).Extract(context.Background(), "/in/exam.doc")
	require.NoError(t, err)
	assert.Equal(t, "Exam\n\nQ1. Define entropy.", text)
	assert.Equal(t, 1, host.opened)
}

func TestLegacyHostFailure(t *testing.T) {
	host := &fakeHost{err: errors.New("soffice crashed")}
	_, err := (&Legacy{Host: host}).Extract(context.Background(), "/in/exam.doc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "soffice crashed")
}

func TestLegacyWithoutHost(t *testing.T) {
	_, err := (&Legacy{}).Extract(context.Background(), "/in/exam.doc")
	assert.ErrorIs(t, err, ErrMissingDependency)
}

func TestDetectCapabilities(t *testing.T) {
	with := DetectCapabilities(&fakeHost{}, nil)
	assert.True(t, with.LegacyWord)
	assert.Equal(t, "fakeoffice", with.LegacyHost)
	assert.Equal(t, types.AllFormats, with.Formats())

	without := DetectCapabilities(nil, errors.New("no office host available"))
	assert.False(t, without.LegacyWord)
	assert.Empty(t, without.LegacyHost)
	assert.Equal(t, []types.Format{types.FormatModernWord, types.FormatPDF}, without.Formats())
}

func TestNewRegistry(t *testing.T) {
	caps := types.Capabilities{ModernWord: true, PDF: true}
	reg := NewRegistry(caps, nil, nil)

	for _, f := range types.AllFormats {
		_, ok := reg.For(f)
		assert.True(t, ok, "every format has an extractor: %s", f)
	}

	legacy, _ := reg.For(types.FormatLegacyWord)
	_, err := legacy.Extract(context.Background(), "/in/old.doc")
	assert.ErrorIs(t, err, ErrMissingDependency)

	docx, _ := reg.For(types.FormatModernWord)
	assert.IsType(t, &Docx{}, docx)
	pdf, _ := reg.For(types.FormatPDF)
	assert.IsType(t, &PDF{}, pdf)

	full := NewRegistry(DetectCapabilities(&fakeHost{}, nil), &fakeHost{}, nil)
	legacy, _ = full.For(types.FormatLegacyWord)
	assert.IsType(t, &Legacy{}, legacy)
}
