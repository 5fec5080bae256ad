package content

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearchart/abstraction-cli/internal/model"
)

type fakeExtractor struct {
	text  string
	paths []string
}

func (f *fakeExtractor) ExtractText(_ context.Context, path string) (string, error) {
	f.paths = append(f.paths, path)
	return f.text, nil
}

func writeChart(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestDirFetcher_PlainText(t *testing.T) {
	dir := t.TempDir()
	writeChart(t, dir, "op-note.txt", "OPERATIVE NOTE: gross total resection")
	f := NewDirFetcher(dir, nil, nil)

	text, err := f.Fetch(context.Background(), model.CandidateDocument{ID: "d1", ContentRef: "op-note.txt"})
	require.NoError(t, err)
	assert.Equal(t, "OPERATIVE NOTE: gross total resection", text)
}

func TestDirFetcher_HTML(t *testing.T) {
	dir := t.TempDir()
	writeChart(t, dir, "note.html", `<html><head><style>p{color:red}</style></head><body><p>Extent of resection: GTR</p><p>Surgeon&apos;s assessment: complete</p></body></html>`)
	f := NewDirFetcher(dir, nil, nil)

	text, err := f.Fetch(context.Background(), model.CandidateDocument{ID: "d1", ContentRef: "note.html"})
	require.NoError(t, err)
	assert.Contains(t, text, "Extent of resection: GTR")
	assert.Contains(t, text, "Surgeon's assessment: complete")
	assert.NotContains(t, text, "color:red")
	assert.NotContains(t, text, "<p>")
}

func TestDirFetcher_PDF(t *testing.T) {
	dir := t.TempDir()
	writeChart(t, dir, "report.pdf", "%PDF-1.4 stub")
	pdf := &fakeExtractor{text: "IMPRESSION: stable disease"}
	f := NewDirFetcher(dir, pdf, nil)

	text, err := f.Fetch(context.Background(), model.CandidateDocument{ID: "d1", ContentRef: "report.pdf"})
	require.NoError(t, err)
	assert.Equal(t, "IMPRESSION: stable disease", text)
	assert.Len(t, pdf.paths, 1)
}

func TestDirFetcher_ImageOnlyUsesOCR(t *testing.T) {
	dir := t.TempDir()
	writeChart(t, dir, "scan.pdf", "%PDF-1.4 stub")
	pdf := &fakeExtractor{text: "from pdftotext"}
	ocr := &fakeExtractor{text: "from ocr"}
	f := NewDirFetcher(dir, pdf, ocr)

	text, err := f.Fetch(context.Background(), model.CandidateDocument{ID: "d1", ContentRef: "scan.pdf", ImageOnly: true})
	require.NoError(t, err)
	assert.Equal(t, "from ocr", text)
	assert.Empty(t, pdf.paths)
}

func TestDirFetcher_ImageWithoutOCR(t *testing.T) {
	dir := t.TempDir()
	writeChart(t, dir, "scan.png", "not really a png")
	f := NewDirFetcher(dir, nil, nil)

	_, err := f.Fetch(context.Background(), model.CandidateDocument{ID: "d1", ContentRef: "scan.png"})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDirFetcher_Missing(t *testing.T) {
	f := NewDirFetcher(t.TempDir(), nil, nil)

	_, err := f.Fetch(context.Background(), model.CandidateDocument{ID: "d1", ContentRef: "nope.txt"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewExtractor(t *testing.T) {
	e, err := NewExtractor("local", "", "", "")
	require.NoError(t, err)
	assert.IsType(t, &PdfToText{}, e)

	e, err = NewExtractor("mistral", "", "key", "")
	require.NoError(t, err)
	assert.IsType(t, &MistralOCR{}, e)

	_, err = NewExtractor("mistral", "", "", "")
	assert.Error(t, err)

	_, err = NewExtractor("tesseract", "", "", "")
	assert.Error(t, err)
}
