package content

import (
	"context"
	"html"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/clearchart/abstraction-cli/internal/model"
)

// DirFetcher resolves ContentRefs as paths under a chart root directory
// and converts each format down the ladder: plain text and markdown are
// read directly, HTML is stripped to text, PDFs go through the text
// extractor, and image-only scans need the OCR extractor.
type DirFetcher struct {
	root string
	pdf  Extractor
	ocr  Extractor
}

// NewDirFetcher creates a DirFetcher rooted at dir. pdf handles
// text-layer PDFs; ocr handles image-only documents and may be nil when
// no OCR provider is configured.
func NewDirFetcher(dir string, pdf, ocr Extractor) *DirFetcher {
	return &DirFetcher{root: dir, pdf: pdf, ocr: ocr}
}

func (f *DirFetcher) Fetch(ctx context.Context, doc model.CandidateDocument) (string, error) {
	path := filepath.Join(f.root, filepath.Clean(doc.ContentRef))
	if _, err := os.Stat(path); err != nil {
		return "", eris.Wrapf(ErrNotFound, "document %s at %s", doc.ID, path)
	}

	ext := strings.ToLower(filepath.Ext(path))

	if doc.ImageOnly || imageMIME[ext] != "" {
		if f.ocr == nil {
			return "", eris.Wrapf(ErrUnsupportedFormat, "document %s is image-only and no ocr provider is configured", doc.ID)
		}
		zap.L().Debug("ocr conversion",
			zap.String("document_id", doc.ID),
			zap.String("path", path),
		)
		return f.ocr.ExtractText(ctx, path)
	}

	switch ext {
	case ".txt", ".md", "":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", eris.Wrapf(err, "content: read %s", path)
		}
		return string(data), nil
	case ".html", ".htm":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", eris.Wrapf(err, "content: read %s", path)
		}
		return StripHTML(string(data)), nil
	case ".pdf":
		if f.pdf == nil {
			return "", eris.Wrapf(ErrUnsupportedFormat, "document %s is a pdf and no extractor is configured", doc.ID)
		}
		return f.pdf.ExtractText(ctx, path)
	default:
		return "", eris.Wrapf(ErrUnsupportedFormat, "document %s has extension %q", doc.ID, ext)
	}
}

var (
	scriptRe = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
	tagRe    = regexp.MustCompile(`(?s)<[^>]+>`)
	blankRe  = regexp.MustCompile(`\n{3,}`)
)

// StripHTML reduces an HTML export to readable text: scripts and styles
// removed, tags dropped, entities unescaped, blank runs collapsed.
func StripHTML(s string) string {
	s = scriptRe.ReplaceAllString(s, " ")
	// Keep block boundaries as line breaks so sentence context survives.
	for _, tag := range []string{"</p>", "</div>", "</tr>", "<br>", "<br/>", "<br />", "</h1>", "</h2>", "</h3>", "</li>"} {
		s = strings.ReplaceAll(s, tag, tag+"\n")
	}
	s = tagRe.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	s = strings.Join(lines, "\n")
	s = blankRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
