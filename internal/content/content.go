// Package content resolves candidate document references into plain text.
// Charts arrive in mixed formats; the fetcher normalizes whatever the
// ContentRef points at — text, HTML, PDF, or an image-only scan — into
// the text the oracle consumes.
package content

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/clearchart/abstraction-cli/internal/model"
)

// Fetcher turns a document's ContentRef into plain text.
type Fetcher interface {
	Fetch(ctx context.Context, doc model.CandidateDocument) (string, error)
}

var (
	// ErrNotFound means the ContentRef did not resolve to any content.
	ErrNotFound = eris.New("content: not found")
	// ErrUnsupportedFormat means the content exists but no conversion
	// path is configured for its format. The escalation loop treats this
	// the same as failing content validation.
	ErrUnsupportedFormat = eris.New("content: unsupported format")
)

// Extractor extracts text from a PDF or scanned-image file.
type Extractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

// NewExtractor creates an Extractor for the named OCR provider.
func NewExtractor(provider, pdfToTextPath, mistralKey, mistralModel string) (Extractor, error) {
	switch provider {
	case "local", "":
		return NewPdfToText(pdfToTextPath), nil
	case "mistral":
		if mistralKey == "" {
			return nil, eris.New("content: mistral provider requires mistral_api_key")
		}
		return NewMistralOCR(mistralKey, mistralModel), nil
	default:
		return nil, eris.Errorf("content: unknown ocr provider %q", provider)
	}
}
