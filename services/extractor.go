package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"document-chat-service/internal/logger"

	"github.com/ledongthuc/pdf"
)

// ErrExtraction marks malformed or unreadable PDF input.
var ErrExtraction = errors.New("pdf extraction failed")

// PDFExtractor pulls the text layer out of PDF documents.
type PDFExtractor struct {
	maxBytes int64
}

// NewPDFExtractor creates a new PDF extractor. maxBytes caps in-memory
// parsing; zero means the default 200MB.
func NewPDFExtractor(maxBytes int64) *PDFExtractor {
	if maxBytes <= 0 {
		maxBytes = 200 << 20
	}
	return &PDFExtractor{maxBytes: maxBytes}
}

// ExtractText extracts the text layer of each page in document order and
// concatenates the pages with no separator. Callers must tolerate words
// run together across page boundaries. A document with no extractable
// text yields an empty string, not an error.
func (e *PDFExtractor) ExtractText(ctx context.Context, content []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if int64(len(content)) > e.maxBytes {
		return "", fmt.Errorf("%w: pdf too large for in-memory extraction (%d bytes)", ErrExtraction, len(content))
	}

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	var textBuilder strings.Builder
	pages := reader.NumPage()

	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		fonts := make(map[string]*pdf.Font)
		text, err := page.GetPlainText(fonts)
		if err != nil {
			logger.Warn("failed to extract text from page", "page", i, "error", err)
			continue
		}

		textBuilder.WriteString(text)
	}

	return textBuilder.String(), nil
}
