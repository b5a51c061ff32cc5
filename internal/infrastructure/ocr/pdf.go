package ocr

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

var pdfMagic = []byte("%PDF")

// IsPDF reports whether data starts with the PDF header.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, pdfMagic)
}

// PDFTextSource reads the embedded text layer of manufacturer spec sheets.
// It implements domain.OCREngine so documents flow through the same
// pipeline as camera images.
type PDFTextSource struct {
	maxBytes int
	logger   *zap.Logger
}

// NewPDFTextSource creates a PDF text reader. maxBytes <= 0 uses MaxImageBytes.
func NewPDFTextSource(maxBytes int, logger *zap.Logger) *PDFTextSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxBytes <= 0 {
		maxBytes = MaxImageBytes
	}
	return &PDFTextSource{maxBytes: maxBytes, logger: logger.Named("ocr.pdf")}
}

// ExtractText concatenates the plain text of every page, one page per
// block, separated by newlines.
func (p *PDFTextSource) ExtractText(ctx context.Context, document []byte) (string, error) {
	const op = "ExtractPDFText"

	if len(document) == 0 {
		return "", NewOCRError(op, ErrEmptyImage, "")
	}
	if len(document) > p.maxBytes {
		return "", NewOCRError(op, ErrImageTooLarge, fmt.Sprintf("%d bytes, limit %d", len(document), p.maxBytes))
	}
	if !IsPDF(document) {
		return "", NewOCRError(op, ErrInvalidPDF, "missing PDF header")
	}

	r, err := openPDF(document)
	if err != nil {
		return "", NewOCRError(op, ErrInvalidPDF, err.Error())
	}

	pages, total, err := p.readPages(ctx, r)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", NewOCRError(op, ErrInvalidPDF, err.Error())
	}
	if len(pages) == 0 {
		return "", NewOCRError(op, ErrNoTextLayer, fmt.Sprintf("%d pages", total))
	}
	return strings.Join(pages, "\n"), nil
}

// pageSource is the part of *pdf.Reader the page walk needs.
type pageSource interface {
	NumPage() int
	Page(num int) pdf.Page
}

// readPages returns the trimmed text of every page that has any. Page trees
// and content streams are decoded lazily, so a malformed document can still
// panic here after it opened cleanly.
func (p *PDFTextSource) readPages(ctx context.Context, doc pageSource) (pages []string, total int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			pages = nil
			err = fmt.Errorf("malformed page: %v", rec)
		}
	}()

	total = doc.NumPage()
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, total, err
		}
		page := doc.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			p.logger.Debug("skipping unreadable page", zap.Int("page", i), zap.Error(err))
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			pages = append(pages, text)
		}
	}
	return pages, total, nil
}

// openPDF guards against the reader panicking on malformed input.
func openPDF(document []byte) (r *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("malformed document: %v", rec)
		}
	}()
	return pdf.NewReader(bytes.NewReader(document), int64(len(document)))
}
