package ocr

import (
	"context"
	"fmt"

	"github.com/allerlens/backend/internal/domain"
)

// DocumentRouter sends PDFs to the PDF text reader and everything else to
// the image engine. Either side may be nil when that input kind is not
// supported.
type DocumentRouter struct {
	images    domain.OCREngine
	documents domain.OCREngine
}

func NewDocumentRouter(images, documents domain.OCREngine) *DocumentRouter {
	return &DocumentRouter{images: images, documents: documents}
}

func (r *DocumentRouter) ExtractText(ctx context.Context, data []byte) (string, error) {
	if IsPDF(data) {
		if r.documents == nil {
			return "", fmt.Errorf("%w: pdf reader", domain.ErrNotConfigured)
		}
		return r.documents.ExtractText(ctx, data)
	}
	if r.images == nil {
		return "", fmt.Errorf("%w: image recognizer", domain.ErrNotConfigured)
	}
	return r.images.ExtractText(ctx, data)
}
