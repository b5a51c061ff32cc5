package ocr

import (
	"errors"
	"fmt"
)

var (
	// ErrImageTooLarge is returned when the input exceeds the engine's size limit.
	ErrImageTooLarge = errors.New("image exceeds the maximum size")

	// ErrEmptyImage is returned for zero-length input.
	ErrEmptyImage = errors.New("image is empty")

	// ErrInvalidPDF is returned when data is not a readable PDF document.
	ErrInvalidPDF = errors.New("invalid or corrupted PDF document")

	// ErrNoTextLayer is returned for PDFs without extractable text, such as
	// scanned pages.
	ErrNoTextLayer = errors.New("document has no text layer")

	// ErrRecognitionFailed is returned when the recognition backend fails.
	ErrRecognitionFailed = errors.New("text recognition failed")
)

// OCRError records which operation failed and why.
type OCRError struct {
	Op      string
	Err     error
	Details string
}

func (e *OCRError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("ocr: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("ocr: %s failed: %v", e.Op, e.Err)
}

func (e *OCRError) Unwrap() error {
	return e.Err
}

// NewOCRError creates an OCRError.
func NewOCRError(op string, err error, details string) *OCRError {
	return &OCRError{Op: op, Err: err, Details: details}
}

// WrapOCRError wraps err unless it already is an OCRError. A nil err stays nil.
func WrapOCRError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var ocrErr *OCRError
	if errors.As(err, &ocrErr) {
		return err
	}
	return NewOCRError(op, err, details)
}
