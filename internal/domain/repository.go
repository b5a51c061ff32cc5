package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// ScanRepository persists scan records. Save inserts or replaces by ID.
type ScanRepository interface {
	Save(ctx context.Context, scan *ScanResult) error
	Get(ctx context.Context, id string) (*ScanResult, error)
	ListByUser(ctx context.Context, userID string) ([]*ScanResult, error)
	Delete(ctx context.Context, id string) error
}

// TextCleaner rewrites raw label text into one ingredient per line.
// Implementations may fail; callers fall back to the original text.
type TextCleaner interface {
	Cleanup(ctx context.Context, text string) (string, error)
}

// OCREngine turns a captured image (or document) into raw text.
type OCREngine interface {
	ExtractText(ctx context.Context, image []byte) (string, error)
}
