package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/allerlens/backend/internal/allergen"
	"github.com/allerlens/backend/internal/domain"
	"github.com/allerlens/backend/internal/ingredient"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultCleanupTimeout = 20 * time.Second
	defaultCleanupTTL     = 24 * time.Hour
)

// ScanServiceConfig holds configuration for the scan service
type ScanServiceConfig struct {
	// CleanupTimeout bounds every call to the text cleaner.
	CleanupTimeout time.Duration
	// CacheTTL is how long a successful cleanup is reused for identical text.
	CacheTTL time.Duration
}

// ScanService runs label text through cleanup, parsing and allergen matching,
// and manages the scan history.
type ScanService struct {
	cleaner domain.TextCleaner
	ocr     domain.OCREngine
	scans   domain.ScanRepository
	cache   domain.CacheRepository
	logger  *zap.Logger

	cleanupTimeout time.Duration
	cacheTTL       time.Duration

	now   func() time.Time
	newID func() string
}

// NewScanService creates a scan service. Every collaborator is optional:
// a nil cleaner skips cleanup, a nil cache disables caching, and the
// image and history operations report domain.ErrNotConfigured without
// an OCR engine or a scan repository.
func NewScanService(
	cleaner domain.TextCleaner,
	ocr domain.OCREngine,
	scans domain.ScanRepository,
	cache domain.CacheRepository,
	logger *zap.Logger,
	config ScanServiceConfig,
) *ScanService {
	if logger == nil {
		logger = zap.NewNop()
	}

	cleanupTimeout := config.CleanupTimeout
	if cleanupTimeout <= 0 {
		cleanupTimeout = defaultCleanupTimeout
	}

	cacheTTL := config.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = defaultCleanupTTL
	}

	return &ScanService{
		cleaner:        cleaner,
		ocr:            ocr,
		scans:          scans,
		cache:          cache,
		logger:         logger.Named("scan"),
		cleanupTimeout: cleanupTimeout,
		cacheTTL:       cacheTTL,
		now:            time.Now,
		newID:          uuid.NewString,
	}
}

// ProcessTextForAllergens runs raw or already-cleaned label text through the
// full pipeline. Cleanup failures never surface; the only error is the
// context's own when it is canceled.
func (s *ScanService) ProcessTextForAllergens(
	ctx context.Context,
	text string,
	allergies []string,
) (*domain.ProcessResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cleaned := s.prepareText(ctx, text)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return analyze(cleaned, allergies), nil
}

// CheckForAllergens re-runs matching on an ingredient list that was already
// parsed, e.g. from scan history after the allergy profile changed.
func (s *ScanService) CheckForAllergens(ingredients, allergies []string) []string {
	return allergen.Match(ingredients, allergies)
}

// SaveScan recognizes the label image, analyzes it and stores the result.
// Flow: OCR -> normalize -> cleanup (cache, fallback) -> parse -> match -> persist
func (s *ScanService) SaveScan(ctx context.Context, request *domain.SaveScanRequest) (*domain.ScanResult, error) {
	if request == nil || strings.TrimSpace(request.UserID) == "" || len(request.Image) == 0 {
		return nil, domain.ErrInvalidRequest
	}
	if s.scans == nil {
		return nil, fmt.Errorf("%w: scan repository", domain.ErrNotConfigured)
	}

	started := s.now()
	cleaned, result, err := s.AnalyzeImage(ctx, request.Image, request.Allergies)
	if err != nil {
		return nil, err
	}

	scan := &domain.ScanResult{
		ID:            s.newID(),
		UserID:        request.UserID,
		Timestamp:     s.now().UnixMilli(),
		ImageURL:      request.ImageURL,
		ExtractedText: cleaned,
		Ingredients:   result.Ingredients,
		Warnings:      result.Warnings,
	}

	if err := s.scans.Save(ctx, scan); err != nil {
		return nil, fmt.Errorf("failed to save scan: %w", err)
	}

	s.logger.Info("scan saved",
		zap.String("scan_id", scan.ID),
		zap.String("user_id", scan.UserID),
		zap.Int("ingredients", len(scan.Ingredients)),
		zap.Int("warnings", len(scan.Warnings)),
		zap.Duration("took", s.now().Sub(started)),
	)

	return scan, nil
}

// AnalyzeImage recognizes a label image and runs the text through the
// pipeline without storing anything. The cleaned text is returned with the
// result.
func (s *ScanService) AnalyzeImage(ctx context.Context, image []byte, allergies []string) (string, *domain.ProcessResult, error) {
	if len(image) == 0 {
		return "", nil, domain.ErrInvalidRequest
	}
	if s.ocr == nil {
		return "", nil, fmt.Errorf("%w: ocr engine", domain.ErrNotConfigured)
	}

	rawText, err := s.ocr.ExtractText(ctx, image)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", domain.ErrOCRFailed, err)
	}

	cleaned := s.prepareText(ctx, rawText)
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}
	return cleaned, analyze(cleaned, allergies), nil
}

// GetUserScans returns the user's scans, newest first.
func (s *ScanService) GetUserScans(ctx context.Context, userID string) ([]*domain.ScanResult, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.ErrInvalidRequest
	}
	if s.scans == nil {
		return nil, fmt.Errorf("%w: scan repository", domain.ErrNotConfigured)
	}

	scans, err := s.scans.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list scans: %w", err)
	}

	sort.SliceStable(scans, func(i, j int) bool {
		return scans[i].Timestamp > scans[j].Timestamp
	})
	return scans, nil
}

// GetScan returns a single scan by id.
func (s *ScanService) GetScan(ctx context.Context, id string) (*domain.ScanResult, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.ErrInvalidRequest
	}
	if s.scans == nil {
		return nil, fmt.Errorf("%w: scan repository", domain.ErrNotConfigured)
	}
	return s.scans.Get(ctx, id)
}

// DeleteScan removes a scan. Deleting an unknown id reports domain.ErrScanNotFound.
func (s *ScanService) DeleteScan(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.ErrInvalidRequest
	}
	if s.scans == nil {
		return fmt.Errorf("%w: scan repository", domain.ErrNotConfigured)
	}
	return s.scans.Delete(ctx, id)
}

// RecheckScan re-matches a stored scan against a new allergy set and
// persists the updated warnings.
func (s *ScanService) RecheckScan(ctx context.Context, id string, allergies []string) (*domain.ScanResult, error) {
	scan, err := s.GetScan(ctx, id)
	if err != nil {
		return nil, err
	}

	scan.Warnings = allergen.Match(scan.Ingredients, allergies)
	if err := s.scans.Save(ctx, scan); err != nil {
		return nil, fmt.Errorf("failed to save scan: %w", err)
	}
	return scan, nil
}

// prepareText normalizes recognizer output and runs the optional cleanup.
func (s *ScanService) prepareText(ctx context.Context, raw string) string {
	text := ingredient.NormalizeOCRText(raw)
	if s.cleaner == nil || strings.TrimSpace(text) == "" {
		return text
	}

	cacheKey := generateCacheKey(text)
	if cached, ok := s.getFromCache(ctx, cacheKey); ok {
		return cached
	}

	cleaned, ok := s.cleanWithFallback(ctx, text)
	if ok {
		// Fallbacks are not cached so a later call can still reach the model.
		if err := s.setInCache(ctx, cacheKey, cleaned); err != nil {
			s.logger.Debug("failed to cache cleaned text", zap.Error(err))
		}
	}
	return cleaned
}

func analyze(text string, allergies []string) *domain.ProcessResult {
	ingredients := ingredient.Parse(text)
	return &domain.ProcessResult{
		Ingredients: ingredients,
		Warnings:    allergen.Match(ingredients, allergies),
	}
}

// generateCacheKey creates a cache key for cleaned text.
// Format: "cleanup:{sha256 of normalized text}"
func generateCacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "cleanup:" + hex.EncodeToString(sum[:])
}

func (s *ScanService) getFromCache(ctx context.Context, key string) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	value, err := s.cache.Get(ctx, key)
	if err != nil {
		return "", false
	}
	text, ok := value.(string)
	if !ok || strings.TrimSpace(text) == "" {
		return "", false
	}
	return text, true
}

func (s *ScanService) setInCache(ctx context.Context, key, text string) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Set(ctx, key, text, s.cacheTTL)
}
