// Package app assembles the scan pipeline from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/allerlens/backend/config"
	"github.com/allerlens/backend/internal/domain"
	"github.com/allerlens/backend/internal/infrastructure/cache"
	"github.com/allerlens/backend/internal/infrastructure/cleanup"
	"github.com/allerlens/backend/internal/infrastructure/ocr"
	"github.com/allerlens/backend/internal/infrastructure/storage"
	"github.com/allerlens/backend/internal/usecase"
	"go.uber.org/zap"
)

// App holds the wired services and the resources they own.
type App struct {
	Service  *usecase.ScanService
	Realtime *usecase.RealtimeHub
	Scans    domain.ScanRepository

	logger  *zap.Logger
	closers []io.Closer
}

// New builds every collaborator named by cfg. On error, whatever was already
// opened is closed again.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (_ *App, err error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{logger: logger}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	cacheRepo, err := a.newCache(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}

	scans, err := a.newStorage(cfg.Storage)
	if err != nil {
		return nil, err
	}
	a.Scans = scans

	cleaner, err := cleanup.New(cleanup.Config{
		Provider:  cfg.Cleanup.Provider,
		APIKey:    cfg.Cleanup.APIKey,
		BaseURL:   cfg.Cleanup.BaseURL,
		Model:     cfg.Cleanup.Model,
		Timeout:   cfg.Cleanup.Timeout,
		MaxTokens: cfg.Cleanup.MaxTokens,
	}, logger)
	if err != nil {
		return nil, err
	}
	if cleaner != nil && cfg.Cleanup.APIKey == "" {
		logger.Warn("cleanup provider has no API key; label text will be parsed without cleanup",
			zap.String("provider", cfg.Cleanup.Provider))
	}

	engine, err := a.newOCR(ctx, cfg.OCR)
	if err != nil {
		return nil, err
	}

	a.Service = usecase.NewScanService(cleaner, engine, scans, cacheRepo, logger, usecase.ScanServiceConfig{
		CleanupTimeout: cfg.Cleanup.Timeout,
		CacheTTL:       cfg.Cache.TTL,
	})
	a.Realtime = usecase.NewRealtimeHub(engine, a.Service, logger, usecase.RealtimeConfig{
		MinInterval: cfg.Scanner.MinInterval,
		IdleTimeout: cfg.Scanner.IdleTimeout,
	})
	a.closers = append(a.closers, a.Realtime)

	logger.Info("pipeline ready",
		zap.String("cleanup", cfg.Cleanup.Provider),
		zap.String("ocr", cfg.OCR.Provider),
		zap.String("cache", cfg.Cache.Type),
		zap.String("storage", cfg.Storage.Type),
	)
	return a, nil
}

func (a *App) newCache(ctx context.Context, cfg config.CacheConfig) (domain.CacheRepository, error) {
	switch cfg.Type {
	case "redis":
		redisCache, err := cache.NewRedisCache(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect cache: %w", err)
		}
		a.closers = append(a.closers, redisCache)
		return redisCache, nil
	default:
		memoryCache := cache.NewMemoryCache(0)
		a.closers = append(a.closers, memoryCache)
		return memoryCache, nil
	}
}

func (a *App) newStorage(cfg config.StorageConfig) (domain.ScanRepository, error) {
	switch cfg.Type {
	case "sqlite":
		store, err := storage.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open scan store: %w", err)
		}
		a.closers = append(a.closers, store)
		return store, nil
	default:
		return storage.NewMemoryScanStore(), nil
	}
}

// newOCR returns a recognizer that reads PDF text layers itself and sends
// images to Vision when it is configured. Calls are serialized per session.
func (a *App) newOCR(ctx context.Context, cfg config.OCRConfig) (domain.OCREngine, error) {
	var images domain.OCREngine
	if cfg.Provider == "vision" {
		engine, err := ocr.NewVisionEngine(ctx, ocr.VisionConfig{
			CredentialsFile: cfg.CredentialsFile,
			MaxImageBytes:   cfg.MaxImageBytes,
		}, a.logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, engine)
		images = engine
	}

	documents := ocr.NewPDFTextSource(cfg.MaxImageBytes, a.logger)
	return ocr.NewSerializedEngine(ocr.NewDocumentRouter(images, documents)), nil
}

// Logger returns the logger the collaborators were built with.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Close releases resources in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
