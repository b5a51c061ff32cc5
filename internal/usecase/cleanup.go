package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/allerlens/backend/internal/domain"
	"go.uber.org/zap"
)

type cleanupOutcome struct {
	text string
	err  error
}

// cleanWithFallback asks the cleaner to rewrite text and returns the original
// text whenever that fails: error, panic, blank reply or timeout. The bool
// reports whether the cleaner's output was used.
func (s *ScanService) cleanWithFallback(ctx context.Context, text string) (string, bool) {
	cleanupCtx, cancel := context.WithTimeout(ctx, s.cleanupTimeout)
	defer cancel()

	// Buffered so the worker never blocks if we stop waiting.
	done := make(chan cleanupOutcome, 1)
	go func() {
		cleaned, err := s.safeCleanup(cleanupCtx, text)
		done <- cleanupOutcome{text: cleaned, err: err}
	}()

	var outcome cleanupOutcome
	select {
	case outcome = <-done:
	case <-cleanupCtx.Done():
		outcome.err = fmt.Errorf("%w: %w", domain.ErrCleanupFailed, cleanupCtx.Err())
	}

	if outcome.err != nil {
		s.logger.Warn("text cleanup failed, using original text",
			zap.Error(outcome.err),
			zap.Int("text_length", len(text)),
		)
		return text, false
	}
	if strings.TrimSpace(outcome.text) == "" {
		s.logger.Warn("text cleanup returned nothing, using original text",
			zap.Int("text_length", len(text)),
		)
		return text, false
	}

	return outcome.text, true
}

func (s *ScanService) safeCleanup(ctx context.Context, text string) (cleaned string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", domain.ErrCleanupFailed, r)
		}
	}()
	return s.cleaner.Cleanup(ctx, text)
}
