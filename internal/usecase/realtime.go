package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/allerlens/backend/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultFrameInterval = 3 * time.Second
	defaultIdleTimeout   = 5 * time.Minute
	defaultSweepInterval = time.Minute
)

// RealtimeConfig holds configuration for continuous scanning
type RealtimeConfig struct {
	// MinInterval is the minimum time between two recognition cycles.
	MinInterval time.Duration
	// IdleTimeout is how long a hub session may go unused before it is
	// dropped. SweepInterval is how often the hub looks for such sessions.
	IdleTimeout   time.Duration
	SweepInterval time.Duration
}

// FrameResult is what one realtime recognition cycle produced.
type FrameResult struct {
	Text        string   `json:"text"`
	Ingredients []string `json:"ingredients"`
	Warnings    []string `json:"warnings"`
}

// RealtimeScanner analyzes frames from a live camera feed. At most one
// cycle runs at a time and cycles are spaced by the configured interval;
// frames that arrive otherwise are rejected immediately.
type RealtimeScanner struct {
	session string
	ocr     domain.OCREngine
	service *ScanService
	limiter *rate.Limiter
	busy    atomic.Bool
	logger  *zap.Logger
}

// NewRealtimeScanner creates a scanner for a single capture session.
func NewRealtimeScanner(ocr domain.OCREngine, service *ScanService, logger *zap.Logger, config RealtimeConfig) *RealtimeScanner {
	if logger == nil {
		logger = zap.NewNop()
	}

	interval := config.MinInterval
	if interval <= 0 {
		interval = defaultFrameInterval
	}

	return &RealtimeScanner{
		ocr:     ocr,
		service: service,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		logger:  logger.Named("realtime"),
	}
}

// Offer runs a recognition cycle on frame unless one is already in flight
// (domain.ErrScannerBusy) or the previous one started too recently
// (domain.ErrScannerThrottled). Canceling ctx abandons the cycle.
func (r *RealtimeScanner) Offer(ctx context.Context, frame []byte, allergies []string) (*FrameResult, error) {
	if len(frame) == 0 {
		return nil, domain.ErrInvalidRequest
	}
	if !r.busy.CompareAndSwap(false, true) {
		return nil, domain.ErrScannerBusy
	}
	defer r.busy.Store(false)

	if !r.limiter.Allow() {
		return nil, domain.ErrScannerThrottled
	}

	if r.session != "" {
		ctx = domain.WithSession(ctx, r.session)
	}

	text, err := r.ocr.ExtractText(ctx, frame)
	if err != nil {
		r.logger.Debug("frame recognition failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", domain.ErrOCRFailed, err)
	}

	result, err := r.service.ProcessTextForAllergens(ctx, text, allergies)
	if err != nil {
		return nil, err
	}

	if len(result.Warnings) > 0 {
		r.logger.Info("allergens detected in frame", zap.Strings("warnings", result.Warnings))
	}

	return &FrameResult{
		Text:        text,
		Ingredients: result.Ingredients,
		Warnings:    result.Warnings,
	}, nil
}

// Busy reports whether a cycle is currently running.
func (r *RealtimeScanner) Busy() bool {
	return r.busy.Load()
}

// RealtimeHub keeps one RealtimeScanner per capture session. Sessions
// untouched for longer than IdleTimeout are dropped by a background sweep,
// so clients that disappear without ending their session do not pile up.
type RealtimeHub struct {
	ocr     domain.OCREngine
	service *ScanService
	logger  *zap.Logger
	config  RealtimeConfig
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*hubSession

	stop     chan struct{}
	stopOnce sync.Once
}

type hubSession struct {
	scanner  *RealtimeScanner
	lastUsed time.Time
}

// NewRealtimeHub creates an empty session registry and starts its idle
// sweeper. Call Close to stop the sweeper.
func NewRealtimeHub(ocr domain.OCREngine, service *ScanService, logger *zap.Logger, config RealtimeConfig) *RealtimeHub {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = defaultIdleTimeout
	}
	if config.SweepInterval <= 0 {
		config.SweepInterval = defaultSweepInterval
	}

	h := &RealtimeHub{
		ocr:      ocr,
		service:  service,
		logger:   logger,
		config:   config,
		now:      time.Now,
		sessions: make(map[string]*hubSession),
		stop:     make(chan struct{}),
	}
	go h.sweep(config.SweepInterval)
	return h
}

// Scanner returns the session's scanner, creating it on first use. Every
// call counts as activity for idle eviction.
func (h *RealtimeHub) Scanner(sessionID string) *RealtimeScanner {
	h.mu.Lock()
	defer h.mu.Unlock()

	session, ok := h.sessions[sessionID]
	if !ok {
		scanner := NewRealtimeScanner(h.ocr, h.service, h.logger.With(zap.String("session", sessionID)), h.config)
		scanner.session = sessionID
		session = &hubSession{scanner: scanner}
		h.sessions[sessionID] = session
	}
	session.lastUsed = h.now()
	return session.scanner
}

// End forgets a session. It reports whether the session existed.
func (h *RealtimeHub) End(sessionID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	_, ok := h.sessions[sessionID]
	delete(h.sessions, sessionID)
	return ok
}

// Sessions returns the number of open sessions.
func (h *RealtimeHub) Sessions() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Close stops the idle sweeper. It is safe to call more than once.
func (h *RealtimeHub) Close() error {
	h.stopOnce.Do(func() { close(h.stop) })
	return nil
}

func (h *RealtimeHub) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-h.stop:
			return
		case <-ticker.C:
			h.removeIdle()
		}
	}
}

// removeIdle drops sessions idle for longer than IdleTimeout. A scanner in
// the middle of a cycle is kept.
func (h *RealtimeHub) removeIdle() int {
	cutoff := h.now().Add(-h.config.IdleTimeout)

	h.mu.Lock()
	defer h.mu.Unlock()

	removed := 0
	for id, session := range h.sessions {
		if session.lastUsed.Before(cutoff) && !session.scanner.Busy() {
			delete(h.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		h.logger.Debug("dropped idle realtime sessions", zap.Int("count", removed))
	}
	return removed
}
