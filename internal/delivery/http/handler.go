package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/allerlens/backend/internal/allergen"
	"github.com/allerlens/backend/internal/domain"
	"github.com/allerlens/backend/internal/infrastructure/export"
	"github.com/allerlens/backend/internal/usecase"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 200

	// maxUploadBytes bounds a single image or PDF read from a multipart form.
	maxUploadBytes = 20 << 20

	sessionHeader = "X-Session-ID"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	service  *usecase.ScanService
	realtime *usecase.RealtimeHub
	logger   *zap.Logger
}

// NewHandler creates a new HTTP handler. A nil service or hub makes the
// endpoints that need it answer 501.
func NewHandler(service *usecase.ScanService, realtime *usecase.RealtimeHub, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		service:  service,
		realtime: realtime,
		logger:   logger,
	}
}

// ParseRequest is the body of POST /api/v1/ingredients/parse
type ParseRequest struct {
	Text      string   `json:"text"`
	Allergies []string `json:"allergies"`
}

// CheckRequest is the body of POST /api/v1/allergens/check
type CheckRequest struct {
	Ingredients []string `json:"ingredients"`
	Allergies   []string `json:"allergies"`
}

// RecheckRequest is the body of POST /api/v1/scans/:id/recheck
type RecheckRequest struct {
	Allergies []string `json:"allergies"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "allerlens-backend",
		"version": "1.0.0",
	})
}

// ParseIngredients runs label text through cleanup, parsing and matching.
func (h *Handler) ParseIngredients(c *gin.Context) {
	if !h.requireService(c) {
		return
	}

	var req ParseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	result, err := h.service.ProcessTextForAllergens(c.Request.Context(), req.Text, req.Allergies)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// CheckAllergens matches an already parsed ingredient list.
func (h *Handler) CheckAllergens(c *gin.Context) {
	var req CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"warnings": allergen.Match(req.Ingredients, req.Allergies),
	})
}

// ListAllergens returns the synonym table.
func (h *Handler) ListAllergens(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"allergens": allergen.All()})
}

// SearchAllergens finds allergens whose name or terms contain q.
func (h *Handler) SearchAllergens(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		h.badRequest(c, errors.New("query parameter 'q' is required"))
		return
	}

	limit := defaultSearchLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxSearchLimit {
			h.badRequest(c, fmt.Errorf("limit must be between 1 and %d", maxSearchLimit))
			return
		}
		limit = n
	}

	c.JSON(http.StatusOK, gin.H{"results": allergen.Search(query, limit)})
}

// CreateScan recognizes an uploaded label image or PDF and stores the scan.
func (h *Handler) CreateScan(c *gin.Context) {
	if !h.requireService(c) {
		return
	}

	userID := strings.TrimSpace(c.PostForm("userId"))
	if userID == "" {
		h.badRequest(c, errors.New("userId is required"))
		return
	}

	image, err := readUpload(c, "image")
	if err != nil {
		h.badRequest(c, err)
		return
	}

	session := c.GetHeader(sessionHeader)
	if session == "" {
		session = userID
	}
	ctx := domain.WithSession(c.Request.Context(), session)

	scan, err := h.service.SaveScan(ctx, &domain.SaveScanRequest{
		UserID:    userID,
		Image:     image,
		ImageURL:  c.PostForm("imageUrl"),
		Allergies: splitAllergies(c.PostFormArray("allergies")),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, scan)
}

// ListScans returns a user's scan history, newest first.
func (h *Handler) ListScans(c *gin.Context) {
	if !h.requireService(c) {
		return
	}

	scans, err := h.service.GetUserScans(c.Request.Context(), c.Query("userId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"scans": scans})
}

// ExportScans streams a user's scan history as an xlsx workbook.
func (h *Handler) ExportScans(c *gin.Context) {
	if !h.requireService(c) {
		return
	}

	userID := c.Query("userId")
	scans, err := h.service.GetUserScans(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Header("Content-Type", export.ContentType)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="scans-%s.xlsx"`, sanitizeFilename(userID)))
	c.Status(http.StatusOK)
	if err := export.WriteScans(c.Writer, scans); err != nil {
		// Headers are gone already; all we can do is log.
		_ = c.Error(err)
		h.logger.Error("failed to write scan export", zap.String("user_id", userID), zap.Error(err))
	}
}

// GetScan returns a single scan.
func (h *Handler) GetScan(c *gin.Context) {
	if !h.requireService(c) {
		return
	}

	scan, err := h.service.GetScan(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, scan)
}

// DeleteScan removes a scan.
func (h *Handler) DeleteScan(c *gin.Context) {
	if !h.requireService(c) {
		return
	}

	if err := h.service.DeleteScan(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RecheckScan re-matches a stored scan against a new allergy profile.
func (h *Handler) RecheckScan(c *gin.Context) {
	if !h.requireService(c) {
		return
	}

	var req RecheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	scan, err := h.service.RecheckScan(c.Request.Context(), c.Param("id"), req.Allergies)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, scan)
}

// OfferFrame hands one camera frame to the session's realtime scanner.
// Frames arriving while a cycle runs or before the interval has passed
// are rejected without waiting.
func (h *Handler) OfferFrame(c *gin.Context) {
	if h.realtime == nil {
		h.respondError(c, fmt.Errorf("%w: realtime scanning", domain.ErrNotConfigured))
		return
	}

	frame, err := readUpload(c, "frame")
	if err != nil {
		h.badRequest(c, err)
		return
	}

	scanner := h.realtime.Scanner(c.Param("session"))
	result, err := scanner.Offer(c.Request.Context(), frame, splitAllergies(c.PostFormArray("allergies")))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// EndSession drops a realtime session's scanner.
func (h *Handler) EndSession(c *gin.Context) {
	if h.realtime == nil {
		h.respondError(c, fmt.Errorf("%w: realtime scanning", domain.ErrNotConfigured))
		return
	}

	if !h.realtime.End(c.Param("session")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) requireService(c *gin.Context) bool {
	if h.service != nil {
		return true
	}
	c.JSON(http.StatusNotImplemented, gin.H{
		"error": "Scan service not configured",
	})
	return false
}

func (h *Handler) badRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// respondError maps domain errors onto HTTP statuses.
func (h *Handler) respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	status, message := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	c.JSON(status, gin.H{"error": message})
}

func statusFor(err error) (int, string) {
	switch {
	// Checked first: an unconfigured recognizer also carries ErrOCRFailed.
	case errors.Is(err, domain.ErrNotConfigured):
		return http.StatusNotImplemented, err.Error()
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrScanNotFound):
		return http.StatusNotFound, domain.ErrScanNotFound.Error()
	case errors.Is(err, domain.ErrScannerBusy):
		return http.StatusConflict, domain.ErrScannerBusy.Error()
	case errors.Is(err, domain.ErrScannerThrottled):
		return http.StatusTooManyRequests, domain.ErrScannerThrottled.Error()
	case errors.Is(err, domain.ErrOCRFailed):
		return http.StatusBadGateway, domain.ErrOCRFailed.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "request timed out"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func readUpload(c *gin.Context, field string) ([]byte, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, fmt.Errorf("multipart field '%s' is required", field)
	}
	if header.Size > maxUploadBytes {
		return nil, fmt.Errorf("%s exceeds %d bytes", field, maxUploadBytes)
	}

	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", field, err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", field, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%s is empty", field)
	}
	return data, nil
}

// splitAllergies accepts repeated form values as well as comma lists.
func splitAllergies(values []string) []string {
	allergies := make([]string, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				allergies = append(allergies, part)
			}
		}
	}
	return allergies
}

func sanitizeFilename(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}
