package domain

import "errors"

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrScanNotFound is returned when no scan exists for the given id
	ErrScanNotFound = errors.New("scan not found")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when the cache backend cannot be reached
	ErrCacheUnavailable = errors.New("cache service unavailable")

	// ErrCleanupFailed is returned by text cleaners when the remote model call fails
	ErrCleanupFailed = errors.New("text cleanup failed")

	// ErrMissingCredentials is returned when a remote collaborator has no API key or credentials
	ErrMissingCredentials = errors.New("missing credentials")

	// ErrOCRFailed is returned when text recognition fails
	ErrOCRFailed = errors.New("text recognition failed")

	// ErrEmptyText is returned when a collaborator produced no text
	ErrEmptyText = errors.New("no text produced")

	// ErrRateLimited is returned when a remote API keeps answering 429
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrScannerBusy is returned when a realtime frame arrives while a cycle is in flight
	ErrScannerBusy = errors.New("scanner busy")

	// ErrScannerThrottled is returned when a realtime frame arrives before the minimum interval
	ErrScannerThrottled = errors.New("scanner throttled")

	// ErrNotConfigured is returned when an optional collaborator was not wired
	ErrNotConfigured = errors.New("not configured")
)
