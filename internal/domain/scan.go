package domain

import "time"

// ScanResult is one persisted label scan.
type ScanResult struct {
	ID            string   `json:"id"`
	UserID        string   `json:"userId"`
	Timestamp     int64    `json:"timestamp"` // Unix milliseconds
	ImageURL      string   `json:"imageUrl,omitempty"`
	ExtractedText string   `json:"extractedText"` // text after cleanup, before parsing
	Ingredients   []string `json:"ingredients"`
	Warnings      []string `json:"warnings"`
}

// Time returns the scan timestamp as a time.Time.
func (s *ScanResult) Time() time.Time {
	return time.UnixMilli(s.Timestamp)
}

// ProcessResult is the outcome of running label text through the pipeline
type ProcessResult struct {
	Ingredients []string `json:"ingredients"`
	Warnings    []string `json:"warnings"`
}

// SaveScanRequest carries a captured label image to be recognized and stored.
type SaveScanRequest struct {
	UserID    string
	Image     []byte
	ImageURL  string
	Allergies []string
}
