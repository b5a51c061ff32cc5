package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/allerlens/backend/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS scans (
  id TEXT PRIMARY KEY,
  userId TEXT NOT NULL,
  timestamp INTEGER NOT NULL,
  imageUrl TEXT NOT NULL DEFAULT '',
  extractedText TEXT NOT NULL,
  ingredientsJson TEXT NOT NULL,
  warningsJson TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_scans_user ON scans(userId, timestamp);
`

// SQLiteScanStore persists scans in a local SQLite database. Ingredient and
// warning lists are stored as JSON text.
type SQLiteScanStore struct {
	conn *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLiteScanStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}
	if _, err := conn.Exec(schema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteScanStore{conn: conn}, nil
}

func (s *SQLiteScanStore) Close() error {
	return s.conn.Close()
}

// Save inserts the scan or replaces the stored one with the same id.
func (s *SQLiteScanStore) Save(ctx context.Context, scan *domain.ScanResult) error {
	ingredientsJSON, err := json.Marshal(nonNil(scan.Ingredients))
	if err != nil {
		return err
	}
	warningsJSON, err := json.Marshal(nonNil(scan.Warnings))
	if err != nil {
		return err
	}

	_, err = s.conn.ExecContext(ctx, `
INSERT INTO scans (id, userId, timestamp, imageUrl, extractedText, ingredientsJson, warningsJson)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  userId=excluded.userId,
  timestamp=excluded.timestamp,
  imageUrl=excluded.imageUrl,
  extractedText=excluded.extractedText,
  ingredientsJson=excluded.ingredientsJson,
  warningsJson=excluded.warningsJson,
  updatedAt=CURRENT_TIMESTAMP
`, scan.ID, scan.UserID, scan.Timestamp, scan.ImageURL, scan.ExtractedText,
		string(ingredientsJSON), string(warningsJSON))
	return err
}

func (s *SQLiteScanStore) Get(ctx context.Context, id string) (*domain.ScanResult, error) {
	row := s.conn.QueryRowContext(ctx, `
SELECT id, userId, timestamp, imageUrl, extractedText, ingredientsJson, warningsJson
FROM scans WHERE id = ?`, id)

	scan, err := scanRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrScanNotFound
	}
	if err != nil {
		return nil, err
	}
	return scan, nil
}

// ListByUser returns the user's scans, newest first.
func (s *SQLiteScanStore) ListByUser(ctx context.Context, userID string) ([]*domain.ScanResult, error) {
	rows, err := s.conn.QueryContext(ctx, `
SELECT id, userId, timestamp, imageUrl, extractedText, ingredientsJson, warningsJson
FROM scans WHERE userId = ?
ORDER BY timestamp DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*domain.ScanResult{}
	for rows.Next() {
		scan, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, scan)
	}
	return out, rows.Err()
}

func (s *SQLiteScanStore) Delete(ctx context.Context, id string) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM scans WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrScanNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRow(row rowScanner) (*domain.ScanResult, error) {
	var scan domain.ScanResult
	var ingredientsJSON, warningsJSON string
	if err := row.Scan(
		&scan.ID, &scan.UserID, &scan.Timestamp, &scan.ImageURL, &scan.ExtractedText,
		&ingredientsJSON, &warningsJSON,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(ingredientsJSON), &scan.Ingredients); err != nil {
		return nil, fmt.Errorf("corrupt ingredients for scan %s: %w", scan.ID, err)
	}
	if err := json.Unmarshal([]byte(warningsJSON), &scan.Warnings); err != nil {
		return nil, fmt.Errorf("corrupt warnings for scan %s: %w", scan.ID, err)
	}
	return &scan, nil
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
