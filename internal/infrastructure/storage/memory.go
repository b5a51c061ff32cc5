package storage

import (
	"context"
	"sync"

	"github.com/allerlens/backend/internal/domain"
)

// MemoryScanStore keeps scans in process memory. Stored and returned scans
// are copies, so callers cannot mutate the store through them.
type MemoryScanStore struct {
	mu    sync.RWMutex
	scans map[string]*domain.ScanResult
	order []string
}

func NewMemoryScanStore() *MemoryScanStore {
	return &MemoryScanStore{scans: make(map[string]*domain.ScanResult)}
}

func (m *MemoryScanStore) Save(ctx context.Context, scan *domain.ScanResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.scans[scan.ID]; !exists {
		m.order = append(m.order, scan.ID)
	}
	m.scans[scan.ID] = cloneScan(scan)
	return nil
}

func (m *MemoryScanStore) Get(ctx context.Context, id string) (*domain.ScanResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	scan, ok := m.scans[id]
	if !ok {
		return nil, domain.ErrScanNotFound
	}
	return cloneScan(scan), nil
}

// ListByUser returns the user's scans in the order they were first saved.
func (m *MemoryScanStore) ListByUser(ctx context.Context, userID string) ([]*domain.ScanResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []*domain.ScanResult{}
	for _, id := range m.order {
		if scan := m.scans[id]; scan.UserID == userID {
			out = append(out, cloneScan(scan))
		}
	}
	return out, nil
}

func (m *MemoryScanStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.scans[id]; !ok {
		return domain.ErrScanNotFound
	}
	delete(m.scans, id)
	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func cloneScan(scan *domain.ScanResult) *domain.ScanResult {
	c := *scan
	c.Ingredients = copyStrings(scan.Ingredients)
	c.Warnings = copyStrings(scan.Warnings)
	return &c
}

func copyStrings(items []string) []string {
	out := make([]string, len(items))
	copy(out, items)
	return out
}
