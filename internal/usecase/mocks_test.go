package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/allerlens/backend/internal/domain"
)

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	mu        sync.Mutex
	data      map[string]interface{}
	getError  error
	setError  error
	getCalled bool
	setCalled bool
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		data: make(map[string]interface{}),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) (interface{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalled = true
	if m.getError != nil {
		return nil, m.getError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalled = true
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok, nil
}

// MockTextCleaner is a mock implementation of domain.TextCleaner
type MockTextCleaner struct {
	mu     sync.Mutex
	result string
	err    error
	panics bool
	block  chan struct{} // when set, Cleanup waits on it and ignores ctx
	calls  int
}

func (m *MockTextCleaner) Cleanup(ctx context.Context, text string) (string, error) {
	m.mu.Lock()
	m.calls++
	block := m.block
	m.mu.Unlock()

	if block != nil {
		<-block
	}
	if m.panics {
		panic("cleaner exploded")
	}
	if m.err != nil {
		return "", m.err
	}
	return m.result, nil
}

func (m *MockTextCleaner) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockOCREngine is a mock implementation of domain.OCREngine
type MockOCREngine struct {
	text    string
	err     error
	started chan struct{} // receives once ExtractText is entered
	release chan struct{} // when set, ExtractText waits on it
}

func (m *MockOCREngine) ExtractText(ctx context.Context, image []byte) (string, error) {
	if m.started != nil {
		m.started <- struct{}{}
	}
	if m.release != nil {
		select {
		case <-m.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if m.err != nil {
		return "", m.err
	}
	return m.text, nil
}

// MockScanRepository is an in-memory domain.ScanRepository
type MockScanRepository struct {
	mu        sync.Mutex
	scans     map[string]*domain.ScanResult
	saveError error
}

func NewMockScanRepository() *MockScanRepository {
	return &MockScanRepository{scans: make(map[string]*domain.ScanResult)}
}

func (m *MockScanRepository) Save(ctx context.Context, scan *domain.ScanResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	m.scans[scan.ID] = scan
	return nil
}

func (m *MockScanRepository) Get(ctx context.Context, id string) (*domain.ScanResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	scan, ok := m.scans[id]
	if !ok {
		return nil, domain.ErrScanNotFound
	}
	return scan, nil
}

func (m *MockScanRepository) ListByUser(ctx context.Context, userID string) ([]*domain.ScanResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.ScanResult
	for _, scan := range m.scans {
		if scan.UserID == userID {
			out = append(out, scan)
		}
	}
	return out, nil
}

func (m *MockScanRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.scans[id]; !ok {
		return domain.ErrScanNotFound
	}
	delete(m.scans, id)
	return nil
}
