package ocr

import (
	"context"
	"sync"

	"github.com/allerlens/backend/internal/domain"
)

type lane struct {
	slot chan struct{}
	refs int
}

// SerializedEngine allows one recognition at a time per session, as tagged
// by domain.WithSession. Calls for different sessions run in parallel;
// calls without a session id share a single lane.
type SerializedEngine struct {
	next domain.OCREngine

	mu    sync.Mutex
	lanes map[string]*lane
}

// NewSerializedEngine wraps next.
func NewSerializedEngine(next domain.OCREngine) *SerializedEngine {
	return &SerializedEngine{
		next:  next,
		lanes: make(map[string]*lane),
	}
}

// ExtractText waits for the session's lane, or until ctx is done.
func (s *SerializedEngine) ExtractText(ctx context.Context, image []byte) (string, error) {
	id := domain.SessionFrom(ctx)
	l := s.join(id)
	defer s.leave(id)

	select {
	case l.slot <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { <-l.slot }()

	return s.next.ExtractText(ctx, image)
}

// Sessions returns the number of sessions with a call waiting or running.
func (s *SerializedEngine) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lanes)
}

func (s *SerializedEngine) join(id string) *lane {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.lanes[id]
	if !ok {
		l = &lane{slot: make(chan struct{}, 1)}
		s.lanes[id] = l
	}
	l.refs++
	return l
}

func (s *SerializedEngine) leave(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.lanes[id]
	l.refs--
	if l.refs == 0 {
		delete(s.lanes, id)
	}
}
