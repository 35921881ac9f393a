package store

import (
	"context"
	"sync"
)

// MemoryDocumentStore keeps the document text in process memory.
type MemoryDocumentStore struct {
	mu   sync.RWMutex
	text []byte
	has  bool
}

func NewMemoryDocumentStore() *MemoryDocumentStore {
	return &MemoryDocumentStore{}
}

func (s *MemoryDocumentStore) CurrentText(ctx context.Context) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.has {
		return nil, ErrNoDocument
	}
	out := make([]byte, len(s.text))
	copy(out, s.text)
	return out, nil
}

func (s *MemoryDocumentStore) SetText(ctx context.Context, text []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.text = append(s.text[:0:0], text...)
	s.has = true
	return nil
}

var _ DocumentStore = (*MemoryDocumentStore)(nil)
