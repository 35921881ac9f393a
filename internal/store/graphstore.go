package store

import (
	"sync"

	"github.com/agentic-research/trellis/internal/docpath"
	"github.com/agentic-research/trellis/internal/graph"
)

// GraphStore holds the graph built from the current document plus the
// selection. Swapping in a rebuilt graph bumps the generation; readers
// that cached renders key them on the generation they saw.
type GraphStore interface {
	// Current returns the latest graph, or nil before the first build.
	Current() *graph.Graph
	// SetGraph swaps in a rebuilt graph and returns the new generation.
	SetGraph(g *graph.Graph) uint64
	Generation() uint64

	Selected() (docpath.Path, bool)
	SetSelected(p docpath.Path)
	ClearSelected()
}

// MemoryGraphStore is a thread-safe holder that allows swapping the graph
// instance while readers keep using the one they already hold.
type MemoryGraphStore struct {
	mu         sync.RWMutex
	current    *graph.Graph
	generation uint64
	selected   docpath.Path
	hasSel     bool
}

func NewMemoryGraphStore() *MemoryGraphStore {
	return &MemoryGraphStore{}
}

func (s *MemoryGraphStore) Current() *graph.Graph {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *MemoryGraphStore) SetGraph(g *graph.Graph) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = g
	s.generation++
	return s.generation
}

func (s *MemoryGraphStore) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

func (s *MemoryGraphStore) Selected() (docpath.Path, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.hasSel {
		return nil, false
	}
	return s.selected, true
}

func (s *MemoryGraphStore) SetSelected(p docpath.Path) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = p
	s.hasSel = true
}

func (s *MemoryGraphStore) ClearSelected() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = nil
	s.hasSel = false
}

var _ GraphStore = (*MemoryGraphStore)(nil)
