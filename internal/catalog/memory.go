package catalog

import (
	"sync"

	"github.com/dopejs/tmplvars/internal/template"
)

// MemoryStore keeps a template in process memory.
type MemoryStore struct {
	mu   sync.Mutex
	tmpl *template.Template
}

// NewMemoryStore returns a store seeded with a copy of t (or an empty template).
func NewMemoryStore(t *template.Template) *MemoryStore {
	if t == nil {
		t = template.New()
	} else {
		t = t.Clone()
	}
	t.EnsureMaps()
	return &MemoryStore{tmpl: t}
}

func (s *MemoryStore) Snapshot() (*template.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tmpl.Clone(), nil
}

func (s *MemoryStore) UpsertVariable(entityInternalID, internalID string, v template.Variable) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.tmpl.Clone()
	id, err := next.UpsertVariable(entityInternalID, internalID, v)
	if err != nil {
		return "", err
	}
	s.tmpl = next
	return id, nil
}

func (s *MemoryStore) DeleteVariable(entityInternalID, internalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.tmpl.Clone()
	if next.DeleteVariable(entityInternalID, internalID) {
		s.tmpl = next
	}
	return nil
}

func (s *MemoryStore) AddEntity(e template.Entity) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.tmpl.Clone()
	id, err := next.AddEntity(e)
	if err != nil {
		return "", err
	}
	s.tmpl = next
	return id, nil
}

func (s *MemoryStore) Close() error { return nil }
