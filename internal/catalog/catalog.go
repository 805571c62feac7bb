// Package catalog stores templates and exposes the two variable mutation
// operations the editor is allowed to perform.
package catalog

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/dopejs/tmplvars/internal/template"
)

// Catalog is the authoritative store of entities and variables.
//
// Snapshot returns a deep copy that reflects every mutation committed before
// the call. Mutations are atomic: on error nothing is applied.
type Catalog interface {
	Snapshot() (*template.Template, error)
	UpsertVariable(entityInternalID, internalID string, v template.Variable) (string, error)
	DeleteVariable(entityInternalID, internalID string) error
	AddEntity(e template.Entity) (string, error)
	Close() error
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Open returns a catalog for the given backend. An empty backend is inferred
// from the path extension: .db/.sqlite use SQLite, anything else is a file.
func Open(backend, path string, logger *slog.Logger) (Catalog, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if backend == "" {
		backend = inferBackend(path)
	}
	switch backend {
	case BackendFile:
		s := NewFileStore(path, logger)
		if err := s.Load(); err != nil {
			return nil, err
		}
		return s, nil
	case BackendSQLite:
		s := NewSQLiteStore(logger)
		if err := s.Open(path); err != nil {
			return nil, err
		}
		if err := s.InitSchema(); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil
	case BackendMemory:
		return NewMemoryStore(nil), nil
	}
	return nil, fmt.Errorf("unknown catalog backend %q", backend)
}

func inferBackend(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return BackendSQLite
	}
	return BackendFile
}

// CurrentVariable is one variable in scope, used for uniqueness checks.
type CurrentVariable struct {
	InternalID       string
	EntityInternalID string
	Variable         template.Variable
}

// CurrentVariables lists every variable in the template in entity order.
// Dangling references are skipped.
func CurrentVariables(t *template.Template) []CurrentVariable {
	var out []CurrentVariable
	for _, entityID := range t.OrderedEntityIDs() {
		e := t.EntitiesByInternalID[entityID]
		if e == nil {
			continue
		}
		for _, id := range e.VariableInternalIDs {
			v := t.VariablesByInternalID[id]
			if v == nil {
				continue
			}
			out = append(out, CurrentVariable{InternalID: id, EntityInternalID: entityID, Variable: *v})
		}
	}
	return out
}

// ResolveEntity accepts either an entity internal id or its user-facing id.
func ResolveEntity(t *template.Template, ref string) (string, *template.Entity, error) {
	if e, ok := t.EntitiesByInternalID[ref]; ok {
		return ref, e, nil
	}
	if internalID, e, ok := t.EntityByID(ref); ok {
		return internalID, e, nil
	}
	return "", nil, fmt.Errorf("%w: %s", template.ErrEntityNotFound, ref)
}

// ResolveVariable finds a variable owned by entityInternalID by internal id or
// user-facing id.
func ResolveVariable(t *template.Template, entityInternalID, ref string) (string, *template.Variable, error) {
	e := t.EntitiesByInternalID[entityInternalID]
	if e == nil {
		return "", nil, fmt.Errorf("%w: %s", template.ErrEntityNotFound, entityInternalID)
	}
	for _, id := range e.VariableInternalIDs {
		v := t.VariablesByInternalID[id]
		if v == nil {
			continue
		}
		if id == ref || v.ID == ref {
			return id, v, nil
		}
	}
	return "", nil, fmt.Errorf("%w: %s", template.ErrVariableNotFound, ref)
}
