package template

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// NewInternalID mints a fresh internal identity.
func NewInternalID() string {
	return uuid.New().String()
}

// CheckUnique returns ErrDuplicateID if id is used by any variable other than
// the one stored at exceptInternalID. Matching is case-sensitive.
func (t *Template) CheckUnique(id, exceptInternalID string) error {
	for internalID, v := range t.VariablesByInternalID {
		if internalID == exceptInternalID || v == nil {
			continue
		}
		if v.ID == id {
			return fmt.Errorf("%w: %q", ErrDuplicateID, id)
		}
	}
	return nil
}

// UpsertVariable creates v under entityID when internalID is empty, appending a
// freshly minted internal id to the entity's list, or replaces the record at
// internalID in place. It returns the internal id of the stored record.
func (t *Template) UpsertVariable(entityID, internalID string, v Variable) (string, error) {
	t.EnsureMaps()
	e := t.EntitiesByInternalID[entityID]
	if e == nil {
		return "", fmt.Errorf("%w: %s", ErrEntityNotFound, entityID)
	}
	if !v.Type.Known() {
		return "", unhandled(v.Type)
	}
	if err := CheckIdentifier(v.ID); err != nil {
		return "", err
	}
	if err := t.CheckUnique(v.ID, internalID); err != nil {
		return "", err
	}
	v = v.Normalize()

	if internalID == "" {
		internalID = NewInternalID()
		t.VariablesByInternalID[internalID] = &v
		e.VariableInternalIDs = append(e.VariableInternalIDs, internalID)
		return internalID, nil
	}

	if _, ok := t.VariablesByInternalID[internalID]; !ok {
		return "", fmt.Errorf("%w: %s", ErrVariableNotFound, internalID)
	}
	if owner, ok := t.OwnerOf(internalID); ok && owner != entityID {
		return "", fmt.Errorf("%w: %s is not owned by entity %s", ErrVariableNotFound, internalID, entityID)
	}
	t.VariablesByInternalID[internalID] = &v
	return internalID, nil
}

// DeleteVariable removes internalID from entityID's list and from the catalog.
// It reports whether anything was removed; an id not owned by the entity is a no-op.
func (t *Template) DeleteVariable(entityID, internalID string) bool {
	e := t.EntitiesByInternalID[entityID]
	if e == nil {
		return false
	}
	idx := -1
	for i, id := range e.VariableInternalIDs {
		if id == internalID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	e.VariableInternalIDs = append(e.VariableInternalIDs[:idx:idx], e.VariableInternalIDs[idx+1:]...)
	delete(t.VariablesByInternalID, internalID)
	return true
}

// AddEntity appends a new entity and returns its internal id.
func (t *Template) AddEntity(e Entity) (string, error) {
	t.EnsureMaps()
	if err := CheckIdentifier(e.ID); err != nil {
		return "", err
	}
	if _, _, ok := t.EntityByID(e.ID); ok {
		return "", fmt.Errorf("%w: entity %q", ErrDuplicateID, e.ID)
	}
	if e.VariableInternalIDs == nil {
		e.VariableInternalIDs = []string{}
	}
	internalID := NewInternalID()
	t.EntitiesByInternalID[internalID] = &e
	t.EntityOrder = append(t.EntityOrder, internalID)
	return internalID, nil
}

// OrderedEntityIDs returns entity internal ids in display order, followed by any
// entity present in the map but missing from EntityOrder.
func (t *Template) OrderedEntityIDs() []string {
	seen := make(map[string]bool, len(t.EntityOrder))
	out := make([]string, 0, len(t.EntitiesByInternalID))
	for _, id := range t.EntityOrder {
		if _, ok := t.EntitiesByInternalID[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	var rest []string
	for id := range t.EntitiesByInternalID {
		if !seen[id] {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}
