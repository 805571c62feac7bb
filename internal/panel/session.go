package panel

import (
	"errors"

	"github.com/dopejs/tmplvars/internal/template"
)

var (
	// ErrSessionBusy is returned when a dialog is already open.
	ErrSessionBusy = errors.New("an edit dialog is already open")
	// ErrNotEditing is returned when a dialog operation runs with no dialog open.
	ErrNotEditing = errors.New("no edit dialog is open")
	// ErrNothingToDelete is returned when deleting from a creation dialog.
	ErrNothingToDelete = errors.New("variable has not been created yet")
)

// Mutator is the part of the catalog the session may call.
type Mutator interface {
	UpsertVariable(entityInternalID, internalID string, v template.Variable) (string, error)
	DeleteVariable(entityInternalID, internalID string) error
}

// State is either Idle or Editing.
type State interface {
	isState()
}

// Idle means no dialog is open.
type Idle struct{}

// Editing means the dialog is open. Existing is nil when creating a new variable.
type Editing struct {
	Existing *Existing
}

// Existing identifies the variable an edit dialog was opened for.
type Existing struct {
	InternalID string
	Snapshot   template.Variable
}

func (Idle) isState()    {}
func (Editing) isState() {}

// Creating reports whether the dialog creates a new variable.
func (e Editing) Creating() bool { return e.Existing == nil }

// Session tracks which variable, if any, is being created or edited for one
// entity. The zero value is not usable; call NewSession.
type Session struct {
	entityInternalID string
	mutator          Mutator
	state            State
}

// NewSession returns an idle session for one entity.
func NewSession(entityInternalID string, m Mutator) Session {
	return Session{entityInternalID: entityInternalID, mutator: m, state: Idle{}}
}

// EntityInternalID returns the entity the session edits.
func (s *Session) EntityInternalID() string { return s.entityInternalID }

// State returns the current state.
func (s *Session) State() State {
	if s.state == nil {
		return Idle{}
	}
	return s.state
}

// Open reports whether a dialog is open.
func (s *Session) Open() bool {
	_, ok := s.State().(Editing)
	return ok
}

// Select opens the dialog on an existing variable.
func (s *Session) Select(internalID string, v template.Variable) error {
	if s.Open() {
		return ErrSessionBusy
	}
	if internalID == "" {
		return template.ErrVariableNotFound
	}
	s.state = Editing{Existing: &Existing{InternalID: internalID, Snapshot: v}}
	return nil
}

// AddNew opens the dialog to create a variable.
func (s *Session) AddNew() error {
	if s.Open() {
		return ErrSessionBusy
	}
	s.state = Editing{}
	return nil
}

// Close discards the dialog without touching the catalog.
func (s *Session) Close() {
	s.state = Idle{}
}

// Upsert stores v for the open dialog and returns to Idle. If the catalog
// rejects the record the dialog stays open so the error can be shown.
func (s *Session) Upsert(v template.Variable) (string, error) {
	ed, ok := s.State().(Editing)
	if !ok {
		return "", ErrNotEditing
	}
	var internalID string
	if ed.Existing != nil {
		internalID = ed.Existing.InternalID
	}
	id, err := s.mutator.UpsertVariable(s.entityInternalID, internalID, v)
	if err != nil {
		return "", err
	}
	s.Close()
	return id, nil
}

// Delete removes the variable the dialog was opened for and returns to Idle.
func (s *Session) Delete() error {
	ed, ok := s.State().(Editing)
	if !ok {
		return ErrNotEditing
	}
	if ed.Existing == nil {
		return ErrNothingToDelete
	}
	if err := s.mutator.DeleteVariable(s.entityInternalID, ed.Existing.InternalID); err != nil {
		return err
	}
	s.Close()
	return nil
}
