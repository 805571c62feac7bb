package template

import (
	"fmt"
	"regexp"
)

// VariableType is the variant tag of a Variable.
type VariableType string

const (
	TypeWalletData         VariableType = "WalletData"
	TypeAddressData        VariableType = "AddressData"
	TypeHDKey              VariableType = "HDKey"
	TypeKey                VariableType = "Key"
	TypeCurrentBlockHeight VariableType = "CurrentBlockHeight"
	TypeCurrentBlockTime   VariableType = "CurrentBlockTime"
)

// VariableTypes lists every known variant in dialog order.
var VariableTypes = []VariableType{
	TypeKey,
	TypeHDKey,
	TypeWalletData,
	TypeAddressData,
	TypeCurrentBlockHeight,
	TypeCurrentBlockTime,
}

// Known reports whether t is one of the six known variants.
func (t VariableType) Known() bool {
	switch t {
	case TypeWalletData, TypeAddressData, TypeHDKey, TypeKey,
		TypeCurrentBlockHeight, TypeCurrentBlockTime:
		return true
	}
	return false
}

// Default HD key derivation settings.
const (
	DefaultHDPublicKeyDerivationPath = "m"
	DefaultPrivateDerivationPath     = "m/i"
	DefaultPublicDerivationPath      = "M/i"
)

// Variable is one typed piece of data owned by an entity.
type Variable struct {
	Type        VariableType `json:"type" yaml:"type"`
	ID          string       `json:"id" yaml:"id"`
	Name        string       `json:"name,omitempty" yaml:"name,omitempty"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`

	// HDKey only.
	AddressOffset             int    `json:"addressOffset,omitempty" yaml:"addressOffset,omitempty"`
	HDPublicKeyDerivationPath string `json:"hdPublicKeyDerivationPath,omitempty" yaml:"hdPublicKeyDerivationPath,omitempty"`
	PrivateDerivationPath     string `json:"privateDerivationPath,omitempty" yaml:"privateDerivationPath,omitempty"`
	PublicDerivationPath      string `json:"publicDerivationPath,omitempty" yaml:"publicDerivationPath,omitempty"`
}

// Normalize fills HDKey defaults and clears fields that do not apply to v.Type.
func (v Variable) Normalize() Variable {
	if v.Type != TypeHDKey {
		v.AddressOffset = 0
		v.HDPublicKeyDerivationPath = ""
		v.PrivateDerivationPath = ""
		v.PublicDerivationPath = ""
		return v
	}
	if v.HDPublicKeyDerivationPath == "" {
		v.HDPublicKeyDerivationPath = DefaultHDPublicKeyDerivationPath
	}
	if v.PrivateDerivationPath == "" {
		v.PrivateDerivationPath = DefaultPrivateDerivationPath
	}
	if v.PublicDerivationPath == "" {
		v.PublicDerivationPath = DefaultPublicDerivationPath
	}
	return v
}

// Entity is a named grouping that owns an ordered list of variables.
type Entity struct {
	ID                  string   `json:"id" yaml:"id"`
	Name                string   `json:"name,omitempty" yaml:"name,omitempty"`
	Description         string   `json:"description,omitempty" yaml:"description,omitempty"`
	VariableInternalIDs []string `json:"variableInternalIds" yaml:"variableInternalIds"`
}

// Template is the catalog of entities and variables keyed by internal identity.
type Template struct {
	Version               int                  `json:"version" yaml:"version"`
	EntityOrder           []string             `json:"entityOrder" yaml:"entityOrder"`
	EntitiesByInternalID  map[string]*Entity   `json:"entitiesByInternalId" yaml:"entitiesByInternalId"`
	VariablesByInternalID map[string]*Variable `json:"variablesByInternalId" yaml:"variablesByInternalId"`
}

// CurrentVersion is the template file format version written by this program.
const CurrentVersion = 1

// New returns an empty template with initialized maps.
func New() *Template {
	return &Template{
		Version:               CurrentVersion,
		EntitiesByInternalID:  make(map[string]*Entity),
		VariablesByInternalID: make(map[string]*Variable),
	}
}

// Clone returns a deep copy of t.
func (t *Template) Clone() *Template {
	out := &Template{
		Version:               t.Version,
		EntityOrder:           append([]string(nil), t.EntityOrder...),
		EntitiesByInternalID:  make(map[string]*Entity, len(t.EntitiesByInternalID)),
		VariablesByInternalID: make(map[string]*Variable, len(t.VariablesByInternalID)),
	}
	for id, e := range t.EntitiesByInternalID {
		if e == nil {
			continue
		}
		ec := *e
		ec.VariableInternalIDs = append([]string(nil), e.VariableInternalIDs...)
		out.EntitiesByInternalID[id] = &ec
	}
	for id, v := range t.VariablesByInternalID {
		if v == nil {
			continue
		}
		vc := *v
		out.VariablesByInternalID[id] = &vc
	}
	return out
}

// EnsureMaps makes sure the maps are non-nil and the version is set.
func (t *Template) EnsureMaps() {
	if t.EntitiesByInternalID == nil {
		t.EntitiesByInternalID = make(map[string]*Entity)
	}
	if t.VariablesByInternalID == nil {
		t.VariablesByInternalID = make(map[string]*Variable)
	}
	if t.Version == 0 {
		t.Version = CurrentVersion
	}
}

// DropNullRecords removes map entries decoded from null values. References to
// them are left in place and show up as dangling.
func (t *Template) DropNullRecords() (entities, variables int) {
	for id, e := range t.EntitiesByInternalID {
		if e == nil {
			delete(t.EntitiesByInternalID, id)
			entities++
		}
	}
	for id, v := range t.VariablesByInternalID {
		if v == nil {
			delete(t.VariablesByInternalID, id)
			variables++
		}
	}
	return entities, variables
}

// OwnerOf returns the internal id of the entity listing variableInternalID.
// Every entity in the map is checked, not only those named in EntityOrder.
func (t *Template) OwnerOf(variableInternalID string) (string, bool) {
	for _, entityID := range t.OrderedEntityIDs() {
		e := t.EntitiesByInternalID[entityID]
		if e == nil {
			continue
		}
		for _, id := range e.VariableInternalIDs {
			if id == variableInternalID {
				return entityID, true
			}
		}
	}
	return "", false
}

// EntityByID finds an entity by its user-facing id.
func (t *Template) EntityByID(id string) (string, *Entity, bool) {
	for _, internalID := range t.EntityOrder {
		if e := t.EntitiesByInternalID[internalID]; e != nil && e.ID == id {
			return internalID, e, true
		}
	}
	return "", nil, false
}

var identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ValidIdentifier reports whether id may be used as a variable or entity identifier.
func ValidIdentifier(id string) bool {
	return identifierPattern.MatchString(id)
}

// CheckIdentifier returns a descriptive error if id is not a valid identifier.
func CheckIdentifier(id string) error {
	if id == "" {
		return fmt.Errorf("%w: identifier is required", ErrInvalidID)
	}
	if !ValidIdentifier(id) {
		return fmt.Errorf("%w: %q must start with a letter or underscore and contain only letters, digits and underscores", ErrInvalidID, id)
	}
	return nil
}
