package template

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scenarioTemplate builds E1 = [v1, v2] and E2 = [v3].
func scenarioTemplate() *Template {
	t := New()
	t.EntityOrder = []string{"e1", "e2"}
	t.EntitiesByInternalID["e1"] = &Entity{ID: "owner", VariableInternalIDs: []string{"v1", "v2"}}
	t.EntitiesByInternalID["e2"] = &Entity{ID: "cosigner", VariableInternalIDs: []string{"v3"}}
	t.VariablesByInternalID["v1"] = &Variable{Type: TypeKey, ID: "k1"}
	t.VariablesByInternalID["v2"] = &Variable{Type: TypeHDKey, ID: "h1"}
	t.VariablesByInternalID["v3"] = &Variable{Type: TypeKey, ID: "k3"}
	return t
}

func TestDeleteVariableScenario(t *testing.T) {
	tmpl := scenarioTemplate()

	require.True(t, tmpl.DeleteVariable("e1", "v1"))

	assert.Equal(t, []string{"v2"}, tmpl.EntitiesByInternalID["e1"].VariableInternalIDs)
	assert.NotContains(t, tmpl.VariablesByInternalID, "v1")
	assert.Contains(t, tmpl.VariablesByInternalID, "v2")
	assert.Equal(t, []string{"v3"}, tmpl.EntitiesByInternalID["e2"].VariableInternalIDs)
}

func TestDeleteVariablePreservesOrder(t *testing.T) {
	tmpl := scenarioTemplate()
	for _, id := range []string{"v4", "v5"} {
		tmpl.VariablesByInternalID[id] = &Variable{Type: TypeKey, ID: "id_" + id}
		tmpl.EntitiesByInternalID["e1"].VariableInternalIDs = append(tmpl.EntitiesByInternalID["e1"].VariableInternalIDs, id)
	}

	require.True(t, tmpl.DeleteVariable("e1", "v2"))
	assert.Equal(t, []string{"v1", "v4", "v5"}, tmpl.EntitiesByInternalID["e1"].VariableInternalIDs)
	assert.Len(t, tmpl.VariablesByInternalID, 4)
}

func TestDeleteVariableNotOwnedIsNoop(t *testing.T) {
	tmpl := scenarioTemplate()

	assert.False(t, tmpl.DeleteVariable("e1", "v3"))
	assert.False(t, tmpl.DeleteVariable("missing", "v1"))
	assert.False(t, tmpl.DeleteVariable("e1", "nope"))

	assert.Equal(t, scenarioTemplate(), tmpl)
}

func TestUpsertVariableCreateAppends(t *testing.T) {
	tmpl := scenarioTemplate()
	rec := Variable{Type: TypeAddressData, ID: "addr", Name: "Address"}

	id, err := tmpl.UpsertVariable("e1", "", rec)
	require.NoError(t, err)

	list := tmpl.EntitiesByInternalID["e1"].VariableInternalIDs
	require.Len(t, list, 3)
	assert.Equal(t, id, list[2])
	assert.NotContains(t, []string{"v1", "v2", "v3"}, id)
	assert.Equal(t, rec, *tmpl.VariablesByInternalID[id])
}

func TestUpsertVariableReplaceKeepsPosition(t *testing.T) {
	tmpl := scenarioTemplate()
	rec := Variable{Type: TypeKey, ID: "k1_renamed", Name: "Renamed"}

	id, err := tmpl.UpsertVariable("e1", "v1", rec)
	require.NoError(t, err)
	assert.Equal(t, "v1", id)
	assert.Equal(t, []string{"v1", "v2"}, tmpl.EntitiesByInternalID["e1"].VariableInternalIDs)
	assert.Equal(t, rec, *tmpl.VariablesByInternalID["v1"])
	assert.Equal(t, "h1", tmpl.VariablesByInternalID["v2"].ID)
}

func TestUpsertVariableKeepsOwnIDOnReplace(t *testing.T) {
	tmpl := scenarioTemplate()
	_, err := tmpl.UpsertVariable("e1", "v1", Variable{Type: TypeKey, ID: "k1", Name: "Same id"})
	require.NoError(t, err)
}

func TestUpsertVariableErrors(t *testing.T) {
	tests := []struct {
		name       string
		entity     string
		internalID string
		v          Variable
		want       error
	}{
		{"duplicate on create", "e1", "", Variable{Type: TypeKey, ID: "k3"}, ErrDuplicateID},
		{"duplicate on replace", "e1", "v1", Variable{Type: TypeKey, ID: "h1"}, ErrDuplicateID},
		{"empty id", "e1", "", Variable{Type: TypeKey}, ErrInvalidID},
		{"bad id", "e1", "", Variable{Type: TypeKey, ID: "1key"}, ErrInvalidID},
		{"unknown type", "e1", "", Variable{Type: "Script", ID: "s"}, ErrUnhandledVariant},
		{"unknown entity", "e9", "", Variable{Type: TypeKey, ID: "x"}, ErrEntityNotFound},
		{"unknown variable", "e1", "v9", Variable{Type: TypeKey, ID: "x"}, ErrVariableNotFound},
		{"other entity's variable", "e1", "v3", Variable{Type: TypeKey, ID: "x"}, ErrVariableNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl := scenarioTemplate()
			_, err := tmpl.UpsertVariable(tt.entity, tt.internalID, tt.v)
			assert.True(t, errors.Is(err, tt.want), "got %v, want %v", err, tt.want)
			assert.Equal(t, scenarioTemplate(), tmpl)
		})
	}
}

func TestUpsertVariableStaleEntityOrder(t *testing.T) {
	tmpl := scenarioTemplate()
	tmpl.EntityOrder = []string{"e1", "gone"}

	_, err := tmpl.UpsertVariable("e1", "v3", Variable{Type: TypeKey, ID: "hijacked"})
	require.ErrorIs(t, err, ErrVariableNotFound)
	assert.Equal(t, "k3", tmpl.VariablesByInternalID["v3"].ID)

	owner, ok := tmpl.OwnerOf("v3")
	assert.True(t, ok)
	assert.Equal(t, "e2", owner)
}

func TestDropNullRecords(t *testing.T) {
	tmpl := scenarioTemplate()
	tmpl.VariablesByInternalID["v2"] = nil
	tmpl.EntitiesByInternalID["e3"] = nil

	entities, variables := tmpl.DropNullRecords()
	assert.Equal(t, 1, entities)
	assert.Equal(t, 1, variables)
	assert.NotContains(t, tmpl.VariablesByInternalID, "v2")
	assert.NotContains(t, tmpl.EntitiesByInternalID, "e3")
	assert.Equal(t, []string{"v1", "v2"}, tmpl.EntitiesByInternalID["e1"].VariableInternalIDs)
}

func TestCloneSkipsNullRecords(t *testing.T) {
	tmpl := scenarioTemplate()
	tmpl.VariablesByInternalID["v2"] = nil
	tmpl.EntitiesByInternalID["e3"] = nil

	c := tmpl.Clone()
	assert.NotContains(t, c.VariablesByInternalID, "v2")
	assert.NotContains(t, c.EntitiesByInternalID, "e3")
	assert.NoError(t, c.CheckUnique("fresh", ""))
}

func TestUpsertCaseSensitiveUniqueness(t *testing.T) {
	tmpl := scenarioTemplate()
	_, err := tmpl.UpsertVariable("e1", "", Variable{Type: TypeKey, ID: "K1"})
	assert.NoError(t, err)
}

func TestNormalizeHDKeyDefaults(t *testing.T) {
	v := Variable{Type: TypeHDKey, ID: "h"}.Normalize()
	assert.Equal(t, DefaultHDPublicKeyDerivationPath, v.HDPublicKeyDerivationPath)
	assert.Equal(t, DefaultPrivateDerivationPath, v.PrivateDerivationPath)
	assert.Equal(t, DefaultPublicDerivationPath, v.PublicDerivationPath)

	k := Variable{Type: TypeKey, ID: "k", AddressOffset: 3, PrivateDerivationPath: "m/0"}.Normalize()
	assert.Zero(t, k.AddressOffset)
	assert.Empty(t, k.PrivateDerivationPath)
}

func TestCloneIsDeep(t *testing.T) {
	tmpl := scenarioTemplate()
	c := tmpl.Clone()

	c.EntitiesByInternalID["e1"].VariableInternalIDs[0] = "changed"
	c.VariablesByInternalID["v2"].ID = "changed"

	assert.Equal(t, "v1", tmpl.EntitiesByInternalID["e1"].VariableInternalIDs[0])
	assert.Equal(t, "h1", tmpl.VariablesByInternalID["v2"].ID)
}

func TestAddEntity(t *testing.T) {
	tmpl := New()
	id, err := tmpl.AddEntity(Entity{ID: "owner", Name: "Owner"})
	require.NoError(t, err)
	assert.Equal(t, []string{id}, tmpl.EntityOrder)
	assert.NotNil(t, tmpl.EntitiesByInternalID[id].VariableInternalIDs)

	_, err = tmpl.AddEntity(Entity{ID: "owner"})
	assert.ErrorIs(t, err, ErrDuplicateID)
	_, err = tmpl.AddEntity(Entity{ID: "two words"})
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestOrderedEntityIDs(t *testing.T) {
	tmpl := scenarioTemplate()
	tmpl.EntitiesByInternalID["e0"] = &Entity{ID: "stray"}
	tmpl.EntityOrder = append(tmpl.EntityOrder, "gone")

	assert.Equal(t, []string{"e1", "e2", "e0"}, tmpl.OrderedEntityIDs())
}
