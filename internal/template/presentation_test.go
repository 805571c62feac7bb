package template

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIconAndInitialDescriptionCoverKnownTypes(t *testing.T) {
	icons := make(map[string]VariableType)
	for _, typ := range VariableTypes {
		icon, err := Icon(typ)
		require.NoError(t, err, typ)
		assert.NotEmpty(t, icon, typ)
		if prev, ok := icons[icon]; ok {
			t.Errorf("icon %q shared by %s and %s", icon, prev, typ)
		}
		icons[icon] = typ

		desc, err := InitialDescription(typ)
		require.NoError(t, err, typ)
		assert.Equal(t, "", desc)
	}
	assert.Len(t, VariableTypes, 6)
}

func TestUnknownTypeFails(t *testing.T) {
	for _, typ := range []VariableType{"", "Script", "key", "HdKey"} {
		_, err := Icon(typ)
		assert.True(t, errors.Is(err, ErrUnhandledVariant), "Icon(%q) = %v", typ, err)

		_, err = InitialDescription(typ)
		assert.True(t, errors.Is(err, ErrUnhandledVariant), "InitialDescription(%q) = %v", typ, err)

		assert.False(t, typ.Known())
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name string
		v    Variable
		want string
	}{
		{"block height ignores name", Variable{Type: TypeCurrentBlockHeight, Name: "anything"}, "Current Block Height"},
		{"block height empty name", Variable{Type: TypeCurrentBlockHeight}, "Current Block Height"},
		{"block time ignores name", Variable{Type: TypeCurrentBlockTime, Name: "clock"}, "Current Block Time"},
		{"key uses name", Variable{Type: TypeKey, Name: "myKey"}, "myKey"},
		{"hd key empty name", Variable{Type: TypeHDKey}, ""},
		{"wallet data", Variable{Type: TypeWalletData, Name: "Owner Data"}, "Owner Data"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayName(tt.v))
		})
	}
}

func TestDisplayNameDoesNotMutate(t *testing.T) {
	v := Variable{Type: TypeCurrentBlockHeight, Name: "stored"}
	_ = DisplayName(v)
	assert.Equal(t, "stored", v.Name)
}
