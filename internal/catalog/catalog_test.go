package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dopejs/tmplvars/internal/template"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storeFactory func(t *testing.T) Catalog

func storeFactories() map[string]storeFactory {
	return map[string]storeFactory{
		"memory": func(t *testing.T) Catalog {
			return NewMemoryStore(nil)
		},
		"json": func(t *testing.T) Catalog {
			s := NewFileStore(filepath.Join(t.TempDir(), "template.json"), nil)
			require.NoError(t, s.Load())
			return s
		},
		"yaml": func(t *testing.T) Catalog {
			s := NewFileStore(filepath.Join(t.TempDir(), "template.yaml"), nil)
			require.NoError(t, s.Load())
			return s
		},
		"sqlite": func(t *testing.T) Catalog {
			c, err := Open(BackendSQLite, filepath.Join(t.TempDir(), "template.db"), nil)
			require.NoError(t, err)
			t.Cleanup(func() { c.Close() })
			return c
		},
	}
}

// seed creates E1 = [k1, h1] and E2 = [k3] and returns the internal ids.
func seed(t *testing.T, c Catalog) (e1, e2, v1, v2, v3 string) {
	t.Helper()
	var err error
	e1, err = c.AddEntity(template.Entity{ID: "owner", Name: "Owner"})
	require.NoError(t, err)
	e2, err = c.AddEntity(template.Entity{ID: "cosigner", Name: "Cosigner"})
	require.NoError(t, err)
	v1, err = c.UpsertVariable(e1, "", template.Variable{Type: template.TypeKey, ID: "k1"})
	require.NoError(t, err)
	v2, err = c.UpsertVariable(e1, "", template.Variable{Type: template.TypeHDKey, ID: "h1"})
	require.NoError(t, err)
	v3, err = c.UpsertVariable(e2, "", template.Variable{Type: template.TypeKey, ID: "k3"})
	require.NoError(t, err)
	return
}

func TestCatalogContract(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			t.Run("create appends", func(t *testing.T) {
				c := factory(t)
				e1, _, v1, v2, _ := seed(t, c)
				rec := template.Variable{Type: template.TypeWalletData, ID: "wallet", Name: "Wallet", Description: "signer data"}

				id, err := c.UpsertVariable(e1, "", rec)
				require.NoError(t, err)

				snap, err := c.Snapshot()
				require.NoError(t, err)
				assert.Equal(t, []string{v1, v2, id}, snap.EntitiesByInternalID[e1].VariableInternalIDs)
				assert.Equal(t, rec, *snap.VariablesByInternalID[id])
			})

			t.Run("replace keeps position", func(t *testing.T) {
				c := factory(t)
				e1, _, v1, v2, _ := seed(t, c)
				rec := template.Variable{Type: template.TypeKey, ID: "k1_new", Name: "renamed"}

				id, err := c.UpsertVariable(e1, v1, rec)
				require.NoError(t, err)
				assert.Equal(t, v1, id)

				snap, err := c.Snapshot()
				require.NoError(t, err)
				assert.Equal(t, []string{v1, v2}, snap.EntitiesByInternalID[e1].VariableInternalIDs)
				assert.Equal(t, rec, *snap.VariablesByInternalID[v1])
				assert.Len(t, snap.VariablesByInternalID, 3)
			})

			t.Run("delete removes exactly one", func(t *testing.T) {
				c := factory(t)
				e1, e2, v1, v2, v3 := seed(t, c)

				require.NoError(t, c.DeleteVariable(e1, v1))

				snap, err := c.Snapshot()
				require.NoError(t, err)
				assert.Equal(t, []string{v2}, snap.EntitiesByInternalID[e1].VariableInternalIDs)
				assert.Equal(t, []string{v3}, snap.EntitiesByInternalID[e2].VariableInternalIDs)
				assert.NotContains(t, snap.VariablesByInternalID, v1)
				assert.Len(t, snap.VariablesByInternalID, 2)
			})

			t.Run("delete foreign is noop", func(t *testing.T) {
				c := factory(t)
				e1, e2, v1, v2, v3 := seed(t, c)
				before, err := c.Snapshot()
				require.NoError(t, err)

				require.NoError(t, c.DeleteVariable(e1, v3))
				require.NoError(t, c.DeleteVariable(e1, "missing"))

				after, err := c.Snapshot()
				require.NoError(t, err)
				assert.Equal(t, before, after)
				assert.Equal(t, []string{v1, v2}, after.EntitiesByInternalID[e1].VariableInternalIDs)
				assert.Equal(t, []string{v3}, after.EntitiesByInternalID[e2].VariableInternalIDs)
			})

			t.Run("duplicate id rejected atomically", func(t *testing.T) {
				c := factory(t)
				e1, _, v1, _, _ := seed(t, c)
				before, err := c.Snapshot()
				require.NoError(t, err)

				_, err = c.UpsertVariable(e1, "", template.Variable{Type: template.TypeKey, ID: "k3"})
				assert.True(t, errors.Is(err, template.ErrDuplicateID), "got %v", err)
				_, err = c.UpsertVariable(e1, v1, template.Variable{Type: template.TypeKey, ID: "h1"})
				assert.True(t, errors.Is(err, template.ErrDuplicateID), "got %v", err)

				after, err := c.Snapshot()
				require.NoError(t, err)
				assert.Equal(t, before, after)
			})

			t.Run("unknown entity", func(t *testing.T) {
				c := factory(t)
				_, err := c.UpsertVariable("nope", "", template.Variable{Type: template.TypeKey, ID: "k"})
				assert.ErrorIs(t, err, template.ErrEntityNotFound)
			})

			t.Run("hd key defaults persisted", func(t *testing.T) {
				c := factory(t)
				e1, _, _, v2, _ := seed(t, c)
				snap, err := c.Snapshot()
				require.NoError(t, err)
				assert.Equal(t, template.DefaultPrivateDerivationPath, snap.VariablesByInternalID[v2].PrivateDerivationPath)
				assert.NotEmpty(t, e1)
			})
		})
	}
}

func TestFileStoreReloadPreservesOrder(t *testing.T) {
	for _, name := range []string{"template.json", "template.yml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			s := NewFileStore(path, nil)
			require.NoError(t, s.Load())
			e1, _, v1, v2, _ := seed(t, s)

			s2 := NewFileStore(path, nil)
			require.NoError(t, s2.Load())
			snap, err := s2.Snapshot()
			require.NoError(t, err)
			assert.Equal(t, []string{v1, v2}, snap.EntitiesByInternalID[e1].VariableInternalIDs)
			assert.Equal(t, "k1", snap.VariablesByInternalID[v1].ID)
		})
	}
}

func TestFileStoreSeesExternalWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "template.json")
	a := NewFileStore(path, nil)
	require.NoError(t, a.Load())
	e1, _, _, _, _ := seed(t, a)

	b := NewFileStore(path, nil)
	require.NoError(t, b.Load())
	id, err := b.UpsertVariable(e1, "", template.Variable{Type: template.TypeAddressData, ID: "addr"})
	require.NoError(t, err)

	// Force the mtime check to see b's write.
	a.modTime = a.modTime.Add(-time.Second)
	snap, err := a.Snapshot()
	require.NoError(t, err)
	assert.Contains(t, snap.VariablesByInternalID, id)
}

func TestFileStoreToleratesNullRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "template.json")
	data := `{
  "version": 1,
  "entityOrder": ["e1", "e2"],
  "entitiesByInternalId": {
    "e1": {"id": "owner", "variableInternalIds": ["v1", "v2"]},
    "e2": null
  },
  "variablesByInternalId": {
    "v1": null,
    "v2": {"type": "Key", "id": "k2"}
  }
}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0600))

	s := NewFileStore(path, nil)
	require.NoError(t, s.Load())
	snap, err := s.Snapshot()
	require.NoError(t, err)

	assert.Equal(t, []string{"e1"}, snap.EntityOrder)
	assert.NotContains(t, snap.VariablesByInternalID, "v1")
	assert.Equal(t, []string{"v1", "v2"}, snap.EntitiesByInternalID["e1"].VariableInternalIDs)

	current := CurrentVariables(snap)
	require.Len(t, current, 1)
	assert.Equal(t, "v2", current[0].InternalID)

	// The freed id can be taken again.
	_, err = s.UpsertVariable("e1", "", template.Variable{Type: template.TypeKey, ID: "k1"})
	assert.NoError(t, err)
}

func TestFileStoreRepairsStaleEntityOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "template.json")
	data := `{
  "version": 1,
  "entityOrder": ["e1", "gone"],
  "entitiesByInternalId": {
    "e1": {"id": "owner", "variableInternalIds": ["v1"]},
    "e2": {"id": "cosigner", "variableInternalIds": ["v3"]}
  },
  "variablesByInternalId": {
    "v1": {"type": "Key", "id": "k1"},
    "v3": {"type": "Key", "id": "k3"}
  }
}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0600))

	s := NewFileStore(path, nil)
	require.NoError(t, s.Load())
	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, []string{"e1", "e2"}, snap.EntityOrder)

	_, err = s.UpsertVariable("e1", "v3", template.Variable{Type: template.TypeKey, ID: "hijacked"})
	require.ErrorIs(t, err, template.ErrVariableNotFound)

	snap, err = s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "k3", snap.VariablesByInternalID["v3"].ID)
	assert.Equal(t, []string{"v3"}, snap.EntitiesByInternalID["e2"].VariableInternalIDs)
}

func TestMemoryStoreDeleteLeavesSeedUntouched(t *testing.T) {
	seedTmpl := template.New()
	e1, err := seedTmpl.AddEntity(template.Entity{ID: "owner"})
	require.NoError(t, err)
	v1, err := seedTmpl.UpsertVariable(e1, "", template.Variable{Type: template.TypeKey, ID: "k1"})
	require.NoError(t, err)

	s := NewMemoryStore(seedTmpl)
	before, err := s.Snapshot()
	require.NoError(t, err)

	require.NoError(t, s.DeleteVariable(e1, v1))
	require.NoError(t, s.DeleteVariable(e1, "not-owned"))

	after, err := s.Snapshot()
	require.NoError(t, err)
	assert.Empty(t, after.EntitiesByInternalID[e1].VariableInternalIDs)
	assert.Equal(t, []string{v1}, before.EntitiesByInternalID[e1].VariableInternalIDs)
	assert.Equal(t, []string{v1}, seedTmpl.EntitiesByInternalID[e1].VariableInternalIDs)
}

func TestSQLiteImportRoundTrip(t *testing.T) {
	mem := NewMemoryStore(nil)
	e1, e2, v1, v2, v3 := seed(t, mem)
	src, err := mem.Snapshot()
	require.NoError(t, err)

	s := NewSQLiteStore(nil)
	require.NoError(t, s.Open(":memory:"))
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.InitSchema())
	require.NoError(t, s.Import(src))

	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, []string{e1, e2}, snap.EntityOrder)
	assert.Equal(t, []string{v1, v2}, snap.EntitiesByInternalID[e1].VariableInternalIDs)
	assert.Equal(t, []string{v3}, snap.EntitiesByInternalID[e2].VariableInternalIDs)
}

func TestOpenInfersBackend(t *testing.T) {
	dir := t.TempDir()

	c, err := Open("", filepath.Join(dir, "t.sqlite"), nil)
	require.NoError(t, err)
	defer c.Close()
	assert.IsType(t, &SQLiteStore{}, c)

	c2, err := Open("", filepath.Join(dir, "t.yaml"), nil)
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, c2)

	_, err = Open("postgres", "x", nil)
	assert.Error(t, err)
}

func TestCurrentVariablesAndResolve(t *testing.T) {
	mem := NewMemoryStore(nil)
	e1, e2, v1, v2, v3 := seed(t, mem)
	snap, _ := mem.Snapshot()
	snap.EntitiesByInternalID[e2].VariableInternalIDs = append(snap.EntitiesByInternalID[e2].VariableInternalIDs, "dangling")

	cur := CurrentVariables(snap)
	require.Len(t, cur, 3)
	assert.Equal(t, []string{v1, v2, v3}, []string{cur[0].InternalID, cur[1].InternalID, cur[2].InternalID})
	assert.Equal(t, e2, cur[2].EntityInternalID)

	id, _, err := ResolveEntity(snap, "owner")
	require.NoError(t, err)
	assert.Equal(t, e1, id)
	id, _, err = ResolveEntity(snap, e2)
	require.NoError(t, err)
	assert.Equal(t, e2, id)
	_, _, err = ResolveEntity(snap, "ghost")
	assert.ErrorIs(t, err, template.ErrEntityNotFound)

	vid, v, err := ResolveVariable(snap, e1, "h1")
	require.NoError(t, err)
	assert.Equal(t, v2, vid)
	assert.Equal(t, template.TypeHDKey, v.Type)
	_, _, err = ResolveVariable(snap, e1, "k3")
	assert.ErrorIs(t, err, template.ErrVariableNotFound)
}
