package kvstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openStores returns both implementations so every contract test runs
// against each.
func openStores(t *testing.T) map[string]Store {
	t.Helper()

	sq, err := OpenSQLite(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sq.Close() })

	return map[string]Store{
		"sqlite": sq,
		"memory": NewMemory(),
	}
}

// TestStore_GetSetDelete covers the basic contract for both backends.
func TestStore_GetSetDelete(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := s.Get("missing")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.Set("k", []byte("v1")))
			data, ok, err := s.Get("k")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, []byte("v1"), data)

			// Upsert replaces
			require.NoError(t, s.Set("k", []byte("v2")))
			data, _, err = s.Get("k")
			require.NoError(t, err)
			assert.Equal(t, []byte("v2"), data)

			require.NoError(t, s.Delete("k"))
			_, ok, err = s.Get("k")
			require.NoError(t, err)
			assert.False(t, ok)

			// Deleting a missing key is not an error
			require.NoError(t, s.Delete("k"))
		})
	}
}

// TestSQLite_SurvivesReopen state must outlive the process.
func TestSQLite_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(KeySessionID, []byte(`"sess-1"`)))
	require.NoError(t, s.Close())

	s2, err := OpenSQLite(path)
	require.NoError(t, err)
	defer s2.Close()

	data, ok, err := s2.Get(KeySessionID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte(`"sess-1"`), data)
}

// TestJSONHelpers round-trips typed state through a store.
func TestJSONHelpers(t *testing.T) {
	s := NewMemory()

	type state struct {
		UserID string `json:"user_id"`
		Count  int    `json:"count"`
	}

	ok, err := LoadJSON(s, "st", &state{})
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, SaveJSON(s, "st", state{UserID: "u1", Count: 3}))

	var got state
	ok, err = LoadJSON(s, "st", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, state{UserID: "u1", Count: 3}, got)
}

// TestKeyNamespacing per-campaign keys must not collide.
func TestKeyNamespacing(t *testing.T) {
	assert.NotEqual(t, ImpressionsKey("a"), ImpressionsKey("b"))
	assert.NotEqual(t, ImpressionsKey("a"), HideUntilKey("a"))
}
