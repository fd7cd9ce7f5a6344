package inventory_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"charsheet/internal/inventory"
	"charsheet/internal/pkg/async"
	"charsheet/internal/profiles"
	"charsheet/internal/testsupport"
)

func newStore(t *testing.T, kv profiles.Storage) (*inventory.Store, *async.WriteBehind) {
	t.Helper()
	logger := testsupport.GetLogger()
	writer := async.NewWriteBehind(time.Hour, logger)
	t.Cleanup(func() { writer.Close(context.Background()) })
	return inventory.NewStore(kv, writer, logger), writer
}

func TestDefaultItems(t *testing.T) {
	items := inventory.DefaultItems()
	require.Len(t, items, 3)

	names := make([]string, len(items))
	for i, item := range items {
		names[i] = item.Name
		assert.NotEmpty(t, item.ID)
		assert.NotEmpty(t, item.Description)
	}
	assert.Equal(t, []string{"Potion", "Elixir", "Sword"}, names)
}

func TestParseCatalog(t *testing.T) {
	t.Run("valid catalog", func(t *testing.T) {
		items, err := inventory.ParseCatalog(strings.NewReader(`
items:
  - id: rope
    name: Rope
    description: Fifteen meters of hemp rope
`))
		require.NoError(t, err)
		assert.Equal(t, []inventory.Item{{ID: "rope", Name: "Rope", Description: "Fifteen meters of hemp rope"}}, items)
	})

	t.Run("empty document", func(t *testing.T) {
		items, err := inventory.ParseCatalog(strings.NewReader(""))
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		_, err := inventory.ParseCatalog(strings.NewReader("items:\n  - name: Rope\n    weight: 3\n"))
		assert.Error(t, err)
	})

	t.Run("incomplete items are rejected", func(t *testing.T) {
		_, err := inventory.ParseCatalog(strings.NewReader("items:\n  - name: Rope\n"))
		assert.ErrorIs(t, err, inventory.ErrItemIncomplete)
	})
}

func TestItems(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults when nothing is stored", func(t *testing.T) {
		store, _ := newStore(t, testsupport.SetupTestStorage(t))
		assert.Equal(t, inventory.DefaultItems(), store.Items(ctx, profiles.TypePlayer))
	})

	t.Run("legacy key is read", func(t *testing.T) {
		kv := testsupport.SetupTestStorage(t)
		require.NoError(t, kv.Set(ctx, "inventory_jogador",
			`[{"id":"1712","name":"Shield","description":"Wooden shield","image":""}]`))
		store, _ := newStore(t, kv)

		items := store.Items(ctx, profiles.TypePlayer)
		require.Len(t, items, 1)
		assert.Equal(t, "Shield", items[0].Name)
	})

	t.Run("corrupt list falls back to defaults", func(t *testing.T) {
		kv := testsupport.SetupTestStorage(t)
		require.NoError(t, kv.Set(ctx, inventory.Key(profiles.TypePlayer), `[{`))
		store, _ := newStore(t, kv)

		assert.Equal(t, inventory.DefaultItems(), store.Items(ctx, profiles.TypePlayer))
	})
}

func TestAddAndRemoveItem(t *testing.T) {
	ctx := context.Background()
	kv := testsupport.SetupTestStorage(t)
	store, writer := newStore(t, kv)

	added, err := store.AddItem(ctx, profiles.TypePlayer, " Lantern ", "Lights 10 meters", "")
	require.NoError(t, err)
	assert.NotEmpty(t, added.ID)
	assert.Equal(t, "Lantern", added.Name)

	items := store.Items(ctx, profiles.TypePlayer)
	require.Len(t, items, 4)
	assert.Equal(t, added, items[3])

	t.Run("lists are independent per type", func(t *testing.T) {
		assert.Len(t, store.Items(ctx, profiles.TypeGameMaster), 3)
	})

	t.Run("incomplete items are rejected", func(t *testing.T) {
		_, err := store.AddItem(ctx, profiles.TypePlayer, "Lantern", "", "")
		assert.ErrorIs(t, err, inventory.ErrItemIncomplete)
		_, err = store.AddItem(ctx, profiles.TypePlayer, "", "Lights", "")
		assert.ErrorIs(t, err, inventory.ErrItemIncomplete)
		assert.Len(t, store.Items(ctx, profiles.TypePlayer), 4)
	})

	t.Run("survives a restart", func(t *testing.T) {
		require.NoError(t, writer.Flush(ctx))
		reloaded, _ := newStore(t, kv)
		assert.Equal(t, store.Items(ctx, profiles.TypePlayer), reloaded.Items(ctx, profiles.TypePlayer))
	})

	t.Run("remove", func(t *testing.T) {
		assert.True(t, store.RemoveItem(ctx, profiles.TypePlayer, added.ID))
		assert.False(t, store.RemoveItem(ctx, profiles.TypePlayer, added.ID))
		assert.Equal(t, inventory.DefaultItems(), store.Items(ctx, profiles.TypePlayer))
	})
}

func TestReplaceItems(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t, testsupport.SetupTestStorage(t))

	err := store.ReplaceItems(ctx, profiles.TypeGameMaster, []inventory.Item{{ID: "x", Name: "Map", Description: "Old map"}})
	require.NoError(t, err)
	assert.Len(t, store.Items(ctx, profiles.TypeGameMaster), 1)

	err = store.ReplaceItems(ctx, profiles.TypeGameMaster, []inventory.Item{{ID: "y", Name: "Broken"}})
	assert.ErrorIs(t, err, inventory.ErrItemIncomplete)
	assert.Len(t, store.Items(ctx, profiles.TypeGameMaster), 1)
}
