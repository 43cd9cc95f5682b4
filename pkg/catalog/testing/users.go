package testing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kol-dayn/depot/pkg/catalog"
)

// DefaultUser creates a regular user with all capability flags enabled.
func DefaultUser(id int64) *catalog.User {
	return &catalog.User{
		ID:           id,
		Password:     "secret",
		Status:       catalog.StatusDefault,
		Username:     "tester",
		FoldersLimit: catalog.DefaultFolderLimit,
		Addition:     true,
		Download:     true,
		Rename:       true,
		Delete:       true,
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
}

// RunUserTests exercises the users collection contract.
func (suite *StoreTestSuite) RunUserTests(t *testing.T) {
	ctx := context.Background()

	t.Run("CreateAndGet", func(t *testing.T) {
		store := suite.NewStore(t)
		defer store.Close()

		user := DefaultUser(100)
		require.NoError(t, store.CreateUser(ctx, user))

		got, err := store.GetUser(ctx, 100)
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		assert.Equal(t, user.Password, got.Password)
		assert.Equal(t, catalog.StatusDefault, got.Status)
		assert.True(t, got.Addition)
	})

	t.Run("GetMissing", func(t *testing.T) {
		store := suite.NewStore(t)
		defer store.Close()

		_, err := store.GetUser(ctx, 404)
		require.Error(t, err)
		assert.True(t, catalog.IsCode(err, catalog.ErrNotFound))
	})

	t.Run("CreateDuplicateID", func(t *testing.T) {
		store := suite.NewStore(t)
		defer store.Close()

		require.NoError(t, store.CreateUser(ctx, DefaultUser(100)))
		err := store.CreateUser(ctx, DefaultUser(100))
		require.Error(t, err)
		assert.True(t, catalog.IsCode(err, catalog.ErrAlreadyExists))
	})

	t.Run("PutReplacesWholeDocument", func(t *testing.T) {
		store := suite.NewStore(t)
		defer store.Close()

		user := DefaultUser(100)
		require.NoError(t, store.CreateUser(ctx, user))

		user.Status = catalog.StatusAdmin
		user.Authorized = true
		user.Folders = 3
		require.NoError(t, store.PutUser(ctx, user))

		got, err := store.GetUser(ctx, 100)
		require.NoError(t, err)
		assert.Equal(t, catalog.StatusAdmin, got.Status)
		assert.True(t, got.Authorized)
		assert.Equal(t, 3, got.Folders)
	})

	t.Run("PutMissing", func(t *testing.T) {
		store := suite.NewStore(t)
		defer store.Close()

		err := store.PutUser(ctx, DefaultUser(100))
		assert.True(t, catalog.IsCode(err, catalog.ErrNotFound))
	})

	t.Run("Delete", func(t *testing.T) {
		store := suite.NewStore(t)
		defer store.Close()

		require.NoError(t, store.CreateUser(ctx, DefaultUser(100)))
		require.NoError(t, store.DeleteUser(ctx, 100))

		_, err := store.GetUser(ctx, 100)
		assert.True(t, catalog.IsCode(err, catalog.ErrNotFound))

		err = store.DeleteUser(ctx, 100)
		assert.True(t, catalog.IsCode(err, catalog.ErrNotFound))
	})

	t.Run("ListOrderedByID", func(t *testing.T) {
		store := suite.NewStore(t)
		defer store.Close()

		for _, id := range []int64{300, 100, 200} {
			require.NoError(t, store.CreateUser(ctx, DefaultUser(id)))
		}

		users, err := store.ListUsers(ctx)
		require.NoError(t, err)
		require.Len(t, users, 3)
		assert.Equal(t, int64(100), users[0].ID)
		assert.Equal(t, int64(200), users[1].ID)
		assert.Equal(t, int64(300), users[2].ID)
	})
}
