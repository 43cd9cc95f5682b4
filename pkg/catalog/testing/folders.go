package testing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kol-dayn/depot/pkg/catalog"
)

// DefaultFolder creates a public folder owned by the given user.
func DefaultFolder(name string, ownerID int64) *catalog.Folder {
	return &catalog.Folder{
		ID:      uuid.NewString(),
		Name:    name,
		OwnerID: ownerID,
		Status:  catalog.StatusPublic,
		Files:   []catalog.File{},
	}
}

// RunFolderTests exercises the folders collection contract.
func (suite *StoreTestSuite) RunFolderTests(t *testing.T) {
	ctx := context.Background()

	t.Run("CreateAndGet", func(t *testing.T) {
		store := suite.NewStore(t)
		defer store.Close()

		folder := DefaultFolder("docs", 100)
		require.NoError(t, store.CreateFolder(ctx, folder))

		got, err := store.GetFolder(ctx, folder.ID)
		require.NoError(t, err)
		assert.Equal(t, "docs", got.Name)
		assert.Equal(t, int64(100), got.OwnerID)

		byName, err := store.GetFolderByName(ctx, "docs")
		require.NoError(t, err)
		assert.Equal(t, folder.ID, byName.ID)
	})

	t.Run("GetMissing", func(t *testing.T) {
		store := suite.NewStore(t)
		defer store.Close()

		_, err := store.GetFolder(ctx, uuid.NewString())
		assert.True(t, catalog.IsCode(err, catalog.ErrNotFound))

		_, err = store.GetFolderByName(ctx, "nope")
		assert.True(t, catalog.IsCode(err, catalog.ErrNotFound))
	})

	t.Run("PutUpdatesFiles", func(t *testing.T) {
		store := suite.NewStore(t)
		defer store.Close()

		folder := DefaultFolder("docs", 100)
		require.NoError(t, store.CreateFolder(ctx, folder))

		folder.Files = append(folder.Files, catalog.File{ID: uuid.NewString(), Name: "a.txt"})
		require.NoError(t, store.PutFolder(ctx, folder))

		got, err := store.GetFolder(ctx, folder.ID)
		require.NoError(t, err)
		require.Len(t, got.Files, 1)
		assert.Equal(t, "a.txt", got.Files[0].Name)
	})

	t.Run("DeleteFreesName", func(t *testing.T) {
		store := suite.NewStore(t)
		defer store.Close()

		folder := DefaultFolder("docs", 100)
		require.NoError(t, store.CreateFolder(ctx, folder))
		require.NoError(t, store.DeleteFolder(ctx, folder.ID))

		_, err := store.GetFolderByName(ctx, "docs")
		assert.True(t, catalog.IsCode(err, catalog.ErrNotFound))

		// The name is reusable after deletion.
		require.NoError(t, store.CreateFolder(ctx, DefaultFolder("docs", 200)))
	})

	t.Run("ListOrderedByName", func(t *testing.T) {
		store := suite.NewStore(t)
		defer store.Close()

		for _, name := range []string{"zeta", "alpha", "mid"} {
			require.NoError(t, store.CreateFolder(ctx, DefaultFolder(name, 100)))
		}

		folders, err := store.ListFolders(ctx)
		require.NoError(t, err)
		require.Len(t, folders, 3)
		assert.Equal(t, "alpha", folders[0].Name)
		assert.Equal(t, "mid", folders[1].Name)
		assert.Equal(t, "zeta", folders[2].Name)
	})

	t.Run("ReplaceAll", func(t *testing.T) {
		store := suite.NewStore(t)
		defer store.Close()

		require.NoError(t, store.CreateFolder(ctx, DefaultFolder("old", 100)))

		replacement := []catalog.Folder{*DefaultFolder("new-a", 0), *DefaultFolder("new-b", 100)}
		require.NoError(t, store.ReplaceFolders(ctx, replacement))

		_, err := store.GetFolderByName(ctx, "old")
		assert.True(t, catalog.IsCode(err, catalog.ErrNotFound))

		folders, err := store.ListFolders(ctx)
		require.NoError(t, err)
		require.Len(t, folders, 2)
		assert.Equal(t, "new-a", folders[0].Name)
	})
}

// RunFolderNameTests exercises the unique name index, the re-validated
// precondition every mutating folder write depends on.
func (suite *StoreTestSuite) RunFolderNameTests(t *testing.T) {
	ctx := context.Background()

	t.Run("CreateDuplicateName", func(t *testing.T) {
		store := suite.NewStore(t)
		defer store.Close()

		require.NoError(t, store.CreateFolder(ctx, DefaultFolder("docs", 100)))
		err := store.CreateFolder(ctx, DefaultFolder("docs", 200))
		require.Error(t, err)
		assert.True(t, catalog.IsCode(err, catalog.ErrAlreadyExists))
	})

	t.Run("RenameIntoTakenName", func(t *testing.T) {
		store := suite.NewStore(t)
		defer store.Close()

		require.NoError(t, store.CreateFolder(ctx, DefaultFolder("docs", 100)))
		other := DefaultFolder("misc", 100)
		require.NoError(t, store.CreateFolder(ctx, other))

		other.Name = "docs"
		err := store.PutFolder(ctx, other)
		require.Error(t, err)
		assert.True(t, catalog.IsCode(err, catalog.ErrAlreadyExists))

		// The losing write must not have clobbered either folder.
		got, err := store.GetFolderByName(ctx, "misc")
		require.NoError(t, err)
		assert.Equal(t, other.ID, got.ID)
	})

	t.Run("RenameMovesIndex", func(t *testing.T) {
		store := suite.NewStore(t)
		defer store.Close()

		folder := DefaultFolder("docs", 100)
		require.NoError(t, store.CreateFolder(ctx, folder))

		folder.Name = "archive"
		require.NoError(t, store.PutFolder(ctx, folder))

		_, err := store.GetFolderByName(ctx, "docs")
		assert.True(t, catalog.IsCode(err, catalog.ErrNotFound))

		got, err := store.GetFolderByName(ctx, "archive")
		require.NoError(t, err)
		assert.Equal(t, folder.ID, got.ID)
	})

	t.Run("PutKeepingOwnName", func(t *testing.T) {
		store := suite.NewStore(t)
		defer store.Close()

		folder := DefaultFolder("docs", 100)
		require.NoError(t, store.CreateFolder(ctx, folder))

		// Rewriting a folder under its own name is not a collision.
		folder.Status = catalog.StatusPrivate
		require.NoError(t, store.PutFolder(ctx, folder))

		got, err := store.GetFolderByName(ctx, "docs")
		require.NoError(t, err)
		assert.Equal(t, catalog.StatusPrivate, got.Status)
	})

	t.Run("ConcurrentIdenticalCreates", func(t *testing.T) {
		store := suite.NewStore(t)
		defer store.Close()

		const attempts = 8
		results := make(chan error, attempts)
		for i := 0; i < attempts; i++ {
			go func() {
				results <- store.CreateFolder(ctx, DefaultFolder("race", 100))
			}()
		}

		var wins, losses int
		for i := 0; i < attempts; i++ {
			if err := <-results; err == nil {
				wins++
			} else {
				assert.True(t, catalog.IsCode(err, catalog.ErrAlreadyExists))
				losses++
			}
		}
		assert.Equal(t, 1, wins)
		assert.Equal(t, attempts-1, losses)
	})
}

// RunHealthcheckTests exercises Ping.
func (suite *StoreTestSuite) RunHealthcheckTests(t *testing.T) {
	t.Run("Ping", func(t *testing.T) {
		store := suite.NewStore(t)
		defer store.Close()

		assert.NoError(t, store.Ping(context.Background()))
	})
}
