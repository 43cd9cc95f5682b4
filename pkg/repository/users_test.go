package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kol-dayn/depot/pkg/catalog"
)

func TestAddUserDefaults(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	user, err := svc.AddUser(ctx, 100, "secret", "alice")
	require.NoError(t, err)
	assert.Equal(t, catalog.StatusDefault, user.Status)
	assert.False(t, user.Authorized)
	assert.Equal(t, catalog.DefaultFolderLimit, user.FoldersLimit)
	assert.True(t, user.Addition)
	assert.True(t, user.Download)
	assert.True(t, user.Rename)
	assert.True(t, user.Delete)

	_, err = svc.AddUser(ctx, 100, "other", "alice2")
	assert.True(t, catalog.IsCode(err, catalog.ErrAlreadyExists))

	_ = store
}

func TestAddAdmin(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	admin, err := svc.AddAdmin(ctx, 1, "root", "boss")
	require.NoError(t, err)
	assert.Equal(t, catalog.StatusAdmin, admin.Status)
	assert.Equal(t, 0, admin.FoldersLimit)
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	_, err := svc.AddUser(ctx, 100, "secret", "alice")
	require.NoError(t, err)

	user, err := svc.Authenticate(ctx, 100, "secret")
	require.NoError(t, err)
	assert.True(t, user.Authorized)

	// Wrong password both fails and revokes the session.
	_, err = svc.Authenticate(ctx, 100, "nope")
	assert.True(t, catalog.IsCode(err, catalog.ErrAccessDenied))
	stored, err := store.GetUser(ctx, 100)
	require.NoError(t, err)
	assert.False(t, stored.Authorized)

	_, err = svc.Authenticate(ctx, 999, "whatever")
	assert.True(t, catalog.IsCode(err, catalog.ErrNotFound))
}

func TestAuthenticateBanned(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	_, err := svc.AddUser(ctx, 100, "secret", "alice")
	require.NoError(t, err)
	_, err = svc.SetBlocked(ctx, 100, true)
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, 100, "secret")
	assert.True(t, catalog.IsCode(err, catalog.ErrAccessDenied))
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	_, err := svc.AddUser(ctx, 100, "secret", "alice")
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, 100, "secret")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, 100))
	stored, err := store.GetUser(ctx, 100)
	require.NoError(t, err)
	assert.False(t, stored.Authorized)
}

func TestToggleAdmin(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	_, err := svc.AddUser(ctx, 100, "secret", "alice")
	require.NoError(t, err)

	// Hobble the user first, promotion must reset everything.
	_, err = svc.ToggleCapability(ctx, 100, CapabilityDelete)
	require.NoError(t, err)
	_, err = svc.SetFolderLimit(ctx, 100, 3)
	require.NoError(t, err)

	promoted, err := svc.ToggleAdmin(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, catalog.StatusAdmin, promoted.Status)
	assert.True(t, promoted.Delete)
	assert.Equal(t, 0, promoted.FoldersLimit)

	demoted, err := svc.ToggleAdmin(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, catalog.StatusDefault, demoted.Status)
	assert.Equal(t, catalog.DefaultFolderLimit, demoted.FoldersLimit)
}

func TestToggleCapability(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	_, err := svc.AddUser(ctx, 100, "secret", "alice")
	require.NoError(t, err)

	user, err := svc.ToggleCapability(ctx, 100, CapabilityDownload)
	require.NoError(t, err)
	assert.False(t, user.Download)
	user, err = svc.ToggleCapability(ctx, 100, CapabilityDownload)
	require.NoError(t, err)
	assert.True(t, user.Download)

	// Administrator rights are not adjustable per flag.
	_, err = svc.AddAdmin(ctx, 1, "root", "boss")
	require.NoError(t, err)
	_, err = svc.ToggleCapability(ctx, 1, CapabilityDownload)
	assert.True(t, catalog.IsCode(err, catalog.ErrAccessDenied))
}

func TestSetFolderLimit(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	_, err := svc.AddUser(ctx, 100, "secret", "alice")
	require.NoError(t, err)

	user, err := svc.SetFolderLimit(ctx, 100, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, user.FoldersLimit)

	user, err = svc.SetFolderLimit(ctx, 100, MaxFolderLimit)
	require.NoError(t, err)
	assert.Equal(t, MaxFolderLimit, user.FoldersLimit)

	_, err = svc.SetFolderLimit(ctx, 100, MaxFolderLimit+1)
	assert.True(t, catalog.IsCode(err, catalog.ErrInvalidName))
	_, err = svc.SetFolderLimit(ctx, 100, -1)
	assert.True(t, catalog.IsCode(err, catalog.ErrInvalidName))

	_, err = svc.AddAdmin(ctx, 1, "root", "boss")
	require.NoError(t, err)
	_, err = svc.SetFolderLimit(ctx, 1, 5)
	assert.True(t, catalog.IsCode(err, catalog.ErrAccessDenied))
}

func TestSetPassword(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	_, err := svc.AddUser(ctx, 100, "secret", "alice")
	require.NoError(t, err)

	_, err = svc.SetPassword(ctx, 100, "rotated")
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, 100, "secret")
	assert.True(t, catalog.IsCode(err, catalog.ErrAccessDenied))
	_, err = svc.Authenticate(ctx, 100, "rotated")
	require.NoError(t, err)
}

func TestDeleteUser(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	_, err := svc.AddUser(ctx, 100, "secret", "alice")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteUser(ctx, 100))
	_, err = store.GetUser(ctx, 100)
	assert.True(t, catalog.IsCode(err, catalog.ErrNotFound))

	err = svc.DeleteUser(ctx, 100)
	assert.True(t, catalog.IsCode(err, catalog.ErrNotFound))
}
