package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kol-dayn/depot/pkg/catalog"
)

func makeUser(id int64, status catalog.UserStatus) *catalog.User {
	return &catalog.User{
		ID:         id,
		Status:     status,
		Authorized: true,
		Addition:   true,
		Download:   true,
		Rename:     true,
		Delete:     true,
	}
}

func makeFolder(ownerID int64) *catalog.Folder {
	return &catalog.Folder{
		ID:      "folder-1",
		Name:    "docs",
		OwnerID: ownerID,
		Status:  catalog.StatusPublic,
	}
}

func TestCheckUnknownAndBannedActors(t *testing.T) {
	folder := makeFolder(100)

	d := Check(nil, folder, ActionReadList, ViaCallback)
	assert.False(t, d.Allowed)

	banned := makeUser(100, catalog.StatusBanned)
	d = Check(banned, folder, ActionReadList, ViaCallback)
	assert.False(t, d.Allowed)

	// Ban wins over everything, ownership included.
	d = Check(banned, folder, ActionDelete, ViaMessage)
	assert.False(t, d.Allowed)
}

func TestCheckLoginRequiredOnlyForMessages(t *testing.T) {
	user := makeUser(100, catalog.StatusDefault)
	user.Authorized = false
	folder := makeFolder(100)

	d := Check(user, folder, ActionReadList, ViaMessage)
	assert.False(t, d.Allowed)

	d = Check(user, folder, ActionReadList, ViaCallback)
	assert.True(t, d.Allowed)
}

func TestCheckFreeze(t *testing.T) {
	owner := makeUser(100, catalog.StatusDefault)
	admin := makeUser(1, catalog.StatusAdmin)
	folder := makeFolder(100)
	folder.Freezing = true

	// Freeze blocks the owner from every mutation.
	for _, action := range []Action{ActionAddFile, ActionRename, ActionDelete, ActionDownload, ActionSetVisibility} {
		d := Check(owner, folder, action, ViaCallback)
		assert.False(t, d.Allowed, "action %d should be frozen", action)
	}

	// Read-list of a frozen public folder is still allowed.
	assert.True(t, Check(owner, folder, ActionReadList, ViaCallback).Allowed)

	// Admin overrides freeze.
	assert.True(t, Check(admin, folder, ActionRename, ViaCallback).Allowed)
}

func TestCheckPrivacy(t *testing.T) {
	owner := makeUser(100, catalog.StatusDefault)
	stranger := makeUser(200, catalog.StatusDefault)
	admin := makeUser(1, catalog.StatusAdmin)

	folder := makeFolder(100)
	folder.Status = catalog.StatusPrivate

	// Non-owner gets nothing, not even the listing.
	assert.False(t, Check(stranger, folder, ActionReadList, ViaCallback).Allowed)
	assert.False(t, Check(stranger, folder, ActionAddFile, ViaCallback).Allowed)

	// Owner and admin pass.
	assert.True(t, Check(owner, folder, ActionReadList, ViaCallback).Allowed)
	assert.True(t, Check(admin, folder, ActionReadList, ViaCallback).Allowed)
}

func TestCheckCapabilityFlags(t *testing.T) {
	folder := makeFolder(100)

	cases := []struct {
		name   string
		strip  func(*catalog.User)
		action Action
	}{
		{"addition", func(u *catalog.User) { u.Addition = false }, ActionAddFile},
		{"download", func(u *catalog.User) { u.Download = false }, ActionDownload},
		{"rename", func(u *catalog.User) { u.Rename = false }, ActionRename},
		{"delete", func(u *catalog.User) { u.Delete = false }, ActionDelete},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// Ownership never overrides a disabled flag.
			owner := makeUser(100, catalog.StatusDefault)
			tc.strip(owner)
			assert.False(t, Check(owner, folder, tc.action, ViaCallback).Allowed)

			// Neither does admin status on the admin's own resource.
			admin := makeUser(100, catalog.StatusAdmin)
			tc.strip(admin)
			assert.False(t, Check(admin, folder, tc.action, ViaCallback).Allowed)
		})
	}
}

func TestCheckOwnerOnlyAndAdminOnlyActions(t *testing.T) {
	owner := makeUser(100, catalog.StatusDefault)
	stranger := makeUser(200, catalog.StatusDefault)
	admin := makeUser(1, catalog.StatusAdmin)
	folder := makeFolder(100)

	assert.True(t, Check(owner, folder, ActionSetVisibility, ViaCallback).Allowed)
	assert.True(t, Check(admin, folder, ActionSetVisibility, ViaCallback).Allowed)
	assert.False(t, Check(stranger, folder, ActionSetVisibility, ViaCallback).Allowed)

	// Freeze-toggle is admin-only regardless of ownership.
	assert.False(t, Check(owner, folder, ActionFreezeToggle, ViaCallback).Allowed)
	assert.True(t, Check(admin, folder, ActionFreezeToggle, ViaCallback).Allowed)
}

func TestCheckIsDeterministic(t *testing.T) {
	user := makeUser(100, catalog.StatusDefault)
	folder := makeFolder(200)
	folder.Status = catalog.StatusPrivate

	first := Check(user, folder, ActionReadList, ViaCallback)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Check(user, folder, ActionReadList, ViaCallback))
	}
}
