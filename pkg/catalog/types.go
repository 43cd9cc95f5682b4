// Package catalog defines the persistent data model of the depot: users,
// folders and the file metadata embedded in folders, together with the
// Store interface both persistence implementations satisfy.
//
// The catalog is deliberately dumb storage. Business rules (name
// validation, quotas, capability checks, filesystem ordering) live in
// pkg/repository and pkg/access; the catalog only enforces the two
// structural invariants it owns: user ids are unique and folder names are
// unique across the whole collection.
package catalog

import "time"

// UserStatus is the role of a user in the depot.
type UserStatus string

const (
	// StatusDefault is a regular user.
	StatusDefault UserStatus = "default"

	// StatusAdmin bypasses freeze and privacy checks and may manage users.
	StatusAdmin UserStatus = "admin"

	// StatusBanned is denied everything, including login.
	StatusBanned UserStatus = "banned"
)

// FolderStatus is the visibility of a folder.
type FolderStatus string

const (
	// StatusPublic folders are visible and writable to every user
	// (subject to freeze and per-user capability flags).
	StatusPublic FolderStatus = "public"

	// StatusPrivate folders are only accessible to the owner and admins.
	StatusPrivate FolderStatus = "private"
)

// DefaultFolderLimit is the folder quota assigned to newly created users
// and restored when an admin is demoted. 0 means unlimited.
const DefaultFolderLimit = 10

// User is a depot account.
//
// Folders is a running counter of folders owned by the user, maintained
// incrementally on folder create/delete. It is deliberately not recomputed
// from the folders collection; a crash between the folder write and the
// counter write leaves an accepted, documented drift.
type User struct {
	// ID is the stable numeric actor key, unique across the collection.
	ID int64 `json:"id"`

	// Password is an opaque credential compared byte-for-byte.
	Password string `json:"password"`

	// Status is one of default, admin, banned.
	Status UserStatus `json:"status"`

	// Authorized is the session-login flag. It survives restarts of the
	// depot process (it lives in the user document) but is cleared on
	// logout and on failed login.
	Authorized bool `json:"authorized"`

	// Username is a display name with no uniqueness requirement.
	Username string `json:"username"`

	// Folders counts folders currently owned by this user.
	Folders int `json:"folders"`

	// FoldersLimit caps folder creation. 0 means unlimited.
	FoldersLimit int `json:"folders_limit"`

	// The four capability flags gate one action class each. They apply to
	// non-admin actors only: promoting a user to admin resets them to true.
	Addition bool `json:"addition"`
	Download bool `json:"download"`
	Rename   bool `json:"rename"`
	Delete   bool `json:"delete"`

	// CreatedAt is when the account was added.
	CreatedAt time.Time `json:"created_at"`
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool { return u.Status == StatusAdmin }

// IsBanned reports whether the user is blocked.
func (u *User) IsBanned() bool { return u.Status == StatusBanned }

// File is the metadata entry for one regular file inside a folder.
//
// Name is authoritative for physical lookup (root/folderName/Name); ID is
// authoritative for stable reference across renames.
type File struct {
	// ID is an opaque identifier, stable across renames.
	ID string `json:"id"`

	// Name is unique within the owning folder.
	Name string `json:"name"`

	// CreatedAt is when the file was uploaded. Zero for files discovered
	// on disk during reconciliation.
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Folder is a named, owned, visibility-scoped container mapping to one
// physical directory directly under the depot root.
type Folder struct {
	// ID is an opaque stable identifier. The name is not used as the
	// identifier because it is mutable.
	ID string `json:"id"`

	// Name is unique across all folders at any instant and doubles as the
	// physical directory name, so renames rename the directory.
	Name string `json:"name"`

	// OwnerID is the creating user, or 0 for folders discovered directly
	// on the filesystem with no recorded owner.
	OwnerID int64 `json:"owner_id"`

	// Status is public or private.
	Status FolderStatus `json:"status"`

	// Freezing is an admin-only lock preventing mutation by non-admins.
	Freezing bool `json:"freezing"`

	// Files holds the metadata catalog in insertion order. After
	// reconciliation it matches the set of regular files physically
	// present in the folder's directory.
	Files []File `json:"files"`
}

// FileByID returns the file entry with the given id, or nil.
func (f *Folder) FileByID(id string) *File {
	for i := range f.Files {
		if f.Files[i].ID == id {
			return &f.Files[i]
		}
	}
	return nil
}

// FileByName returns the file entry with the given name, or nil.
func (f *Folder) FileByName(name string) *File {
	for i := range f.Files {
		if f.Files[i].Name == name {
			return &f.Files[i]
		}
	}
	return nil
}
