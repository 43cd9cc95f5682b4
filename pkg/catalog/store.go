package catalog

import "context"

// Store is the persistence collaborator for the depot catalog.
//
// It exposes two logical collections: "users" keyed uniquely by actor id
// and "folders" keyed uniquely by folder id with an additional unique
// index on folder name. The depot core issues only whole-document reads,
// unique-key lookups, whole-document replace-style writes and one bulk
// replace-all operation (used by global reconciliation).
//
// Uniqueness is enforced at write time, not by the caller: a second
// concurrent create or rename to an occupied folder name must fail with
// ErrAlreadyExists (first committed write wins). Callers re-validate
// every precondition at write time because user input sits between the
// check and the write.
//
// Thread safety: all implementations are safe for concurrent use.
type Store interface {
	// GetUser returns the user with the given id.
	// Fails with ErrNotFound if no such user exists.
	GetUser(ctx context.Context, id int64) (*User, error)

	// CreateUser inserts a new user document.
	// Fails with ErrAlreadyExists if the id is taken.
	CreateUser(ctx context.Context, user *User) error

	// PutUser replaces the whole user document.
	// Fails with ErrNotFound if the user does not exist.
	PutUser(ctx context.Context, user *User) error

	// DeleteUser removes the user document.
	// Fails with ErrNotFound if the user does not exist.
	DeleteUser(ctx context.Context, id int64) error

	// ListUsers returns all users ordered by id. The order is stable
	// across repeated calls over unmutated data.
	ListUsers(ctx context.Context) ([]User, error)

	// GetFolder returns the folder with the given id.
	// Fails with ErrNotFound if no such folder exists.
	GetFolder(ctx context.Context, id string) (*Folder, error)

	// GetFolderByName returns the folder with the given name.
	// Fails with ErrNotFound if no such folder exists.
	GetFolderByName(ctx context.Context, name string) (*Folder, error)

	// CreateFolder inserts a new folder document.
	// Fails with ErrAlreadyExists if the id or the name is taken.
	CreateFolder(ctx context.Context, folder *Folder) error

	// PutFolder replaces the whole folder document keyed by folder.ID,
	// re-validating name uniqueness against all other folders.
	// Fails with ErrNotFound if the folder does not exist and with
	// ErrAlreadyExists if another folder holds the name.
	PutFolder(ctx context.Context, folder *Folder) error

	// DeleteFolder removes the folder document.
	// Fails with ErrNotFound if the folder does not exist.
	DeleteFolder(ctx context.Context, id string) error

	// ListFolders returns all folders ordered by name.
	ListFolders(ctx context.Context) ([]Folder, error)

	// ReplaceFolders atomically replaces the whole folders collection.
	// Used by global reconciliation, which rebuilds the collection from
	// the filesystem ground truth. Name uniqueness across the new set is
	// the caller's responsibility.
	ReplaceFolders(ctx context.Context, folders []Folder) error

	// Ping verifies the store is reachable. Called once at startup;
	// a failure there is fatal.
	Ping(ctx context.Context) error

	// Close releases store resources.
	Close() error
}
