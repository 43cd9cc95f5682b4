// Package memory provides an in-memory catalog.Store implementation.
//
// It is suitable for tests and for ephemeral runs where persistence is
// not required. All operations are protected by a single read-write
// mutex; documents are deep-copied on the way in and out so callers can
// never alias store-internal state.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/kol-dayn/depot/pkg/catalog"
)

// MemoryStore implements catalog.Store using in-memory maps.
type MemoryStore struct {
	mu sync.RWMutex

	// users maps user id to document.
	users map[int64]*catalog.User

	// folders maps folder id to document; folderNames maps folder name
	// to folder id and is the unique name index.
	folders     map[string]*catalog.Folder
	folderNames map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       make(map[int64]*catalog.User),
		folders:     make(map[string]*catalog.Folder),
		folderNames: make(map[string]string),
	}
}

func cloneUser(u *catalog.User) *catalog.User {
	c := *u
	return &c
}

func cloneFolder(f *catalog.Folder) *catalog.Folder {
	c := *f
	c.Files = make([]catalog.File, len(f.Files))
	copy(c.Files, f.Files)
	return &c
}

// GetUser returns the user with the given id.
func (s *MemoryStore) GetUser(ctx context.Context, id int64) (*catalog.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, catalog.NewError(catalog.ErrNotFound, "user not found")
	}
	return cloneUser(u), nil
}

// CreateUser inserts a new user document.
func (s *MemoryStore) CreateUser(ctx context.Context, user *catalog.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; ok {
		return catalog.NewError(catalog.ErrAlreadyExists, "user already exists")
	}
	s.users[user.ID] = cloneUser(user)
	return nil
}

// PutUser replaces the whole user document.
func (s *MemoryStore) PutUser(ctx context.Context, user *catalog.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return catalog.NewError(catalog.ErrNotFound, "user not found")
	}
	s.users[user.ID] = cloneUser(user)
	return nil
}

// DeleteUser removes the user document.
func (s *MemoryStore) DeleteUser(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return catalog.NewError(catalog.ErrNotFound, "user not found")
	}
	delete(s.users, id)
	return nil
}

// ListUsers returns all users ordered by id.
func (s *MemoryStore) ListUsers(ctx context.Context) ([]catalog.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]catalog.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, *cloneUser(u))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

// GetFolder returns the folder with the given id.
func (s *MemoryStore) GetFolder(ctx context.Context, id string) (*catalog.Folder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.folders[id]
	if !ok {
		return nil, catalog.NewError(catalog.ErrNotFound, "folder not found")
	}
	return cloneFolder(f), nil
}

// GetFolderByName returns the folder with the given name.
func (s *MemoryStore) GetFolderByName(ctx context.Context, name string) (*catalog.Folder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.folderNames[name]
	if !ok {
		return nil, catalog.NewError(catalog.ErrNotFound, "folder not found")
	}
	return cloneFolder(s.folders[id]), nil
}

// CreateFolder inserts a new folder document, enforcing name uniqueness.
func (s *MemoryStore) CreateFolder(ctx context.Context, folder *catalog.Folder) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.folders[folder.ID]; ok {
		return catalog.NewError(catalog.ErrAlreadyExists, "folder already exists")
	}
	if _, ok := s.folderNames[folder.Name]; ok {
		return catalog.NewNameError(catalog.ErrAlreadyExists, "folder name taken", folder.Name)
	}
	s.folders[folder.ID] = cloneFolder(folder)
	s.folderNames[folder.Name] = folder.ID
	return nil
}

// PutFolder replaces the whole folder document, re-validating name
// uniqueness against all other folders.
func (s *MemoryStore) PutFolder(ctx context.Context, folder *catalog.Folder) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.folders[folder.ID]
	if !ok {
		return catalog.NewError(catalog.ErrNotFound, "folder not found")
	}
	if otherID, ok := s.folderNames[folder.Name]; ok && otherID != folder.ID {
		return catalog.NewNameError(catalog.ErrAlreadyExists, "folder name taken", folder.Name)
	}
	if old.Name != folder.Name {
		delete(s.folderNames, old.Name)
	}
	s.folders[folder.ID] = cloneFolder(folder)
	s.folderNames[folder.Name] = folder.ID
	return nil
}

// DeleteFolder removes the folder document.
func (s *MemoryStore) DeleteFolder(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.folders[id]
	if !ok {
		return catalog.NewError(catalog.ErrNotFound, "folder not found")
	}
	delete(s.folderNames, f.Name)
	delete(s.folders, id)
	return nil
}

// ListFolders returns all folders ordered by name.
func (s *MemoryStore) ListFolders(ctx context.Context) ([]catalog.Folder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	folders := make([]catalog.Folder, 0, len(s.folders))
	for _, f := range s.folders {
		folders = append(folders, *cloneFolder(f))
	}
	sort.Slice(folders, func(i, j int) bool { return folders[i].Name < folders[j].Name })
	return folders, nil
}

// ReplaceFolders atomically replaces the whole folders collection.
func (s *MemoryStore) ReplaceFolders(ctx context.Context, folders []catalog.Folder) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.folders = make(map[string]*catalog.Folder, len(folders))
	s.folderNames = make(map[string]string, len(folders))
	for i := range folders {
		f := cloneFolder(&folders[i])
		s.folders[f.ID] = f
		s.folderNames[f.Name] = f.ID
	}
	return nil
}

// Ping always succeeds for the in-memory store.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }
