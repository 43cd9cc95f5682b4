// Package repository implements the depot's metadata operations on top of
// the catalog store and the physical root directory.
//
// Every mutating operation re-validates its preconditions against current
// store state before writing: user input sits between any earlier check
// and the write, so a name that was free when the prompt was rendered may
// be taken by the time the reply arrives. Physical filesystem operations
// are ordered strictly before their paired metadata write; if the
// filesystem operation fails the metadata is left untouched.
package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/kol-dayn/depot/internal/logger"
	"github.com/kol-dayn/depot/pkg/catalog"
)

// DefaultMaxUploadBytes caps uploads at 50 MB, matching the Bot API
// document limit the depot inherited.
const DefaultMaxUploadBytes = 50 << 20

// Folder names double as directory names, so the filesystem-reserved
// characters are rejected. Folder creation additionally rejects dots to
// keep hidden and extension-looking directory names out of the root;
// renames (folders and files alike) allow dots, files need them.
const (
	forbiddenCreateChars = `\/:*?"<>|.`
	forbiddenRenameChars = `\/:*?"<>|`
)

// Service coordinates the catalog store with the physical root directory.
type Service struct {
	store catalog.Store
	root  string

	maxUploadBytes int64
}

// Options configures a Service.
type Options struct {
	// Root is the directory holding one subdirectory per folder.
	Root string

	// MaxUploadBytes caps a single upload. 0 applies the default.
	MaxUploadBytes int64
}

// NewService creates a Service, creating the root directory if needed.
func NewService(store catalog.Store, opts Options) (*Service, error) {
	if opts.Root == "" {
		return nil, fmt.Errorf("repository root is required")
	}
	if err := os.MkdirAll(opts.Root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create repository root: %w", err)
	}
	maxUpload := opts.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUploadBytes
	}
	return &Service{store: store, root: opts.Root, maxUploadBytes: maxUpload}, nil
}

// Store exposes the underlying catalog store for read accessors the
// conversation engine uses directly.
func (s *Service) Store() catalog.Store { return s.store }

// MaxUploadBytes returns the upload size cap.
func (s *Service) MaxUploadBytes() int64 { return s.maxUploadBytes }

// folderPath resolves a folder's physical directory.
func (s *Service) folderPath(name string) string {
	return filepath.Join(s.root, name)
}

// filePath resolves a file's physical location. The file name, not the
// file id, is authoritative for physical lookup.
func (s *Service) filePath(folderName, fileName string) string {
	return filepath.Join(s.root, folderName, fileName)
}

func validName(name, forbidden string) bool {
	return name != "" && !strings.ContainsAny(name, forbidden)
}

// CreateFolder validates the name, checks the owner's quota, creates the
// physical directory and inserts the metadata record.
//
// The owner's folder counter is incremented best-effort after the insert;
// a crash between the two writes leaves a drift the system tolerates.
func (s *Service) CreateFolder(ctx context.Context, name string, ownerID int64) (*catalog.Folder, error) {
	if !validName(name, forbiddenCreateChars) {
		return nil, catalog.NewNameError(catalog.ErrInvalidName, "invalid folder name", name)
	}

	owner, err := s.store.GetUser(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if owner.FoldersLimit != 0 && owner.Folders >= owner.FoldersLimit {
		return nil, catalog.NewError(catalog.ErrLimitExceeded, "folder limit reached")
	}

	if _, err := s.store.GetFolderByName(ctx, name); err == nil {
		return nil, catalog.NewNameError(catalog.ErrAlreadyExists, "folder name taken", name)
	} else if !catalog.IsCode(err, catalog.ErrNotFound) {
		return nil, err
	}

	dir := s.folderPath(name)
	// Mkdir, not MkdirAll: the disk is the arbiter between racing creates
	// of the same name, and only the call that made the directory may ever
	// roll it back.
	if err := os.Mkdir(dir, 0o755); err != nil {
		if os.IsExist(err) {
			return nil, catalog.NewNameError(catalog.ErrAlreadyExists, "folder name taken", name)
		}
		return nil, &catalog.DomainError{Code: catalog.ErrIO, Message: err.Error(), Name: name}
	}

	folder := &catalog.Folder{
		ID:      uuid.NewString(),
		Name:    name,
		OwnerID: ownerID,
		Status:  catalog.StatusPublic,
		Files:   []catalog.File{},
	}
	if err := s.store.CreateFolder(ctx, folder); err != nil {
		// A racing create won the name. Drop the directory if we were the
		// ones who just made it (Remove refuses non-empty directories).
		_ = os.Remove(dir)
		return nil, err
	}

	s.adjustOwnerFolders(ctx, ownerID, +1)
	return folder, nil
}

// RenameFolder validates the new name, renames the physical directory and
// then updates the metadata record. The physical rename runs first; a
// failed rename leaves the metadata untouched.
func (s *Service) RenameFolder(ctx context.Context, id, newName string) (*catalog.Folder, error) {
	folder, err := s.store.GetFolder(ctx, id)
	if err != nil {
		return nil, err
	}

	if !validName(newName, forbiddenRenameChars) || newName == folder.Name {
		return nil, catalog.NewNameError(catalog.ErrInvalidName, "invalid folder name", newName)
	}
	if _, err := s.store.GetFolderByName(ctx, newName); err == nil {
		return nil, catalog.NewNameError(catalog.ErrAlreadyExists, "folder name taken", newName)
	} else if !catalog.IsCode(err, catalog.ErrNotFound) {
		return nil, err
	}

	oldPath := s.folderPath(folder.Name)
	newPath := s.folderPath(newName)
	if _, err := os.Stat(oldPath); err != nil {
		return nil, &catalog.DomainError{Code: catalog.ErrIO, Message: "source folder not found", Name: folder.Name}
	}
	if _, err := os.Stat(newPath); err == nil {
		return nil, catalog.NewNameError(catalog.ErrAlreadyExists, "folder name taken", newName)
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		return nil, &catalog.DomainError{Code: catalog.ErrIO, Message: err.Error(), Name: newName}
	}

	oldName := folder.Name
	folder.Name = newName
	if err := s.store.PutFolder(ctx, folder); err != nil {
		// A racing rename committed the name first. Undo the physical
		// rename so directory and metadata stay in step.
		if rbErr := os.Rename(newPath, oldPath); rbErr != nil {
			logger.Error("Failed to roll back directory rename %q -> %q: %v", newName, oldName, rbErr)
		}
		return nil, err
	}
	return folder, nil
}

// DeleteFolder removes the physical directory recursively and, only if
// that succeeds, removes the metadata record and decrements the owner's
// folder counter.
func (s *Service) DeleteFolder(ctx context.Context, id string) error {
	folder, err := s.store.GetFolder(ctx, id)
	if err != nil {
		return err
	}

	dir := s.folderPath(folder.Name)
	if _, err := os.Stat(dir); err != nil {
		return &catalog.DomainError{Code: catalog.ErrIO, Message: "folder directory not found", Name: folder.Name}
	}
	if err := os.RemoveAll(dir); err != nil {
		return &catalog.DomainError{Code: catalog.ErrIO, Message: err.Error(), Name: folder.Name}
	}

	if err := s.store.DeleteFolder(ctx, id); err != nil {
		return err
	}
	if folder.OwnerID != 0 {
		s.adjustOwnerFolders(ctx, folder.OwnerID, -1)
	}
	return nil
}

// SetFolderStatus flips a folder between public and private.
func (s *Service) SetFolderStatus(ctx context.Context, id string, status catalog.FolderStatus) (*catalog.Folder, error) {
	folder, err := s.store.GetFolder(ctx, id)
	if err != nil {
		return nil, err
	}
	folder.Status = status
	if err := s.store.PutFolder(ctx, folder); err != nil {
		return nil, err
	}
	return folder, nil
}

// SetFolderFreeze sets or clears the admin freeze lock.
func (s *Service) SetFolderFreeze(ctx context.Context, id string, freezing bool) (*catalog.Folder, error) {
	folder, err := s.store.GetFolder(ctx, id)
	if err != nil {
		return nil, err
	}
	folder.Freezing = freezing
	if err := s.store.PutFolder(ctx, folder); err != nil {
		return nil, err
	}
	return folder, nil
}

// adjustOwnerFolders shifts the owner's running folder counter. The write
// is best-effort and not transactional with the folder write; failures
// are logged and swallowed.
func (s *Service) adjustOwnerFolders(ctx context.Context, ownerID int64, delta int) {
	user, err := s.store.GetUser(ctx, ownerID)
	if err != nil {
		logger.Warn("Folder counter update skipped for user %d: %v", ownerID, err)
		return
	}
	user.Folders += delta
	if user.Folders < 0 {
		user.Folders = 0
	}
	if err := s.store.PutUser(ctx, user); err != nil {
		logger.Warn("Folder counter update failed for user %d: %v", ownerID, err)
	}
}
