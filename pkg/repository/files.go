package repository

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/kol-dayn/depot/pkg/catalog"
)

// AddFile streams an upload into the folder's directory and appends a
// fresh metadata entry. The physical write completes before the metadata
// write starts; if the metadata write fails the file is removed again.
//
// size is the declared length of content. Oversized uploads are rejected
// before anything is written; the stream is additionally clamped while
// copying in case the declaration was wrong.
func (s *Service) AddFile(ctx context.Context, folderID, name string, content io.Reader, size int64) (*catalog.File, error) {
	if size > s.maxUploadBytes {
		return nil, catalog.NewNameError(catalog.ErrLimitExceeded, "file is too big", name)
	}

	folder, err := s.store.GetFolder(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if !validName(name, forbiddenRenameChars) {
		return nil, catalog.NewNameError(catalog.ErrInvalidName, "invalid file name", name)
	}

	dir := s.folderPath(folder.Name)
	if _, err := os.Stat(dir); err != nil {
		return nil, &catalog.DomainError{Code: catalog.ErrIO, Message: "folder directory not found", Name: folder.Name}
	}

	path := s.filePath(folder.Name, name)
	// O_EXCL makes the disk the duplicate-name arbiter: a file that exists
	// physically is a duplicate even if its metadata entry is missing.
	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, catalog.NewNameError(catalog.ErrAlreadyExists, "file already exists", name)
		}
		return nil, &catalog.DomainError{Code: catalog.ErrIO, Message: err.Error(), Name: name}
	}

	written, err := io.Copy(dst, io.LimitReader(content, s.maxUploadBytes+1))
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err == nil && written > s.maxUploadBytes {
		err = catalog.NewNameError(catalog.ErrLimitExceeded, "file is too big", name)
	}
	if err != nil {
		_ = os.Remove(path)
		if _, ok := err.(*catalog.DomainError); ok {
			return nil, err
		}
		return nil, &catalog.DomainError{Code: catalog.ErrIO, Message: err.Error(), Name: name}
	}

	file := catalog.File{ID: uuid.NewString(), Name: name, CreatedAt: time.Now()}
	folder.Files = append(folder.Files, file)
	if err := s.store.PutFolder(ctx, folder); err != nil {
		_ = os.Remove(path)
		return nil, err
	}
	return &file, nil
}

// RenameFile renames the physical file and then updates its metadata
// entry. When the new name carries no extension and the old one did, the
// old extension is kept.
func (s *Service) RenameFile(ctx context.Context, folderID, fileID, newName string) (*catalog.File, error) {
	folder, err := s.store.GetFolder(ctx, folderID)
	if err != nil {
		return nil, err
	}
	file := folder.FileByID(fileID)
	if file == nil {
		return nil, catalog.NewError(catalog.ErrNotFound, "file not found")
	}

	oldPath := s.filePath(folder.Name, file.Name)
	if _, err := os.Stat(oldPath); err != nil {
		return nil, catalog.NewNameError(catalog.ErrNotFound, "file already deleted", file.Name)
	}

	if oldExt := filepath.Ext(file.Name); oldExt != "" && filepath.Ext(newName) == "" {
		newName += oldExt
	}
	if !validName(newName, forbiddenRenameChars) || newName == file.Name {
		return nil, catalog.NewNameError(catalog.ErrInvalidName, "invalid file name", newName)
	}

	newPath := s.filePath(folder.Name, newName)
	if _, err := os.Stat(newPath); err == nil {
		return nil, catalog.NewNameError(catalog.ErrAlreadyExists, "file name taken", newName)
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		return nil, &catalog.DomainError{Code: catalog.ErrIO, Message: err.Error(), Name: newName}
	}

	file.Name = newName
	if err := s.store.PutFolder(ctx, folder); err != nil {
		return nil, err
	}
	renamed := *file
	return &renamed, nil
}

// DeleteFile removes the physical file and, only if that succeeds, drops
// its metadata entry.
func (s *Service) DeleteFile(ctx context.Context, folderID, fileID string) error {
	folder, err := s.store.GetFolder(ctx, folderID)
	if err != nil {
		return err
	}
	file := folder.FileByID(fileID)
	if file == nil {
		return catalog.NewError(catalog.ErrNotFound, "file not found")
	}

	path := s.filePath(folder.Name, file.Name)
	if _, err := os.Stat(path); err != nil {
		return catalog.NewNameError(catalog.ErrNotFound, "file already deleted", file.Name)
	}
	if err := os.Remove(path); err != nil {
		return &catalog.DomainError{Code: catalog.ErrIO, Message: err.Error(), Name: file.Name}
	}

	kept := folder.Files[:0]
	for _, f := range folder.Files {
		if f.ID != fileID {
			kept = append(kept, f)
		}
	}
	folder.Files = kept
	return s.store.PutFolder(ctx, folder)
}

// OpenFile opens a file's content for download, returning the metadata
// entry alongside the handle. The caller closes the file.
func (s *Service) OpenFile(ctx context.Context, folderID, fileID string) (*os.File, *catalog.File, error) {
	folder, err := s.store.GetFolder(ctx, folderID)
	if err != nil {
		return nil, nil, err
	}
	file := folder.FileByID(fileID)
	if file == nil {
		return nil, nil, catalog.NewError(catalog.ErrNotFound, "file not found")
	}

	handle, err := os.Open(s.filePath(folder.Name, file.Name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, catalog.NewNameError(catalog.ErrNotFound, "file already deleted", file.Name)
		}
		return nil, nil, &catalog.DomainError{Code: catalog.ErrIO, Message: err.Error(), Name: file.Name}
	}
	found := *file
	return handle, &found, nil
}

// FileLocation resolves a file's physical path for transports that stream
// the content themselves. The file is not checked for existence.
func (s *Service) FileLocation(folderName, fileName string) string {
	return s.filePath(folderName, fileName)
}
