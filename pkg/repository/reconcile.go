package repository

import (
	"context"
	"os"

	"github.com/google/uuid"

	"github.com/kol-dayn/depot/internal/logger"
	"github.com/kol-dayn/depot/pkg/catalog"
)

// The directory tree is the ground truth for file existence: uploads and
// deletes through the conversation can race with out-of-band filesystem
// changes (scp, cron jobs, manual cleanup). Reconciliation reconverges
// the catalog onto what is physically there and runs before any listing
// or management view is rendered and before global statistics are
// computed.

// listRegularFiles returns the names of regular files directly inside
// dir. A missing directory yields an empty list and ok=false.
func listRegularFiles(dir string) (names map[string]bool, ok bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, false
	}
	names = make(map[string]bool, len(entries))
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			names[entry.Name()] = true
		}
	}
	return names, true
}

// reconcileFiles corrects folder.Files against the physical directory:
// metadata entries whose file is gone are dropped, duplicate names keep
// their first entry, and untracked physical files get freshly minted
// metadata. Returns whether anything changed.
func (s *Service) reconcileFiles(folder *catalog.Folder) bool {
	onDisk, ok := listRegularFiles(s.folderPath(folder.Name))
	if !ok {
		changed := len(folder.Files) > 0
		folder.Files = []catalog.File{}
		return changed
	}

	changed := false
	seen := make(map[string]bool, len(folder.Files))
	kept := make([]catalog.File, 0, len(folder.Files))
	for _, file := range folder.Files {
		if !onDisk[file.Name] || seen[file.Name] {
			changed = true
			continue
		}
		seen[file.Name] = true
		kept = append(kept, file)
	}

	for name := range onDisk {
		if !seen[name] {
			kept = append(kept, catalog.File{ID: uuid.NewString(), Name: name})
			changed = true
		}
	}

	folder.Files = kept
	return changed
}

// ReconcileFolder synchronizes one folder's metadata catalog with its
// physical directory and persists the correction when anything drifted.
// The corrected folder is returned either way.
func (s *Service) ReconcileFolder(ctx context.Context, folder *catalog.Folder) (*catalog.Folder, error) {
	if !s.reconcileFiles(folder) {
		return folder, nil
	}
	if err := s.store.PutFolder(ctx, folder); err != nil {
		// A concurrent writer replaced the document under us; the caller
		// still gets the view that matches the disk.
		logger.Warn("Failed to persist reconciliation of folder %q: %v", folder.Name, err)
	}
	return folder, nil
}

// GetFolder returns the folder with the given id, reconciled.
func (s *Service) GetFolder(ctx context.Context, id string) (*catalog.Folder, error) {
	folder, err := s.store.GetFolder(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.ReconcileFolder(ctx, folder)
}

// ReconcileAll reconverges the whole catalog with the root directory:
// physical subdirectories with no catalog entry are adopted as ownerless
// public folders, catalog folders whose directory is gone are dropped,
// and every surviving folder's file list is corrected.
func (s *Service) ReconcileAll(ctx context.Context) error {
	folders, err := s.store.ListFolders(ctx)
	if err != nil {
		return err
	}

	known := make(map[string]bool, len(folders))
	for i := range folders {
		known[folders[i].Name] = true
	}

	entries, err := os.ReadDir(s.root)
	if err != nil {
		return &catalog.DomainError{Code: catalog.ErrIO, Message: err.Error()}
	}
	onDisk := make(map[string]bool, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		onDisk[entry.Name()] = true
		if !known[entry.Name()] {
			folders = append(folders, catalog.Folder{
				ID:     uuid.NewString(),
				Name:   entry.Name(),
				Status: catalog.StatusPublic,
				Files:  []catalog.File{},
			})
			logger.Info("Adopted untracked folder from filesystem: %s", entry.Name())
		}
	}

	valid := folders[:0]
	for i := range folders {
		folder := &folders[i]
		if !onDisk[folder.Name] {
			logger.Info("Dropped catalog folder with no directory: %s", folder.Name)
			continue
		}
		s.reconcileFiles(folder)
		valid = append(valid, *folder)
	}

	return s.store.ReplaceFolders(ctx, valid)
}
