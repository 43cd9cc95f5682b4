package repository

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/kol-dayn/depot/pkg/catalog"
)

// FolderStats summarizes one folder's physical contents.
type FolderStats struct {
	Files      int
	TotalBytes int64
}

// DepotStats summarizes the whole depot.
type DepotStats struct {
	Folders    int
	Files      int
	TotalBytes int64
	Users      int
}

// HumanSize renders a byte count the way the depot displays sizes:
// always at least in KB, then MB, then GB, one decimal place.
func HumanSize(bytes int64) string {
	kb := float64(bytes) / 1024
	if kb < 1024 {
		return fmt.Sprintf("%.1f KB", kb)
	}
	mb := kb / 1024
	if mb < 1024 {
		return fmt.Sprintf("%.1f MB", mb)
	}
	return fmt.Sprintf("%.1f GB", mb/1024)
}

// statDir counts regular files and their total size inside dir. A
// missing or unreadable directory counts as empty.
func statDir(dir string) (files int, bytes int64) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0
	}
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		files++
		if info, err := entry.Info(); err == nil {
			bytes += info.Size()
		}
	}
	return files, bytes
}

// StatFolder measures a folder's physical directory.
func (s *Service) StatFolder(folder *catalog.Folder) FolderStats {
	files, bytes := statDir(s.folderPath(folder.Name))
	return FolderStats{Files: files, TotalBytes: bytes}
}

// FolderCreatedAt returns the folder directory's modification time, the
// closest portable stand-in for a creation date. ok is false when the
// directory is gone.
func (s *Service) FolderCreatedAt(folder *catalog.Folder) (time.Time, bool) {
	info, err := os.Stat(s.folderPath(folder.Name))
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

// StatDepot computes the global statistics shown above the folder list.
// Callers reconcile first; the catalog is trusted for the folder set and
// the disk is measured for file counts and sizes.
func (s *Service) StatDepot(ctx context.Context) (DepotStats, error) {
	folders, err := s.store.ListFolders(ctx)
	if err != nil {
		return DepotStats{}, err
	}
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return DepotStats{}, err
	}

	stats := DepotStats{Folders: len(folders), Users: len(users)}
	for i := range folders {
		files, bytes := statDir(s.folderPath(folders[i].Name))
		stats.Files += files
		stats.TotalBytes += bytes
	}
	return stats, nil
}
