package badger

import (
	"context"
	"sort"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/kol-dayn/depot/pkg/catalog"
)

func getFolderTxn(txn *badger.Txn, id string) (*catalog.Folder, error) {
	item, err := txn.Get(keyFolder(id))
	if err == badger.ErrKeyNotFound {
		return nil, catalog.NewError(catalog.ErrNotFound, "folder not found")
	}
	if err != nil {
		return nil, err
	}
	var folder *catalog.Folder
	err = item.Value(func(val []byte) error {
		folder, err = decodeFolder(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return folder, nil
}

// GetFolder returns the folder with the given id.
func (s *BadgerStore) GetFolder(ctx context.Context, id string) (*catalog.Folder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var folder *catalog.Folder
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		folder, err = getFolderTxn(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return folder, nil
}

// GetFolderByName resolves the unique name index and returns the folder.
func (s *BadgerStore) GetFolderByName(ctx context.Context, name string) (*catalog.Folder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var folder *catalog.Folder
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyFolderName(name))
		if err == badger.ErrKeyNotFound {
			return catalog.NewError(catalog.ErrNotFound, "folder not found")
		}
		if err != nil {
			return err
		}
		var id string
		if err := item.Value(func(val []byte) error {
			id = string(val)
			return nil
		}); err != nil {
			return err
		}
		folder, err = getFolderTxn(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return folder, nil
}

// CreateFolder inserts a new folder document and its name index entry in
// one transaction, enforcing both id and name uniqueness.
func (s *BadgerStore) CreateFolder(ctx context.Context, folder *catalog.Folder) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.update(func(txn *badger.Txn) error {
		if _, err := txn.Get(keyFolder(folder.ID)); err == nil {
			return catalog.NewError(catalog.ErrAlreadyExists, "folder already exists")
		} else if err != badger.ErrKeyNotFound {
			return err
		}
		if _, err := txn.Get(keyFolderName(folder.Name)); err == nil {
			return catalog.NewNameError(catalog.ErrAlreadyExists, "folder name taken", folder.Name)
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		data, err := encodeFolder(folder)
		if err != nil {
			return err
		}
		if err := txn.Set(keyFolder(folder.ID), data); err != nil {
			return err
		}
		return txn.Set(keyFolderName(folder.Name), []byte(folder.ID))
	})
}

// PutFolder replaces the whole folder document, moving the name index
// entry when the folder was renamed. Name uniqueness is re-validated
// inside the transaction regardless of what the caller checked earlier.
func (s *BadgerStore) PutFolder(ctx context.Context, folder *catalog.Folder) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.update(func(txn *badger.Txn) error {
		old, err := getFolderTxn(txn, folder.ID)
		if err != nil {
			return err
		}

		if item, err := txn.Get(keyFolderName(folder.Name)); err == nil {
			var holder string
			if err := item.Value(func(val []byte) error {
				holder = string(val)
				return nil
			}); err != nil {
				return err
			}
			if holder != folder.ID {
				return catalog.NewNameError(catalog.ErrAlreadyExists, "folder name taken", folder.Name)
			}
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		data, err := encodeFolder(folder)
		if err != nil {
			return err
		}
		if err := txn.Set(keyFolder(folder.ID), data); err != nil {
			return err
		}
		if old.Name != folder.Name {
			if err := txn.Delete(keyFolderName(old.Name)); err != nil {
				return err
			}
		}
		return txn.Set(keyFolderName(folder.Name), []byte(folder.ID))
	})
}

// DeleteFolder removes the folder document and its name index entry.
func (s *BadgerStore) DeleteFolder(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.update(func(txn *badger.Txn) error {
		folder, err := getFolderTxn(txn, id)
		if err != nil {
			return err
		}
		if err := txn.Delete(keyFolderName(folder.Name)); err != nil {
			return err
		}
		return txn.Delete(keyFolder(id))
	})
}

// ListFolders returns all folders ordered by name.
func (s *BadgerStore) ListFolders(ctx context.Context) ([]catalog.Folder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var folders []catalog.Folder
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixFolder)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			// "f:" and "fn:" are disjoint prefixes, so everything here
			// is a folder document.
			err := it.Item().Value(func(val []byte) error {
				f, err := decodeFolder(val)
				if err != nil {
					return err
				}
				folders = append(folders, *f)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(folders, func(i, j int) bool { return folders[i].Name < folders[j].Name })
	return folders, nil
}

// ReplaceFolders atomically replaces the whole folders collection.
//
// Badger transactions have a size ceiling, but the catalog holds at most
// a few thousand small documents, far below it.
func (s *BadgerStore) ReplaceFolders(ctx context.Context, folders []catalog.Folder) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.update(func(txn *badger.Txn) error {
		// Drop every existing folder document and name index entry.
		for _, prefix := range []string{prefixFolder, prefixFolderName} {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = []byte(prefix)
			opts.PrefetchValues = false
			it := txn.NewIterator(opts)
			var keys [][]byte
			for it.Rewind(); it.Valid(); it.Next() {
				keys = append(keys, it.Item().KeyCopy(nil))
			}
			it.Close()
			for _, key := range keys {
				if err := txn.Delete(key); err != nil {
					return err
				}
			}
		}

		for i := range folders {
			f := &folders[i]
			data, err := encodeFolder(f)
			if err != nil {
				return err
			}
			if err := txn.Set(keyFolder(f.ID), data); err != nil {
				return err
			}
			if err := txn.Set(keyFolderName(f.Name), []byte(f.ID)); err != nil {
				return err
			}
		}
		return nil
	})
}
