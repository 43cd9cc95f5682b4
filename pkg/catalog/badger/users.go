package badger

import (
	"context"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/kol-dayn/depot/pkg/catalog"
)

// GetUser returns the user with the given id.
func (s *BadgerStore) GetUser(ctx context.Context, id int64) (*catalog.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var user *catalog.User
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyUser(id))
		if err == badger.ErrKeyNotFound {
			return catalog.NewError(catalog.ErrNotFound, "user not found")
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			user, err = decodeUser(val)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// CreateUser inserts a new user document, enforcing id uniqueness.
func (s *BadgerStore) CreateUser(ctx context.Context, user *catalog.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.update(func(txn *badger.Txn) error {
		key := keyUser(user.ID)
		if _, err := txn.Get(key); err == nil {
			return catalog.NewError(catalog.ErrAlreadyExists, "user already exists")
		} else if err != badger.ErrKeyNotFound {
			return err
		}
		data, err := encodeUser(user)
		if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
}

// PutUser replaces the whole user document.
func (s *BadgerStore) PutUser(ctx context.Context, user *catalog.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.update(func(txn *badger.Txn) error {
		key := keyUser(user.ID)
		if _, err := txn.Get(key); err == badger.ErrKeyNotFound {
			return catalog.NewError(catalog.ErrNotFound, "user not found")
		} else if err != nil {
			return err
		}
		data, err := encodeUser(user)
		if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
}

// DeleteUser removes the user document.
func (s *BadgerStore) DeleteUser(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.update(func(txn *badger.Txn) error {
		key := keyUser(id)
		if _, err := txn.Get(key); err == badger.ErrKeyNotFound {
			return catalog.NewError(catalog.ErrNotFound, "user not found")
		} else if err != nil {
			return err
		}
		return txn.Delete(key)
	})
}

// ListUsers returns all users ordered by id. The big-endian key encoding
// makes the prefix scan yield ascending ids without a sort.
func (s *BadgerStore) ListUsers(ctx context.Context) ([]catalog.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var users []catalog.User
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixUser)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				u, err := decodeUser(val)
				if err != nil {
					return err
				}
				users = append(users, *u)
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
	return users, nil
}
