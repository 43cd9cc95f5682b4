package repository

import (
	"context"
	"time"

	"github.com/kol-dayn/depot/pkg/catalog"
)

// Capability names one of the four per-user action toggles.
type Capability int

const (
	CapabilityAddition Capability = iota
	CapabilityDownload
	CapabilityRename
	CapabilityDelete
)

// MaxFolderLimit bounds the per-user folder quota an admin can set.
const MaxFolderLimit = 1000

// Authenticate checks the password and persists the session-login flag.
// A wrong password clears the flag and fails with ErrAccessDenied; a
// banned user is refused outright.
func (s *Service) Authenticate(ctx context.Context, id int64, password string) (*catalog.User, error) {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.IsBanned() {
		return nil, catalog.NewError(catalog.ErrAccessDenied, "no access")
	}

	if user.Password != password {
		user.Authorized = false
		if err := s.store.PutUser(ctx, user); err != nil {
			return nil, err
		}
		return nil, catalog.NewError(catalog.ErrAccessDenied, "wrong password")
	}

	user.Authorized = true
	if err := s.store.PutUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Logout clears the session-login flag.
func (s *Service) Logout(ctx context.Context, id int64) error {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return err
	}
	user.Authorized = false
	return s.store.PutUser(ctx, user)
}

// AddUser creates a regular account with all capability flags enabled
// and the default folder quota.
func (s *Service) AddUser(ctx context.Context, id int64, password, username string) (*catalog.User, error) {
	user := &catalog.User{
		ID:           id,
		Password:     password,
		Status:       catalog.StatusDefault,
		Username:     username,
		FoldersLimit: catalog.DefaultFolderLimit,
		Addition:     true,
		Download:     true,
		Rename:       true,
		Delete:       true,
		CreatedAt:    time.Now(),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// AddAdmin creates an admin account with no folder quota. Used by the
// bootstrap step that seeds the first user.
func (s *Service) AddAdmin(ctx context.Context, id int64, password, username string) (*catalog.User, error) {
	user := &catalog.User{
		ID:        id,
		Password:  password,
		Status:    catalog.StatusAdmin,
		Username:  username,
		Addition:  true,
		Download:  true,
		Rename:    true,
		Delete:    true,
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SetPassword replaces a user's credential.
func (s *Service) SetPassword(ctx context.Context, id int64, password string) (*catalog.User, error) {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Password = password
	if err := s.store.PutUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ToggleAdmin promotes a regular user to admin or demotes an admin back
// to a regular user. Promotion re-enables all four capability flags and
// lifts the folder quota; demotion restores the default quota.
func (s *Service) ToggleAdmin(ctx context.Context, id int64) (*catalog.User, error) {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if user.IsAdmin() {
		user.Status = catalog.StatusDefault
		user.FoldersLimit = catalog.DefaultFolderLimit
	} else {
		user.Status = catalog.StatusAdmin
		user.Addition = true
		user.Download = true
		user.Rename = true
		user.Delete = true
		user.FoldersLimit = 0
	}

	if err := s.store.PutUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SetBlocked bans or unbans a user.
func (s *Service) SetBlocked(ctx context.Context, id int64, blocked bool) (*catalog.User, error) {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if blocked {
		user.Status = catalog.StatusBanned
	} else {
		user.Status = catalog.StatusDefault
	}
	if err := s.store.PutUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ToggleCapability flips one of the four capability flags. Admin rights
// cannot be narrowed this way.
func (s *Service) ToggleCapability(ctx context.Context, id int64, capability Capability) (*catalog.User, error) {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.IsAdmin() {
		return nil, catalog.NewError(catalog.ErrAccessDenied, "cannot change admin rights")
	}

	switch capability {
	case CapabilityAddition:
		user.Addition = !user.Addition
	case CapabilityDownload:
		user.Download = !user.Download
	case CapabilityRename:
		user.Rename = !user.Rename
	case CapabilityDelete:
		user.Delete = !user.Delete
	}

	if err := s.store.PutUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SetFolderLimit sets a user's folder quota; 0 means unlimited. Admin
// quotas cannot be set this way.
func (s *Service) SetFolderLimit(ctx context.Context, id int64, limit int) (*catalog.User, error) {
	if limit < 0 || limit > MaxFolderLimit {
		return nil, catalog.NewError(catalog.ErrInvalidName, "invalid folder limit")
	}

	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.IsAdmin() {
		return nil, catalog.NewError(catalog.ErrAccessDenied, "cannot change admin rights")
	}
	user.FoldersLimit = limit
	if err := s.store.PutUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser removes a user from the catalog. Folders they own survive
// as before; only the account goes away.
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	return s.store.DeleteUser(ctx, id)
}
