package badger

import (
	"encoding/json"
	"fmt"

	"github.com/kol-dayn/depot/pkg/catalog"
)

// Documents are stored as JSON. The catalog holds at most thousands of
// small documents, so debuggability wins over encoding speed; the badger
// CLI can dump any value and get something readable.

func encodeUser(u *catalog.User) ([]byte, error) {
	data, err := json.Marshal(u)
	if err != nil {
		return nil, fmt.Errorf("failed to encode user %d: %w", u.ID, err)
	}
	return data, nil
}

func decodeUser(data []byte) (*catalog.User, error) {
	var u catalog.User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	return &u, nil
}

func encodeFolder(f *catalog.Folder) ([]byte, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("failed to encode folder %s: %w", f.ID, err)
	}
	return data, nil
}

func decodeFolder(data []byte) (*catalog.Folder, error) {
	var f catalog.Folder
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode folder: %w", err)
	}
	return &f, nil
}
