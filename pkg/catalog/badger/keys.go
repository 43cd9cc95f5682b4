package badger

import "encoding/binary"

// Database Key Namespace Design
// ==============================
//
// BadgerDB is a key-value store, so the two catalog collections are laid
// out under prefixed keys:
//
// Data Type        Prefix  Key Format      Value Type
// =========================================================
// User documents   "u:"    u:<id-be64>     User (JSON)
// Folder documents "f:"    f:<uuid>        Folder (JSON)
// Folder name idx  "fn:"   fn:<name>       folder id (bytes)
//
// User ids are encoded as fixed-width big-endian uint64 so that a prefix
// scan over "u:" yields users in ascending id order, which is the listing
// order the engine renders.
//
// The "fn:" entries form the unique name index. Every folder write that
// touches a name goes through a single Badger transaction that checks the
// index and updates it together with the document, so of two racing
// creates or renames to the same name exactly one commits.

const (
	prefixUser       = "u:"
	prefixFolder     = "f:"
	prefixFolderName = "fn:"
)

func keyUser(id int64) []byte {
	key := make([]byte, len(prefixUser)+8)
	copy(key, prefixUser)
	binary.BigEndian.PutUint64(key[len(prefixUser):], uint64(id))
	return key
}

func keyFolder(id string) []byte {
	return []byte(prefixFolder + id)
}

func keyFolderName(name string) []byte {
	return []byte(prefixFolderName + name)
}
