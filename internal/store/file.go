package store

import (
	"axolotl/internal/domain"
	"axolotl/internal/protocol/session"
)

// FileStore is the on-disk ProtocolStore: identity and trust, pre-keys and
// session records under one home directory.
type FileStore struct {
	*IdentityFileStore
	*PreKeyFileStore
	*SessionFileStore
}

// NewFileStore returns a FileStore rooted at dir.
func NewFileStore(dir string, limits session.Limits) *FileStore {
	return &FileStore{
		IdentityFileStore: NewIdentityFileStore(dir),
		PreKeyFileStore:   NewPreKeyFileStore(dir),
		SessionFileStore:  NewSessionFileStore(dir, limits),
	}
}

// Compile-time assertion that FileStore implements domain.ProtocolStore.
var _ domain.ProtocolStore = (*FileStore)(nil)
