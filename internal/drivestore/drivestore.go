// Package drivestore stores uploaded binary assets in a remote,
// folder-shaped object store, one folder per owner under a fixed root.
//
// Folder provisioning is idempotent: repeated calls for the same owner
// converge on a single folder because the search-else-create sequence runs
// as one critical section per owner key.
package drivestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"

	"github.com/atelierhq/atelier/internal/keylock"
)

// ErrNotConfigured is returned when credentials or the root folder id are
// missing. Operations fail fast instead of crashing the process.
var ErrNotConfigured = errors.New("object store backend is not configured")

// API is the minimal surface needed from the remote object store.
type API interface {
	// FindFolder returns the id of a folder with the given name directly
	// under parent, excluding trashed items, or "" if none exists.
	FindFolder(ctx context.Context, name, parentID string) (string, error)

	// CreateFolder creates a folder under parent and returns its id.
	CreateFolder(ctx context.Context, name, parentID string) (string, error)

	// Upload creates an object under parent and returns its id.
	Upload(ctx context.Context, name, mimeType, parentID string, data io.Reader) (string, error)

	// AllowPublicRead grants anyone read access to the object.
	AllowPublicRead(ctx context.Context, fileID string) error

	// Delete removes the object.
	Delete(ctx context.Context, fileID string) error
}

// Store provisions per-owner folders and uploads assets.
type Store struct {
	api          API
	rootFolderID string
	locks        *keylock.Set
}

// NewStore creates an asset store rooted at rootFolderID. locks serializes
// folder provisioning per owner key; it may be shared with the row store's
// lock set since keys never collide (folder keys embed an underscore-joined
// owner pair, table names do not).
func NewStore(api API, rootFolderID string, locks *keylock.Set) *Store {
	return &Store{api: api, rootFolderID: rootFolderID, locks: locks}
}

// folderKey is the composite key identifying an owner's folder.
func folderKey(ownerID, ownerName string) string {
	return fmt.Sprintf("%s_%s", ownerName, ownerID)
}

// EnsureOwnerFolder returns the id of the owner's folder under the root,
// creating it if absent. Concurrent calls for the same owner return the
// same id; calls for different owners never contend.
func (s *Store) EnsureOwnerFolder(ctx context.Context, ownerID, ownerName string) (string, error) {
	if s.rootFolderID == "" {
		return "", ErrNotConfigured
	}
	name := folderKey(ownerID, ownerName)
	var id string
	err := s.locks.WithLock(ctx, name, func(ctx context.Context) error {
		found, err := s.api.FindFolder(ctx, name, s.rootFolderID)
		if err != nil {
			return err
		}
		if found != "" {
			id = found
			return nil
		}
		created, err := s.api.CreateFolder(ctx, name, s.rootFolderID)
		if err != nil {
			return err
		}
		id = created
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// UploadFile uploads data into the given folder, exposes it for public
// read and returns the public URL. Uploads are write-once and not retried;
// the caller may retry at its discretion.
func (s *Store) UploadFile(ctx context.Context, data io.Reader, name, mimeType, folderID string) (string, error) {
	fileID, err := s.api.Upload(ctx, name, mimeType, folderID, data)
	if err != nil {
		return "", err
	}
	if err := s.api.AllowPublicRead(ctx, fileID); err != nil {
		return "", err
	}
	return PublicURL(fileID), nil
}

// PublicURL derives the public view URL for an object id.
func PublicURL(fileID string) string {
	return "https://drive.google.com/uc?export=view&id=" + fileID
}

var fileIDPattern = regexp.MustCompile(`id=([^&]+)`)

// DeleteByURL removes the object a public URL points at.
func (s *Store) DeleteByURL(ctx context.Context, fileURL string) error {
	m := fileIDPattern.FindStringSubmatch(fileURL)
	if m == nil {
		return fmt.Errorf("not an asset URL: %s", fileURL)
	}
	return s.api.Delete(ctx, m[1])
}
