package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/atelierhq/atelier/internal/drivestore"
)

// ImageKind names the slot an uploaded image fills.
type ImageKind string

// Image kinds.
const (
	ImageProfile ImageKind = "profile"
	ImageBanner  ImageKind = "banner"
	ImageProject ImageKind = "project"
)

// AssetService uploads member images into per-member folders in the
// object store.
type AssetService struct {
	users *UserService
	store *drivestore.Store
}

// NewAssetService creates a new asset service.
func NewAssetService(users *UserService, store *drivestore.Store) *AssetService {
	return &AssetService{users: users, store: store}
}

// UploadImage stores an image for a member and returns its public URL.
// The member's folder is provisioned on first upload. Objects are
// write-once: re-uploading creates a new object with a fresh name.
func (s *AssetService) UploadImage(ctx context.Context, userID string, kind ImageKind, fileName, mimeType string, data io.Reader) (string, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	folderID, err := s.store.EnsureOwnerFolder(ctx, user.ID, user.Name)
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("%s-%d-%s", kind, time.Now().UnixMilli(), fileName)
	return s.store.UploadFile(ctx, data, name, mimeType, folderID)
}

// DeleteImage removes a previously uploaded image by its public URL.
func (s *AssetService) DeleteImage(ctx context.Context, url string) error {
	return s.store.DeleteByURL(ctx, url)
}
