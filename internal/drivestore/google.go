// Google Drive implementation of the object store API.

package drivestore

import (
	"context"
	"fmt"
	"io"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
)

const folderMimeType = "application/vnd.google-apps.folder"

// GoogleDrive implements API against the Google Drive v3 API.
type GoogleDrive struct {
	svc *drive.Service
}

// NewGoogleDrive wraps svc. svc may be nil when the deployment is not
// configured; every call then fails with ErrNotConfigured.
func NewGoogleDrive(svc *drive.Service) *GoogleDrive {
	return &GoogleDrive{svc: svc}
}

func (g *GoogleDrive) configured() error {
	if g.svc == nil {
		return ErrNotConfigured
	}
	return nil
}

// FindFolder searches for a non-trashed folder by exact name under parent.
func (g *GoogleDrive) FindFolder(ctx context.Context, name, parentID string) (string, error) {
	if err := g.configured(); err != nil {
		return "", err
	}
	q := fmt.Sprintf("name='%s' and '%s' in parents and mimeType='%s' and trashed=false",
		escapeQuery(name), parentID, folderMimeType)
	resp, err := g.svc.Files.List().Q(q).Fields("files(id, name)").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to search for folder %s: %w", name, err)
	}
	if len(resp.Files) == 0 {
		return "", nil
	}
	return resp.Files[0].Id, nil
}

// CreateFolder creates a folder under parent.
func (g *GoogleDrive) CreateFolder(ctx context.Context, name, parentID string) (string, error) {
	if err := g.configured(); err != nil {
		return "", err
	}
	f, err := g.svc.Files.Create(&drive.File{
		Name:     name,
		MimeType: folderMimeType,
		Parents:  []string{parentID},
	}).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create folder %s: %w", name, err)
	}
	return f.Id, nil
}

// Upload creates an object under parent from data.
func (g *GoogleDrive) Upload(ctx context.Context, name, mimeType, parentID string, data io.Reader) (string, error) {
	if err := g.configured(); err != nil {
		return "", err
	}
	f, err := g.svc.Files.Create(&drive.File{
		Name:    name,
		Parents: []string{parentID},
	}).Media(data, googleapi.ContentType(mimeType)).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to upload %s (%s): %w", name, mimeType, err)
	}
	return f.Id, nil
}

// AllowPublicRead grants anyone read access to the object.
func (g *GoogleDrive) AllowPublicRead(ctx context.Context, fileID string) error {
	if err := g.configured(); err != nil {
		return err
	}
	_, err := g.svc.Permissions.Create(fileID, &drive.Permission{
		Role: "reader",
		Type: "anyone",
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to grant public read on %s: %w", fileID, err)
	}
	return nil
}

// Delete removes the object.
func (g *GoogleDrive) Delete(ctx context.Context, fileID string) error {
	if err := g.configured(); err != nil {
		return err
	}
	if err := g.svc.Files.Delete(fileID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to delete file %s: %w", fileID, err)
	}
	return nil
}

// escapeQuery escapes single quotes in Drive query string literals.
func escapeQuery(s string) string {
	return strings.ReplaceAll(s, `'`, `\'`)
}
