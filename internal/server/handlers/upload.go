// Handles image uploads into per-member asset folders.

package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/atelierhq/atelier/internal/drivestore"
	"github.com/atelierhq/atelier/internal/server/dto"
	"github.com/atelierhq/atelier/internal/server/reqctx"
	"github.com/atelierhq/atelier/internal/storage"
)

// UploadHandler handles multipart image uploads. Unlike the JSON
// endpoints it works on the raw request, so it is mounted as a plain
// handler rather than through the Wrap adapter.
type UploadHandler struct {
	assets   *storage.AssetService
	maxBytes int64
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(assets *storage.AssetService, maxBytes int64) *UploadHandler {
	return &UploadHandler{assets: assets, maxBytes: maxBytes}
}

// Image returns a handler uploading the "image" form field as the given
// image kind for the authenticated member.
func (h *UploadHandler) Image(kind storage.ImageKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		caller := reqctx.CallerIdentity(ctx)
		if caller == nil {
			writeUploadError(w, dto.Unauthorized("Not authenticated"))
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
		file, header, err := r.FormFile("image")
		if err != nil {
			writeUploadError(w, dto.BadRequest("No file uploaded"))
			return
		}
		defer func() {
			_ = file.Close()
		}()

		mimeType := header.Header.Get("Content-Type")
		if !strings.HasPrefix(mimeType, "image/") {
			writeUploadError(w, dto.BadRequest("Only image files are allowed"))
			return
		}

		url, err := h.assets.UploadImage(ctx, caller.UserID, kind, header.Filename, mimeType, file)
		if err != nil {
			slog.ErrorContext(ctx, "Image upload failed", "kind", kind, "user", caller.UserID, "err", err)
			switch {
			case errors.Is(err, storage.ErrUserNotFound):
				writeUploadError(w, dto.NotFound("User"))
			case errors.Is(err, drivestore.ErrNotConfigured):
				writeUploadError(w, dto.BackendUnavailable(err))
			default:
				writeUploadError(w, dto.Internal("Failed to upload image", err))
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(&dto.UploadResponse{URL: url})
	}
}

func writeUploadError(w http.ResponseWriter, apiErr *dto.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.StatusCode())
	_ = json.NewEncoder(w).Encode(&dto.ErrorResponse{
		Error: dto.ErrorDetails{Code: apiErr.Code(), Message: apiErr.Message()},
	})
}
