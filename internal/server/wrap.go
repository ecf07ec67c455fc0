// Package server implements the HTTP router and the middleware that
// standardizes handlers.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/atelierhq/atelier/internal/drivestore"
	"github.com/atelierhq/atelier/internal/keylock"
	"github.com/atelierhq/atelier/internal/server/dto"
	"github.com/atelierhq/atelier/internal/sheetdb"
	"google.golang.org/api/googleapi"
)

// HandlerFunc is the shape of a JSON API handler: typed request in, typed
// response out.
type HandlerFunc[In, Out any] func(ctx context.Context, req *In) (*Out, error)

// Wrap adapts a typed handler to http.Handler. It decodes the JSON body
// into In, applies path parameters when In implements dto.RequestParser,
// and encodes Out or the mapped error envelope.
func Wrap[In, Out any](fn HandlerFunc[In, Out]) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		req := new(In)

		if r.Body != nil && r.Method != http.MethodGet {
			body, err := io.ReadAll(r.Body)
			if err != nil {
				writeError(ctx, w, dto.BadRequest("Failed to read request body"))
				return
			}
			if len(body) > 0 {
				if err := json.Unmarshal(body, req); err != nil {
					writeError(ctx, w, dto.BadRequest("Invalid JSON body"))
					return
				}
			}
		}
		if p, ok := any(req).(dto.RequestParser); ok {
			if err := p.FromRequest(r); err != nil {
				writeError(ctx, w, err)
				return
			}
		}

		resp, err := fn(ctx, req)
		if err != nil {
			writeError(ctx, w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			slog.ErrorContext(ctx, "Failed to encode response", "err", err)
		}
	})
}

// writeError maps an error to the JSON error envelope. Storage sentinels
// get their taxonomy status; anything unrecognized is an internal error
// whose detail stays in the log, not the response.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	apiErr := toAPIError(err)
	if apiErr.StatusCode() >= http.StatusInternalServerError {
		slog.ErrorContext(ctx, "Request failed", "code", apiErr.Code(), "err", err)
	} else {
		slog.DebugContext(ctx, "Request rejected", "code", apiErr.Code(), "err", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.StatusCode())
	_ = json.NewEncoder(w).Encode(&dto.ErrorResponse{
		Error: dto.ErrorDetails{Code: apiErr.Code(), Message: apiErr.Message()},
	})
}

func toAPIError(err error) *dto.APIError {
	var apiErr *dto.APIError
	var googleErr *googleapi.Error
	var netErr *url.Error
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, sheetdb.ErrNotConfigured), errors.Is(err, drivestore.ErrNotConfigured):
		return dto.BackendUnavailable(err)
	case errors.Is(err, keylock.ErrLockTimeout):
		return dto.LockBusy(err)
	case errors.As(err, &googleErr), errors.As(err, &netErr):
		// A failed remote call means the backing store is unreachable,
		// not that the request was wrong.
		return dto.BackendUnavailable(err)
	default:
		return dto.Internal("Internal server error", err)
	}
}
