package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/atelierhq/atelier/internal/keylock"
	"github.com/atelierhq/atelier/internal/server/dto"
	"github.com/atelierhq/atelier/internal/sheetdb"
	"google.golang.org/api/googleapi"
)

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   dto.ErrorCode
	}{
		{
			"api error passthrough",
			dto.NotFound("User"),
			http.StatusNotFound, dto.ErrorCodeNotFound,
		},
		{
			"wrapped api error",
			fmt.Errorf("lookup: %w", dto.Forbidden("nope")),
			http.StatusForbidden, dto.ErrorCodeForbidden,
		},
		{
			"store not configured",
			fmt.Errorf("get users: %w", sheetdb.ErrNotConfigured),
			http.StatusServiceUnavailable, dto.ErrorCodeBackendUnavailable,
		},
		{
			"lock timeout",
			fmt.Errorf("append row: %w", keylock.ErrLockTimeout),
			http.StatusServiceUnavailable, dto.ErrorCodeLockBusy,
		},
		{
			"remote api failure",
			fmt.Errorf("failed to get values from users: %w",
				&googleapi.Error{Code: http.StatusInternalServerError, Message: "backendError"}),
			http.StatusServiceUnavailable, dto.ErrorCodeBackendUnavailable,
		},
		{
			"transport failure",
			fmt.Errorf("failed to append row to users: %w",
				&url.Error{Op: "Post", URL: "https://sheets.googleapis.com", Err: errors.New("connection refused")}),
			http.StatusServiceUnavailable, dto.ErrorCodeBackendUnavailable,
		},
		{
			"anything else",
			errors.New("boom"),
			http.StatusInternalServerError, dto.ErrorCodeInternal,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := toAPIError(tc.err)
			if got.StatusCode() != tc.status {
				t.Errorf("status: got %d, want %d", got.StatusCode(), tc.status)
			}
			if got.Code() != tc.code {
				t.Errorf("code: got %q, want %q", got.Code(), tc.code)
			}
		})
	}
}
