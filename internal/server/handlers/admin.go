// Handles admin review of pending members.

package handlers

import (
	"context"
	"errors"

	"github.com/atelierhq/atelier/internal/server/dto"
	"github.com/atelierhq/atelier/internal/storage"
)

// AdminHandler handles member review requests. Routes using it are gated
// behind the admin role by the router.
type AdminHandler struct {
	users    *storage.UserService
	projects *storage.ProjectService
	apps     *storage.ApplicationService
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(users *storage.UserService, projects *storage.ProjectService, apps *storage.ApplicationService) *AdminHandler {
	return &AdminHandler{users: users, projects: projects, apps: apps}
}

// PendingUsers returns all members awaiting review, with their projects.
func (h *AdminHandler) PendingUsers(ctx context.Context, _ *dto.Empty) (*[]*dto.UserResponse, error) {
	pending, err := h.users.ListByStatus(ctx, storage.StatusPending)
	if err != nil {
		return nil, err
	}
	resp := make([]*dto.UserResponse, 0, len(pending))
	for _, u := range pending {
		projects, err := h.projects.ForUser(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		resp = append(resp, userToResponse(u, projects))
	}
	return &resp, nil
}

// Approve marks a pending member as approved and records the review on
// their application, if any.
func (h *AdminHandler) Approve(ctx context.Context, req *dto.UserIDRequest) (*dto.MessageResponse, error) {
	if err := h.users.Approve(ctx, req.ID); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, dto.NotFound("User")
		}
		return nil, err
	}
	h.reviewApplication(ctx, req.ID, storage.ApplicationApproved)
	return &dto.MessageResponse{Message: "User approved successfully"}, nil
}

// Reject removes a member and their projects, and records the review on
// their application, if any.
func (h *AdminHandler) Reject(ctx context.Context, req *dto.UserIDRequest) (*dto.MessageResponse, error) {
	if err := h.users.Reject(ctx, req.ID); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, dto.NotFound("User")
		}
		return nil, err
	}
	h.reviewApplication(ctx, req.ID, storage.ApplicationRejected)
	return &dto.MessageResponse{Message: "User rejected successfully"}, nil
}

// reviewApplication closes the member's pending application. Best-effort:
// the member decision already landed, a missing application row is fine.
func (h *AdminHandler) reviewApplication(ctx context.Context, userID string, status storage.ApplicationStatus) {
	apps, err := h.apps.ForUser(ctx, userID)
	if err != nil {
		return
	}
	for _, app := range apps {
		if app.Status == storage.ApplicationPending {
			_ = h.apps.Review(ctx, app.ID, status)
		}
	}
}
