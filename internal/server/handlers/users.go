// Handles member profiles and the public works listing.

package handlers

import (
	"context"
	"errors"

	"github.com/atelierhq/atelier/internal/server/dto"
	"github.com/atelierhq/atelier/internal/server/reqctx"
	"github.com/atelierhq/atelier/internal/storage"
)

// UserHandler handles member profile requests.
type UserHandler struct {
	users    *storage.UserService
	projects *storage.ProjectService
	apps     *storage.ApplicationService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(users *storage.UserService, projects *storage.ProjectService, apps *storage.ApplicationService) *UserHandler {
	return &UserHandler{users: users, projects: projects, apps: apps}
}

// List returns all approved members with their projects.
func (h *UserHandler) List(ctx context.Context, _ *dto.Empty) (*[]*dto.UserResponse, error) {
	users, err := h.users.ListByStatus(ctx, storage.StatusApproved)
	if err != nil {
		return nil, err
	}
	resp := make([]*dto.UserResponse, 0, len(users))
	for _, u := range users {
		projects, err := h.projects.ForUser(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		resp = append(resp, userToResponse(u, projects))
	}
	return &resp, nil
}

// Get returns one member with their projects.
func (h *UserHandler) Get(ctx context.Context, req *dto.UserIDRequest) (*dto.UserResponse, error) {
	user, err := h.users.Get(ctx, req.ID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, dto.NotFound("User")
		}
		return nil, err
	}
	projects, err := h.projects.ForUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return userToResponse(user, projects), nil
}

func profileUpdate(req *dto.UpdateProfileRequest) storage.ProfileUpdate {
	upd := storage.ProfileUpdate{
		Name:         req.Name,
		Tagline:      req.Tagline,
		Bio:          req.Bio,
		TechStack:    req.TechStack,
		ProfileImage: req.ProfileImage,
		BannerImage:  req.BannerImage,
		Availability: req.Availability,
		Rate:         req.Rate,
		Experience:   req.Experience,
	}
	if req.Socials != nil {
		upd.GitHub = &req.Socials.GitHub
		upd.LinkedIn = &req.Socials.LinkedIn
		upd.Portfolio = &req.Socials.Portfolio
	}
	return upd
}

// Update applies a partial profile update. Members may only update their
// own profile; admins may update anyone's.
func (h *UserHandler) Update(ctx context.Context, req *dto.UpdateUserRequest) (*dto.MessageResponse, error) {
	caller := reqctx.CallerIdentity(ctx)
	if caller == nil {
		return nil, dto.Unauthorized("Not authenticated")
	}
	if caller.UserID != req.UserID && !caller.IsAdmin() {
		return nil, dto.Forbidden("Cannot update another member's profile")
	}

	if err := h.users.UpdateProfile(ctx, req.UserID, profileUpdate(&req.UpdateProfileRequest)); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, dto.NotFound("User")
		}
		return nil, err
	}
	return &dto.MessageResponse{Message: "Profile updated successfully"}, nil
}

// CompleteOnboarding fills in the member's profile, records their
// portfolio projects and queues the member for admin review.
func (h *UserHandler) CompleteOnboarding(ctx context.Context, req *dto.CompleteOnboardingRequest) (*dto.MessageResponse, error) {
	caller := reqctx.CallerIdentity(ctx)
	if caller == nil {
		return nil, dto.Unauthorized("Not authenticated")
	}
	if caller.UserID != req.UserID {
		return nil, dto.Forbidden("Cannot complete another member's onboarding")
	}

	upd := storage.ProfileUpdate{
		Tagline:      &req.Tagline,
		Bio:          &req.Bio,
		TechStack:    &req.TechStack,
		ProfileImage: &req.ProfileImage,
		BannerImage:  &req.BannerImage,
		Availability: &req.Availability,
		Rate:         &req.Rate,
		Experience:   &req.Experience,
		GitHub:       &req.Socials.GitHub,
		LinkedIn:     &req.Socials.LinkedIn,
		Portfolio:    &req.Socials.Portfolio,
	}
	if err := h.users.CompleteOnboarding(ctx, req.UserID, upd); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, dto.NotFound("User")
		}
		return nil, err
	}

	for _, p := range req.Projects {
		if p.Title == "" || p.Description == "" {
			continue
		}
		if _, err := h.projects.Add(ctx, req.UserID, storage.ProjectInput{
			Title:       p.Title,
			Link:        p.Link,
			Description: p.Description,
			ImageURL:    p.Image,
		}); err != nil {
			return nil, err
		}
	}

	// The application row is what admins review; losing it would strand
	// the member in pending, so its failure fails the request even though
	// the profile change above already landed.
	if _, err := h.apps.Submit(ctx, req.UserID); err != nil {
		return nil, err
	}
	return &dto.MessageResponse{Message: "Onboarding completed successfully"}, nil
}

// ListWorks returns all projects of approved members for the public works
// page.
func (h *UserHandler) ListWorks(ctx context.Context, _ *dto.Empty) (*[]*dto.PublicProjectResponse, error) {
	approved, err := h.users.ListByStatus(ctx, storage.StatusApproved)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*storage.User, len(approved))
	for _, u := range approved {
		byID[u.ID] = u
	}

	all, err := h.projects.All(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]*dto.PublicProjectResponse, 0, len(all))
	for _, p := range all {
		owner, ok := byID[p.UserID]
		if !ok {
			// Projects of unapproved (or orphaned) members stay hidden.
			continue
		}
		resp = append(resp, &dto.PublicProjectResponse{
			ID:          p.ID,
			UserID:      p.UserID,
			Title:       p.Title,
			Link:        p.Link,
			Description: p.Description,
			Image:       p.ImageURL,
			Member:      owner.Name,
			Category:    projectCategory(p.Description),
		})
	}
	return &resp, nil
}

// GetWork returns one project with its owner summary.
func (h *UserHandler) GetWork(ctx context.Context, req *dto.ProjectIDRequest) (*dto.PublicProjectResponse, error) {
	project, err := h.projects.Get(ctx, req.ID)
	if err != nil {
		if errors.Is(err, storage.ErrProjectNotFound) {
			return nil, dto.NotFound("Project")
		}
		return nil, err
	}
	resp := &dto.PublicProjectResponse{
		ID:          project.ID,
		UserID:      project.UserID,
		Title:       project.Title,
		Link:        project.Link,
		Description: project.Description,
		Image:       project.ImageURL,
		Member:      "Unknown",
		Category:    projectCategory(project.Description),
	}
	owner, err := h.users.Get(ctx, project.UserID)
	if err == nil {
		resp.Member = owner.Name
		resp.MemberID = owner.ID
	} else if !errors.Is(err, storage.ErrUserNotFound) {
		return nil, err
	}
	return resp, nil
}
