// Conversions from storage types to API response types.

package handlers

import (
	"strings"

	"github.com/atelierhq/atelier/internal/server/dto"
	"github.com/atelierhq/atelier/internal/storage"
)

func userToResponse(u *storage.User, projects []*storage.Project) *dto.UserResponse {
	resp := &dto.UserResponse{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Role:         string(u.Role),
		Status:       string(u.Status),
		Tagline:      u.Tagline,
		Bio:          u.Bio,
		TechStack:    u.TechStack,
		ProfileImage: u.ProfileImageURL,
		BannerImage:  u.BannerImageURL,
		Availability: u.Availability,
		Rate:         u.Rate,
		Experience:   u.Experience,
		Socials: dto.Socials{
			GitHub:    u.GitHub,
			LinkedIn:  u.LinkedIn,
			Portfolio: u.Portfolio,
		},
	}
	for _, p := range projects {
		resp.Projects = append(resp.Projects, projectToResponse(p))
	}
	return resp
}

func projectToResponse(p *storage.Project) dto.ProjectResponse {
	return dto.ProjectResponse{
		ID:          p.ID,
		Title:       p.Title,
		Link:        p.Link,
		Description: p.Description,
		Image:       p.ImageURL,
	}
}

// projectCategory derives the listing category from the description, like
// the public works page expects.
func projectCategory(description string) string {
	if first, _, _ := strings.Cut(description, " "); first != "" {
		return first
	}
	return "Project"
}
