package storage

import (
	"strings"

	"github.com/atelierhq/atelier/internal/sheetdb"
)

// UserRole is a member's role.
type UserRole string

// User roles.
const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

// UserStatus is a member's position in the approval lifecycle:
// incomplete -> pending -> approved, or removal on rejection.
type UserStatus string

// User statuses.
const (
	StatusIncomplete UserStatus = "incomplete"
	StatusPending    UserStatus = "pending"
	StatusApproved   UserStatus = "approved"
)

// User is a member profile.
type User struct {
	ID              string
	Name            string
	Email           string
	PasswordHash    string
	Role            UserRole
	Status          UserStatus
	Tagline         string
	Bio             string
	TechStack       []string
	ProfileImageURL string
	BannerImageURL  string
	Availability    string
	Rate            string
	Experience      string
	GitHub          string
	LinkedIn        string
	Portfolio       string
	CreatedAt       string
	UpdatedAt       string
}

// userFromRecord builds a User from a row. tech_stack is stored as a
// comma-joined string; the split happens here at the record boundary,
// never inside the row store.
func userFromRecord(r sheetdb.Record) *User {
	return &User{
		ID:              r["id"],
		Name:            r["name"],
		Email:           r["email"],
		PasswordHash:    r["password_hash"],
		Role:            UserRole(r["role"]),
		Status:          UserStatus(r["status"]),
		Tagline:         r["tagline"],
		Bio:             r["bio"],
		TechStack:       splitTechStack(r["tech_stack"]),
		ProfileImageURL: r["profile_image_url"],
		BannerImageURL:  r["banner_image_url"],
		Availability:    r["availability"],
		Rate:            r["rate"],
		Experience:      r["experience"],
		GitHub:          r["github"],
		LinkedIn:        r["linkedin"],
		Portfolio:       r["portfolio"],
		CreatedAt:       r["created_at"],
		UpdatedAt:       r["updated_at"],
	}
}

func splitTechStack(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ",")
}

func joinTechStack(stack []string) string {
	return strings.Join(stack, ",")
}

// Project is one portfolio entry of a member.
type Project struct {
	ID          string
	UserID      string
	Title       string
	Link        string
	Description string
	ImageURL    string
	CreatedAt   string
}

func projectFromRecord(r sheetdb.Record) *Project {
	return &Project{
		ID:          r["id"],
		UserID:      r["user_id"],
		Title:       r["title"],
		Link:        r["link"],
		Description: r["description"],
		ImageURL:    r["image_url"],
		CreatedAt:   r["created_at"],
	}
}

// ApplicationStatus is an application's review state.
type ApplicationStatus string

// Application statuses.
const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"
)

// Application is a membership application awaiting admin review.
type Application struct {
	ID          string
	UserID      string
	Status      ApplicationStatus
	SubmittedAt string
	ReviewedAt  string
}

func applicationFromRecord(r sheetdb.Record) *Application {
	return &Application{
		ID:          r["id"],
		UserID:      r["user_id"],
		Status:      ApplicationStatus(r["status"]),
		SubmittedAt: r["submitted_at"],
		ReviewedAt:  r["reviewed_at"],
	}
}
