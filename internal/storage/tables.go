// Package storage implements the domain services of the atelier backend:
// members, portfolio projects, applications and uploaded assets, persisted
// through the sheet-backed row store and the Drive-backed asset store.
package storage

// Table names in the backing spreadsheet.
const (
	TableUsers        = "Users"
	TableProjects     = "Projects"
	TableApplications = "Applications"
)

// DefaultHeaders returns the header list provisioned for each table when
// its sheet has no header row yet. Order is storage order: once a table
// holds data, this order must not change.
func DefaultHeaders() map[string][]string {
	return map[string][]string{
		TableUsers: {
			"id", "name", "email", "password_hash", "role", "status", "tagline", "bio",
			"tech_stack", "profile_image_url", "banner_image_url", "availability", "rate",
			"experience", "github", "linkedin", "portfolio", "created_at", "updated_at",
		},
		TableProjects: {
			"id", "user_id", "title", "link", "description", "image_url", "created_at",
		},
		TableApplications: {
			"id", "user_id", "status", "submitted_at", "reviewed_at",
		},
	}
}
