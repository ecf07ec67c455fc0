package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/atelierhq/atelier/internal/sheetdb"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Sentinel errors for user operations. Anything else is a backend failure.
var (
	ErrUserExists         = errors.New("user with this email already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// UserService handles member accounts and the approval lifecycle.
type UserService struct {
	db *sheetdb.Client
}

// NewUserService creates a new user service.
func NewUserService(db *sheetdb.Client) *UserService {
	return &UserService{db: db}
}

// Create registers a new member with status incomplete. Email uniqueness
// is enforced by a lookup before the append; both run against the same
// table so the window between them is closed by the callers all going
// through this method.
func (s *UserService) Create(ctx context.Context, name, email, password string) (*User, error) {
	existing, err := s.db.FindOne(ctx, TableUsers, sheetdb.FieldEquals("email", email))
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	user := &User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         RoleUser,
		Status:       StatusIncomplete,
		TechStack:    []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	rec := sheetdb.Record{
		"id":            user.ID,
		"name":          user.Name,
		"email":         user.Email,
		"password_hash": user.PasswordHash,
		"role":          string(user.Role),
		"status":        string(user.Status),
		"created_at":    now,
		"updated_at":    now,
	}
	if err := s.db.AppendRow(ctx, TableUsers, rec); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate verifies a member's credentials.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*User, error) {
	rec, err := s.db.FindOne(ctx, TableUsers, sheetdb.FieldEquals("email", email))
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrInvalidCredentials
	}
	user := userFromRecord(rec)
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Get returns a member by id.
func (s *UserService) Get(ctx context.Context, id string) (*User, error) {
	rec, err := s.db.FindOne(ctx, TableUsers, sheetdb.FieldEquals("id", id))
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrUserNotFound
	}
	return userFromRecord(rec), nil
}

// GetByEmail returns a member by email.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*User, error) {
	rec, err := s.db.FindOne(ctx, TableUsers, sheetdb.FieldEquals("email", email))
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrUserNotFound
	}
	return userFromRecord(rec), nil
}

// ListByStatus returns all members with the given status, in insertion
// order.
func (s *UserService) ListByStatus(ctx context.Context, status UserStatus) ([]*User, error) {
	recs, err := s.db.FindRows(ctx, TableUsers, sheetdb.FieldEquals("status", string(status)))
	if err != nil {
		return nil, err
	}
	users := make([]*User, len(recs))
	for i, r := range recs {
		users[i] = userFromRecord(r)
	}
	return users, nil
}

// ProfileUpdate is a partial profile change; nil fields keep their current
// value.
type ProfileUpdate struct {
	Name         *string
	Tagline      *string
	Bio          *string
	TechStack    *[]string
	ProfileImage *string
	BannerImage  *string
	Availability *string
	Rate         *string
	Experience   *string
	GitHub       *string
	LinkedIn     *string
	Portfolio    *string
}

func (u *ProfileUpdate) patch() sheetdb.Record {
	p := sheetdb.Record{}
	set := func(col string, v *string) {
		if v != nil {
			p[col] = *v
		}
	}
	set("name", u.Name)
	set("tagline", u.Tagline)
	set("bio", u.Bio)
	set("profile_image_url", u.ProfileImage)
	set("banner_image_url", u.BannerImage)
	set("availability", u.Availability)
	set("rate", u.Rate)
	set("experience", u.Experience)
	set("github", u.GitHub)
	set("linkedin", u.LinkedIn)
	set("portfolio", u.Portfolio)
	if u.TechStack != nil {
		p["tech_stack"] = joinTechStack(*u.TechStack)
	}
	return p
}

// UpdateProfile applies a partial update to a member's profile.
func (s *UserService) UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) error {
	patch := upd.patch()
	patch["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	found, err := s.db.UpdateRow(ctx, TableUsers, sheetdb.FieldEquals("id", id), patch)
	if err != nil {
		return err
	}
	if !found {
		return ErrUserNotFound
	}
	return nil
}

// CompleteOnboarding applies the onboarding profile and moves the member
// from incomplete to pending, queueing them for admin review.
func (s *UserService) CompleteOnboarding(ctx context.Context, id string, upd ProfileUpdate) error {
	patch := upd.patch()
	patch["status"] = string(StatusPending)
	patch["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	found, err := s.db.UpdateRow(ctx, TableUsers, sheetdb.FieldEquals("id", id), patch)
	if err != nil {
		return err
	}
	if !found {
		return ErrUserNotFound
	}
	return nil
}

// Approve marks a pending member as approved.
func (s *UserService) Approve(ctx context.Context, id string) error {
	patch := sheetdb.Record{
		"status":     string(StatusApproved),
		"updated_at": time.Now().UTC().Format(time.RFC3339),
	}
	found, err := s.db.UpdateRow(ctx, TableUsers, sheetdb.FieldEquals("id", id), patch)
	if err != nil {
		return err
	}
	if !found {
		return ErrUserNotFound
	}
	return nil
}

// Reject removes a member and their portfolio projects. The steps are
// separate critical sections on separate tables: a failure partway leaves
// orphaned project rows behind rather than rolling back. Orphans are
// invisible to the public listings (they join against approved users) and
// a retry of Reject would not find the user again, so the leftovers are
// reported and tolerated.
func (s *UserService) Reject(ctx context.Context, id string) error {
	found, err := s.db.DeleteRow(ctx, TableUsers, sheetdb.FieldEquals("id", id))
	if err != nil {
		return err
	}
	if !found {
		return ErrUserNotFound
	}

	projects, err := s.db.FindRows(ctx, TableProjects, sheetdb.FieldEquals("user_id", id))
	if err != nil {
		return fmt.Errorf("user removed but projects could not be listed: %w", err)
	}
	for _, p := range projects {
		if _, err := s.db.DeleteRow(ctx, TableProjects, sheetdb.FieldEquals("id", p["id"])); err != nil {
			slog.WarnContext(ctx, "Orphaned project row left behind", "user", id, "project", p["id"], "err", err)
			return fmt.Errorf("user removed but project cleanup failed: %w", err)
		}
	}
	return nil
}
