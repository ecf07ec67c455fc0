package dto

// Socials groups a member's external profile links.
type Socials struct {
	GitHub    string `json:"github"`
	LinkedIn  string `json:"linkedin"`
	Portfolio string `json:"portfolio"`
}

// SignupRequest registers a new member.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest authenticates a member.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse is the client-facing member profile.
type UserResponse struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Email        string            `json:"email"`
	Role         string            `json:"role"`
	Status       string            `json:"status"`
	Tagline      string            `json:"tagline"`
	Bio          string            `json:"bio"`
	TechStack    []string          `json:"techStack"`
	ProfileImage string            `json:"profileImage"`
	BannerImage  string            `json:"bannerImage"`
	Availability string            `json:"availability"`
	Rate         string            `json:"rate"`
	Experience   string            `json:"experience"`
	Socials      Socials           `json:"socials"`
	Projects     []ProjectResponse `json:"projects,omitempty"`
}

// AuthResponse carries a bearer token and the authenticated member.
type AuthResponse struct {
	Message string        `json:"message"`
	Token   string        `json:"token"`
	User    *UserResponse `json:"user"`
}

// ProjectResponse is one portfolio entry.
type ProjectResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// PublicProjectResponse is a portfolio entry in the public works listing,
// enriched with its owner.
type PublicProjectResponse struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Member      string `json:"member"`
	MemberID    string `json:"memberId,omitempty"`
	Category    string `json:"category"`
}

// UpdateProfileRequest is a partial profile update; absent fields keep
// their current value.
type UpdateProfileRequest struct {
	Name         *string   `json:"name"`
	Tagline      *string   `json:"tagline"`
	Bio          *string   `json:"bio"`
	TechStack    *[]string `json:"techStack"`
	ProfileImage *string   `json:"profileImage"`
	BannerImage  *string   `json:"bannerImage"`
	Availability *string   `json:"availability"`
	Rate         *string   `json:"rate"`
	Experience   *string   `json:"experience"`
	Socials      *Socials  `json:"socials"`
}

// OnboardingProject is one portfolio entry submitted during onboarding.
type OnboardingProject struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// OnboardingRequest completes a member's profile and queues them for
// review.
type OnboardingRequest struct {
	Tagline      string              `json:"tagline"`
	Bio          string              `json:"bio"`
	TechStack    []string            `json:"techStack"`
	ProfileImage string              `json:"profileImage"`
	BannerImage  string              `json:"bannerImage"`
	Availability string              `json:"availability"`
	Rate         string              `json:"rate"`
	Experience   string              `json:"experience"`
	Socials      Socials             `json:"socials"`
	Projects     []OnboardingProject `json:"projects"`
}

// MessageResponse acknowledges an operation with no payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// UploadResponse carries the public URL of an uploaded asset.
type UploadResponse struct {
	URL string `json:"url"`
}

// HealthResponse reports server liveness.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}
