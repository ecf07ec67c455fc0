package dto

import "net/http"

// RequestParser is implemented by request types that read path parameters
// or other non-body request data.
type RequestParser interface {
	FromRequest(r *http.Request) error
}

// Empty is the request type for endpoints with no input.
type Empty struct{}

// UserIDRequest addresses a member by path id.
type UserIDRequest struct {
	ID string `json:"-"`
}

// FromRequest implements RequestParser.
func (r *UserIDRequest) FromRequest(req *http.Request) error {
	r.ID = req.PathValue("id")
	if r.ID == "" {
		return MissingField("id")
	}
	return nil
}

// ProjectIDRequest addresses a project by path id.
type ProjectIDRequest struct {
	ID string `json:"-"`
}

// FromRequest implements RequestParser.
func (r *ProjectIDRequest) FromRequest(req *http.Request) error {
	r.ID = req.PathValue("id")
	if r.ID == "" {
		return MissingField("id")
	}
	return nil
}

// UpdateUserRequest is a partial profile update addressed by path id.
type UpdateUserRequest struct {
	UserID string `json:"-"`
	UpdateProfileRequest
}

// FromRequest implements RequestParser.
func (r *UpdateUserRequest) FromRequest(req *http.Request) error {
	r.UserID = req.PathValue("id")
	if r.UserID == "" {
		return MissingField("id")
	}
	return nil
}

// CompleteOnboardingRequest is an onboarding submission addressed by path
// id.
type CompleteOnboardingRequest struct {
	UserID string `json:"-"`
	OnboardingRequest
}

// FromRequest implements RequestParser.
func (r *CompleteOnboardingRequest) FromRequest(req *http.Request) error {
	r.UserID = req.PathValue("id")
	if r.UserID == "" {
		return MissingField("id")
	}
	return nil
}
