// Handles member authentication and registration.

package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/atelierhq/atelier/internal/server/dto"
	"github.com/atelierhq/atelier/internal/server/reqctx"
	"github.com/atelierhq/atelier/internal/storage"
)

// AuthHandler handles authentication requests.
type AuthHandler struct {
	users       *storage.UserService
	jwtSecret   []byte
	tokenExpiry time.Duration
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(users *storage.UserService, jwtSecret string, tokenExpiry time.Duration) *AuthHandler {
	return &AuthHandler{users: users, jwtSecret: []byte(jwtSecret), tokenExpiry: tokenExpiry}
}

// Signup registers a new member and returns a bearer token.
func (h *AuthHandler) Signup(ctx context.Context, req *dto.SignupRequest) (*dto.AuthResponse, error) {
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return nil, dto.MissingField("name, email or password")
	}

	user, err := h.users.Create(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			return nil, dto.Conflict("User with this email already exists")
		}
		return nil, err
	}

	token, err := GenerateToken(h.jwtSecret, user, h.tokenExpiry)
	if err != nil {
		return nil, dto.Internal("Failed to generate token", err)
	}
	return &dto.AuthResponse{
		Message: "User created successfully",
		Token:   token,
		User:    userToResponse(user, nil),
	}, nil
}

// Login authenticates a member and returns a bearer token.
func (h *AuthHandler) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, dto.MissingField("email or password")
	}

	user, err := h.users.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidCredentials) {
			return nil, dto.Unauthorized("Invalid credentials")
		}
		return nil, err
	}

	token, err := GenerateToken(h.jwtSecret, user, h.tokenExpiry)
	if err != nil {
		return nil, dto.Internal("Failed to generate token", err)
	}
	return &dto.AuthResponse{
		Message: "Login successful",
		Token:   token,
		User:    userToResponse(user, nil),
	}, nil
}

// Me returns the authenticated member's profile.
func (h *AuthHandler) Me(ctx context.Context, _ *dto.Empty) (*dto.UserResponse, error) {
	caller := reqctx.CallerIdentity(ctx)
	if caller == nil {
		return nil, dto.Unauthorized("Not authenticated")
	}
	user, err := h.users.Get(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, dto.NotFound("User")
		}
		return nil, err
	}
	return userToResponse(user, nil), nil
}

// Logout acknowledges logout; token disposal is client-side.
func (h *AuthHandler) Logout(_ context.Context, _ *dto.Empty) (*dto.MessageResponse, error) {
	return &dto.MessageResponse{Message: "Logout successful"}, nil
}
