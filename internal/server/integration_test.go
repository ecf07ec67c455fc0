package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/atelierhq/atelier/internal/drivestore"
	"github.com/atelierhq/atelier/internal/keylock"
	"github.com/atelierhq/atelier/internal/server/dto"
	"github.com/atelierhq/atelier/internal/sheetdb"
	"github.com/atelierhq/atelier/internal/sheetdb/sheetdbtest"
	"github.com/atelierhq/atelier/internal/storage"
)

const testJWTSecret = "test-secret-key-32-bytes-long!!!"

// fakeDrive is a minimal in-memory drivestore.API.
type fakeDrive struct {
	mu      sync.Mutex
	folders map[string]string // name -> id
	nextID  int
}

func newFakeDrive() *fakeDrive {
	return &fakeDrive{folders: map[string]string{}}
}

func (f *fakeDrive) FindFolder(_ context.Context, name, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.folders[name], nil
}

func (f *fakeDrive) CreateFolder(_ context.Context, name, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := fmt.Sprintf("folder-%d", f.nextID)
	f.folders[name] = id
	return id, nil
}

func (f *fakeDrive) Upload(_ context.Context, _, _, _ string, data io.Reader) (string, error) {
	if _, err := io.ReadAll(data); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	return fmt.Sprintf("file-%d", f.nextID), nil
}

func (f *fakeDrive) AllowPublicRead(context.Context, string) error { return nil }
func (f *fakeDrive) Delete(context.Context, string) error          { return nil }

type testEnv struct {
	server *httptest.Server
	db     *sheetdb.Client
	users  *storage.UserService
}

func setupTestEnv(t *testing.T) *testEnv {
	locks := keylock.NewSet(5 * time.Second)
	db := sheetdb.NewClient(sheetdbtest.NewFake(), storage.DefaultHeaders(), locks)

	users := storage.NewUserService(db)
	projects := storage.NewProjectService(db)
	apps := storage.NewApplicationService(db)
	assetStore := drivestore.NewStore(newFakeDrive(), "root", locks)
	assets := storage.NewAssetService(users, assetStore)

	router := NewRouter(users, projects, apps, assets, Options{
		JWTSecret:       testJWTSecret,
		TokenExpiry:     time.Hour,
		AuthRatePerMin:  1000,
		WriteRatePerMin: 1000,
		MaxUploadBytes:  1 << 20,
		Version:         "test",
	})
	t.Cleanup(router.Close)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testEnv{server: server, db: db, users: users}
}

// doJSON performs an HTTP request, decodes the JSON response, and returns the status code.
// Body is always read and closed before returning.
func (e *testEnv) doJSON(t *testing.T, method, path string, body, response any, token string) int {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Marshal request body: %v", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, e.server.URL+path, bodyReader)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Do request: %v", err)
	}

	data, err := io.ReadAll(resp.Body)
	if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		t.Fatalf("ReadAll/Close: %v", err)
	}

	if response != nil && len(data) > 0 {
		if err := json.Unmarshal(data, response); err != nil {
			t.Fatalf("Unmarshal response: %v\nBody: %s", err, string(data))
		}
	}

	return resp.StatusCode
}

// signup registers a member and returns their bearer token and id.
func (e *testEnv) signup(t *testing.T, name, email string) (token, id string) {
	var resp dto.AuthResponse
	status := e.doJSON(t, http.MethodPost, "/api/auth/signup", dto.SignupRequest{
		Name:     name,
		Email:    email,
		Password: "securePass1234",
	}, &resp, "")
	if status != http.StatusOK {
		t.Fatalf("POST /api/auth/signup: got status %d, want %d", status, http.StatusOK)
	}
	return resp.Token, resp.User.ID
}

// adminToken promotes email to admin behind the API's back and logs them
// in again so the token carries the admin role.
func (e *testEnv) adminToken(t *testing.T, email string) string {
	ok, err := e.db.UpdateRow(context.Background(), storage.TableUsers,
		sheetdb.FieldEquals("email", email), sheetdb.Record{"role": "admin"})
	if err != nil || !ok {
		t.Fatalf("promote %s to admin: ok=%v err=%v", email, ok, err)
	}
	var resp dto.AuthResponse
	status := e.doJSON(t, http.MethodPost, "/api/auth/login", dto.LoginRequest{
		Email:    email,
		Password: "securePass1234",
	}, &resp, "")
	if status != http.StatusOK {
		t.Fatalf("POST /api/auth/login: got status %d, want %d", status, http.StatusOK)
	}
	return resp.Token
}

func onboardingBody() dto.OnboardingRequest {
	return dto.OnboardingRequest{
		Tagline:      "Backend developer",
		Bio:          "I build APIs",
		TechStack:    []string{"Go", "PostgreSQL"},
		Availability: "full-time",
		Rate:         "$90/h",
		Experience:   "6 years",
		Socials:      dto.Socials{GitHub: "https://github.com/alice"},
		Projects: []dto.OnboardingProject{
			{Title: "Billing service", Description: "Payments pipeline", Link: "https://example.com"},
		},
	}
}

func TestIntegration(t *testing.T) {
	t.Parallel()
	t.Run("Health", func(t *testing.T) {
		t.Parallel()
		env := setupTestEnv(t)

		var health dto.HealthResponse
		status := env.doJSON(t, http.MethodGet, "/api/health", nil, &health, "")
		if status != http.StatusOK {
			t.Errorf("GET /api/health: got status %d, want %d", status, http.StatusOK)
		}
		if health.Status != "ok" {
			t.Errorf("Health status: got %q, want %q", health.Status, "ok")
		}
		if health.Version != "test" {
			t.Errorf("Health version: got %q, want %q", health.Version, "test")
		}
	})

	t.Run("AuthWorkflow", func(t *testing.T) {
		t.Parallel()
		env := setupTestEnv(t)

		token, id := env.signup(t, "Alice", "alice@example.com")
		if token == "" {
			t.Fatal("signup returned an empty token")
		}

		// Duplicate email is rejected.
		var errResp dto.ErrorResponse
		status := env.doJSON(t, http.MethodPost, "/api/auth/signup", dto.SignupRequest{
			Name:     "Alice Again",
			Email:    "alice@example.com",
			Password: "anotherPass1234",
		}, &errResp, "")
		if status != http.StatusConflict {
			t.Errorf("duplicate signup: got status %d, want %d", status, http.StatusConflict)
		}
		if errResp.Error.Code != dto.ErrorCodeConflict {
			t.Errorf("duplicate signup code: got %q, want %q", errResp.Error.Code, dto.ErrorCodeConflict)
		}

		// Wrong password is rejected without leaking which part failed.
		status = env.doJSON(t, http.MethodPost, "/api/auth/login", dto.LoginRequest{
			Email:    "alice@example.com",
			Password: "wrong",
		}, &errResp, "")
		if status != http.StatusUnauthorized {
			t.Errorf("bad login: got status %d, want %d", status, http.StatusUnauthorized)
		}

		var me dto.UserResponse
		status = env.doJSON(t, http.MethodGet, "/api/auth/me", nil, &me, token)
		if status != http.StatusOK {
			t.Fatalf("GET /api/auth/me: got status %d, want %d", status, http.StatusOK)
		}
		if me.ID != id {
			t.Errorf("me id: got %q, want %q", me.ID, id)
		}
		if me.Status != "incomplete" {
			t.Errorf("me status: got %q, want %q", me.Status, "incomplete")
		}

		// Anonymous and garbage tokens are both anonymous.
		status = env.doJSON(t, http.MethodGet, "/api/auth/me", nil, nil, "")
		if status != http.StatusUnauthorized {
			t.Errorf("anonymous me: got status %d, want %d", status, http.StatusUnauthorized)
		}
		status = env.doJSON(t, http.MethodGet, "/api/auth/me", nil, nil, "not-a-token")
		if status != http.StatusUnauthorized {
			t.Errorf("garbage token me: got status %d, want %d", status, http.StatusUnauthorized)
		}
	})

	t.Run("OnboardingAndReview", func(t *testing.T) {
		t.Parallel()
		env := setupTestEnv(t)

		aliceToken, aliceID := env.signup(t, "Alice", "alice@example.com")
		_, bobID := env.signup(t, "Bob", "bob@example.com")

		// Onboarding someone else's profile is forbidden.
		status := env.doJSON(t, http.MethodPost, "/api/users/"+bobID+"/complete-onboarding", onboardingBody(), nil, aliceToken)
		if status != http.StatusForbidden {
			t.Errorf("cross-member onboarding: got status %d, want %d", status, http.StatusForbidden)
		}

		status = env.doJSON(t, http.MethodPost, "/api/users/"+aliceID+"/complete-onboarding", onboardingBody(), nil, aliceToken)
		if status != http.StatusOK {
			t.Fatalf("complete-onboarding: got status %d, want %d", status, http.StatusOK)
		}

		// Pending members are invisible in the public listing.
		var listing []*dto.UserResponse
		status = env.doJSON(t, http.MethodGet, "/api/users", nil, &listing, "")
		if status != http.StatusOK {
			t.Fatalf("GET /api/users: got status %d, want %d", status, http.StatusOK)
		}
		if len(listing) != 0 {
			t.Errorf("public listing before approval: got %d members, want 0", len(listing))
		}

		// A plain member cannot reach the review queue.
		status = env.doJSON(t, http.MethodGet, "/api/admin/pending-users", nil, nil, aliceToken)
		if status != http.StatusForbidden {
			t.Errorf("member pending-users: got status %d, want %d", status, http.StatusForbidden)
		}

		_, _ = env.signup(t, "Root", "root@example.com")
		rootToken := env.adminToken(t, "root@example.com")

		var pending []*dto.UserResponse
		status = env.doJSON(t, http.MethodGet, "/api/admin/pending-users", nil, &pending, rootToken)
		if status != http.StatusOK {
			t.Fatalf("GET /api/admin/pending-users: got status %d, want %d", status, http.StatusOK)
		}
		if len(pending) != 1 || pending[0].ID != aliceID {
			t.Fatalf("pending queue: got %+v, want just %s", pending, aliceID)
		}
		if len(pending[0].Projects) != 1 {
			t.Errorf("pending projects: got %d, want 1", len(pending[0].Projects))
		}

		status = env.doJSON(t, http.MethodPost, "/api/admin/approve/"+aliceID, nil, nil, rootToken)
		if status != http.StatusOK {
			t.Fatalf("approve: got status %d, want %d", status, http.StatusOK)
		}

		status = env.doJSON(t, http.MethodGet, "/api/users", nil, &listing, "")
		if status != http.StatusOK {
			t.Fatalf("GET /api/users: got status %d, want %d", status, http.StatusOK)
		}
		if len(listing) != 1 || listing[0].ID != aliceID {
			t.Fatalf("public listing after approval: got %+v, want just %s", listing, aliceID)
		}
		if got := listing[0].TechStack; len(got) != 2 || got[0] != "Go" {
			t.Errorf("tech stack: got %v, want [Go PostgreSQL]", got)
		}

		// Alice's project now shows on the public works page.
		var works []*dto.PublicProjectResponse
		status = env.doJSON(t, http.MethodGet, "/api/users/projects/all", nil, &works, "")
		if status != http.StatusOK {
			t.Fatalf("GET /api/users/projects/all: got status %d, want %d", status, http.StatusOK)
		}
		if len(works) != 1 {
			t.Fatalf("works: got %d entries, want 1", len(works))
		}
		if works[0].Member != "Alice" {
			t.Errorf("work member: got %q, want %q", works[0].Member, "Alice")
		}
		var work dto.PublicProjectResponse
		status = env.doJSON(t, http.MethodGet, "/api/users/projects/"+works[0].ID, nil, &work, "")
		if status != http.StatusOK {
			t.Fatalf("GET /api/users/projects/{id}: got status %d, want %d", status, http.StatusOK)
		}
		if work.Title != "Billing service" {
			t.Errorf("work title: got %q, want %q", work.Title, "Billing service")
		}
	})

	t.Run("RejectRemovesMember", func(t *testing.T) {
		t.Parallel()
		env := setupTestEnv(t)

		aliceToken, aliceID := env.signup(t, "Alice", "alice@example.com")
		status := env.doJSON(t, http.MethodPost, "/api/users/"+aliceID+"/complete-onboarding", onboardingBody(), nil, aliceToken)
		if status != http.StatusOK {
			t.Fatalf("complete-onboarding: got status %d, want %d", status, http.StatusOK)
		}

		_, _ = env.signup(t, "Root", "root@example.com")
		rootToken := env.adminToken(t, "root@example.com")

		status = env.doJSON(t, http.MethodPost, "/api/admin/reject/"+aliceID, nil, nil, rootToken)
		if status != http.StatusOK {
			t.Fatalf("reject: got status %d, want %d", status, http.StatusOK)
		}

		status = env.doJSON(t, http.MethodGet, "/api/users/"+aliceID, nil, nil, "")
		if status != http.StatusNotFound {
			t.Errorf("rejected member lookup: got status %d, want %d", status, http.StatusNotFound)
		}
		status = env.doJSON(t, http.MethodPost, "/api/admin/reject/"+aliceID, nil, nil, rootToken)
		if status != http.StatusNotFound {
			t.Errorf("double reject: got status %d, want %d", status, http.StatusNotFound)
		}
	})

	t.Run("ProfileUpdate", func(t *testing.T) {
		t.Parallel()
		env := setupTestEnv(t)

		aliceToken, aliceID := env.signup(t, "Alice", "alice@example.com")
		bobToken, _ := env.signup(t, "Bob", "bob@example.com")

		tagline := "Updated tagline"
		update := dto.UpdateProfileRequest{Tagline: &tagline}

		status := env.doJSON(t, http.MethodPut, "/api/users/"+aliceID, update, nil, "")
		if status != http.StatusUnauthorized {
			t.Errorf("anonymous update: got status %d, want %d", status, http.StatusUnauthorized)
		}
		status = env.doJSON(t, http.MethodPut, "/api/users/"+aliceID, update, nil, bobToken)
		if status != http.StatusForbidden {
			t.Errorf("cross-member update: got status %d, want %d", status, http.StatusForbidden)
		}
		status = env.doJSON(t, http.MethodPut, "/api/users/"+aliceID, update, nil, aliceToken)
		if status != http.StatusOK {
			t.Fatalf("self update: got status %d, want %d", status, http.StatusOK)
		}

		var profile dto.UserResponse
		status = env.doJSON(t, http.MethodGet, "/api/users/"+aliceID, nil, &profile, "")
		if status != http.StatusOK {
			t.Fatalf("GET /api/users/{id}: got status %d, want %d", status, http.StatusOK)
		}
		if profile.Tagline != tagline {
			t.Errorf("tagline: got %q, want %q", profile.Tagline, tagline)
		}
		if profile.Name != "Alice" {
			t.Errorf("name after partial update: got %q, want %q", profile.Name, "Alice")
		}
	})
}

func TestImageUpload(t *testing.T) {
	t.Parallel()
	env := setupTestEnv(t)
	token, _ := env.signup(t, "Alice", "alice@example.com")

	postImage := func(t *testing.T, field, filename, mimeType, token string) (int, []byte) {
		t.Helper()
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
		h.Set("Content-Type", mimeType)
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatalf("CreatePart: %v", err)
		}
		if _, err := part.Write([]byte("png bytes")); err != nil {
			t.Fatalf("Write part: %v", err)
		}
		if err := mw.Close(); err != nil {
			t.Fatalf("Close writer: %v", err)
		}

		req, err := http.NewRequest(http.MethodPost, env.server.URL+"/api/upload/profile-image", &buf)
		if err != nil {
			t.Fatalf("NewRequest: %v", err)
		}
		req.Header.Set("Content-Type", mw.FormDataContentType())
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("Do request: %v", err)
		}
		data, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			t.Fatalf("ReadAll: %v", err)
		}
		return resp.StatusCode, data
	}

	status, body := postImage(t, "image", "avatar.png", "image/png", token)
	if status != http.StatusOK {
		t.Fatalf("upload: got status %d, want %d\nBody: %s", status, http.StatusOK, body)
	}
	var uploaded dto.UploadResponse
	if err := json.Unmarshal(body, &uploaded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !strings.HasPrefix(uploaded.URL, "https://drive.google.com/uc?export=view&id=") {
		t.Errorf("url: got %q, want a drive view url", uploaded.URL)
	}

	if status, _ := postImage(t, "image", "avatar.png", "image/png", ""); status != http.StatusUnauthorized {
		t.Errorf("anonymous upload: got status %d, want %d", status, http.StatusUnauthorized)
	}
	if status, _ := postImage(t, "image", "notes.txt", "text/plain", token); status != http.StatusBadRequest {
		t.Errorf("non-image upload: got status %d, want %d", status, http.StatusBadRequest)
	}
	if status, _ := postImage(t, "file", "avatar.png", "image/png", token); status != http.StatusBadRequest {
		t.Errorf("wrong field upload: got status %d, want %d", status, http.StatusBadRequest)
	}
}

func TestAuthRateLimit(t *testing.T) {
	t.Parallel()
	locks := keylock.NewSet(5 * time.Second)
	db := sheetdb.NewClient(sheetdbtest.NewFake(), storage.DefaultHeaders(), locks)
	users := storage.NewUserService(db)
	projects := storage.NewProjectService(db)
	apps := storage.NewApplicationService(db)
	assets := storage.NewAssetService(users, drivestore.NewStore(newFakeDrive(), "root", locks))

	router := NewRouter(users, projects, apps, assets, Options{
		JWTSecret:      testJWTSecret,
		TokenExpiry:    time.Hour,
		AuthRatePerMin: 2,
		Version:        "test",
	})
	t.Cleanup(router.Close)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	env := &testEnv{server: server, db: db, users: users}

	login := dto.LoginRequest{Email: "nobody@example.com", Password: "whatever12"}
	for i := range 2 {
		if status := env.doJSON(t, http.MethodPost, "/api/auth/login", login, nil, ""); status != http.StatusUnauthorized {
			t.Fatalf("attempt %d: got status %d, want %d", i, status, http.StatusUnauthorized)
		}
	}
	var errResp dto.ErrorResponse
	status := env.doJSON(t, http.MethodPost, "/api/auth/login", login, &errResp, "")
	if status != http.StatusTooManyRequests {
		t.Fatalf("limited attempt: got status %d, want %d", status, http.StatusTooManyRequests)
	}
	if errResp.Error.Code != dto.ErrorCodeRateLimited {
		t.Errorf("limited code: got %q, want %q", errResp.Error.Code, dto.ErrorCodeRateLimited)
	}
}
