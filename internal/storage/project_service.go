package storage

import (
	"context"
	"errors"
	"time"

	"github.com/atelierhq/atelier/internal/sheetdb"
	"github.com/google/uuid"
)

// ErrProjectNotFound is returned when no project matches.
var ErrProjectNotFound = errors.New("project not found")

// ProjectService handles portfolio projects.
type ProjectService struct {
	db *sheetdb.Client
}

// NewProjectService creates a new project service.
func NewProjectService(db *sheetdb.Client) *ProjectService {
	return &ProjectService{db: db}
}

// ProjectInput is the caller-supplied part of a new project.
type ProjectInput struct {
	Title       string
	Link        string
	Description string
	ImageURL    string
}

// Add appends a new project for a member.
func (s *ProjectService) Add(ctx context.Context, userID string, in ProjectInput) (*Project, error) {
	p := &Project{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       in.Title,
		Link:        in.Link,
		Description: in.Description,
		ImageURL:    in.ImageURL,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	rec := sheetdb.Record{
		"id":          p.ID,
		"user_id":     p.UserID,
		"title":       p.Title,
		"link":        p.Link,
		"description": p.Description,
		"image_url":   p.ImageURL,
		"created_at":  p.CreatedAt,
	}
	if err := s.db.AppendRow(ctx, TableProjects, rec); err != nil {
		return nil, err
	}
	return p, nil
}

// Get returns a project by id.
func (s *ProjectService) Get(ctx context.Context, id string) (*Project, error) {
	rec, err := s.db.FindOne(ctx, TableProjects, sheetdb.FieldEquals("id", id))
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrProjectNotFound
	}
	return projectFromRecord(rec), nil
}

// ForUser returns all projects of a member, in insertion order.
func (s *ProjectService) ForUser(ctx context.Context, userID string) ([]*Project, error) {
	recs, err := s.db.FindRows(ctx, TableProjects, sheetdb.FieldEquals("user_id", userID))
	if err != nil {
		return nil, err
	}
	projects := make([]*Project, len(recs))
	for i, r := range recs {
		projects[i] = projectFromRecord(r)
	}
	return projects, nil
}

// All returns every project, in insertion order.
func (s *ProjectService) All(ctx context.Context) ([]*Project, error) {
	recs, err := s.db.GetAll(ctx, TableProjects)
	if err != nil {
		return nil, err
	}
	projects := make([]*Project, len(recs))
	for i, r := range recs {
		projects[i] = projectFromRecord(r)
	}
	return projects, nil
}
