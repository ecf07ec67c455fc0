package storage

import (
	"context"
	"errors"
	"time"

	"github.com/atelierhq/atelier/internal/sheetdb"
	"github.com/google/uuid"
)

// ErrApplicationNotFound is returned when no application matches.
var ErrApplicationNotFound = errors.New("application not found")

// ApplicationService tracks membership applications through review.
type ApplicationService struct {
	db *sheetdb.Client
}

// NewApplicationService creates a new application service.
func NewApplicationService(db *sheetdb.Client) *ApplicationService {
	return &ApplicationService{db: db}
}

// Submit records a new pending application for a member.
func (s *ApplicationService) Submit(ctx context.Context, userID string) (*Application, error) {
	app := &Application{
		ID:          uuid.NewString(),
		UserID:      userID,
		Status:      ApplicationPending,
		SubmittedAt: time.Now().UTC().Format(time.RFC3339),
	}
	rec := sheetdb.Record{
		"id":           app.ID,
		"user_id":      app.UserID,
		"status":       string(app.Status),
		"submitted_at": app.SubmittedAt,
	}
	if err := s.db.AppendRow(ctx, TableApplications, rec); err != nil {
		return nil, err
	}
	return app, nil
}

// Review records the outcome of a review.
func (s *ApplicationService) Review(ctx context.Context, id string, status ApplicationStatus) error {
	patch := sheetdb.Record{
		"status":      string(status),
		"reviewed_at": time.Now().UTC().Format(time.RFC3339),
	}
	found, err := s.db.UpdateRow(ctx, TableApplications, sheetdb.FieldEquals("id", id), patch)
	if err != nil {
		return err
	}
	if !found {
		return ErrApplicationNotFound
	}
	return nil
}

// ForUser returns a member's applications, in submission order.
func (s *ApplicationService) ForUser(ctx context.Context, userID string) ([]*Application, error) {
	recs, err := s.db.FindRows(ctx, TableApplications, sheetdb.FieldEquals("user_id", userID))
	if err != nil {
		return nil, err
	}
	apps := make([]*Application, len(recs))
	for i, r := range recs {
		apps[i] = applicationFromRecord(r)
	}
	return apps, nil
}
