// Builds the Google API clients from service account credentials.

package storage

import (
	"context"
	"fmt"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// NewGoogleClients authenticates with the service account key and returns
// Sheets and Drive clients. Both are nil without error when credentials
// are absent; the stores then report themselves unconfigured per call
// instead of failing startup.
func NewGoogleClients(ctx context.Context, cfg *Config) (*sheets.Service, *drive.Service, error) {
	creds := cfg.Credentials()
	if len(creds) == 0 {
		return nil, nil, nil
	}
	jwtCfg, err := google.JWTConfigFromJSON(creds, sheets.SpreadsheetsScope, drive.DriveFileScope)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse service account key: %w", err)
	}
	client := jwtCfg.Client(ctx)

	sheetsSvc, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create sheets client: %w", err)
	}
	driveSvc, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create drive client: %w", err)
	}
	return sheetsSvc, driveSvc, nil
}
