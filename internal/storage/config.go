// Manages server configuration from an optional YAML file plus environment
// variables. Secrets always come from the environment.

package storage

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all server configuration.
type Config struct {
	// SpreadsheetID identifies the backing spreadsheet. Empty leaves the
	// row store unconfigured: operations fail fast, the process still
	// starts.
	SpreadsheetID string `yaml:"spreadsheet_id"`

	// DriveFolderID is the root folder for member asset folders.
	DriveFolderID string `yaml:"drive_folder_id"`

	// JWTSecret signs bearer tokens. Auto-generated when empty.
	JWTSecret string `yaml:"jwt_secret"`

	// TokenExpiry bounds bearer token lifetime.
	TokenExpiry time.Duration `yaml:"token_expiry"`

	// LockTimeout bounds mutation lock acquisition. Zero waits
	// indefinitely.
	LockTimeout time.Duration `yaml:"lock_timeout"`

	// RateLimits are requests per minute per client IP. Zero disables.
	AuthRatePerMin  int `yaml:"auth_rate_per_min"`
	WriteRatePerMin int `yaml:"write_rate_per_min"`

	// MaxUploadBytes bounds multipart image uploads.
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	// credentials is the service account key JSON, environment-only.
	credentials []byte
}

// UnmarshalYAML implements yaml.Unmarshaler. yaml.v3 cannot decode
// time.Duration from strings, so durations are read as text in
// time.ParseDuration notation ("30s", "168h"). Absent keys keep whatever
// the target Config already holds.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		SpreadsheetID   *string `yaml:"spreadsheet_id"`
		DriveFolderID   *string `yaml:"drive_folder_id"`
		JWTSecret       *string `yaml:"jwt_secret"`
		TokenExpiry     *string `yaml:"token_expiry"`
		LockTimeout     *string `yaml:"lock_timeout"`
		AuthRatePerMin  *int    `yaml:"auth_rate_per_min"`
		WriteRatePerMin *int    `yaml:"write_rate_per_min"`
		MaxUploadBytes  *int64  `yaml:"max_upload_bytes"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.SpreadsheetID != nil {
		c.SpreadsheetID = *raw.SpreadsheetID
	}
	if raw.DriveFolderID != nil {
		c.DriveFolderID = *raw.DriveFolderID
	}
	if raw.JWTSecret != nil {
		c.JWTSecret = *raw.JWTSecret
	}
	if raw.TokenExpiry != nil {
		d, err := time.ParseDuration(*raw.TokenExpiry)
		if err != nil {
			return fmt.Errorf("invalid token_expiry: %w", err)
		}
		c.TokenExpiry = d
	}
	if raw.LockTimeout != nil {
		d, err := time.ParseDuration(*raw.LockTimeout)
		if err != nil {
			return fmt.Errorf("invalid lock_timeout: %w", err)
		}
		c.LockTimeout = d
	}
	if raw.AuthRatePerMin != nil {
		c.AuthRatePerMin = *raw.AuthRatePerMin
	}
	if raw.WriteRatePerMin != nil {
		c.WriteRatePerMin = *raw.WriteRatePerMin
	}
	if raw.MaxUploadBytes != nil {
		c.MaxUploadBytes = *raw.MaxUploadBytes
	}
	return nil
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		TokenExpiry:     7 * 24 * time.Hour,
		LockTimeout:     30 * time.Second,
		AuthRatePerMin:  10,
		WriteRatePerMin: 60,
		MaxUploadBytes:  10 << 20,
	}
}

// LoadConfig reads path if it exists, then applies environment overrides.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if v := os.Getenv("GOOGLE_SHEETS_ID"); v != "" {
		cfg.SpreadsheetID = v
	}
	if v := os.Getenv("GOOGLE_DRIVE_FOLDER_ID"); v != "" {
		cfg.DriveFolderID = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if cfg.JWTSecret == "" {
		// Tokens won't survive a restart without a configured secret.
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return cfg, fmt.Errorf("failed to generate jwt secret: %w", err)
		}
		cfg.JWTSecret = hex.EncodeToString(buf)
		slog.Warn("JWT_SECRET not set, generated an ephemeral secret")
	}

	if v := os.Getenv("GOOGLE_SERVICE_ACCOUNT_KEY"); v != "" {
		cfg.credentials = []byte(v)
	} else if v := os.Getenv("GOOGLE_SERVICE_ACCOUNT_KEY_BASE64"); v != "" {
		raw, err := base64.StdEncoding.DecodeString(v)
		if err != nil {
			return cfg, fmt.Errorf("failed to decode GOOGLE_SERVICE_ACCOUNT_KEY_BASE64: %w", err)
		}
		cfg.credentials = raw
	}
	return cfg, nil
}

// Credentials returns the service account key JSON, or nil when not
// configured.
func (c *Config) Credentials() []byte {
	return c.credentials
}
