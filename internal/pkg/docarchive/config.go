package docarchive

import (
	"errors"
	"fmt"
	"time"

	"github.com/ManuelReschke/Offertly/internal/pkg/env"
)

// Config holds document archive configuration
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services
	Enabled         bool
}

// LoadConfig loads archive configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "us-west-001"),
		BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
		Enabled:         env.GetEnv("S3_ARCHIVE_ENABLED", "false") == "true",
	}

	if config.Enabled {
		if config.AccessKeyID == "" {
			return nil, errors.New("S3_ACCESS_KEY_ID is required when the document archive is enabled")
		}
		if config.SecretAccessKey == "" {
			return nil, errors.New("S3_SECRET_ACCESS_KEY is required when the document archive is enabled")
		}
		if config.BucketName == "" {
			return nil, errors.New("S3_BUCKET_NAME is required when the document archive is enabled")
		}
	}

	return config, nil
}

// IsEnabled returns true if the document archive is enabled
func (c *Config) IsEnabled() bool {
	return c.Enabled
}

// ObjectKey generates the archive key for a rendered quote document.
// Format: quotes/YYYY/MM/OFF-XXXXXXXX.pdf
func (c *Config) ObjectKey(offerRef string, at time.Time) string {
	at = at.UTC()
	return fmt.Sprintf("quotes/%04d/%02d/%s.pdf", at.Year(), int(at.Month()), offerRef)
}

// GetAppEnv returns the current application environment
func GetAppEnv() string {
	return env.GetEnv("APP_ENV", "dev")
}
