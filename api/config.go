package api

import (
	"fmt"
	"time"
)

// Config holds diarization endpoint settings.
type Config struct {
	// AllowedExtensions is the upload allow-list (lower-case, no dot).
	AllowedExtensions []string `yaml:"allowed_extensions" mapstructure:"allowed_extensions"`
	// MaxUploadSize is informational here; enforcement happens in the
	// server's body-size middleware. Used for the 413 message.
	MaxUploadSize string `yaml:"max_upload_size" mapstructure:"max_upload_size"`
	// UploadDir receives temporary uploads. Defaults to the OS temp dir.
	UploadDir string `yaml:"upload_dir" mapstructure:"upload_dir"`
	// DefaultBatchSize applies when the request carries none.
	DefaultBatchSize int `yaml:"default_batch_size" mapstructure:"default_batch_size"`
	// DefaultTimeout applies when the request carries none.
	DefaultTimeout time.Duration `yaml:"default_timeout" mapstructure:"default_timeout"`
	// MaxTimeout caps the per-request timeout field.
	MaxTimeout time.Duration `yaml:"max_timeout" mapstructure:"max_timeout"`
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *Config) ApplyDefaults() {
	if len(c.AllowedExtensions) == 0 {
		c.AllowedExtensions = []string{"wav", "mp3", "m4a", "flac", "aac", "ogg"}
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = "500MB"
	}
	if c.DefaultBatchSize == 0 {
		c.DefaultBatchSize = 16
	}
	if c.DefaultTimeout == 0 {
		c.DefaultTimeout = 10 * time.Minute
	}
	if c.MaxTimeout == 0 {
		c.MaxTimeout = 30 * time.Minute
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.DefaultBatchSize <= 0 {
		return fmt.Errorf("api.default_batch_size must be positive (got: %d)", c.DefaultBatchSize)
	}
	if c.DefaultTimeout <= 0 {
		return fmt.Errorf("api.default_timeout must be positive")
	}
	if c.MaxTimeout < c.DefaultTimeout {
		return fmt.Errorf("api.max_timeout must be at least api.default_timeout")
	}
	return nil
}
