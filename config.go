package apigen

import (
	"strings"
)

// Config consolidates settings for a generation run and the tooling around it
type Config struct {
	Resolver ResolverConfig `json:"resolver" mapstructure:"resolver"`
	Logging  LoggingConfig  `json:"logging" mapstructure:"logging"`
	Output   OutputConfig   `json:"output" mapstructure:"output"`
	Storage  StorageConfig  `json:"storage" mapstructure:"storage"`
}

// ResolverConfig contains resolution settings
type ResolverConfig struct {
	// MediaTypes lists the content types treated as JSON:API documents when
	// scanning OpenAPI operations.
	MediaTypes []string `json:"mediaTypes" mapstructure:"media_types"`
	// UnknownPrefix is the prefix of synthesized names for anonymous schemas.
	UnknownPrefix string `json:"unknownPrefix" mapstructure:"unknown_prefix"`
	// IncludeRequests controls whether request bodies are resolved as documents.
	IncludeRequests bool `json:"includeRequests" mapstructure:"include_requests"`
	// FailFast stops ResolveAll at the first failing document.
	FailFast bool `json:"failFast" mapstructure:"fail_fast"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level       string `json:"level" mapstructure:"level"`
	Format      string `json:"format" mapstructure:"format"` // json or console
	Development bool   `json:"development" mapstructure:"development"`
}

// OutputConfig contains local output settings
type OutputConfig struct {
	Directory    string `json:"directory" mapstructure:"directory"`
	ManifestName string `json:"manifestName" mapstructure:"manifest_name"`
	Indent       bool   `json:"indent" mapstructure:"indent"`
	Color        bool   `json:"color" mapstructure:"color"`
}

// StorageConfig selects where published manifests go
type StorageConfig struct {
	Provider string   `json:"provider" mapstructure:"provider"` // local or s3
	S3       S3Config `json:"s3" mapstructure:"s3"`
}

// S3Config contains S3 sink settings. Endpoint is set for S3-compatible stores.
type S3Config struct {
	Bucket          string `json:"bucket" mapstructure:"bucket"`
	Prefix          string `json:"prefix" mapstructure:"prefix"`
	Region          string `json:"region" mapstructure:"region"`
	Endpoint        string `json:"endpoint" mapstructure:"endpoint"`
	AccessKeyID     string `json:"accessKeyId" mapstructure:"access_key_id"`
	SecretAccessKey string `json:"-" mapstructure:"secret_access_key"`
	UsePathStyle    bool   `json:"usePathStyle" mapstructure:"use_path_style"`
}

const (
	MediaTypeJSONAPI = "application/vnd.api+json"

	StorageProviderLocal = "local"
	StorageProviderS3    = "s3"
)

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Resolver: ResolverConfig{
			MediaTypes:      []string{MediaTypeJSONAPI},
			UnknownPrefix:   "Unknown",
			IncludeRequests: true,
			FailFast:        false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Output: OutputConfig{
			Directory:    "build/apigen",
			ManifestName: "manifest.json",
			Indent:       true,
			Color:        true,
		},
		Storage: StorageConfig{
			Provider: StorageProviderLocal,
			S3: S3Config{
				Region:       "us-east-1",
				Prefix:       "apigen",
				UsePathStyle: true,
			},
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if len(c.Resolver.MediaTypes) == 0 {
		return &ConfigError{Field: "resolver.mediaTypes", Message: "must list at least one media type"}
	}

	if strings.TrimSpace(c.Resolver.UnknownPrefix) == "" {
		return &ConfigError{Field: "resolver.unknownPrefix", Message: "must not be empty"}
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return &ConfigError{Field: "logging.level", Message: "must be one of debug, info, warn, error"}
	}

	if c.Output.ManifestName == "" {
		return &ConfigError{Field: "output.manifestName", Message: "must not be empty"}
	}

	switch c.Storage.Provider {
	case StorageProviderLocal:
		if c.Output.Directory == "" {
			return &ConfigError{Field: "output.directory", Message: "is required for the local provider"}
		}
	case StorageProviderS3:
		if c.Storage.S3.Bucket == "" {
			return &ConfigError{Field: "storage.s3.bucket", Message: "is required for the s3 provider"}
		}
		if c.Storage.S3.Region == "" {
			return &ConfigError{Field: "storage.s3.region", Message: "is required for the s3 provider"}
		}
	default:
		return &ConfigError{Field: "storage.provider", Message: "must be local or s3"}
	}

	return nil
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ConfigError) Error() string {
	return "config validation error for field '" + e.Field + "': " + e.Message
}
