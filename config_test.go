package apigen

import (
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	// Test resolver defaults
	if len(config.Resolver.MediaTypes) != 1 || config.Resolver.MediaTypes[0] != MediaTypeJSONAPI {
		t.Errorf("Expected media types to be [%s], got %v", MediaTypeJSONAPI, config.Resolver.MediaTypes)
	}
	if config.Resolver.UnknownPrefix != "Unknown" {
		t.Errorf("Expected unknown prefix to be 'Unknown', got %s", config.Resolver.UnknownPrefix)
	}
	if !config.Resolver.IncludeRequests {
		t.Error("Expected request bodies to be included by default")
	}
	if config.Resolver.FailFast {
		t.Error("Expected fail fast to be disabled by default")
	}

	// Test logging defaults
	if config.Logging.Level != "info" {
		t.Errorf("Expected log level to be 'info', got %s", config.Logging.Level)
	}
	if config.Logging.Format != "console" {
		t.Errorf("Expected log format to be 'console', got %s", config.Logging.Format)
	}

	// Test output defaults
	if config.Output.Directory != "build/apigen" {
		t.Errorf("Expected output directory to be 'build/apigen', got %s", config.Output.Directory)
	}
	if config.Output.ManifestName != "manifest.json" {
		t.Errorf("Expected manifest name to be 'manifest.json', got %s", config.Output.ManifestName)
	}

	// Test storage defaults
	if config.Storage.Provider != StorageProviderLocal {
		t.Errorf("Expected storage provider to be 'local', got %s", config.Storage.Provider)
	}
	if config.Storage.S3.Region != "us-east-1" {
		t.Errorf("Expected S3 region to be 'us-east-1', got %s", config.Storage.S3.Region)
	}
	if !config.Storage.S3.UsePathStyle {
		t.Error("Expected path-style S3 addressing by default")
	}

	if err := config.Validate(); err != nil {
		t.Errorf("Expected default config to be valid, got %v", err)
	}
}

func TestConfigValidationDetailed(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
		errorField  string
	}{
		{
			name:        "valid config",
			mutate:      func(c *Config) {},
			expectError: false,
		},
		{
			name:        "no media types",
			mutate:      func(c *Config) { c.Resolver.MediaTypes = nil },
			expectError: true,
			errorField:  "resolver.mediaTypes",
		},
		{
			name:        "blank unknown prefix",
			mutate:      func(c *Config) { c.Resolver.UnknownPrefix = "  " },
			expectError: true,
			errorField:  "resolver.unknownPrefix",
		},
		{
			name:        "invalid log level",
			mutate:      func(c *Config) { c.Logging.Level = "trace" },
			expectError: true,
			errorField:  "logging.level",
		},
		{
			name:        "upper case log level",
			mutate:      func(c *Config) { c.Logging.Level = "DEBUG" },
			expectError: false,
		},
		{
			name:        "empty manifest name",
			mutate:      func(c *Config) { c.Output.ManifestName = "" },
			expectError: true,
			errorField:  "output.manifestName",
		},
		{
			name:        "local provider without directory",
			mutate:      func(c *Config) { c.Output.Directory = "" },
			expectError: true,
			errorField:  "output.directory",
		},
		{
			name:        "s3 provider without bucket",
			mutate:      func(c *Config) { c.Storage.Provider = StorageProviderS3 },
			expectError: true,
			errorField:  "storage.s3.bucket",
		},
		{
			name: "s3 provider without region",
			mutate: func(c *Config) {
				c.Storage.Provider = StorageProviderS3
				c.Storage.S3.Bucket = "manifests"
				c.Storage.S3.Region = ""
			},
			expectError: true,
			errorField:  "storage.s3.region",
		},
		{
			name: "valid s3 provider",
			mutate: func(c *Config) {
				c.Storage.Provider = StorageProviderS3
				c.Storage.S3.Bucket = "manifests"
			},
			expectError: false,
		},
		{
			name:        "unknown provider",
			mutate:      func(c *Config) { c.Storage.Provider = "gcs" },
			expectError: true,
			errorField:  "storage.provider",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			err := config.Validate()

			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got none")
					return
				}
				configErr, ok := err.(*ConfigError)
				if !ok {
					t.Errorf("Expected ConfigError, got %T", err)
					return
				}
				if configErr.Field != tt.errorField {
					t.Errorf("Expected error field %s, got %s", tt.errorField, configErr.Field)
				}
			} else if err != nil {
				t.Errorf("Expected no error but got: %v", err)
			}
		})
	}
}

func TestConfigError(t *testing.T) {
	err := &ConfigError{Field: "logging.level", Message: "must be one of debug, info, warn, error"}
	expected := "config validation error for field 'logging.level': must be one of debug, info, warn, error"
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}
}
