package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lychee-technology/apigen"
	"github.com/spf13/viper"
)

const envPrefix = "APIGEN"

// loadConfig reads apigen.yaml (or the file at path) and APIGEN_* environment
// variables on top of apigen.DefaultConfig.
func loadConfig(path string) (*apigen.Config, error) {
	v := viper.New()
	setDefaults(v, apigen.DefaultConfig())

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("apigen")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file: defaults and environment only.
	}

	var cfg apigen.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper, d *apigen.Config) {
	v.SetDefault("resolver.media_types", d.Resolver.MediaTypes)
	v.SetDefault("resolver.unknown_prefix", d.Resolver.UnknownPrefix)
	v.SetDefault("resolver.include_requests", d.Resolver.IncludeRequests)
	v.SetDefault("resolver.fail_fast", d.Resolver.FailFast)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.development", d.Logging.Development)

	v.SetDefault("output.directory", d.Output.Directory)
	v.SetDefault("output.manifest_name", d.Output.ManifestName)
	v.SetDefault("output.indent", d.Output.Indent)
	v.SetDefault("output.color", d.Output.Color)

	v.SetDefault("storage.provider", d.Storage.Provider)
	v.SetDefault("storage.s3.bucket", d.Storage.S3.Bucket)
	v.SetDefault("storage.s3.prefix", d.Storage.S3.Prefix)
	v.SetDefault("storage.s3.region", d.Storage.S3.Region)
	v.SetDefault("storage.s3.endpoint", d.Storage.S3.Endpoint)
	v.SetDefault("storage.s3.access_key_id", d.Storage.S3.AccessKeyID)
	v.SetDefault("storage.s3.secret_access_key", d.Storage.S3.SecretAccessKey)
	v.SetDefault("storage.s3.use_path_style", d.Storage.S3.UsePathStyle)
}
