package internal

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/lychee-technology/apigen"
)

// ValidateS3Credentials checks that static credentials come in pairs.
func ValidateS3Credentials(cfg apigen.S3Config) error {
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey == "" {
		return &apigen.ConfigError{Field: "storage.s3.secret_access_key", Message: "is required when access_key_id is set"}
	}
	if cfg.SecretAccessKey != "" && cfg.AccessKeyID == "" {
		return &apigen.ConfigError{Field: "storage.s3.access_key_id", Message: "is required when secret_access_key is set"}
	}
	return nil
}

// S3HealthCheck sends a HEAD request to a custom S3 endpoint before anything
// is uploaded. It only proves DNS, TLS and routing; 401 and 403 count as
// reachable since the request is anonymous. Without an endpoint it is a no-op.
func S3HealthCheck(ctx context.Context, cfg apigen.S3Config, timeout time.Duration) error {
	if cfg.Endpoint == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodHead, cfg.Endpoint, nil)
	if err != nil {
		return fmt.Errorf("s3 health request build failed: %w", err)
	}

	resp, err := (&http.Client{Timeout: timeout}).Do(req)
	if err != nil {
		return fmt.Errorf("s3 health request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 400:
		return nil
	case resp.StatusCode == http.StatusForbidden, resp.StatusCode == http.StatusUnauthorized:
		return nil
	}
	return fmt.Errorf("s3 endpoint %s returned unexpected status: %d", cfg.Endpoint, resp.StatusCode)
}
