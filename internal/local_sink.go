package internal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lychee-technology/apigen"
	"go.uber.org/zap"
)

type localManifestSink struct {
	dir    string
	logger *zap.Logger
}

// NewLocalManifestSink writes manifests below dir.
func NewLocalManifestSink(dir string, logger *zap.Logger) apigen.ManifestSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &localManifestSink{dir: dir, logger: logger}
}

func (s *localManifestSink) Put(ctx context.Context, key string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	target := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", apigen.NewExportError(target, fmt.Errorf("create output directory: %w", err))
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", apigen.NewExportError(target, fmt.Errorf("write output file: %w", err))
	}
	s.logger.Info("manifest written", zap.String("path", target), zap.Int("bytes", len(data)))
	return target, nil
}
