package apigen

import "context"

// ManifestSink persists an exported manifest under a key.
type ManifestSink interface {
	Put(ctx context.Context, key string, data []byte) (string, error)
}
