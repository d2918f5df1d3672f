package factory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lychee-technology/apigen"
	"github.com/lychee-technology/apigen/internal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// SourceKind identifies the schema model a file was loaded as.
type SourceKind string

const (
	SourceOpenAPI    SourceKind = "openapi"
	SourceJSONSchema SourceKind = "jsonschema"
)

// Source is a loaded schema model together with the documents found in it.
type Source struct {
	Kind    SourceKind
	Name    string
	Query   apigen.SchemaQuery
	Targets []apigen.DocumentTarget
}

// NewLogger builds a zap logger from the logging configuration.
func NewLogger(cfg apigen.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", cfg.Level, err)
	}

	var zc zap.Config
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	if cfg.Format != "" {
		zc.Encoding = cfg.Format
	}
	if zc.Encoding == "console" {
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	// Diagnostics go to stderr so stdout stays clean for manifests.
	zc.OutputPaths = []string{"stderr"}

	return zc.Build()
}

// NewEngine creates a generation run for the given schema model.
//
// Usage:
//
//	cfg := apigen.DefaultConfig()
//	src, err := factory.LoadSource(ctx, data, "api.yaml", cfg.Resolver, logger)
//	if err != nil {
//	    // handle error
//	}
//	engine := factory.NewEngine(cfg, src.Query, logger)
//	docs, err := engine.ResolveAll(src.Targets)
func NewEngine(cfg *apigen.Config, query apigen.SchemaQuery, logger *zap.Logger) apigen.Engine {
	return internal.NewEngine(query, cfg.Resolver, logger)
}

// LoadSource detects whether data is an OpenAPI document or a JSON Schema
// (JSON or YAML) and returns the query facade plus the document targets.
//
// OpenAPI targets are the JSON:API request and response bodies of every
// operation. For a JSON Schema the root is the only target when it has a
// data member; otherwise every definition with a data member is a target.
func LoadSource(ctx context.Context, data []byte, name string, cfg apigen.ResolverConfig, logger *zap.Logger) (*Source, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, apigen.NewSchemaLoadError(name, fmt.Errorf("decode: %w", err))
	}

	if hasKey(&doc, "openapi") {
		q, err := internal.LoadOpenAPIQuery(ctx, data, name)
		if err != nil {
			return nil, err
		}
		targets := internal.ScanDocuments(q, cfg, logger)
		logger.Info("loaded openapi source", zap.String("source", name), zap.Int("documents", len(targets)))
		return &Source{Kind: SourceOpenAPI, Name: name, Query: q, Targets: targets}, nil
	}

	raw := data
	if !json.Valid(bytes.TrimSpace(data)) {
		var buf bytes.Buffer
		if err := writeJSON(&buf, &doc); err != nil {
			return nil, apigen.NewSchemaLoadError(name, fmt.Errorf("convert yaml to json: %w", err))
		}
		raw = buf.Bytes()
	}

	q, err := internal.NewJSONSchemaQuery(raw, name)
	if err != nil {
		return nil, err
	}
	targets := jsonSchemaTargets(q)
	logger.Info("loaded json schema source", zap.String("source", name), zap.Int("documents", len(targets)))
	return &Source{Kind: SourceJSONSchema, Name: name, Query: q, Targets: targets}, nil
}

func hasKey(doc *yaml.Node, key string) bool {
	n := doc
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		n = n.Content[0]
	}
	if n.Kind != yaml.MappingNode {
		return false
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return true
		}
	}
	return false
}

// writeJSON re-encodes a YAML tree as JSON. Mapping keys keep their document
// order so property declaration order survives the conversion.
func writeJSON(buf *bytes.Buffer, n *yaml.Node) error {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			buf.WriteString("null")
			return nil
		}
		return writeJSON(buf, n.Content[0])
	case yaml.AliasNode:
		return writeJSON(buf, n.Alias)
	case yaml.MappingNode:
		buf.WriteByte('{')
		for i := 0; i+1 < len(n.Content); i += 2 {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(n.Content[i].Value)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := writeJSON(buf, n.Content[i+1]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case yaml.SequenceNode:
		buf.WriteByte('[')
		for i, item := range n.Content {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	}

	var v any
	if err := n.Decode(&v); err != nil {
		return err
	}
	scalar, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(scalar)
	return nil
}

func jsonSchemaTargets(q *internal.JSONSchemaQuery) []apigen.DocumentTarget {
	root := q.Root()
	if _, ok := q.DeepProperty(root, "data"); ok {
		return []apigen.DocumentTarget{{Name: "Document", Schema: root}}
	}

	var targets []apigen.DocumentTarget
	for _, name := range q.DefinitionNames() {
		def, ok := q.Definition(name)
		if !ok {
			continue
		}
		if _, ok := q.DeepProperty(def, "data"); ok {
			targets = append(targets, apigen.DocumentTarget{Name: name, Schema: def})
		}
	}
	return targets
}

// NewManifestSink returns the sink selected by cfg.Storage.Provider.
func NewManifestSink(ctx context.Context, cfg *apigen.Config, logger *zap.Logger) (apigen.ManifestSink, error) {
	switch cfg.Storage.Provider {
	case apigen.StorageProviderS3:
		return internal.NewS3ManifestSink(ctx, cfg.Storage.S3, logger)
	case apigen.StorageProviderLocal, "":
		return internal.NewLocalManifestSink(cfg.Output.Directory, logger), nil
	default:
		return nil, &apigen.ConfigError{Field: "storage.provider", Message: "must be local or s3"}
	}
}

// CheckStorage checks the configured storage before a publish. Only S3
// providers with a custom endpoint are checked.
func CheckStorage(ctx context.Context, cfg *apigen.Config, timeout time.Duration) error {
	if cfg.Storage.Provider != apigen.StorageProviderS3 {
		return nil
	}
	if err := internal.ValidateS3Credentials(cfg.Storage.S3); err != nil {
		return err
	}
	return internal.S3HealthCheck(ctx, cfg.Storage.S3, timeout)
}

// Renderer emits source declarations for resolved types.
type Renderer interface {
	Render(names ...string) error
	Bytes() []byte
}

// NewTypeScriptRenderer creates a renderer over an engine's registry. sink
// receives duplicate-render and dangling-relationship reports and may be nil.
func NewTypeScriptRenderer(engine apigen.Engine, sink apigen.DiagnosticSink) Renderer {
	return internal.NewTypeScriptRenderer(engine.Registry(), sink)
}
