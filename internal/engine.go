package internal

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lychee-technology/apigen"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// engine is one generation run over a single schema model.
type engine struct {
	mu        sync.Mutex
	runID     string
	query     apigen.SchemaQuery
	registry  *namedTypeRegistry
	diags     *diagnosticLog
	resources *resourceResolver
	documents *documentResolver
	resolved  []*apigen.DocumentType
	failFast  bool
	logger    *zap.Logger
}

// NewEngine creates a fresh run: empty registry, empty diagnostics, new run id.
func NewEngine(query apigen.SchemaQuery, cfg apigen.ResolverConfig, logger *zap.Logger) apigen.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	runID := uuid.NewString()
	logger = logger.With(zap.String("runID", runID))

	registry := newNamedTypeRegistry(cfg.UnknownPrefix)
	diags := newDiagnosticLog(logger)
	resources := &resourceResolver{query: query, registry: registry, diags: diags, logger: logger}

	return &engine{
		runID:     runID,
		query:     query,
		registry:  registry,
		diags:     diags,
		resources: resources,
		documents: &documentResolver{query: query, registry: registry, resources: resources, logger: logger},
		failFast:  cfg.FailFast,
		logger:    logger,
	}
}

func (e *engine) ResolveDocument(schema apigen.SchemaRef, fallbackName string) (*apigen.DocumentType, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resolveDocument(schema, fallbackName)
}

func (e *engine) resolveDocument(schema apigen.SchemaRef, fallbackName string) (*apigen.DocumentType, error) {
	start := time.Now()
	defer func() { EmitResolveLatency(string(apigen.TypeKindDocument), time.Since(start)) }()

	e.registry.begin()
	doc, fresh, err := e.documents.resolve(schema, fallbackName)
	if err != nil {
		dropped := e.registry.rollback()
		e.logger.Error("document resolution failed",
			zap.String("document", fallbackName),
			zap.String("location", schema.Location()),
			zap.Strings("discarded", dropped),
			zap.Error(err),
		)
		return nil, fmt.Errorf("resolve document %s: %w", describe(fallbackName, schema), err)
	}
	e.registry.commit()

	if fresh {
		e.resolved = append(e.resolved, doc)
		EmitCount("documents_resolved", nil, 1)
	}
	return doc, nil
}

func (e *engine) ResolveResource(schema apigen.SchemaRef) (*apigen.ResourceType, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	defer func() { EmitResolveLatency(string(apigen.TypeKindResource), time.Since(start)) }()

	e.registry.begin()
	rt, err := e.resources.resolve(schema)
	if err != nil {
		e.registry.rollback()
		return nil, fmt.Errorf("resolve resource %s: %w", describe("", schema), err)
	}
	e.registry.commit()
	return rt, nil
}

func (e *engine) ResolveAll(targets []apigen.DocumentTarget) ([]*apigen.DocumentType, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var (
		docs []*apigen.DocumentType
		errs error
	)
	for _, target := range targets {
		doc, err := e.resolveDocument(target.Schema, target.Name)
		if err != nil {
			errs = multierr.Append(errs, err)
			if e.failFast {
				break
			}
			continue
		}
		docs = append(docs, doc)
	}

	e.logger.Info("resolution finished",
		zap.Int("targets", len(targets)),
		zap.Int("documents", len(docs)),
		zap.Int("failures", len(multierr.Errors(errs))),
		zap.Int("types", e.registry.Len()),
		zap.Int("diagnostics", len(e.diags.Diagnostics())),
	)
	return docs, errs
}

func (e *engine) Registry() apigen.TypeRegistry {
	return e.registry
}

func (e *engine) Documents() []*apigen.DocumentType {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*apigen.DocumentType(nil), e.resolved...)
}

func (e *engine) Diagnostics() []apigen.Diagnostic {
	return e.diags.Diagnostics()
}

func (e *engine) RunID() string {
	return e.runID
}

func describe(name string, schema apigen.SchemaRef) string {
	if name != "" {
		return name
	}
	return schema.Location()
}
