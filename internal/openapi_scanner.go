package internal

import (
	"mime"
	"net/http"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/lychee-technology/apigen"
	"go.uber.org/zap"
)

var methodOrder = []string{
	http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
	http.MethodPatch, http.MethodDelete, http.MethodOptions, http.MethodTrace,
}

// ScanDocuments walks every operation of the document and returns the
// request and response bodies served with one of the JSON:API media types.
// Paths are visited in sorted order, methods in a fixed order.
func ScanDocuments(q *OpenAPIQuery, cfg apigen.ResolverConfig, logger *zap.Logger) []apigen.DocumentTarget {
	if logger == nil {
		logger = zap.NewNop()
	}
	doc := q.Document()
	if doc.Paths == nil {
		return nil
	}

	accepted := make(map[string]struct{}, len(cfg.MediaTypes))
	for _, mt := range cfg.MediaTypes {
		accepted[normalizeMediaType(mt)] = struct{}{}
	}

	paths := doc.Paths.Map()
	keys := make([]string, 0, len(paths))
	for p := range paths {
		keys = append(keys, p)
	}
	sort.Strings(keys)

	var targets []apigen.DocumentTarget
	for _, path := range keys {
		item := paths[path]
		if item == nil {
			continue
		}
		ops := item.Operations()
		for _, method := range methodOrder {
			op, ok := ops[method]
			if !ok || op == nil {
				continue
			}
			opName := op.OperationID
			if opName == "" {
				opName = strings.ToLower(method) + " " + path
			}
			base := "#/paths/" + escapePointer(path) + "/" + strings.ToLower(method)

			if cfg.IncludeRequests && op.RequestBody != nil && op.RequestBody.Value != nil {
				targets = append(targets, q.bodyTargets(op.RequestBody.Value.Content, accepted,
					base+"/requestBody/content/", opName+" request")...)
			}

			if op.Responses == nil {
				continue
			}
			responses := op.Responses.Map()
			for _, status := range sortedKeys(responses) {
				resp := responses[status]
				if resp == nil || resp.Value == nil {
					continue
				}
				targets = append(targets, q.bodyTargets(resp.Value.Content, accepted,
					base+"/responses/"+escapePointer(status)+"/content/", opName+" "+status+" response")...)
			}
		}
	}

	logger.Debug("scanned openapi operations", zap.Int("paths", len(keys)), zap.Int("documents", len(targets)))
	return targets
}

// bodyTargets returns one target per accepted media type of a body. When a
// body offers several accepted variants the media type is appended to the
// name, so inline schemas of different variants do not collide.
func (q *OpenAPIQuery) bodyTargets(content openapi3.Content, accepted map[string]struct{}, pointerPrefix, name string) []apigen.DocumentTarget {
	var variants []string
	for _, mt := range sortedKeys(content) {
		if _, ok := accepted[normalizeMediaType(mt)]; ok && content[mt] != nil {
			variants = append(variants, mt)
		}
	}

	targets := make([]apigen.DocumentTarget, 0, len(variants))
	for _, mt := range variants {
		schema, ok := q.Wrap(content[mt].Schema, pointerPrefix+escapePointer(mt)+"/schema")
		if !ok {
			continue
		}
		targetName := name
		if len(variants) > 1 {
			targetName += " " + mt
		}
		targets = append(targets, apigen.DocumentTarget{Name: targetName, Schema: schema})
	}
	return targets
}

func normalizeMediaType(mt string) string {
	parsed, _, err := mime.ParseMediaType(mt)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(mt))
	}
	return parsed
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
