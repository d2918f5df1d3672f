package internal

import (
	"testing"

	"github.com/lychee-technology/apigen"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// resolverFixture is a JSON Schema with one $defs entry per resolver scenario.
const resolverFixture = `{
  "$defs": {
    "EmployeeIdentifier": {
      "type": "object",
      "properties": {"type": {"const": "employees"}, "id": {"type": "string"}}
    },
    "Employee": {
      "type": "object",
      "required": ["type", "id"],
      "properties": {
        "type": {"const": "employees"},
        "id": {"type": "string"},
        "attributes": {"type": "object", "properties": {"name": {"type": "string"}}},
        "relationships": {
          "type": "object",
          "required": ["manager"],
          "properties": {
            "subordinates": {"type": "object", "properties": {"data": {"type": "array", "items": {"$ref": "#/$defs/EmployeeIdentifier"}}}},
            "manager": {"type": "object", "properties": {"data": {"$ref": "#/$defs/EmployeeIdentifier"}}}
          }
        }
      }
    },
    "Manager": {
      "allOf": [{"$ref": "#/$defs/Employee"}],
      "properties": {
        "relationships": {
          "type": "object",
          "properties": {
            "mentor": {"type": "object", "properties": {"data": {"oneOf": [{"$ref": "#/$defs/EmployeeIdentifier"}, {"type": "null"}]}}}
          }
        }
      }
    },
    "Person": {
      "type": "object",
      "properties": {"type": {"const": "people"}, "id": {"type": "string"}}
    },
    "Comment": {
      "type": "object",
      "properties": {"type": {"enum": ["comments"]}, "id": {"type": "string"}}
    },
    "Article": {
      "type": "object",
      "properties": {
        "type": {"const": "articles"},
        "id": {"type": "string"},
        "relationships": {
          "type": "object",
          "properties": {
            "author": {"type": "object", "properties": {"data": {"$ref": "#/$defs/Person"}}}
          }
        }
      }
    },
    "Video": {
      "type": "object",
      "properties": {"type": {"const": "videos"}, "id": {"type": "string"}}
    },
    "NoDiscriminant": {
      "type": "object",
      "properties": {"id": {"type": "string"}}
    },
    "EmptyDiscriminant": {
      "type": "object",
      "properties": {"type": {"type": "string"}, "id": {"type": "string"}}
    },
    "AmbiguousDiscriminant": {
      "type": "object",
      "properties": {"type": {"enum": ["cats", "dogs"]}, "id": {"type": "string"}}
    },
    "NumericDiscriminant": {
      "type": "object",
      "properties": {"type": {"const": 5}}
    },
    "BadAttributes": {
      "type": "object",
      "properties": {"type": {"const": "bad"}, "attributes": {"type": "string"}}
    },
    "BadRelationships": {
      "type": "object",
      "properties": {"type": {"const": "bad"}, "relationships": {"type": "array", "items": {"type": "string"}}}
    },
    "NestedArray": {
      "type": "object",
      "properties": {
        "type": {"const": "matrices"},
        "relationships": {
          "type": "object",
          "properties": {
            "cells": {"type": "object", "properties": {"data": {"type": "array", "items": {"type": "array", "items": {"$ref": "#/$defs/Person"}}}}}
          }
        }
      }
    },
    "AmbiguousTarget": {
      "type": "object",
      "properties": {
        "type": {"const": "tasks"},
        "relationships": {
          "type": "object",
          "properties": {
            "owner": {"type": "object", "properties": {"data": {"oneOf": [{"$ref": "#/$defs/Person"}, {"$ref": "#/$defs/Video"}]}}}
          }
        }
      }
    },
    "NumericTarget": {
      "type": "object",
      "properties": {
        "type": {"const": "tasks"},
        "relationships": {
          "type": "object",
          "properties": {
            "owner": {"type": "object", "properties": {"data": {"type": "object", "properties": {"type": {"const": 3}}}}}
          }
        }
      }
    },
    "MissingData": {
      "type": "object",
      "properties": {
        "type": {"const": "tasks"},
        "relationships": {
          "type": "object",
          "properties": {
            "owner": {"type": "object", "properties": {"links": {"type": "object"}}}
          }
        }
      }
    },
    "UnionRelationship": {
      "type": "object",
      "properties": {
        "type": {"const": "tasks"},
        "relationships": {
          "type": "object",
          "properties": {
            "owner": {"oneOf": [{"$ref": "#/$defs/Person"}, {"$ref": "#/$defs/Video"}]},
            "reviewer": {"type": "object", "properties": {"data": {"$ref": "#/$defs/Person"}}}
          }
        }
      }
    },
    "TupleTarget": {
      "type": "object",
      "properties": {
        "type": {"const": "pairs"},
        "relationships": {
          "type": "object",
          "properties": {
            "members": {"type": "object", "properties": {"data": {"type": "array", "prefixItems": [{"$ref": "#/$defs/Person"}, {"$ref": "#/$defs/Person"}]}}}
          }
        }
      }
    },
    "TitledA": {"title": "Thing", "type": "object", "properties": {"type": {"const": "things"}}},
    "TitledB": {"title": "Thing", "type": "object", "properties": {"type": {"const": "other-things"}}},
    "ArticleDocument": {
      "type": "object",
      "properties": {
        "data": {"oneOf": [{"$ref": "#/$defs/Article"}, {"$ref": "#/$defs/Video"}]},
        "included": {"type": "array", "items": {"oneOf": [{"$ref": "#/$defs/Person"}, {"$ref": "#/$defs/Comment"}]}}
      }
    },
    "ArticleCollection": {
      "type": "object",
      "properties": {
        "data": {"type": "array", "items": {"$ref": "#/$defs/Article"}}
      }
    },
    "NullableDocument": {
      "type": "object",
      "properties": {
        "data": {"oneOf": [{"$ref": "#/$defs/Person"}, {"type": "null"}]}
      }
    },
    "MetaOnlyDocument": {
      "type": "object",
      "properties": {"meta": {"type": "object"}}
    },
    "BadIncludedDocument": {
      "type": "object",
      "properties": {
        "data": {"$ref": "#/$defs/Person"},
        "included": {"type": "object"}
      }
    },
    "FailingDocument": {
      "type": "object",
      "properties": {
        "data": {"oneOf": [{"$ref": "#/$defs/Person"}, {"$ref": "#/$defs/BadAttributes"}]}
      }
    },
    "Author": {
      "type": "object",
      "properties": {
        "type": {"const": "authors"},
        "id": {"type": "string"},
        "relationships": {
          "type": "object",
          "properties": {
            "books": {"type": "object", "properties": {"data": {"type": "array", "items": {"$ref": "#/$defs/Book"}}}}
          }
        }
      }
    },
    "Book": {
      "type": "object",
      "properties": {
        "type": {"const": "books"},
        "id": {"type": "string"},
        "relationships": {
          "type": "object",
          "properties": {
            "author": {"type": "object", "properties": {"data": {"$ref": "#/$defs/Author"}}}
          }
        }
      }
    },
    "LibraryDocument": {
      "type": "object",
      "properties": {
        "data": {"$ref": "#/$defs/Book"},
        "included": {"type": "array", "items": {"$ref": "#/$defs/Author"}}
      }
    },
    "EmployeeDocument": {
      "type": "object",
      "properties": {
        "data": {"$ref": "#/$defs/Employee"},
        "included": {"type": "array", "items": {"$ref": "#/$defs/Employee"}}
      }
    }
  },
  "properties": {
    "anonymous": {
      "type": "object",
      "properties": {"type": {"const": "anons"}}
    },
    "anonymousDocument": {
      "type": "object",
      "properties": {"data": {"$ref": "#/$defs/Video"}}
    }
  }
}`

type resolverHarness struct {
	query     *JSONSchemaQuery
	registry  *namedTypeRegistry
	diags     *diagnosticLog
	resources *resourceResolver
	documents *documentResolver
}

func newResolverHarness(t *testing.T) *resolverHarness {
	t.Helper()
	q, err := NewJSONSchemaQuery([]byte(resolverFixture), "fixture.json")
	require.NoError(t, err)

	logger := zap.NewNop()
	registry := newNamedTypeRegistry("Unknown")
	diags := newDiagnosticLog(logger)
	resources := &resourceResolver{query: q, registry: registry, diags: diags, logger: logger}
	return &resolverHarness{
		query:     q,
		registry:  registry,
		diags:     diags,
		resources: resources,
		documents: &documentResolver{query: q, registry: registry, resources: resources, logger: logger},
	}
}

func (h *resolverHarness) def(t *testing.T, name string) apigen.SchemaRef {
	t.Helper()
	s, ok := h.query.Definition(name)
	require.True(t, ok, "missing fixture definition %s", name)
	return s
}

func (h *resolverHarness) prop(t *testing.T, name string) apigen.SchemaRef {
	t.Helper()
	s, ok := h.query.DeepProperty(h.query.Root(), name)
	require.True(t, ok, "missing fixture property %s", name)
	return s
}

func newFixtureEngine(t *testing.T, cfg apigen.ResolverConfig) (*JSONSchemaQuery, apigen.Engine) {
	t.Helper()
	q, err := NewJSONSchemaQuery([]byte(resolverFixture), "fixture.json")
	require.NoError(t, err)
	if cfg.UnknownPrefix == "" {
		cfg.UnknownPrefix = "Unknown"
	}
	return q, NewEngine(q, cfg, zap.NewNop())
}

func mustDefinition(t *testing.T, q *JSONSchemaQuery, name string) apigen.SchemaRef {
	t.Helper()
	s, ok := q.Definition(name)
	require.True(t, ok, "missing fixture definition %s", name)
	return s
}
