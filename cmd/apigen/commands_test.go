package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/lychee-technology/apigen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articleSchema = `{
  "$defs": {
    "Article": {
      "type": "object",
      "properties": {
        "type": {"const": "articles"},
        "id": {"type": "string"},
        "relationships": {
          "type": "object",
          "properties": {
            "author": {"type": "object", "properties": {"data": {"$ref": "#/$defs/PersonIdentifier"}}}
          }
        }
      }
    },
    "Person": {
      "type": "object",
      "properties": {"type": {"const": "people"}, "id": {"type": "string"}}
    },
    "PersonIdentifier": {
      "type": "object",
      "properties": {"type": {"const": "people"}, "id": {"type": "string"}}
    },
    "ArticleDocument": {
      "type": "object",
      "properties": {
        "data": {"type": "array", "items": {"$ref": "#/$defs/Article"}},
        "included": {"type": "array", "items": {"$ref": "#/$defs/Person"}}
      }
    }
  }
}`

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--no-color"}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	t.Run("file overrides defaults", func(t *testing.T) {
		path := writeTestFile(t, dir, "apigen.yaml", `
resolver:
  unknown_prefix: Anon
  fail_fast: true
output:
  directory: out
`)
		cfg, err := loadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "Anon", cfg.Resolver.UnknownPrefix)
		assert.True(t, cfg.Resolver.FailFast)
		assert.Equal(t, "out", cfg.Output.Directory)
		assert.Equal(t, []string{apigen.MediaTypeJSONAPI}, cfg.Resolver.MediaTypes)
		assert.Equal(t, apigen.StorageProviderLocal, cfg.Storage.Provider)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		path := writeTestFile(t, dir, "env.yaml", "logging:\n  level: info\n")
		t.Setenv("APIGEN_LOGGING_LEVEL", "debug")
		t.Setenv("APIGEN_STORAGE_S3_BUCKET", "from-env")

		cfg, err := loadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.Equal(t, "from-env", cfg.Storage.S3.Bucket)
	})

	t.Run("invalid configuration", func(t *testing.T) {
		path := writeTestFile(t, dir, "bad.yaml", "storage:\n  provider: s3\n")
		_, err := loadConfig(path)
		var cfgErr *apigen.ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "storage.s3.bucket", cfgErr.Field)
	})

	t.Run("missing explicit file", func(t *testing.T) {
		_, err := loadConfig(filepath.Join(dir, "missing.yaml"))
		assert.Error(t, err)
	})
}

func TestResolveCommand(t *testing.T) {
	dir := t.TempDir()
	config := writeTestFile(t, dir, "apigen.yaml", "logging:\n  level: error\n")
	schema := writeTestFile(t, dir, "articles.json", articleSchema)

	stdout, _, err := runCommand(t, "resolve", schema, "--config", config)
	require.NoError(t, err)

	var manifest apigen.Manifest
	require.NoError(t, json.Unmarshal([]byte(stdout), &manifest))
	require.Len(t, manifest.Documents, 1)
	assert.Equal(t, "ArticleDocument", manifest.Documents[0].Name)
	assert.True(t, manifest.Documents[0].PrimaryIsArray)
	assert.Equal(t, []string{"Article"}, manifest.Documents[0].PrimaryResourceTypes)
	assert.Equal(t, []string{"Person"}, manifest.Documents[0].IncludedResourceTypes)
	assert.NotEmpty(t, manifest.RunID)
}

func TestResolveCommand_MissingFile(t *testing.T) {
	dir := t.TempDir()
	config := writeTestFile(t, dir, "apigen.yaml", "logging:\n  level: error\n")

	_, _, err := runCommand(t, "resolve", filepath.Join(dir, "nope.json"), "--config", config)
	require.Error(t, err)
	assert.True(t, isLoadError(err))
}

func TestRenderCommand(t *testing.T) {
	dir := t.TempDir()
	config := writeTestFile(t, dir, "apigen.yaml", "logging:\n  level: error\n")
	schema := writeTestFile(t, dir, "articles.json", articleSchema)
	output := filepath.Join(dir, "gen", "articles.ts")

	_, stderr, err := runCommand(t, "render", schema, "--config", config, "-o", output)
	require.NoError(t, err)
	assert.Contains(t, stderr, "wrote")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), "export interface Article {")
	assert.Contains(t, string(data), "export interface Person {")
	assert.Contains(t, string(data), `author?: { data: ResourceIdentifier<"people"> };`)
	assert.Contains(t, string(data), "data: Article[];")
}

func TestPublishCommand_Local(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "published")
	config := writeTestFile(t, dir, "apigen.yaml", "logging:\n  level: error\noutput:\n  directory: "+outDir+"\n")
	schema := writeTestFile(t, dir, "articles.json", articleSchema)

	_, stderr, err := runCommand(t, "publish", schema, "--config", config, "--key", "articles/manifest.json")
	require.NoError(t, err)
	assert.Contains(t, stderr, "published")

	data, err := os.ReadFile(filepath.Join(outDir, "articles", "manifest.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"ArticleDocument"`)
}

func TestTypeScriptFileName(t *testing.T) {
	assert.Equal(t, "api.ts", typeScriptFileName("specs/api.yaml"))
	assert.Equal(t, "schema.ts", typeScriptFileName("schema.json"))
}
