package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/lychee-technology/apigen"
	"github.com/lychee-technology/apigen/factory"
	"github.com/lychee-technology/apigen/internal"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type rootOptions struct {
	configPath string
	noColor    bool

	cfg    *apigen.Config
	logger *zap.Logger
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "apigen",
		Short: "Resolve JSON:API resource and document types from API schemas",
		Long: `apigen reads an OpenAPI document or a JSON Schema, resolves every JSON:API
document and resource object it describes into named types, and emits a
manifest or TypeScript declarations for them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file (default: ./apigen.yaml)")
	rootCmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(newVersionCommand())
	rootCmd.AddCommand(newResolveCommand(opts))
	rootCmd.AddCommand(newRenderCommand(opts))
	rootCmd.AddCommand(newPublishCommand(opts))

	return rootCmd
}

func (o *rootOptions) setup() error {
	cfg, err := loadConfig(o.configPath)
	if err != nil {
		return err
	}
	logger, err := factory.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	zap.ReplaceGlobals(logger)

	if o.noColor || !cfg.Output.Color {
		color.NoColor = true
	}
	o.cfg = cfg
	o.logger = logger
	return nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "apigen %s (%s)\n", Version, GitCommit)
		},
	}
}

func newResolveCommand(opts *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "resolve <schema>",
		Short: "Resolve a schema and print the manifest",
		Example: `  # Print the manifest for an OpenAPI document
  apigen resolve api.yaml

  # Write the manifest to a file
  apigen resolve schema.json -o manifest.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := resolveRun(cmd.Context(), opts, args[0])
			if err != nil {
				return err
			}
			printDiagnostics(cmd.ErrOrStderr(), run.engine.Diagnostics())

			data, err := apigen.NewManifest(run.engine, run.source.Name).Encode(opts.cfg.Output.Indent)
			if err != nil {
				return fmt.Errorf("encode manifest: %w", err)
			}
			if output == "" {
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
			} else if err := writeFile(output, data); err != nil {
				return err
			}
			return run.failures
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the manifest to this file instead of stdout")
	return cmd
}

func newRenderCommand(opts *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "render <schema>",
		Short: "Render TypeScript declarations for every resolved document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := resolveRun(cmd.Context(), opts, args[0])
			if err != nil {
				return err
			}

			renderDiags := internal.NewDiagnosticLog(opts.logger)
			renderer := factory.NewTypeScriptRenderer(run.engine, renderDiags)
			names := make([]string, 0, len(run.docs))
			for _, doc := range run.docs {
				names = append(names, doc.Name)
			}
			if err := renderer.Render(names...); err != nil {
				return fmt.Errorf("render: %w", err)
			}
			printDiagnostics(cmd.ErrOrStderr(), append(run.engine.Diagnostics(), renderDiags.Diagnostics()...))

			if output == "" {
				output = filepath.Join(opts.cfg.Output.Directory, typeScriptFileName(run.source.Name))
			}
			if output == "-" {
				_, err = cmd.OutOrStdout().Write(renderer.Bytes())
				if err != nil {
					return err
				}
				return run.failures
			}
			if err := writeFile(output, renderer.Bytes()); err != nil {
				return err
			}
			color.New(color.FgGreen).Fprintf(cmd.ErrOrStderr(), "✓ wrote %s\n", output)
			return run.failures
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file, '-' for stdout (default: <output.directory>/<schema>.ts)")
	return cmd
}

func newPublishCommand(opts *rootOptions) *cobra.Command {
	var (
		key       string
		preflight bool
	)

	cmd := &cobra.Command{
		Use:   "publish <schema>",
		Short: "Resolve a schema and publish the manifest to the configured storage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if preflight {
				if err := factory.CheckStorage(ctx, opts.cfg, 5*time.Second); err != nil {
					return fmt.Errorf("storage preflight: %w", err)
				}
			}
			run, err := resolveRun(ctx, opts, args[0])
			if err != nil {
				return err
			}
			printDiagnostics(cmd.ErrOrStderr(), run.engine.Diagnostics())
			if run.failures != nil {
				return run.failures
			}

			data, err := apigen.NewManifest(run.engine, run.source.Name).Encode(opts.cfg.Output.Indent)
			if err != nil {
				return fmt.Errorf("encode manifest: %w", err)
			}

			sink, err := factory.NewManifestSink(ctx, opts.cfg, opts.logger)
			if err != nil {
				return err
			}
			if key == "" {
				key = opts.cfg.Output.ManifestName
			}
			location, err := sink.Put(ctx, key, data)
			if err != nil {
				return err
			}
			color.New(color.FgGreen).Fprintf(cmd.ErrOrStderr(), "✓ published %s\n", location)
			return nil
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "Object key (default: output.manifest_name)")
	cmd.Flags().BoolVar(&preflight, "preflight", false, "Check the storage endpoint before resolving")
	return cmd
}

type resolution struct {
	source   *factory.Source
	engine   apigen.Engine
	docs     []*apigen.DocumentType
	failures error
}

// resolveRun loads the schema file and resolves every document in it. Load
// errors are returned as err; per-document failures are kept in failures so
// callers can still emit what did resolve.
func resolveRun(ctx context.Context, opts *rootOptions, path string) (*resolution, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apigen.NewSchemaLoadError(path, err)
	}

	src, err := factory.LoadSource(ctx, data, path, opts.cfg.Resolver, opts.logger)
	if err != nil {
		return nil, err
	}
	if len(src.Targets) == 0 {
		zap.S().Warnf("no JSON:API documents found in %s", path)
	}

	engine := factory.NewEngine(opts.cfg, src.Query, opts.logger)
	docs, failures := engine.ResolveAll(src.Targets)
	if failures != nil {
		failures = fmt.Errorf("%d document(s) failed to resolve: %w", len(multierr.Errors(failures)), failures)
	}
	return &resolution{source: src, engine: engine, docs: docs, failures: failures}, nil
}

func printDiagnostics(w io.Writer, diags []apigen.Diagnostic) {
	if len(diags) == 0 {
		return
	}
	warn := color.New(color.FgYellow, color.Bold)
	dim := color.New(color.Faint)

	warn.Fprintf(w, "⚠ %d diagnostic(s)\n", len(diags))
	for _, d := range diags {
		fmt.Fprintf(w, "  %s %s: %s\n", warn.Sprint(string(d.Kind)), d.Name, d.Message)
		if d.Location != "" {
			dim.Fprintf(w, "    at %s\n", d.Location)
		}
	}
}

func typeScriptFileName(source string) string {
	base := filepath.Base(source)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".ts"
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output file: %w", err)
	}
	return nil
}

// isLoadError reports whether err came from reading or parsing the input.
func isLoadError(err error) bool {
	var genErr *apigen.GenError
	return errors.As(err, &genErr) && genErr.Type == apigen.ErrorTypeLoad
}
