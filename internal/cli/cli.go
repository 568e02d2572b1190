// Package cli wires configuration, schema sources and the generator into
// the zkgen command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/matthewbaird/zkgen/internal/cache"
	"github.com/matthewbaird/zkgen/internal/codegen"
	"github.com/matthewbaird/zkgen/internal/config"
	"github.com/matthewbaird/zkgen/internal/formatter"
	"github.com/matthewbaird/zkgen/internal/logger"
	"github.com/matthewbaird/zkgen/internal/schema"
	"github.com/matthewbaird/zkgen/internal/snapshot"
	"github.com/matthewbaird/zkgen/internal/version"
	"github.com/matthewbaird/zkgen/zenkit"
)

// noFormatter disables the formatter step.
const noFormatter = "none"

// Streams are the process boundaries a command reads and writes.
type Streams struct {
	Out    io.Writer
	Err    io.Writer
	Getenv func(string) string
}

// Execute runs zkgen with the process arguments and returns the exit code.
func Execute(ctx context.Context) int {
	return Run(ctx, os.Args[1:], Streams{Out: os.Stdout, Err: os.Stderr, Getenv: os.Getenv})
}

// Run executes args and reports a failure with its hints on s.Err.
func Run(ctx context.Context, args []string, s Streams) int {
	cmd := NewRootCommand(s)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(s.Err, "zkgen: %v\n", err)
		for _, hint := range errors.GetAllHints(err) {
			fmt.Fprintf(s.Err, "hint: %s\n", hint)
		}
		return 1
	}
	return 0
}

// NewRootCommand returns the zkgen command tree.
func NewRootCommand(s Streams) *cobra.Command {
	root := &cobra.Command{
		Use:   "zkgen",
		Short: "Generate a typed Go client for a Zenkit workspace",
		Long: `zkgen reads the lists of a Zenkit workspace and writes a Go package with
one file per list: typed item accessors, create and update builders, and
label constants for category fields.

Settings resolve from flags, then zkgen.toml, then the environment
(ZENKIT_API_TOKEN and ZKGEN_<SETTING>).`,
		Example: `  zkgen --workspace "Acme CRM" --output ./acme
  zkgen --snapshot acme.json --workspace "Acme CRM" --output ./acme`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, s)
		},
	}
	root.SetOut(s.Out)
	root.SetErr(s.Err)

	pf := root.PersistentFlags()
	pf.String(config.KeyToken, "", "Zenkit API token")
	pf.String(config.KeyEndpoint, "", "Zenkit API base URL (default "+zenkit.DefaultEndpoint+")")
	pf.StringP(config.KeyWorkspace, "w", "", "workspace name, id or uuid")
	pf.String(config.KeyConfig, "", "config file (default zkgen.toml)")
	pf.Int(config.KeyConcurrency, 4, "lists fetched in parallel")
	pf.Bool(config.KeyLogJSON, false, "log as JSON")
	pf.BoolP(config.KeyVerbose, "v", false, "log debug messages")
	root.Flags().AddFlagSet(generateFlags())

	check := newCheckCommand(s)
	check.Flags().AddFlagSet(generateFlags())

	root.AddCommand(check, newSnapshotCommand(s), newVersionCommand(s))
	return root
}

// generateFlags are shared by the root command and check.
func generateFlags() *pflag.FlagSet {
	f := pflag.NewFlagSet("generate", pflag.ContinueOnError)
	f.StringP(config.KeyOutput, "o", "", "output directory")
	f.String(config.KeyPackage, "", "package name (default derived from the workspace name)")
	f.String(config.KeyModule, "", "module path for go.mod.sample (default the package name)")
	f.String(config.KeyFormatter, formatter.DefaultCommand, `formatter command run over the output, or "`+noFormatter+`"`)
	f.String(config.KeySnapshot, "", "read the schema from a snapshot file instead of the API")
	f.String(config.KeyCache, "", "SQLite file caching list schemas between runs")
	f.Duration(config.KeyCacheTTL, cache.DefaultTTL, "how long cached schemas stay fresh")
	return f
}

func load(cmd *cobra.Command, s Streams) (*config.Config, *zap.SugaredLogger, error) {
	cfg, err := config.Load(cmd.Flags(), s.Getenv)
	if err != nil {
		return nil, nil, err
	}
	log := logger.NewWithWriter(s.Err, cfg.LogJSON, cfg.Verbose)
	if cfg.File != "" {
		log.Debugw("loaded config", "file", cfg.File)
	}
	return cfg, log, nil
}

func newClient(cfg *config.Config, log *zap.SugaredLogger) (*zenkit.Client, error) {
	return zenkit.NewClient(zenkit.Config{
		Token:    cfg.Token,
		Endpoint: cfg.Endpoint,
		Logger:   log.Desugar(),
	})
}

// openSource picks where schemas come from: a snapshot file, or the API
// behind an optional cache. The returned func releases the source.
func openSource(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (schema.Source, func(), error) {
	if cfg.Snapshot != "" {
		snap, err := snapshot.Load(cfg.Snapshot)
		if err != nil {
			return nil, nil, err
		}
		log.Infow("using snapshot", "file", cfg.Snapshot, "captured_at", snap.CapturedAt)
		return snap, func() {}, nil
	}
	client, err := newClient(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Cache == "" {
		return client, func() {}, nil
	}
	c, err := cache.Open(ctx, cfg.Cache, client, cfg.CacheTTL, log)
	if err != nil {
		return nil, nil, err
	}
	return c, func() {
		if err := c.Close(); err != nil {
			log.Warnw("closing cache", "error", err)
		}
	}, nil
}

func runGenerate(cmd *cobra.Command, s Streams) error {
	cfg, log, err := load(cmd, s)
	if err != nil {
		return err
	}
	res, err := generate(cmd.Context(), cfg, log, cfg.Output)
	if err != nil {
		return err
	}
	log.Infow("generated workspace", "workspace", cfg.Workspace, "lists", len(res.Modules), "dir", cfg.Output)
	for _, path := range res.Files {
		fmt.Fprintln(s.Out, path)
	}
	return nil
}

// generate runs the generator for cfg into outDir. cfg.Output must be set
// even when outDir differs, since check compares against it.
func generate(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger, outDir string) (*codegen.Result, error) {
	required := []string{config.KeyWorkspace, config.KeyOutput}
	if cfg.Snapshot == "" {
		required = append(required, config.KeyToken)
	}
	if err := cfg.Require(required...); err != nil {
		return nil, err
	}

	src, release, err := openSource(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	defer release()

	var fmtr codegen.Formatter
	if cfg.Formatter != noFormatter {
		if fmtr, err = formatter.New(cfg.Formatter, log); err != nil {
			return nil, err
		}
	}
	gen, err := codegen.New(log, codegen.Options{
		Package:        cfg.Package,
		ModulePath:     cfg.Module,
		RuntimeVersion: version.Module("v0.0.0"),
		Concurrency:    cfg.Concurrency,
		Formatter:      fmtr,
	})
	if err != nil {
		return nil, err
	}
	return gen.Generate(ctx, schema.NewProvider(src, log), cfg.Workspace, outDir)
}
