package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/shardlens/shardlens/internal/config"
	"github.com/shardlens/shardlens/internal/query"
	"github.com/shardlens/shardlens/internal/session"
	"github.com/shardlens/shardlens/internal/source"
)

var (
	cfgFile   string
	homeDir   string
	sourceDir string
	verbose   bool
	cfg       *config.Config
	logger    *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "shardlens",
	Short: "Explore large date-sharded CSV collections without loading them into memory",
	Long: `shardlens queries a directory of CSV shards (one file per date, shared
schema) through an embedded analytical engine. Filters are declared up
front and a scan only runs when explicitly requested, so a 90GB
collection stays cheap to explore.

Shard filenames must carry a YYYY-MM-DD date token, e.g. sales-2021-01-31.csv.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		}))

		var err error
		cfg, err = config.Load(cfgFile, homeDir)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if sourceDir != "" {
			cfg.Source.Dir = sourceDir
		}

		if err := cfg.EnsureHomeDir(); err != nil {
			return fmt.Errorf("create home directory %s: %w", cfg.HomeDir, err)
		}
		return nil
	},
}

// Execute runs the root command with a background context.
// Prefer ExecuteContext for signal-aware execution.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with the given context,
// enabling graceful shutdown when the context is cancelled.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// resolveSource builds the query source from config, resolving an "auto"
// encoding by sniffing the representative shard.
func resolveSource() (query.Source, error) {
	if cfg.Source.Dir == "" {
		return query.Source{}, fmt.Errorf("no source directory configured: pass --source or set source.dir in %s", cfg.ConfigFilePath())
	}
	shards, err := source.Shards(cfg.Source.Dir)
	if err != nil {
		return query.Source{}, err
	}
	enc, err := source.ResolveEncoding(cfg.Source.Encoding, shards[0].Path)
	if err != nil {
		return query.Source{}, err
	}
	return query.Source{
		Dir:       cfg.Source.Dir,
		Delimiter: cfg.Source.Delimiter,
		Encoding:  enc,
	}, nil
}

// openSession discovers the source schema, opens the engine and wires a
// session. The returned cleanup closes the engine connection.
func openSession() (*session.Session, *source.Schema, func(), error) {
	src, err := resolveSource()
	if err != nil {
		return nil, nil, nil, err
	}
	schema, err := source.Discover(src, cfg.Query.PreviewRows)
	if err != nil {
		return nil, nil, nil, err
	}
	gw, err := query.OpenGateway()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open engine: %w", err)
	}
	sess := session.New(src, schema.Columns, cfg.Query.DefaultLimit, gw, logger)
	return sess, schema, func() { gw.Close() }, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.shardlens/config.toml)")
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "home directory (overrides SHARDLENS_HOME)")
	rootCmd.PersistentFlags().StringVar(&sourceDir, "source", "", "shard directory (overrides source.dir from config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
