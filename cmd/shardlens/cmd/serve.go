package cmd

import (
	"github.com/spf13/cobra"

	"github.com/shardlens/shardlens/internal/api"
	"github.com/shardlens/shardlens/internal/preset"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `Serve the query session over HTTP. The API mirrors the CLI: set filter
state, refresh explicitly, read the cached result, probe counts and
distinct values, manage presets, stream exports.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, schema, cleanup, err := openSession()
		if err != nil {
			return err
		}
		defer cleanup()

		if servePort != 0 {
			cfg.Server.APIPort = servePort
		}
		store := preset.NewStore(cfg.PresetsPath())
		srv := api.NewServer(cfg, sess, schema, store, logger)
		return srv.Start(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (default: server.api_port from config)")
	rootCmd.AddCommand(serveCmd)
}
