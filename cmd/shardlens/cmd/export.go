package cmd

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/shardlens/shardlens/internal/export"
	"github.com/shardlens/shardlens/internal/preset"
)

var (
	exportFlags  filterFlags
	exportFormat string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Run the filtered query and write the result to a file",
	Long: `Run a query and write the full result in the requested format. The
export row limit is independent of the preview limit: --limit here bounds
the exported file, not what query would show.

  shardlens export -f region=EU --format jsonl --limit 50000 -o eu.jsonl`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, _, cleanup, err := openSession()
		if err != nil {
			return err
		}
		defer cleanup()

		store := preset.NewStore(cfg.PresetsPath())
		// The --limit flag bounds the export, not the session state, so it
		// stays out of apply: the cached query text carries no limit and
		// Export re-runs it with the export bound.
		flags := exportFlags
		flags.limit = 0
		if err := flags.apply(sess, store); err != nil {
			return err
		}

		if _, err := sess.Refresh(cmd.Context()); err != nil {
			return err
		}
		result, err := sess.Export(cmd.Context(), exportFlags.limit)
		if err != nil {
			return err
		}

		out := os.Stdout
		if exportOutput != "" {
			f, err := os.Create(exportOutput)
			if err != nil {
				return fmt.Errorf("create output file: %w", err)
			}
			defer f.Close()
			out = f
		}

		formatter, err := export.New(exportFormat, out)
		if err != nil {
			return err
		}
		if err := formatter.Format(result); err != nil {
			return fmt.Errorf("write export: %w", err)
		}

		if exportOutput != "" {
			fmt.Printf("Wrote %s rows to %s\n",
				humanize.Comma(int64(result.RowCount())), exportOutput)
		}
		return nil
	},
}

func init() {
	exportFlags.register(exportCmd, true)
	exportCmd.Flags().Lookup("limit").Usage = "row limit for the exported file (default: no limit)"
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "output format: csv or jsonl")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default: stdout)")
	rootCmd.AddCommand(exportCmd)
}
