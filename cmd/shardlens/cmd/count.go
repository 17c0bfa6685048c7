package cmd

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/shardlens/shardlens/internal/preset"
	"github.com/shardlens/shardlens/internal/query"
)

var countFlags filterFlags

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Count rows matching the filters without materializing them",
	Long: `Run a count-only probe for the given filters. The count is advisory:
use it to decide whether to sample before running a full query. A probe
failure prints "unknown" instead of failing the command.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, _, cleanup, err := openSession()
		if err != nil {
			return err
		}
		defer cleanup()

		store := preset.NewStore(cfg.PresetsPath())
		if err := countFlags.apply(sess, store); err != nil {
			return err
		}

		n, err := sess.Count(cmd.Context())
		if err != nil {
			var pe *query.ProbeUnavailableError
			if errors.As(err, &pe) {
				logger.Warn("row-count probe failed", "error", err)
				fmt.Println("Matching rows: unknown")
				return nil
			}
			return err
		}

		fmt.Printf("Matching rows: %s\n", humanize.Comma(n))
		return nil
	},
}

func init() {
	countFlags.register(countCmd, false)
	rootCmd.AddCommand(countCmd)
}
