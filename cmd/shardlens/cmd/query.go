package cmd

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/shardlens/shardlens/internal/preset"
)

var (
	queryFlags   filterFlags
	queryShowSQL bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run the filtered query and print the result",
	Long: `Build a query from the given filters and execute it against the shard
collection.

Value filters match exactly (case-sensitive, no trimming):
  shardlens query -c region -c amount -f region=EU,US --start 2021-01-01 --end 2021-03-31

Sampling draws a bounded random subset before the row limit applies:
  shardlens query --sample 1000 --limit 100`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, _, cleanup, err := openSession()
		if err != nil {
			return err
		}
		defer cleanup()

		store := preset.NewStore(cfg.PresetsPath())
		if err := queryFlags.apply(sess, store); err != nil {
			return err
		}

		entry, err := sess.Refresh(cmd.Context())
		if err != nil {
			return err
		}

		if queryShowSQL {
			fmt.Println(entry.Query)
			fmt.Println()
		}

		printTable(os.Stdout, entry.Result.Columns, entry.Result.Rows)
		fmt.Printf("\n%s rows (fingerprint %s)\n",
			humanize.Comma(int64(entry.Result.RowCount())), entry.Fingerprint)
		return nil
	},
}

func init() {
	queryFlags.register(queryCmd, true)
	queryCmd.Flags().BoolVar(&queryShowSQL, "show-sql", false, "print the generated query text")
	rootCmd.AddCommand(queryCmd)
}
