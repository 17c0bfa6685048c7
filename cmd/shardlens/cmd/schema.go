package cmd

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/shardlens/shardlens/internal/source"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Show the discovered shard schema and a preview",
	Long: `Show the column names discovered from the representative shard (the
first shard in path order) and a small preview of its rows. Only one
shard is read; the rest of the collection is never touched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := resolveSource()
		if err != nil {
			return err
		}
		shards, err := source.Shards(src.Dir)
		if err != nil {
			return err
		}
		schema, err := source.Discover(src, cfg.Query.PreviewRows)
		if err != nil {
			return err
		}

		fmt.Printf("Source:   %s\n", src.Dir)
		fmt.Printf("Shards:   %s\n", humanize.Comma(int64(len(shards))))
		fmt.Printf("Encoding: %s\n", src.Encoding)
		fmt.Printf("Columns:  %d\n\n", len(schema.Columns))

		printTable(os.Stdout, schema.Columns, schema.Preview)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
