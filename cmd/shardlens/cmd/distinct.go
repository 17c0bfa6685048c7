package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shardlens/shardlens/internal/query"
)

var distinctCmd = &cobra.Command{
	Use:   "distinct <column>",
	Short: "List distinct values of a column",
	Long: `List the distinct non-null values of one column across all shards,
capped at query.distinct_limit. Useful for building --filter flags.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, _, cleanup, err := openSession()
		if err != nil {
			return err
		}
		defer cleanup()

		values, err := sess.DistinctValues(cmd.Context(), args[0], cfg.Query.DistinctLimit)
		if err != nil {
			var pe *query.ProbeUnavailableError
			if errors.As(err, &pe) {
				logger.Warn("distinct-values probe failed", "column", args[0], "error", err)
				fmt.Println("unknown (probe failed)")
				return nil
			}
			return err
		}

		for _, v := range values {
			fmt.Println(v)
		}
		if len(values) == cfg.Query.DistinctLimit {
			fmt.Printf("(truncated at %d values)\n", cfg.Query.DistinctLimit)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(distinctCmd)
}
