package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shardlens/shardlens/internal/preset"
)

var presetSaveFlags filterFlags

var presetCmd = &cobra.Command{
	Use:   "preset",
	Short: "Manage saved filter presets",
	Long: `Presets are named filter configurations (value filters plus an optional
date range) stored in ` + "`presets.toml`" + ` under the home directory. Apply one
with --preset on query, count or export.`,
}

var presetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved presets",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := preset.NewStore(cfg.PresetsPath())
		presets, err := store.Load()
		if err != nil {
			return err
		}
		if len(presets) == 0 {
			fmt.Println("No presets saved.")
			return nil
		}

		names := make([]string, 0, len(presets))
		for name := range presets {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			p := presets[name]
			fmt.Printf("%s\n", name)
			cols := make([]string, 0, len(p.Filters))
			for col := range p.Filters {
				cols = append(cols, col)
			}
			sort.Strings(cols)
			for _, col := range cols {
				fmt.Printf("  %s = %s\n", col, strings.Join(p.Filters[col], ", "))
			}
			if p.DateStart != "" && p.DateEnd != "" {
				fmt.Printf("  dates: %s .. %s\n", p.DateStart, p.DateEnd)
			}
		}
		return nil
	},
}

var presetSaveCmd = &cobra.Command{
	Use:   "save <name>",
	Short: "Save the given filters as a named preset",
	Long: `Save a filter configuration under a name. The filters are given with the
same flags as query:

  shardlens preset save eu-q1 -f region=EU --start 2021-01-01 --end 2021-03-31

Saving an existing name replaces it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filters, err := parseValueFilters(presetSaveFlags.filters)
		if err != nil {
			return err
		}
		if len(filters) == 0 && presetSaveFlags.start == "" && presetSaveFlags.end == "" {
			return fmt.Errorf("nothing to save: pass --filter and/or --start/--end")
		}

		store := preset.NewStore(cfg.PresetsPath())
		if err := store.Save(args[0], preset.Preset{
			Filters:   filters,
			DateStart: presetSaveFlags.start,
			DateEnd:   presetSaveFlags.end,
		}); err != nil {
			return err
		}
		fmt.Printf("Saved preset %q\n", args[0])
		return nil
	},
}

var presetDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a saved preset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := preset.NewStore(cfg.PresetsPath())
		if err := store.Delete(args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted preset %q\n", args[0])
		return nil
	},
}

func init() {
	presetSaveCmd.Flags().StringArrayVarP(&presetSaveFlags.filters, "filter", "f", nil, "value filter, col=v1,v2 (repeatable)")
	presetSaveCmd.Flags().StringVar(&presetSaveFlags.start, "start", "", "start of shard date range (YYYY-MM-DD, requires --end)")
	presetSaveCmd.Flags().StringVar(&presetSaveFlags.end, "end", "", "end of shard date range (YYYY-MM-DD, requires --start)")

	presetCmd.AddCommand(presetListCmd)
	presetCmd.AddCommand(presetSaveCmd)
	presetCmd.AddCommand(presetDeleteCmd)
	rootCmd.AddCommand(presetCmd)
}
