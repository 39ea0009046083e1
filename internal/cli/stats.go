package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show catalog statistics and storage information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp()
			if err != nil {
				return fail(exitSysError, "%v", err)
			}
			defer app.Close()

			stats, err := app.Adapter.GetStatistics()
			if err != nil {
				return fail(exitSysError, "stats: %v", err)
			}
			info := app.Adapter.GetStorageInfo()

			if flags.jsonMode {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"statistics": stats,
					"storage":    info,
				})
			}

			fmt.Printf("Backend:    %s\n", info.Backend)
			fmt.Printf("Location:   %s\n", info.Location)
			fmt.Printf("Items:      %d\n", stats.TotalItems)
			fmt.Printf("Categories: %d\n", stats.TotalCategories)
			if stats.StorageBytes > 0 {
				fmt.Printf("Storage:    %d bytes\n", stats.StorageBytes)
			}
			if len(stats.ItemsByCategory) > 0 {
				fmt.Println()
				w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "CATEGORY\tITEMS")
				ids := make([]string, 0, len(stats.ItemsByCategory))
				for id := range stats.ItemsByCategory {
					ids = append(ids, id)
				}
				sort.Strings(ids)
				for _, id := range ids {
					fmt.Fprintf(w, "%s\t%d\n", id, stats.ItemsByCategory[id])
				}
				return w.Flush()
			}
			return nil
		},
	}
	return cmd
}
