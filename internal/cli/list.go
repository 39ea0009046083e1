package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/curio/pkg/types"
)

func newListCmd() *cobra.Command {
	var (
		categoryID string
		sortField  string
		descending bool
		page       int
		pageSize   int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog items",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp()
			if err != nil {
				return fail(exitSysError, "%v", err)
			}
			defer app.Close()

			direction := types.SortAsc
			if descending {
				direction = types.SortDesc
			}
			if page < 1 {
				page = 1
			}
			items, err := app.Adapter.GetItems(
				types.ItemFilter{CategoryID: categoryID},
				types.SortSpec{Field: sortField, Direction: direction},
				types.Page{Offset: (page - 1) * pageSize, Size: pageSize},
			)
			if err != nil {
				return fail(exitSysError, "list items: %v", err)
			}
			return printItems(items)
		},
	}
	cmd.Flags().StringVar(&categoryID, "category", "", "restrict to one category ID")
	cmd.Flags().StringVar(&sortField, "sort", "name", "sort field: name, year, rating, addedDate, orderIndex")
	cmd.Flags().BoolVar(&descending, "desc", false, "sort descending")
	cmd.Flags().IntVar(&page, "page", 1, "page number (1-based)")
	cmd.Flags().IntVar(&pageSize, "page-size", 50, "items per page (0 for all)")
	return cmd
}

// printItems renders items as a table, or JSON with --json.
func printItems(items []types.Item) error {
	if flags.jsonMode {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tYEAR\tRATING\tCATEGORY")
	for i := range items {
		it := &items[i]
		year := "-"
		if it.Year != nil {
			year = fmt.Sprintf("%d", *it.Year)
		}
		rating := "-"
		if it.Rating != nil {
			rating = fmt.Sprintf("%.1f", *it.Rating)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", it.ID, it.Name, year, rating, it.CategoryID)
	}
	return w.Flush()
}
