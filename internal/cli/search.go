package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/curio/pkg/types"
)

func newSearchCmd() *cobra.Command {
	var (
		categoryID string
		phrase     bool
	)
	cmd := &cobra.Command{
		Use:   "search QUERY...",
		Short: "Search items by name, description, and genres",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp()
			if err != nil {
				return fail(exitSysError, "%v", err)
			}
			defer app.Close()

			mode := types.MatchPrefix
			if phrase {
				mode = types.MatchPhrase
			}
			items, err := app.Adapter.SearchItems(strings.Join(args, " "), categoryID, mode)
			if err != nil {
				return fail(exitSysError, "search: %v", err)
			}
			return printItems(items)
		},
	}
	cmd.Flags().StringVar(&categoryID, "category", "", "restrict to one category ID")
	cmd.Flags().BoolVar(&phrase, "phrase", false, "match the query as one phrase instead of term prefixes")
	return cmd
}
