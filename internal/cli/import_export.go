package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/curio/internal/codec"
)

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import a catalog document, replacing the current catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fail(exitUserError, "read %s: %v", args[0], err)
			}
			doc, err := codec.DecodeDocument(data)
			if err != nil {
				return fail(exitUserError, "decode %s: %v", args[0], err)
			}

			app, err := openApp()
			if err != nil {
				return fail(exitSysError, "%v", err)
			}
			defer app.Close()

			progress := func(processed, total int) {
				fmt.Fprintf(os.Stderr, "imported %d/%d items\n", processed, total)
			}
			if err := app.Adapter.ImportData(doc, progress); err != nil {
				return fail(exitSysError, "import: %v", err)
			}
			fmt.Printf("imported %d items, %d categories\n", len(doc.Items), len(doc.Categories))
			return nil
		},
	}
	return cmd
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Export the catalog to a portable JSON document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp()
			if err != nil {
				return fail(exitSysError, "%v", err)
			}
			defer app.Close()

			doc, err := app.Adapter.ExportData()
			if err != nil {
				return fail(exitSysError, "export: %v", err)
			}
			data, err := codec.EncodeDocument(doc)
			if err != nil {
				return fail(exitSysError, "encode: %v", err)
			}
			if err := os.WriteFile(args[0], data, 0o644); err != nil {
				return fail(exitSysError, "write %s: %v", args[0], err)
			}
			fmt.Printf("exported %d items, %d categories to %s\n", len(doc.Items), len(doc.Categories), args[0])
			return nil
		},
	}
	return cmd
}
