// Package cli implements the curio command-line interface: catalog
// initialization, import/export, search, listing, and maintenance over
// either storage backend.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	backend   string
	jsonMode  bool
}

var flags rootFlags

// NewRootCmd creates the top-level "curio" command with global flags and
// all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "curio",
		Short: "A local catalog store for personal-media inventories",
		Long: "Curio manages a personal-media catalog on a chunked-file or\n" +
			"embedded-SQLite backend, with full-text search, batch import,\n" +
			"and legacy-format migration.",
		// Do not print usage on errors returned by subcommands.
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "data directory (default: .curio-db in the working directory)")
	root.PersistentFlags().StringVar(&flags.backend, "backend", "", "storage backend: file or sqlite (default: from config)")
	root.PersistentFlags().BoolVar(&flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newSearchCmd())
	root.AddCommand(newImportCmd())
	root.AddCommand(newExportCmd())
	root.AddCommand(newStatsCmd())
	root.AddCommand(newVacuumCmd())
	root.AddCommand(newBackupCmd())

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(exitUserError)
	}
}

// fail prints an error to stderr and exits with the given code.
func fail(code int, format string, args ...any) error {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(code)
	return nil // unreachable
}
