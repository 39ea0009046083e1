package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVacuumCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vacuum",
		Short: "Reclaim storage space and refresh search indexes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp()
			if err != nil {
				return fail(exitSysError, "%v", err)
			}
			defer app.Close()

			if err := app.Adapter.Vacuum(); err != nil {
				return fail(exitSysError, "vacuum: %v", err)
			}
			if err := app.Adapter.Optimize(); err != nil {
				return fail(exitSysError, "optimize: %v", err)
			}
			fmt.Println("vacuum complete")
			return nil
		},
	}
	return cmd
}

func newBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write a timestamped backup of the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp()
			if err != nil {
				return fail(exitSysError, "%v", err)
			}
			defer app.Close()

			path, err := app.Adapter.Backup()
			if err != nil {
				return fail(exitSysError, "backup: %v", err)
			}
			fmt.Printf("backup written to %s\n", path)
			return nil
		},
	}
	return cmd
}
