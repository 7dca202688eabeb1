package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wudai/relgraph/internal/export"
	"github.com/wudai/relgraph/internal/store/local"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Write a JSON backup of the graph",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			path := export.Filename(time.Now())
			if len(args) == 1 {
				path = args[0]
			}
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("failed to create backup file: %w", err)
			}
			defer f.Close()

			if err := export.Write(f, a.store.Snapshot()); err != nil {
				return err
			}
			if ls, ok := a.store.(*local.Store); ok {
				if err := ls.MarkBackupTime(); err != nil {
					return err
				}
			}
			good.Printf("exported to %s\n", path)
			return nil
		},
	}
	return cmd
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Restore the local graph from a backup",
		Long: `Restore the local graph from a backup file written by export.

The backup replaces nodes, links and comments wholesale. Local mode only;
requires --admin-password unless the graph was never given one.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.remote {
				return fmt.Errorf("import works on local storage only")
			}
			if !a.localAuth.IsAdmin() {
				return fmt.Errorf("import requires admin: pass --admin-password")
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open backup file: %w", err)
			}
			defer f.Close()

			snap, err := export.Read(f)
			if err != nil {
				return err
			}
			if err := a.kv.SaveGraph(snap.Nodes, snap.Links); err != nil {
				return err
			}
			if err := a.kv.SaveComments(snap.Comments); err != nil {
				return err
			}
			good.Printf("restored %d nodes, %d links, %d comments\n",
				len(snap.Nodes), len(snap.Links), len(snap.Comments))
			return nil
		},
	}
	return cmd
}
