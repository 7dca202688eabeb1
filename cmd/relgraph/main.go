package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.2.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "relgraph",
		Short: "Five Dynasties relationship graph",
		Long: `relgraph maintains a relationship graph of Five Dynasties era figures:
persons as nodes, typed relations as edges, plus a comment board.

By default the graph lives in local storage under --data-dir. With --remote
every change is pushed to the sync backend and the full state is fetched back.`,
	}

	rootCmd.PersistentFlags().String("data-dir", "", "Data directory (default ~/.relgraph)")
	rootCmd.PersistentFlags().String("config", "", "Path to a TOML config file")
	rootCmd.PersistentFlags().Bool("remote", false, "Work against the sync backend instead of local storage")
	rootCmd.PersistentFlags().String("api-base", "", "Sync backend base URL (overrides config)")
	rootCmd.PersistentFlags().String("admin-password", "", "Authenticate this run as admin (local mode)")
	rootCmd.PersistentFlags().String("admin-key", "", "Authenticate this run as admin (remote mode)")
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable debug logging")

	rootCmd.AddCommand(
		newVersionCmd(),
		newShowCmd(),
		newNodeCmd(),
		newLinkCmd(),
		newCommentCmd(),
		newAdminCmd(),
		newExportCmd(),
		newImportCmd(),
		newServeCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		bad.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("relgraph version %s\n", version)
		},
	}
}
