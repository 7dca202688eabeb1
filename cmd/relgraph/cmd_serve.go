package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wudai/relgraph/internal/config"
	"github.com/wudai/relgraph/internal/server"
	"github.com/wudai/relgraph/internal/store/local"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the sync backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.LoadOrDefault(cfgPath)
			if err != nil {
				return err
			}
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				cfg.Server.Addr = addr
			}

			logger, err := zap.NewProduction()
			if err != nil {
				return err
			}
			defer logger.Sync()

			dataDir, _ := cmd.Flags().GetString("data-dir")
			if dataDir == "" {
				dataDir = "data"
			}
			dbPath := cfg.Storage.DBPath(dataDir)
			if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
				return err
			}
			kv, err := local.OpenKV(dbPath)
			if err != nil {
				return err
			}
			defer kv.Close()

			state, err := server.NewState(kv, logger)
			if err != nil {
				return err
			}

			srv := server.New(state, cfg.Server, logger)
			logger.Info("starting server", zap.String("addr", cfg.Server.Addr))
			return srv.SetupRouter().Run(cfg.Server.Addr)
		},
	}
	cmd.Flags().String("addr", "", "Listen address, e.g. :8080")
	return cmd
}
