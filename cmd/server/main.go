package main

import (
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/wudai/relgraph/internal/config"
	"github.com/wudai/relgraph/internal/server"
	"github.com/wudai/relgraph/internal/store/local"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using defaults")
	}

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.toml"
	}
	cfg, err := config.LoadOrDefault(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	dbPath := cfg.Storage.DBPath("data")
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		logger.Fatal("failed to create data directory", zap.Error(err))
	}
	kv, err := local.OpenKV(dbPath)
	if err != nil {
		logger.Fatal("failed to open storage", zap.Error(err))
	}
	defer kv.Close()

	state, err := server.NewState(kv, logger)
	if err != nil {
		logger.Fatal("failed to load graph state", zap.Error(err))
	}

	srv := server.New(state, cfg.Server, logger)
	r := srv.SetupRouter()

	logger.Info("starting server", zap.String("addr", cfg.Server.Addr))
	if err := r.Run(cfg.Server.Addr); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
