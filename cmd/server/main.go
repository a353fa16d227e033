package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/avolkov/notevault/internal/buildinfo"
	"github.com/avolkov/notevault/internal/gateway"
	"github.com/avolkov/notevault/internal/gateway/bolt"
	"github.com/avolkov/notevault/internal/gateway/postgres"
	"github.com/avolkov/notevault/internal/logging"
	"github.com/avolkov/notevault/internal/server"
	"github.com/avolkov/notevault/internal/server/config"
)

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.NewDefault(slog.Level(cfg.LogLevel))

	gw, cleanup, err := openGateway(ctx, cfg)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer cleanup()

	srv := server.New(cfg, gw, logger)
	if err := srv.Run(ctx); err != nil {
		log.Fatalf("server: %v", err)
	}
}

// openGateway picks the storage backend: PostgreSQL when a DSN is
// configured, the embedded bbolt file otherwise.
func openGateway(ctx context.Context, cfg *config.Config) (gateway.Gateway, func(), error) {
	if cfg.DatabaseDSN != "" {
		db, err := postgres.Open(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, err
		}
		return postgres.New(db), func() { _ = db.Close() }, nil
	}

	g, err := bolt.Open(cfg.BoltPath)
	if err != nil {
		return nil, nil, err
	}
	return g, func() { _ = g.Close() }, nil
}
