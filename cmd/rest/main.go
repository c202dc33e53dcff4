package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"literature-search-be/internal/bootstrap"
	"literature-search-be/internal/config"
	"literature-search-be/internal/server"
	"literature-search-be/internal/tracer"
	"literature-search-be/pkg/database"

	"golang.org/x/sync/errgroup"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection, database.Options{Verbose: !cfg.IsProduction()})
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)
	defer container.Close()
	defer container.Logger.Sync()

	shutdownTracer := tracer.InitTracer(cfg.Tracing, container.Logger)
	defer shutdownTracer(context.Background())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, container)
	g, gctx := errgroup.WithContext(ctx)

	// 4. Background Services
	g.Go(func() error {
		container.WebSocketHub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return container.EventRelayService.Consume(gctx)
	})

	// 5. HTTP
	g.Go(srv.Run)
	g.Go(func() error {
		<-gctx.Done()
		container.Logger.Info("Main", "Shutting down", nil)
		return srv.Shutdown()
	})

	if err := g.Wait(); err != nil {
		container.Logger.Error("Main", "Server stopped with error", map[string]interface{}{"error": err.Error()})
	}
}
