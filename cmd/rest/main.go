package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"metrocare-be/internal/bootstrap"
	"metrocare-be/internal/config"
	"metrocare-be/internal/server"
	"metrocare-be/internal/tracer"
	"metrocare-be/pkg/database"

	"golang.org/x/sync/errgroup"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()
	if cfg.Auth.JwtSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection, cfg.App.IsDevelopment())
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}
	defer database.Close(gormDB)

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)
	defer container.Close()

	// 4. Tracing (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.Setup(context.Background(), cfg.Tracing, cfg.App.Environment, container.Logger)
	defer shutdownTracer(context.Background())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Initialize Server
	srv := server.New(cfg, container)

	// 6. Run server and background workers until one fails or a signal arrives
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		container.WebSocketHub.Run(gCtx)
		return nil
	})
	g.Go(func() error {
		log.Println("Background: Starting embedding backfill consumer...")
		return container.ConsumerService.Consume(gCtx)
	})
	g.Go(func() error {
		return container.NotificationService.Start(gCtx)
	})
	g.Go(func() error {
		return srv.Run()
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Println("Shutting down server...")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}
