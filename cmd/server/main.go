package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/petasbytes/course-agent/internal/api"
	"github.com/petasbytes/course-agent/internal/app"
	"github.com/petasbytes/course-agent/internal/config"
	"github.com/petasbytes/course-agent/internal/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Env); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting HTTP API server...",
		zap.String("provider", cfg.Provider),
		zap.String("model", cfg.Model),
		zap.String("store", cfg.Store),
	)

	ctx := context.Background()
	a, err := app.New(ctx, cfg, nil, log)
	if err != nil {
		log.Fatal("Failed to initialize agent", zap.Error(err))
	}
	defer a.Close(context.Background())

	router := api.NewRouter(api.Deps{
		Querier:    a.Coordinator,
		Sessions:   a.Sessions,
		Catalog:    a.Store,
		Logger:     log,
		Production: cfg.IsProduction(),
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Info("Server listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}
