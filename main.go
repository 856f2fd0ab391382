package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"auction-house/internal/config"
	"auction-house/internal/repository"
	"auction-house/internal/server"
	"auction-house/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		utils.Fatal("failed to load configuration", map[string]any{"error": err.Error()})
	}
	utils.SetLevel(cfg.Log.Level)
	gin.SetMode(gin.ReleaseMode)

	db, err := repository.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		utils.Fatal("failed to open database", map[string]any{"driver": cfg.Database.Driver, "error": err.Error()})
	}
	defer func() {
		if err := repository.Close(db); err != nil {
			utils.Error("failed to close database", map[string]any{"error": err.Error()})
		}
	}()

	handler, err := server.NewApp(cfg, db)
	if err != nil {
		utils.Fatal("failed to build application", map[string]any{"error": err.Error()})
	}

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		utils.Info("Starting auction server", map[string]any{"addr": srv.Addr, "driver": cfg.Database.Driver})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-stop:
	case err := <-serveErr:
		utils.Error("server failed to listen and serve", map[string]any{"error": err.Error()})
		return
	}

	utils.Info("Shutting down server gracefully", nil)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		utils.Error("server shutdown failed", map[string]any{"error": err.Error()})
		return
	}
	utils.Info("Server exited gracefully", nil)
}
