package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"task_web/internal/config"
	"task_web/internal/handler"
	"task_web/internal/logger"
	"task_web/internal/render"
	"task_web/internal/repository"
	"task_web/internal/service"
	"task_web/internal/task"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	baseLogger := logger.NewAsyncLogger(appCtx, logger.Config{Level: logger.ParseLevel(cfg.Log.Level)})
	baseLogger.Info("Application starting...", "env", cfg.Env, "storage", cfg.Storage.Driver)

	taskRepo, closeRepo, err := openRepository(appCtx, cfg.Storage, baseLogger)
	if err != nil {
		baseLogger.Fatal("Failed to open task repository", "error", err)
	}

	renderer, err := newRenderer(cfg)
	if err != nil {
		baseLogger.Fatal("Failed to load templates", "error", err)
	}

	taskService := service.NewTaskService(taskRepo, baseLogger)
	taskHandler := handler.NewTaskHandler(taskService, renderer, baseLogger)

	mux := http.NewServeMux()
	taskHandler.RegisterRoutes(mux)

	root := logger.RequestLogger(baseLogger)(logger.Recover(mux))

	server := &http.Server{Addr: cfg.Addr, Handler: root}

	go func() {
		baseLogger.Info("Server is listening", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("Failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	baseLogger.Info("Server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("Failed to shutdown server", "error", err)
	}
	if err := closeRepo(); err != nil {
		baseLogger.Error("Failed to close task repository", "error", err)
	}

	cancel()
	baseLogger.Close()
}

func openRepository(ctx context.Context, cfg config.StorageConfig, log logger.Logger) (task.Repository, func() error, error) {
	switch cfg.Driver {
	case config.DriverMySQL:
		repo, err := repository.OpenMySQL(ctx, cfg.DSN, log)
		if err != nil {
			return nil, nil, err
		}
		return repo, repo.Close, nil
	default:
		return repository.NewMemoryRepository(log), func() error { return nil }, nil
	}
}

func newRenderer(cfg config.Config) (*render.Engine, error) {
	opts := []render.Option{
		render.WithFS(render.Templates()),
		render.WithGlobalData(map[string]any{
			"htmx_src":       cfg.Templates.HTMXSrc,
			"htmx_integrity": cfg.Templates.HTMXIntegrity,
		}),
	}
	if cfg.Templates.Dir != "" {
		opts = append(opts,
			render.WithBaseDir(cfg.Templates.Dir),
			render.WithCache(cfg.IsProduction()),
		)
	}
	return render.New(opts...)
}
