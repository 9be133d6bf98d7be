package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/relaydb/mysql-mcp/pkg/config"
	"github.com/relaydb/mysql-mcp/pkg/logging"
	"github.com/relaydb/mysql-mcp/pkg/mcp"
	"github.com/relaydb/mysql-mcp/pkg/mcp/tools"
	"github.com/relaydb/mysql-mcp/pkg/middleware"
	"github.com/relaydb/mysql-mcp/pkg/registry"
	"github.com/relaydb/mysql-mcp/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	reg := registry.New(registry.Config{
		MaxOpenConns:    cfg.Pool.MaxOpenConns,
		MaxIdleConns:    cfg.Pool.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Pool.ConnMaxLifetimeMinutes) * time.Minute,
		ConnectTimeout:  time.Duration(cfg.Pool.ConnectTimeoutSeconds) * time.Second,
	}, logger)

	dispatcher := services.NewDispatcher(reg, cfg.Query.MaxRows, logger)

	srv := mcp.NewServer("mysql-mcp", cfg.Version, logger)
	tools.RegisterAll(srv.MCP(), &tools.Deps{
		Dispatcher: dispatcher,
		Registry:   reg,
		Logger:     logger,
		Version:    cfg.Version,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting mysql-mcp",
		zap.String("transport", cfg.Transport),
		zap.String("version", cfg.Version),
	)

	switch cfg.Transport {
	case "stdio":
		err = runStdio(ctx, srv, logger)
	case "http":
		err = runHTTP(ctx, srv, cfg, logger)
	default:
		err = errors.New("unknown transport: " + cfg.Transport)
	}

	if closeErr := reg.Close(); closeErr != nil {
		logger.Warn("registry close reported errors", zap.Error(closeErr))
	}

	if err != nil {
		logger.Error("server exited with error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

// runStdio serves MCP over stdin/stdout. ServeStdio returns when stdin
// closes; a signal just abandons the blocked read since there is no client
// left to answer.
func runStdio(ctx context.Context, srv *mcp.Server, logger *zap.Logger) error {
	done := make(chan error, 1)
	go func() { done <- srv.ServeStdio() }()

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	case <-ctx.Done():
		logger.Info("signal received, shutting down")
		return nil
	}
}

func runHTTP(ctx context.Context, srv *mcp.Server, cfg *config.Config, logger *zap.Logger) error {
	mux := http.NewServeMux()

	mcpHandler := middleware.MCPRequestLogger(logger)(srv.NewStreamableHTTPServer())
	mux.Handle("/mcp", mcpHandler)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           middleware.RequestLogger(logger)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP transport listening", zap.String("addr", cfg.ListenAddr()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("signal received, shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
