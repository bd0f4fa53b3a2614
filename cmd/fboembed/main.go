// Package main wires together the oEmbed resolver service binary.
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
	"time"

	"go.uber.org/zap"

	"github.com/dpi/media-entity-facebook/internal/api"
	"github.com/dpi/media-entity-facebook/internal/config"
	collyfetcher "github.com/dpi/media-entity-facebook/internal/fetcher/colly"
	"github.com/dpi/media-entity-facebook/internal/logging"
	"github.com/dpi/media-entity-facebook/internal/oembed"
	"github.com/dpi/media-entity-facebook/internal/oembed/memory"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent: cfg.Oembed.UserAgent,
		Timeout:   cfg.FetchTimeout(),
	})
	cache := memory.NewCache()
	resolver := oembed.NewResolver(fetcher, cache, logger.Named("oembed"), oembed.Config{
		Endpoints: cfg.Endpoints(),
		Timeout:   cfg.FetchTimeout(),
	})

	apiServer := api.NewServer(resolver, logger.Named("api"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}
