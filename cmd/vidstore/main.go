// vidstore serves the stored videos over HTTP: listing by original name,
// ranged streaming with the header obfuscation reversed on the fly, and
// deletion. Static player assets are served from the public directory.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"vidstore/internal/api"
	"vidstore/internal/cache"
	"vidstore/internal/config"
	"vidstore/internal/mapping"
	"vidstore/internal/pkg/crypto/xor"
	"vidstore/internal/storage/disk"
	"vidstore/internal/streaming"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return err
	}

	flagSet := pflag.NewFlagSet("vidstore", pflag.ContinueOnError)
	cfg.AddFlags(flagSet)
	flagSet.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
	flagSet.StringVar(&cfg.PublicDir, "public-dir", cfg.PublicDir, "static asset directory (empty disables)")
	flagSet.DurationVar(&cfg.CacheTTL, "cache-ttl", cfg.CacheTTL, "idle time before a cached file is evicted")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.CacheTTL <= 0 {
		return fmt.Errorf("--cache-ttl must be positive")
	}

	logger := cfg.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := disk.NewStore(cfg.StorageDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	codec := xor.NewObfuscator(cfg.XORKey)
	ledger := mapping.NewLedger(cfg.LedgerPath, codec, logger)
	streamCache := cache.New(cache.WithTTL(cfg.CacheTTL), cache.WithLogger(logger))
	go streamCache.Run(ctx)

	engine := streaming.NewEngine(store, streamCache, codec, logger)
	handler := api.NewHandler(store, ledger, streamCache, engine, cfg.PublicDir, logger)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.Addr, "storage", store.Dir(), "ledger", ledger.Path())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
