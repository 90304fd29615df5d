// decode restores every stored file to its original name and plaintext,
// then drops the restored records from the ledger.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"vidstore/internal/config"
	"vidstore/internal/ingest/service"
	"vidstore/internal/mapping"
	"vidstore/internal/pkg/crypto/xor"
	"vidstore/internal/storage/disk"
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
	flagSet := pflag.NewFlagSet("decode", pflag.ContinueOnError)
	cfg.AddFlags(flagSet)
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := cfg.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := disk.NewStore(cfg.StorageDir)
	if err != nil {
		return err
	}
	codec := xor.NewObfuscator(cfg.XORKey)
	svc := service.NewService(store, mapping.NewLedger(cfg.LedgerPath, codec, logger), codec, logger)

	results, err := svc.Decode(ctx)
	if err != nil {
		return err
	}

	failed, decoded := 0, 0
	for _, r := range results {
		switch {
		case r.Err != nil:
			failed++
		case !r.Skipped:
			decoded++
		}
	}
	logger.Info("decode finished", "decoded", decoded, "skipped", len(results)-decoded-failed, "failed", failed)
	if failed > 0 {
		return fmt.Errorf("%d file(s) failed to decode", failed)
	}
	return nil
}
