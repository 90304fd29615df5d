// restore downloads a host's archive from S3 into the storage directory
// and merges the archived name records into the local ledger.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/spf13/pflag"

	"vidstore/internal/config"
	"vidstore/internal/device"
	"vidstore/internal/mapping"
	"vidstore/internal/pkg/crypto/xor"
	"vidstore/internal/storage"
	"vidstore/internal/storage/disk"
	"vidstore/internal/storage/s3"
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

	var (
		instanceID string
		opts       storage.Options
	)
	flagSet := pflag.NewFlagSet("restore", pflag.ContinueOnError)
	cfg.AddFlags(flagSet)
	flagSet.StringVar(&cfg.BucketName, "bucket", cfg.BucketName, "source S3 bucket")
	flagSet.StringVar(&cfg.ArchivePrefix, "prefix", cfg.ArchivePrefix, "key prefix archives live under")
	flagSet.StringVar(&instanceID, "instance", "", "archive directory to restore (default: this host)")
	flagSet.BoolVar(&opts.Overwrite, "overwrite", false, "replace stored files that already exist locally, and their ledger records")
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

	if instanceID == "" {
		instanceID, err = device.New("vidstore").InstanceID()
		if err != nil {
			return fmt.Errorf("deriving instance id: %w", err)
		}
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("unable to load SDK config: %w", err)
	}

	store, err := disk.NewStore(cfg.StorageDir)
	if err != nil {
		return err
	}
	ledger := mapping.NewLedger(cfg.LedgerPath, xor.NewObfuscator(cfg.XORKey), logger)
	backend, err := s3.NewClient(ctx, awsCfg, cfg.BucketName,
		s3.WithPrefix(cfg.ArchivePrefix),
		s3.WithInstanceID(instanceID),
	)
	if err != nil {
		return err
	}

	archiver := storage.NewArchiver(backend, backend.GetConfig(), logger)
	logger.Info("restoring", "bucket", cfg.BucketName, "root", archiver.Root(), "overwrite", opts.Overwrite)
	report, err := archiver.Restore(ctx, store, ledger, opts)
	if err != nil {
		return err
	}
	logger.Info("restore finished", "files", report.Files, "skipped", report.Skipped, "records", report.Records, "bytes", report.Bytes)
	return nil
}
