// archive uploads the storage directory and the ledger, as they sit on
// disk, to an S3 bucket under a per-host prefix.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sts"
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

	var instanceID string
	flagSet := pflag.NewFlagSet("archive", pflag.ContinueOnError)
	cfg.AddFlags(flagSet)
	flagSet.StringVar(&cfg.BucketName, "bucket", cfg.BucketName, "destination S3 bucket")
	flagSet.StringVar(&cfg.ArchivePrefix, "prefix", cfg.ArchivePrefix, "key prefix archives live under")
	flagSet.StringVar(&instanceID, "instance", "", "archive directory for this host (default: derived from the machine id)")
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

	identity, err := sts.NewFromConfig(awsCfg).GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return fmt.Errorf("failed to get caller identity: %w", err)
	}
	logger.Info("aws identity", "account", aws.ToString(identity.Account), "arn", aws.ToString(identity.Arn))

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
	report, err := archiver.Archive(ctx, store, ledger)
	if err != nil {
		return err
	}
	logger.Info("archive finished",
		"bucket", cfg.BucketName,
		"root", archiver.Root(),
		"files", report.Files,
		"bytes", report.Bytes,
	)
	return nil
}
