// setup creates the archive bucket if it does not exist yet.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/pflag"

	"vidstore/internal/config"
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

	flagSet := pflag.NewFlagSet("setup", pflag.ContinueOnError)
	cfg.AddFlags(flagSet)
	flagSet.StringVar(&cfg.BucketName, "bucket", cfg.BucketName, "S3 bucket to create")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	logger := cfg.NewLogger()

	ctx := context.Background()

	// Use default AWS configuration (from ~/.aws/credentials)
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("unable to load SDK config: %w", err)
	}

	store := s3.New(awss3.NewFromConfig(awsCfg), s3.NewConfig(awsCfg.Region, cfg.BucketName))
	created, err := store.EnsureBucket(ctx)
	if err != nil {
		return err
	}

	bucket := store.GetConfig()
	if created {
		logger.Info("bucket created", "bucket", bucket.BucketName, "region", bucket.Region)
	} else {
		logger.Info("bucket already exists", "bucket", bucket.BucketName, "region", bucket.Region)
	}
	return nil
}
