package s3

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"vidstore/internal/storage"
)

// DefaultConfig provides default configuration values
var DefaultConfig = storage.Config{
	BucketName: "vidstore-archive",
	Region:     "us-east-1",
	Prefix:     "archives/",
	InstanceID: "default",
}

// NewClient creates a new S3 store for bucket and verifies the bucket is accessible
func NewClient(ctx context.Context, cfg aws.Config, bucket string, opts ...func(*storage.Config)) (*Store, error) {
	client := s3.NewFromConfig(cfg)

	_, err := client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to access bucket %s: %w", bucket, err)
	}

	return New(client, NewConfig(cfg.Region, bucket, opts...)), nil
}

// NewConfig builds a store configuration on top of DefaultConfig
func NewConfig(region, bucket string, opts ...func(*storage.Config)) storage.Config {
	config := DefaultConfig
	if bucket != "" {
		config.BucketName = bucket
	}
	if region != "" {
		config.Region = region
	}
	for _, opt := range opts {
		opt(&config)
	}
	return config
}

// WithPrefix sets the key prefix archives are stored under
func WithPrefix(prefix string) func(*storage.Config) {
	return func(c *storage.Config) {
		if prefix != "" {
			c.Prefix = prefix
		}
	}
}

// WithInstanceID sets the per-host archive directory
func WithInstanceID(id string) func(*storage.Config) {
	return func(c *storage.Config) {
		if id != "" {
			c.InstanceID = id
		}
	}
}
