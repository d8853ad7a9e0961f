// Package s3 implements an ObjectStore on Amazon S3.
package s3

import (
	"context"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	"github.com/ajitpratap0/i94dw/pkg/connector/core"
	"github.com/ajitpratap0/i94dw/pkg/errors"
	"github.com/ajitpratap0/i94dw/pkg/logger"
)

const (
	// DefaultRegion matches the region of the warehouse cluster.
	DefaultRegion = "us-west-2"

	// maxDeleteBatch is the DeleteObjects limit.
	maxDeleteBatch = 1000
)

// S3Store stores objects under a bucket prefix.
type S3Store struct {
	client   *s3.Client
	uploader *manager.Uploader
	loc      core.Location
	logger   *zap.Logger
}

// NewS3Store creates a store for loc. Static credentials are used when an
// access key is configured; otherwise the default AWS credential chain
// applies.
func NewS3Store(ctx context.Context, loc core.Location, cfg core.StoreConfig) (*S3Store, error) {
	region := cfg.Region
	if region == "" {
		region = DefaultRegion
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to load AWS configuration")
	}

	return newS3Store(s3.NewFromConfig(awsCfg), loc, cfg.PartSize), nil
}

func newS3Store(client *s3.Client, loc core.Location, partSize int64) *S3Store {
	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		if partSize > 0 {
			u.PartSize = partSize
		}
	})
	return &S3Store{
		client:   client,
		uploader: uploader,
		loc:      loc,
		logger: logger.Get().With(
			zap.String("component", "s3_store"),
			zap.String("bucket", loc.Bucket)),
	}
}

// Put uploads body, using multipart uploads for large objects.
func (s *S3Store) Put(ctx context.Context, key string, body io.Reader) error {
	start := time.Now()
	full := s.loc.Key(key)

	result, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.loc.Bucket),
		Key:    aws.String(full),
		Body:   body,
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "failed to upload to S3").
			WithDetail("key", full)
	}

	s.logger.Debug("object uploaded",
		zap.String("location", result.Location),
		zap.Duration("duration", time.Since(start)))
	return nil
}

// Get opens an object.
func (s *S3Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	full := s.loc.Key(key)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.loc.Bucket),
		Key:    aws.String(full),
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to get S3 object").
			WithDetail("key", full)
	}
	return out.Body, nil
}

// List returns the keys under prefix, relative to the store root.
func (s *S3Store) List(ctx context.Context, prefix string) ([]string, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.loc.Bucket),
		Prefix: aws.String(s.loc.Key(prefix)),
	})

	var keys []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to list S3 objects").
				WithDetail("prefix", prefix)
		}
		for _, obj := range page.Contents {
			keys = append(keys, s.loc.Rel(aws.ToString(obj.Key)))
		}
	}
	return keys, nil
}

// DeletePrefix removes every object under prefix.
func (s *S3Store) DeletePrefix(ctx context.Context, prefix string) error {
	keys, err := s.List(ctx, prefix)
	if err != nil {
		return err
	}

	for _, batch := range batches(keys, maxDeleteBatch) {
		ids := make([]types.ObjectIdentifier, len(batch))
		for i, k := range batch {
			ids[i] = types.ObjectIdentifier{Key: aws.String(s.loc.Key(k))}
		}
		out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.loc.Bucket),
			Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeConnection, "failed to delete S3 objects").
				WithDetail("prefix", prefix)
		}
		if len(out.Errors) > 0 {
			first := out.Errors[0]
			return errors.Newf(errors.ErrorTypeFile, "failed to delete %s: %s",
				aws.ToString(first.Key), aws.ToString(first.Message))
		}
	}

	s.logger.Debug("prefix cleared", zap.String("prefix", prefix), zap.Int("objects", len(keys)))
	return nil
}

// URI renders the key as s3://bucket/key, the form the warehouse COPY
// command accepts regardless of how the root was spelled.
func (s *S3Store) URI(key string) string {
	return "s3://" + s.loc.Bucket + "/" + s.loc.Key(key)
}

// Close is a no-op; the SDK client holds no resources to release.
func (s *S3Store) Close() error {
	return nil
}

func batches(keys []string, size int) [][]string {
	var out [][]string
	for len(keys) > size {
		out = append(out, keys[:size])
		keys = keys[size:]
	}
	if len(keys) > 0 {
		out = append(out, keys)
	}
	return out
}
