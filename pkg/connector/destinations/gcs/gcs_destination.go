// Package gcs implements an ObjectStore on Google Cloud Storage.
package gcs

import (
	"context"
	stderrors "errors"
	"io"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/ajitpratap0/i94dw/pkg/connector/core"
	"github.com/ajitpratap0/i94dw/pkg/errors"
	"github.com/ajitpratap0/i94dw/pkg/logger"
)

// GCSStore stores objects under a bucket prefix.
type GCSStore struct {
	client *storage.Client
	bucket *storage.BucketHandle
	loc    core.Location
	logger *zap.Logger
}

// NewGCSStore creates a store for loc. Without a credentials file the
// application default credentials are used.
func NewGCSStore(ctx context.Context, loc core.Location, cfg core.StoreConfig) (*GCSStore, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to create GCS client")
	}
	return &GCSStore{
		client: client,
		bucket: client.Bucket(loc.Bucket),
		loc:    loc,
		logger: logger.Get().With(
			zap.String("component", "gcs_store"),
			zap.String("bucket", loc.Bucket)),
	}, nil
}

// Put writes body to the object, replacing it.
func (s *GCSStore) Put(ctx context.Context, key string, body io.Reader) error {
	full := s.loc.Key(key)
	obj := s.bucket.Object(full)
	open := func(ctx context.Context) io.WriteCloser { return obj.NewWriter(ctx) }

	if err := upload(ctx, open, body, full); err != nil {
		return err
	}
	s.logger.Debug("object uploaded", zap.String("object", full))
	return nil
}

// upload copies body into a writer opened on its own cancellable context.
// A failed copy cancels that context without closing the writer, which
// abandons the upload; closing would commit the truncated object.
func upload(ctx context.Context, open func(context.Context) io.WriteCloser, body io.Reader, object string) error {
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := open(wctx)
	if _, err := io.Copy(w, body); err != nil {
		cancel()
		return errors.Wrap(err, errors.ErrorTypeConnection, "failed to write to GCS").
			WithDetail("object", object)
	}
	if err := w.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "failed to close GCS writer").
			WithDetail("object", object)
	}
	return nil
}

// Get opens an object.
func (s *GCSStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	full := s.loc.Key(key)
	r, err := s.bucket.Object(full).NewReader(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open GCS object").
			WithDetail("object", full)
	}
	return r, nil
}

// List returns the keys under prefix, relative to the store root.
func (s *GCSStore) List(ctx context.Context, prefix string) ([]string, error) {
	it := s.bucket.Objects(ctx, &storage.Query{Prefix: s.loc.Key(prefix)})

	var keys []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to list GCS objects").
				WithDetail("prefix", prefix)
		}
		keys = append(keys, s.loc.Rel(attrs.Name))
	}
	return keys, nil
}

// DeletePrefix removes every object under prefix.
func (s *GCSStore) DeletePrefix(ctx context.Context, prefix string) error {
	keys, err := s.List(ctx, prefix)
	if err != nil {
		return err
	}
	for _, k := range keys {
		err := s.bucket.Object(s.loc.Key(k)).Delete(ctx)
		if err != nil && !stderrors.Is(err, storage.ErrObjectNotExist) {
			return errors.Wrap(err, errors.ErrorTypeConnection, "failed to delete GCS object").
				WithDetail("object", k)
		}
	}
	return nil
}

// URI renders the key as gs://bucket/key.
func (s *GCSStore) URI(key string) string {
	return "gs://" + s.loc.Bucket + "/" + s.loc.Key(key)
}

// Close releases the client.
func (s *GCSStore) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}
