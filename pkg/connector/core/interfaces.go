package core

import (
	"context"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/ajitpratap0/i94dw/pkg/errors"
)

// ObjectStore is a flat namespace of objects under one root location. Keys
// are slash-separated and relative to the root.
type ObjectStore interface {
	// Put writes an object, replacing any existing object with the same key.
	Put(ctx context.Context, key string, body io.Reader) error
	// Get opens an object for reading.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// List returns the keys under prefix in lexical order.
	List(ctx context.Context, prefix string) ([]string, error)
	// DeletePrefix removes every object under prefix. A missing prefix is
	// not an error.
	DeletePrefix(ctx context.Context, prefix string) error
	// URI renders the absolute location of key as other systems address it.
	URI(key string) string
	// Close releases the client.
	Close() error
}

// StoreConfig carries the credentials and tuning a store may need. Fields a
// backend does not use are ignored.
type StoreConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	CredentialsFile string
	PartSize        int64
}

// Location is a parsed storage root.
type Location struct {
	Scheme string // file, s3, s3a or gs
	Bucket string // empty for file
	Prefix string // path inside the bucket, or the local directory
}

// ParseLocation parses a storage root. A bare path is a local directory.
func ParseLocation(raw string) (Location, error) {
	if raw == "" {
		return Location{}, errors.New(errors.ErrorTypeConfig, "empty storage location")
	}
	if !strings.Contains(raw, "://") {
		return Location{Scheme: "file", Prefix: path.Clean(raw)}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, errors.Wrap(err, errors.ErrorTypeConfig, "invalid storage location "+raw)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme == "file" {
		return Location{Scheme: scheme, Prefix: path.Clean(u.Host + u.Path)}, nil
	}
	if u.Host == "" {
		return Location{}, errors.Newf(errors.ErrorTypeConfig, "storage location %s has no bucket", raw)
	}
	return Location{
		Scheme: scheme,
		Bucket: u.Host,
		Prefix: strings.Trim(u.Path, "/"),
	}, nil
}

// Key joins a relative key onto the location prefix.
func (l Location) Key(rel string) string {
	rel = strings.TrimPrefix(rel, "/")
	if l.Prefix == "" {
		return rel
	}
	if rel == "" {
		return l.Prefix
	}
	return l.Prefix + "/" + rel
}

// Rel strips the location prefix from a full key.
func (l Location) Rel(full string) string {
	if l.Prefix == "" {
		return full
	}
	return strings.TrimPrefix(strings.TrimPrefix(full, l.Prefix), "/")
}
