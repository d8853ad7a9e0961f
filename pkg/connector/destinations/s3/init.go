package s3

import (
	"context"

	"github.com/ajitpratap0/i94dw/pkg/connector/core"
	"github.com/ajitpratap0/i94dw/pkg/connector/registry"
)

func init() {
	// s3a is the Hadoop spelling of the same bucket addressing
	_ = registry.Register(func(ctx context.Context, loc core.Location, cfg core.StoreConfig) (core.ObjectStore, error) {
		return NewS3Store(ctx, loc, cfg)
	}, "s3", "s3a")
}
