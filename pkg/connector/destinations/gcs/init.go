package gcs

import (
	"context"

	"github.com/ajitpratap0/i94dw/pkg/connector/core"
	"github.com/ajitpratap0/i94dw/pkg/connector/registry"
)

func init() {
	_ = registry.Register(func(ctx context.Context, loc core.Location, cfg core.StoreConfig) (core.ObjectStore, error) {
		return NewGCSStore(ctx, loc, cfg)
	}, "gs")
}
