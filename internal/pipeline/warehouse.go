package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/ajitpratap0/i94dw/pkg/config"
	"github.com/ajitpratap0/i94dw/pkg/connector/core"
	"github.com/ajitpratap0/i94dw/pkg/connector/registry"
	"github.com/ajitpratap0/i94dw/pkg/metrics"
	"github.com/ajitpratap0/i94dw/pkg/warehouse"
)

// ConnectFunc opens a warehouse session.
type ConnectFunc func(ctx context.Context, dsn string) (warehouse.Session, error)

// Phase selects what a warehouse run does.
type Phase struct {
	Reset bool
	Load  bool
}

// Warehouse is the warehouse run.
type Warehouse struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *metrics.Recorder
	connect ConnectFunc
}

// NewWarehouse creates a warehouse run over cfg. rec may be nil.
func NewWarehouse(cfg *config.Config, logger *zap.Logger, rec *metrics.Recorder) *Warehouse {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Warehouse{cfg: cfg, logger: logger, metrics: rec, connect: warehouse.Connect}
}

// Run connects once and executes the requested phases, reset first. The
// connection is closed on every path.
func (w *Warehouse) Run(ctx context.Context, phase Phase) (err error) {
	var out core.ObjectStore
	if phase.Load {
		out, err = registry.Open(ctx, w.cfg.Output.Root, StoreConfig(w.cfg))
		if err != nil {
			return err
		}
		defer out.Close()
	}

	session, err := w.connect(ctx, w.cfg.DSN())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := session.Close(context.WithoutCancel(ctx)); cerr != nil {
			w.logger.Warn("failed to close warehouse connection", zap.Error(cerr))
		}
	}()
	w.logger.Info("connected to warehouse",
		zap.String("host", w.cfg.Cluster.Host),
		zap.String("database", w.cfg.Cluster.DBName))

	loader := warehouse.NewLoader(session, warehouse.Options{
		RoleARN:     w.cfg.IAM.ARN,
		Region:      w.cfg.AWS.Region,
		Compression: w.cfg.Compression(),
		Sources:     w.cfg.Sources,
		Output:      out,
		Metrics:     w.metrics,
	}, w.logger)

	if phase.Reset {
		if err := loader.Reset(ctx); err != nil {
			return err
		}
	}
	if phase.Load {
		if err := loader.Load(ctx); err != nil {
			return err
		}
	}
	w.metrics.Succeeded()
	return nil
}
