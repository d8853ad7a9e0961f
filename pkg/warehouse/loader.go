// Package warehouse recreates the star schema in Redshift and bulk-loads the
// extracted files into it.
//
// Loading is two phases, each its own invocation: Reset drops and recreates
// all eight tables, Load issues one COPY per table. Statements run in the
// fixed schema.LoadOrder, each committed on its own, and the first failure
// aborts the phase. Nothing is retried.
package warehouse

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/ajitpratap0/i94dw/pkg/compression"
	"github.com/ajitpratap0/i94dw/pkg/connector/core"
	"github.com/ajitpratap0/i94dw/pkg/errors"
	"github.com/ajitpratap0/i94dw/pkg/metrics"
	"github.com/ajitpratap0/i94dw/pkg/observability"
	"github.com/ajitpratap0/i94dw/pkg/schema"
)

// Statement kinds, used for errors, logs and metrics.
const (
	KindDrop   = "drop"
	KindCreate = "create"
	KindCopy   = "copy"
)

// Options configures a Loader.
type Options struct {
	// RoleARN is the IAM role Redshift assumes to read the files.
	RoleARN string
	Region  string
	// Compression of the extracted files.
	Compression compression.Algorithm
	// Sources maps a table to the location COPY reads from. Tables without
	// an entry are read from Output.
	Sources map[string]string
	// Output is the store the extracted tables were written to.
	Output  core.ObjectStore
	Metrics *metrics.Recorder
}

// Loader runs the warehouse phases over one session.
type Loader struct {
	session Session
	opts    Options
	logger  *zap.Logger
}

// NewLoader creates a loader. The session stays owned by the caller.
func NewLoader(session Session, opts Options, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{session: session, opts: opts, logger: logger}
}

// Reset drops every table, then creates every table. Running it twice
// leaves the same eight empty tables.
func (l *Loader) Reset(ctx context.Context) (err error) {
	ctx, span := observability.StartSpan(ctx, "warehouse.reset")
	defer func() { observability.EndSpan(span, err) }()
	defer l.opts.Metrics.Time("reset")()

	order := schema.LoadOrder()
	for _, t := range order {
		if err := l.exec(ctx, KindDrop, t.Name, DropStatement(t)); err != nil {
			return err
		}
	}
	for _, t := range order {
		if err := l.exec(ctx, KindCreate, t.Name, CreateStatement(t)); err != nil {
			return err
		}
	}
	l.logger.Info("warehouse tables recreated", zap.Int("tables", len(order)))
	return nil
}

// Load copies every table from its source location.
func (l *Loader) Load(ctx context.Context) (err error) {
	ctx, span := observability.StartSpan(ctx, "warehouse.load")
	defer func() { observability.EndSpan(span, err) }()
	defer l.opts.Metrics.Time("load")()

	order := schema.LoadOrder()
	for _, t := range order {
		src, err := l.Source(t.Name)
		if err != nil {
			return err
		}
		stmt := CopyStatement(CopySpec{
			Table:       t.Name,
			Source:      src,
			RoleARN:     l.opts.RoleARN,
			Region:      l.opts.Region,
			Compression: l.opts.Compression,
		})
		if err := l.exec(ctx, KindCopy, t.Name, stmt); err != nil {
			return err
		}
	}
	l.logger.Info("warehouse tables loaded", zap.Int("tables", len(order)))
	return nil
}

// Source returns the location table is copied from.
func (l *Loader) Source(table string) (string, error) {
	if src, ok := l.opts.Sources[table]; ok && src != "" {
		return src, nil
	}
	if l.opts.Output == nil {
		return "", errors.Newf(errors.ErrorTypeConfig, "no COPY source for table %s", table).
			WithDetail("table", table)
	}
	return l.opts.Output.URI(table + "/"), nil
}

func (l *Loader) exec(ctx context.Context, kind, table, stmt string) error {
	if err := ctx.Err(); err != nil {
		return errors.Database(err, table, strings.ToUpper(kind))
	}

	ctx, span := observability.StartSpan(ctx, "warehouse."+kind,
		attribute.String("table", table))
	start := time.Now()
	err := l.session.Exec(ctx, stmt)
	observability.EndSpan(span, err)
	l.opts.Metrics.Statement(kind, err)

	if err != nil {
		l.logger.Error("statement failed",
			zap.String("kind", kind),
			zap.String("table", table),
			zap.Error(err))
		return errors.Database(err, table, strings.ToUpper(kind)).WithDetail("sql", stmt)
	}
	l.logger.Debug("statement executed",
		zap.String("kind", kind),
		zap.String("table", table),
		zap.Duration("duration", time.Since(start)))
	return nil
}
