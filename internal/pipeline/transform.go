// Package pipeline wires the ETL stages into the two runs the CLI exposes:
// the transform run, which turns the raw inputs into the star-schema files,
// and the warehouse run, which recreates and loads the Redshift tables.
//
// Stages execute strictly in sequence; each one finishes before the next
// begins and the first error ends the run.
package pipeline

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/ajitpratap0/i94dw/pkg/config"
	"github.com/ajitpratap0/i94dw/pkg/connector/core"
	"github.com/ajitpratap0/i94dw/pkg/connector/registry"
	"github.com/ajitpratap0/i94dw/pkg/connector/sources"
	"github.com/ajitpratap0/i94dw/pkg/connector/sources/csv"
	"github.com/ajitpratap0/i94dw/pkg/errors"
	"github.com/ajitpratap0/i94dw/pkg/logger"
	"github.com/ajitpratap0/i94dw/pkg/metrics"
	"github.com/ajitpratap0/i94dw/pkg/models"
	"github.com/ajitpratap0/i94dw/pkg/observability"
	"github.com/ajitpratap0/i94dw/pkg/output"
	"github.com/ajitpratap0/i94dw/pkg/quality"
	"github.com/ajitpratap0/i94dw/pkg/schema"
	"github.com/ajitpratap0/i94dw/pkg/transform"
)

// Stage names, used for spans, logs and metrics.
const (
	StageRead     = "read"
	StageNullFill = "null_fill"
	StageCast     = "cast"
	StageExtract  = "extract"
	StageStaging  = "staging"
	StageQuality  = "quality"
	StageWrite    = "write"
)

// ReadFunc loads one input into a table.
type ReadFunc func(ctx context.Context, raw string, s *models.Schema, opts sources.Options, logger *zap.Logger) (*models.Table, error)

// Result summarizes a transform run.
type Result struct {
	RunID    string
	Tables   []*models.Table
	Quality  []quality.Result
	Orphans  *quality.Orphans
	Staging  *output.Manifest
	Manifest *output.Manifest
}

// Transform is the transform run.
type Transform struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *metrics.Recorder
	read    ReadFunc
	now     func() time.Time
}

// NewTransform creates a transform run over cfg. rec may be nil.
func NewTransform(cfg *config.Config, log *zap.Logger, rec *metrics.Recorder) *Transform {
	if log == nil {
		log = zap.NewNop()
	}
	return &Transform{
		cfg:     cfg,
		logger:  log,
		metrics: rec,
		read:    sources.Read,
		now:     time.Now,
	}
}

// StoreConfig extracts the object store credentials from cfg.
func StoreConfig(cfg *config.Config) core.StoreConfig {
	return core.StoreConfig{
		Region:          cfg.AWS.Region,
		AccessKeyID:     cfg.AWS.Key,
		SecretAccessKey: cfg.AWS.Secret,
		CredentialsFile: cfg.GCP.CredentialsFile,
	}
}

// Run reads every input, fills nulls, casts, extracts the eight tables,
// stages and checks them, and writes them under OUTPUT.ROOT.
func (p *Transform) Run(ctx context.Context) (res *Result, err error) {
	ctx, span := observability.StartSpan(ctx, "transform")
	defer func() { observability.EndSpan(span, err) }()

	res = &Result{RunID: p.now().UTC().Format("20060102T150405Z")}
	ctx = context.WithValue(ctx, logger.RunIDKey, res.RunID)
	log := logger.WithContext(ctx, p.logger)
	log.Info("starting transform run",
		zap.String("immigration", p.cfg.Input.Immigration),
		zap.String("output", p.cfg.Output.Root))

	var inputs transform.Inputs
	err = p.stage(ctx, StageRead, func(ctx context.Context) error {
		inputs, err = p.readInputs(ctx)
		return err
	})
	if err != nil {
		return res, err
	}

	immigration := inputs[schema.Immigration]
	if err = p.stage(ctx, StageNullFill, func(context.Context) error {
		return transform.FillNulls(immigration, log)
	}); err != nil {
		return res, err
	}
	if err = p.stage(ctx, StageCast, func(context.Context) error {
		return transform.Cast(immigration)
	}); err != nil {
		return res, err
	}

	err = p.stage(ctx, StageExtract, func(context.Context) error {
		res.Tables, err = transform.Extract(inputs)
		return err
	})
	if err != nil {
		return res, err
	}
	for _, tbl := range res.Tables {
		p.metrics.ObserveRows(tbl.Name, tbl.Count())
	}

	if p.cfg.Output.StagingDir != "" {
		err = p.stage(ctx, StageStaging, func(ctx context.Context) error {
			res.Staging, err = p.write(ctx, res.RunID, p.cfg.Output.StagingDir, res.Tables, output.Options{Header: true})
			return err
		})
		if err != nil {
			return res, err
		}
	}

	err = p.stage(ctx, StageQuality, func(context.Context) error {
		res.Orphans, err = p.checkQuality(res)
		return err
	})
	if err != nil {
		return res, err
	}

	err = p.stage(ctx, StageWrite, func(ctx context.Context) error {
		res.Manifest, err = p.write(ctx, res.RunID, p.cfg.Output.Root, res.Tables, output.Options{
			Compression: p.cfg.Compression(),
			Manifest:    true,
		})
		return err
	})
	if err != nil {
		return res, err
	}

	p.metrics.Succeeded()
	log.Info("transform run finished",
		zap.Int("tables", len(res.Tables)),
		zap.Strings("incomplete", quality.Incomplete(res.Quality)))
	return res, nil
}

// stage runs fn inside a span, timing it. fn's context carries the stage
// name, so loggers taken from it are tagged with both run and stage.
func (p *Transform) stage(ctx context.Context, name string, fn func(context.Context) error) (err error) {
	ctx = context.WithValue(ctx, logger.StageKey, name)
	ctx, span := observability.StartSpan(ctx, "transform."+name, attribute.String("stage", name))
	defer func() { observability.EndSpan(span, err) }()
	log := logger.WithContext(ctx, p.logger)

	start := time.Now()
	err = fn(ctx)
	p.metrics.ObserveStage(name, time.Since(start))
	if err != nil {
		log.Error("stage failed", zap.Error(err))
		return err
	}
	log.Debug("stage finished", zap.Duration("duration", time.Since(start)))
	return nil
}

type input struct {
	dataset   schema.Dataset
	location  string
	delimiter rune
}

func (p *Transform) inputs() ([]input, error) {
	delim, err := p.cfg.DemographicsDelimiter()
	if err != nil {
		return nil, err
	}
	in := p.cfg.Input
	return []input{
		{schema.Immigration, in.Immigration, ','},
		{schema.Modes, in.Modes, ','},
		{schema.Ports, in.Ports, ','},
		{schema.Visas, in.Visas, ','},
		{schema.Countries, in.Countries, ','},
		{schema.Demographics, in.Demographics, delim},
	}, nil
}

func (p *Transform) readInputs(ctx context.Context) (transform.Inputs, error) {
	list, err := p.inputs()
	if err != nil {
		return nil, err
	}

	log := logger.WithContext(ctx, p.logger)
	out := make(transform.Inputs, len(list))
	for _, in := range list {
		if in.location == "" {
			return nil, errors.Newf(errors.ErrorTypeConfig, "no location configured for %s input", in.dataset)
		}
		s, err := schema.Lookup(in.dataset)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeInternal, "schema lookup")
		}
		opts := sources.Options{
			CSV: csv.Options{
				Delimiter: in.delimiter,
				Header:    true,
				Strict:    p.cfg.Input.Strict,
			},
			Store: StoreConfig(p.cfg),
		}
		tbl, err := p.read(ctx, in.location, s, opts, log)
		if err != nil {
			return nil, err
		}
		tbl.Name = string(in.dataset)
		log.Info("input loaded",
			zap.String("dataset", string(in.dataset)),
			zap.String("location", in.location),
			zap.Int("rows", tbl.Count()))
		out[in.dataset] = tbl
	}
	return out, nil
}

func (p *Transform) checkQuality(res *Result) (*quality.Orphans, error) {
	checker := quality.NewChecker(p.logger)
	res.Quality = checker.Check(res.Tables)
	if !p.cfg.Checks.ModeLinkage {
		return nil, nil
	}

	fact, modes := findTable(res.Tables, schema.ImmigrationFact), findTable(res.Tables, schema.ModeOfArrivalDim)
	if fact == nil || modes == nil {
		return nil, errors.New(errors.ErrorTypeInternal, "mode linkage check needs the fact and mode tables")
	}
	orphans, err := checker.CheckReference(fact, "mode_of_arrival", modes, "code")
	if err != nil {
		return nil, err
	}
	return &orphans, nil
}

func (p *Transform) write(ctx context.Context, runID, root string, tables []*models.Table, opts output.Options) (*output.Manifest, error) {
	store, err := registry.Open(ctx, root, StoreConfig(p.cfg))
	if err != nil {
		return nil, err
	}
	defer store.Close()

	w, err := output.NewWriter(store, opts, p.logger)
	if err != nil {
		return nil, err
	}
	targets := make([]output.Target, len(tables))
	for i, tbl := range tables {
		targets[i] = output.Target{Table: tbl, Path: tbl.Name}
	}
	return w.WriteAll(ctx, runID, targets)
}

func findTable(tables []*models.Table, name string) *models.Table {
	for _, t := range tables {
		if t.Name == name {
			return t
		}
	}
	return nil
}
