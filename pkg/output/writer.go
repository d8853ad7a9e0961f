// Package output serializes tables to delimited files under a storage root,
// one directory per table.
package output

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/i94dw/pkg/compression"
	"github.com/ajitpratap0/i94dw/pkg/connector/core"
	"github.com/ajitpratap0/i94dw/pkg/errors"
	"github.com/ajitpratap0/i94dw/pkg/json"
	"github.com/ajitpratap0/i94dw/pkg/models"
)

// PartName is the single file written into each table directory.
const PartName = "part-00000.csv"

// ManifestName is the run manifest written at the root.
const ManifestName = "_manifest.json"

// Options configure a Writer.
type Options struct {
	// Header writes the column names as the first record.
	Header bool
	// Delimiter separates fields; zero means a comma.
	Delimiter rune
	// Compression applied to every part file.
	Compression compression.Algorithm
	// Manifest writes ManifestName after the batch.
	Manifest bool
}

// Target pairs a table with its directory relative to the root.
type Target struct {
	Table *models.Table
	Path  string
}

// Entry describes one written table.
type Entry struct {
	Table       string                `json:"table"`
	Location    string                `json:"location"`
	Object      string                `json:"object"`
	Rows        int                   `json:"rows"`
	Columns     []string              `json:"columns"`
	Header      bool                  `json:"header"`
	Compression compression.Algorithm `json:"compression"`
	Bytes       int64                 `json:"bytes"`
}

// Manifest lists the tables of one run.
type Manifest struct {
	RunID     string    `json:"run_id"`
	CreatedAt time.Time `json:"created_at"`
	Root      string    `json:"root"`
	Tables    []Entry   `json:"tables"`
}

// Writer writes tables into an object store.
type Writer struct {
	store  core.ObjectStore
	opts   Options
	comp   compression.Compressor
	logger *zap.Logger
}

// NewWriter creates a writer over store.
func NewWriter(store core.ObjectStore, opts Options, logger *zap.Logger) (*Writer, error) {
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}
	comp, err := compression.NewCompressor(&compression.Config{
		Algorithm: opts.Compression,
		Level:     compression.Default,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid output compression")
	}
	return &Writer{store: store, opts: opts, comp: comp, logger: logger}, nil
}

// WriteAll writes the targets one at a time. The first failure stops the
// batch: earlier tables stay written and later ones are not attempted.
func (w *Writer) WriteAll(ctx context.Context, runID string, targets []Target) (*Manifest, error) {
	manifest := &Manifest{
		RunID:     runID,
		CreatedAt: time.Now().UTC(),
		Root:      w.store.URI(""),
	}

	for _, t := range targets {
		entry, err := w.Write(ctx, t)
		if err != nil {
			return manifest, err
		}
		manifest.Tables = append(manifest.Tables, entry)
	}

	if w.opts.Manifest {
		if err := w.writeManifest(ctx, manifest); err != nil {
			return manifest, err
		}
	}
	return manifest, nil
}

// Write replaces the directory at t.Path with a single part file.
func (w *Writer) Write(ctx context.Context, t Target) (Entry, error) {
	start := time.Now()
	dir := t.Path + "/"
	object := dir + PartName + w.comp.Algorithm().Extension()

	if err := w.store.DeletePrefix(ctx, dir); err != nil {
		return Entry{}, errors.Wrap(err, errors.ErrorTypeFile, "failed to clear table directory").
			WithDetail("table", t.Table.Name)
	}

	pr, pw := io.Pipe()
	counter := &countingWriter{w: pw}
	go func() {
		_ = pw.CloseWithError(w.encode(counter, t.Table))
	}()

	if err := w.store.Put(ctx, object, pr); err != nil {
		_ = pr.CloseWithError(err)
		return Entry{}, errors.Wrap(err, errors.ErrorTypeFile, "failed to write table").
			WithDetail("table", t.Table.Name)
	}

	entry := Entry{
		Table:       t.Table.Name,
		Location:    w.store.URI(dir),
		Object:      w.store.URI(object),
		Rows:        t.Table.Count(),
		Columns:     t.Table.Schema.FieldNames(),
		Header:      w.opts.Header,
		Compression: w.comp.Algorithm(),
		Bytes:       counter.n,
	}
	w.logger.Info("table written",
		zap.String("table", entry.Table),
		zap.String("object", entry.Object),
		zap.Int("rows", entry.Rows),
		zap.Int64("bytes", entry.Bytes),
		zap.Duration("duration", time.Since(start)))
	return entry, nil
}

func (w *Writer) encode(dst io.Writer, tbl *models.Table) error {
	zw, err := w.comp.NewWriter(dst)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(zw)
	cw.Comma = w.opts.Delimiter
	if w.opts.Header {
		if err := cw.Write(tbl.Schema.FieldNames()); err != nil {
			return err
		}
	}

	record := make([]string, len(tbl.Schema.Fields))
	for _, row := range tbl.Rows {
		for i, v := range row {
			record[i] = models.FormatValue(v)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return zw.Close()
}

func (w *Writer) writeManifest(ctx context.Context, m *Manifest) error {
	var buf bytes.Buffer
	if err := json.MarshalToWriter(&buf, m); err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to encode manifest")
	}
	if err := w.store.Put(ctx, ManifestName, &buf); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write manifest")
	}
	return nil
}

// ReadManifest loads the manifest at the root of store.
func ReadManifest(ctx context.Context, store core.ObjectStore) (*Manifest, error) {
	rc, err := store.Get(ctx, ManifestName)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var m Manifest
	if err := json.UnmarshalFromReader(rc, &m); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to decode manifest")
	}
	return &m, nil
}

// countingWriter counts the bytes that reach the store.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
