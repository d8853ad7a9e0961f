// Package parquet reads parquet objects into schema-typed tables.
package parquet

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"path"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"go.uber.org/zap"

	"github.com/ajitpratap0/i94dw/pkg/connector/core"
	"github.com/ajitpratap0/i94dw/pkg/errors"
	"github.com/ajitpratap0/i94dw/pkg/models"
)

const batchSize = 64 * 1024

// Source reads a single parquet file or a directory of part files, as
// written by Spark. Columns are matched to schema fields by name, ignoring
// case; every schema field must be present.
type Source struct {
	alloc  memory.Allocator
	logger *zap.Logger
}

// NewSource creates a parquet source.
func NewSource(logger *zap.Logger) *Source {
	return &Source{alloc: memory.NewGoAllocator(), logger: logger}
}

// ReadObject reads key, which names either one .parquet object or a prefix
// holding part files.
func (s *Source) ReadObject(ctx context.Context, store core.ObjectStore, key string, schema *models.Schema) (*models.Table, error) {
	parts, err := s.parts(ctx, store, key)
	if err != nil {
		return nil, err
	}

	tbl := models.NewTable(schema.Name, schema)
	for _, part := range parts {
		if err := s.readPart(ctx, store, part, tbl); err != nil {
			return nil, err
		}
	}

	s.logger.Info("read parquet",
		zap.String("table", schema.Name),
		zap.String("location", store.URI(key)),
		zap.Int("files", len(parts)),
		zap.Int("rows", tbl.Count()))
	return tbl, nil
}

func (s *Source) parts(ctx context.Context, store core.ObjectStore, key string) ([]string, error) {
	if strings.HasSuffix(key, ".parquet") {
		return []string{key}, nil
	}

	prefix := strings.TrimSuffix(key, "/") + "/"
	if key == "" || key == "." {
		prefix = ""
	}
	keys, err := store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}

	var parts []string
	for _, k := range keys {
		base := path.Base(k)
		// _SUCCESS markers, .crc checksums and hidden files
		if strings.HasPrefix(base, "_") || strings.HasPrefix(base, ".") {
			continue
		}
		if strings.HasSuffix(base, ".parquet") {
			parts = append(parts, k)
		}
	}
	if len(parts) == 0 {
		return nil, errors.Newf(errors.ErrorTypeFile, "no parquet files under %s", store.URI(key))
	}
	return parts, nil
}

func (s *Source) readPart(ctx context.Context, store core.ObjectStore, key string, tbl *models.Table) error {
	rc, err := store.Get(ctx, key)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to read parquet object").WithDetail("key", key)
	}

	fr, err := file.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to open parquet file").WithDetail("key", key)
	}
	defer fr.Close()

	arrowReader, err := pqarrow.NewFileReader(fr, pqarrow.ArrowReadProperties{BatchSize: batchSize}, s.alloc)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create arrow reader").WithDetail("key", key)
	}

	arrowSchema, err := arrowReader.Schema()
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to read parquet schema").WithDetail("key", key)
	}
	columns, err := columnIndexes(tbl, arrowSchema)
	if err != nil {
		return err
	}

	rr, err := arrowReader.GetRecordReader(ctx, nil, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to read row groups").WithDetail("key", key)
	}
	defer rr.Release()

	for rr.Next() {
		if err := appendRecord(tbl, rr.Record(), columns); err != nil {
			var structured *errors.Error
			if errors.As(err, &structured) {
				return structured.WithDetail("key", key)
			}
			return err
		}
	}
	if err := rr.Err(); err != nil && !stderrors.Is(err, io.EOF) {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to decode parquet").WithDetail("key", key)
	}
	return nil
}

// columnIndexes maps each schema field to its arrow column.
func columnIndexes(tbl *models.Table, arrowSchema *arrow.Schema) ([]int, error) {
	byName := make(map[string]int, arrowSchema.NumFields())
	for i, f := range arrowSchema.Fields() {
		byName[strings.ToLower(f.Name)] = i
	}

	columns := make([]int, len(tbl.Schema.Fields))
	for i, f := range tbl.Schema.Fields {
		idx, ok := byName[strings.ToLower(f.Name)]
		if !ok {
			return nil, errors.MissingColumn(tbl.Name, f.Name)
		}
		columns[i] = idx
	}
	return columns, nil
}

func appendRecord(tbl *models.Table, rec arrow.Record, columns []int) error {
	rows := int(rec.NumRows())
	for r := 0; r < rows; r++ {
		row := make([]any, len(columns))
		for i, c := range columns {
			v, err := models.Convert(arrowValue(rec.Column(c), r), tbl.Schema.Fields[i].Type)
			if err != nil {
				var structured *errors.Error
				if errors.As(err, &structured) {
					return structured.WithDetail("column", tbl.Schema.Fields[i].Name)
				}
				return err
			}
			row[i] = v
		}
		tbl.Rows = append(tbl.Rows, row)
	}
	return nil
}

func arrowValue(col arrow.Array, i int) any {
	if col.IsNull(i) {
		return nil
	}

	switch c := col.(type) {
	case *array.Float64:
		return c.Value(i)
	case *array.Float32:
		return float64(c.Value(i))
	case *array.Int64:
		return c.Value(i)
	case *array.Int32:
		return int64(c.Value(i))
	case *array.Int16:
		return int64(c.Value(i))
	case *array.Int8:
		return int64(c.Value(i))
	case *array.String:
		return c.Value(i)
	case *array.LargeString:
		return c.Value(i)
	case *array.Binary:
		return string(c.Value(i))
	case *array.Boolean:
		return c.Value(i)
	case *array.Date32:
		return c.Value(i).ToTime()
	case *array.Timestamp:
		unit := c.DataType().(*arrow.TimestampType).Unit
		return c.Value(i).ToTime(unit).UTC()
	default:
		return col.ValueStr(i)
	}
}
