// Package csv reads delimited text into schema-typed tables.
package csv

import (
	"context"
	"encoding/csv"
	"io"

	"go.uber.org/zap"

	"github.com/ajitpratap0/i94dw/pkg/compression"
	"github.com/ajitpratap0/i94dw/pkg/connector/core"
	"github.com/ajitpratap0/i94dw/pkg/errors"
	"github.com/ajitpratap0/i94dw/pkg/models"
)

// Options control how records are split and typed.
type Options struct {
	// Delimiter separates fields; zero means a comma.
	Delimiter rune
	// Header skips the first record.
	Header bool
	// Strict fails on a cell that does not parse as its column type.
	// Otherwise the cell becomes null and is counted in a warning.
	Strict bool
}

// Source reads CSV objects. Cells are matched to schema fields by position;
// short records are padded with nulls and extra fields are dropped.
type Source struct {
	opts   Options
	logger *zap.Logger
}

// NewSource creates a CSV source.
func NewSource(opts Options, logger *zap.Logger) *Source {
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}
	return &Source{opts: opts, logger: logger}
}

// ReadObject reads key from store. Keys ending in .gz or .zst are
// decompressed.
func (s *Source) ReadObject(ctx context.Context, store core.ObjectStore, key string, schema *models.Schema) (*models.Table, error) {
	rc, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	r, err := compression.NewReader(compression.FromExtension(key), rc)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open compressed object").WithDetail("key", key)
	}
	defer r.Close()

	tbl, err := s.Read(ctx, r, schema)
	if err != nil {
		return nil, err
	}
	s.logger.Info("read csv",
		zap.String("table", schema.Name),
		zap.String("location", store.URI(key)),
		zap.Int("rows", tbl.Count()))
	return tbl, nil
}

// Read parses every record of src into a table named after schema.
func (s *Source) Read(ctx context.Context, src io.Reader, schema *models.Schema) (*models.Table, error) {
	reader := csv.NewReader(src)
	reader.Comma = s.opts.Delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	tbl := models.NewTable(schema.Name, schema)
	malformed := make(map[string]int)
	width := len(schema.Fields)

	for line := 0; ; line++ {
		if line%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read CSV record").
				WithDetail("table", schema.Name).
				WithDetail("line", line+1)
		}
		if line == 0 && s.opts.Header {
			continue
		}

		row := make([]any, width)
		for i := 0; i < width && i < len(record); i++ {
			field := schema.Fields[i]
			v, err := models.ParseCell(record[i], field.Type)
			if err != nil {
				if s.opts.Strict {
					var structured *errors.Error
					if errors.As(err, &structured) {
						return nil, structured.WithDetail("table", schema.Name).
							WithDetail("line", line+1).
							WithDetail("column", field.Name)
					}
					return nil, err
				}
				malformed[field.Name]++
				v = nil
			}
			row[i] = v
		}
		tbl.Rows = append(tbl.Rows, row)
	}

	for col, n := range malformed {
		s.logger.Warn("unparsable cells read as null",
			zap.String("table", schema.Name),
			zap.String("column", col),
			zap.Int("cells", n))
	}
	return tbl, nil
}
