// Package sources reads pipeline inputs from any registered store, choosing
// the decoder from the object name.
package sources

import (
	"context"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/ajitpratap0/i94dw/pkg/connector/core"
	"github.com/ajitpratap0/i94dw/pkg/connector/registry"
	"github.com/ajitpratap0/i94dw/pkg/connector/sources/csv"
	"github.com/ajitpratap0/i94dw/pkg/connector/sources/parquet"
	"github.com/ajitpratap0/i94dw/pkg/models"
)

// Format of an input object.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
)

// DetectFormat picks the decoder for an object name. Names without a known
// text extension are treated as parquet, which covers Spark output
// directories.
func DetectFormat(name string) Format {
	name = strings.ToLower(strings.TrimSuffix(name, "/"))
	name = strings.TrimSuffix(strings.TrimSuffix(name, ".gz"), ".zst")
	switch filepath.Ext(name) {
	case ".csv", ".txt", ".tsv":
		return FormatCSV
	default:
		return FormatParquet
	}
}

// SplitLocation separates the last path element from its parent so the
// parent can be opened as a store root.
func SplitLocation(raw string) (root, key string) {
	trimmed := strings.TrimSuffix(raw, "/")
	start := 0
	if i := strings.Index(trimmed, "://"); i >= 0 {
		start = i + 3
		// keep the bucket in the root
		if j := strings.Index(trimmed[start:], "/"); j >= 0 {
			start += j
		} else {
			return trimmed, ""
		}
	}

	i := strings.LastIndex(trimmed, "/")
	if i < start {
		return ".", trimmed
	}
	if i == 0 {
		return "/", trimmed[1:]
	}
	return trimmed[:i], trimmed[i+1:]
}

// Options configure Read.
type Options struct {
	CSV   csv.Options
	Store core.StoreConfig
}

// Read opens the store holding raw and decodes it into a table with the
// given schema.
func Read(ctx context.Context, raw string, schema *models.Schema, opts Options, logger *zap.Logger) (*models.Table, error) {
	root, key := SplitLocation(raw)
	store, err := registry.Open(ctx, root, opts.Store)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	switch DetectFormat(key) {
	case FormatCSV:
		return csv.NewSource(opts.CSV, logger).ReadObject(ctx, store, key, schema)
	default:
		return parquet.NewSource(logger).ReadObject(ctx, store, key, schema)
	}
}
