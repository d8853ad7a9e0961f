package output

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/i94dw/pkg/compression"
	"github.com/ajitpratap0/i94dw/pkg/connector/core"
	"github.com/ajitpratap0/i94dw/pkg/connector/sources/csv"
	"github.com/ajitpratap0/i94dw/pkg/models"
	"github.com/ajitpratap0/i94dw/pkg/testutil"
)

var dateFields = []models.Field{
	{Name: "arr_date", Type: models.FieldTypeDate, Nullable: true},
	{Name: "dep_date", Type: models.FieldTypeDate, Nullable: true},
	{Name: "month", Type: models.FieldTypeInt, Nullable: true},
	{Name: "year_of_data", Type: models.FieldTypeInt, Nullable: true},
}

func dateDim(t *testing.T) *models.Table {
	day := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }
	return testutil.Table(t, "date_dim", dateFields,
		[]any{day(2016, time.April, 29), day(2016, time.May, 6), int64(4), int64(2016)},
		[]any{day(2016, time.April, 30), day(2023, time.May, 16), int64(4), int64(2016)},
		[]any{nil, nil, int64(4), nil},
	)
}

func TestRoundTrip(t *testing.T) {
	for _, algo := range []compression.Algorithm{compression.None, compression.Gzip, compression.Zstd} {
		t.Run(string(algo), func(t *testing.T) {
			ctx, cancel := testutil.TestContext(t)
			defer cancel()
			store := testutil.FileStore(t)

			w, err := NewWriter(store, Options{Header: true, Compression: algo}, testutil.TestLogger(t))
			require.NoError(t, err)

			in := dateDim(t)
			entry, err := w.Write(ctx, Target{Table: in, Path: "date_dim"})
			require.NoError(t, err)
			assert.Equal(t, 3, entry.Rows)
			assert.Positive(t, entry.Bytes)

			src := csv.NewSource(csv.Options{Header: true}, testutil.TestLogger(t))
			key := "date_dim/" + PartName + algo.Extension()
			out, err := src.ReadObject(ctx, store, key, models.NewSchema("date_dim", dateFields...))
			require.NoError(t, err)

			assert.Equal(t, in.Count(), out.Count())
			assert.Equal(t, in.Schema.FieldNames(), out.Schema.FieldNames())
			assert.Equal(t, in.Rows, out.Rows)
		})
	}
}

func TestWriteWithoutHeader(t *testing.T) {
	ctx := context.Background()
	store := testutil.FileStore(t)

	w, err := NewWriter(store, Options{}, testutil.TestLogger(t))
	require.NoError(t, err)
	_, err = w.Write(ctx, Target{Table: dateDim(t), Path: "date_dim"})
	require.NoError(t, err)

	content := testutil.ReadObject(t, store, "date_dim/"+PartName)
	assert.Equal(t, "2016-04-29,2016-05-06,4,2016\n2016-04-30,2023-05-16,4,2016\n,,4,\n", content)
}

func TestWriteQuotesDelimiters(t *testing.T) {
	store := testutil.FileStore(t)
	tbl := testutil.Table(t, "port_dim", []models.Field{
		{Name: "code", Type: models.FieldTypeString},
		{Name: "port", Type: models.FieldTypeString},
	}, []any{"ALC", "ALCAN, AK"})

	w, err := NewWriter(store, Options{}, testutil.TestLogger(t))
	require.NoError(t, err)
	_, err = w.Write(context.Background(), Target{Table: tbl, Path: "port_dim"})
	require.NoError(t, err)
	assert.Equal(t, "ALC,\"ALCAN, AK\"\n", testutil.ReadObject(t, store, "port_dim/"+PartName))
}

func TestWriteOverwrites(t *testing.T) {
	ctx := context.Background()
	store := testutil.FileStore(t)
	require.NoError(t, store.Put(ctx, "date_dim/stale.csv", strings.NewReader("old")))

	w, err := NewWriter(store, Options{Compression: compression.Gzip}, testutil.TestLogger(t))
	require.NoError(t, err)
	_, err = w.Write(ctx, Target{Table: dateDim(t), Path: "date_dim"})
	require.NoError(t, err)

	keys, err := store.List(ctx, "date_dim/")
	require.NoError(t, err)
	assert.Equal(t, []string{"date_dim/" + PartName + ".gz"}, keys)
}

func TestWriteAllManifest(t *testing.T) {
	ctx := context.Background()
	store := testutil.FileStore(t)

	w, err := NewWriter(store, Options{Manifest: true}, testutil.TestLogger(t))
	require.NoError(t, err)

	empty := testutil.Table(t, "visa_dim", []models.Field{{Name: "visatype", Type: models.FieldTypeString}})
	_, err = w.WriteAll(ctx, "run-1", []Target{
		{Table: dateDim(t), Path: "date_dim"},
		{Table: empty, Path: "visa_dim"},
	})
	require.NoError(t, err)

	m, err := ReadManifest(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, "run-1", m.RunID)
	require.Len(t, m.Tables, 2)
	assert.Equal(t, "date_dim", m.Tables[0].Table)
	assert.Equal(t, 3, m.Tables[0].Rows)
	assert.Equal(t, []string{"visatype"}, m.Tables[1].Columns)
	assert.Zero(t, m.Tables[1].Rows)
}

// failingStore rejects puts under one directory.
type failingStore struct {
	core.ObjectStore
	reject string
}

func (f *failingStore) Put(ctx context.Context, key string, body io.Reader) error {
	if strings.HasPrefix(key, f.reject) {
		return errors.New("disk full")
	}
	return f.ObjectStore.Put(ctx, key, body)
}

func TestWriteAllStopsAtFirstFailure(t *testing.T) {
	ctx := context.Background()
	base := testutil.FileStore(t)
	store := &failingStore{ObjectStore: base, reject: "b/"}

	w, err := NewWriter(store, Options{}, testutil.TestLogger(t))
	require.NoError(t, err)

	tbl := dateDim(t)
	m, err := w.WriteAll(ctx, "run-2", []Target{
		{Table: tbl, Path: "a"},
		{Table: tbl, Path: "b"},
		{Table: tbl, Path: "c"},
	})
	require.Error(t, err)
	require.Len(t, m.Tables, 1)

	keys, err := base.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/" + PartName}, keys)
}
