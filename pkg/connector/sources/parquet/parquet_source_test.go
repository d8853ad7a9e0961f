package parquet

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/i94dw/pkg/connector/destinations/filesystem"
	"github.com/ajitpratap0/i94dw/pkg/errors"
	"github.com/ajitpratap0/i94dw/pkg/models"
)

func rawSchema() *models.Schema {
	return models.NewSchema("immigration",
		models.Field{Name: "cicid", Type: models.FieldTypeFloat, Nullable: true},
		models.Field{Name: "i94port", Type: models.FieldTypeString, Nullable: true},
		models.Field{Name: "arrdate", Type: models.FieldTypeFloat, Nullable: true},
	)
}

// partFile encodes two arrivals the way Spark lays them out: upper-case
// column names are allowed and unknown columns are carried along.
func partFile(t *testing.T, firstID float64) []byte {
	t.Helper()
	sc := arrow.NewSchema([]arrow.Field{
		{Name: "cicid", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
		{Name: "I94PORT", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "arrdate", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
		{Name: "admnum", Type: arrow.PrimitiveTypes.Int32, Nullable: true},
	}, nil)

	b := array.NewRecordBuilder(memory.NewGoAllocator(), sc)
	defer b.Release()
	b.Field(0).(*array.Float64Builder).AppendValues([]float64{firstID, firstID + 1}, nil)
	b.Field(1).(*array.StringBuilder).AppendValues([]string{"NYC", ""}, []bool{true, false})
	b.Field(2).(*array.Float64Builder).AppendValues([]float64{20545, 0}, []bool{true, false})
	b.Field(3).(*array.Int32Builder).AppendValues([]int32{7, 8}, nil)
	rec := b.NewRecord()
	defer rec.Release()

	var buf bytes.Buffer
	fw, err := pqarrow.NewFileWriter(sc, &buf, parquet.NewWriterProperties(), pqarrow.DefaultWriterProps())
	require.NoError(t, err)
	require.NoError(t, fw.Write(rec))
	require.NoError(t, fw.Close())
	return buf.Bytes()
}

func TestReadDirectory(t *testing.T) {
	ctx := context.Background()
	store, err := filesystem.NewStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, "sas_data/part-00000.parquet", bytes.NewReader(partFile(t, 1))))
	require.NoError(t, store.Put(ctx, "sas_data/part-00001.parquet", bytes.NewReader(partFile(t, 3))))
	require.NoError(t, store.Put(ctx, "sas_data/_SUCCESS", strings.NewReader("")))

	tbl, err := NewSource(zaptest.NewLogger(t)).ReadObject(ctx, store, "sas_data", rawSchema())
	require.NoError(t, err)

	require.Equal(t, 4, tbl.Count())
	assert.Equal(t, []any{1.0, "NYC", 20545.0}, tbl.Rows[0])
	assert.Equal(t, []any{2.0, nil, nil}, tbl.Rows[1])
	assert.Equal(t, 4.0, tbl.Rows[3][0])
}

func TestReadSingleFile(t *testing.T) {
	ctx := context.Background()
	store, err := filesystem.NewStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, "arrivals.parquet", bytes.NewReader(partFile(t, 10))))

	tbl, err := NewSource(zaptest.NewLogger(t)).ReadObject(ctx, store, "arrivals.parquet", rawSchema())
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Count())
}

func TestReadMissingColumn(t *testing.T) {
	ctx := context.Background()
	store, err := filesystem.NewStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, "arrivals.parquet", bytes.NewReader(partFile(t, 1))))

	s := rawSchema()
	s.Fields = append(s.Fields, models.Field{Name: "gender", Type: models.FieldTypeString})

	_, err = NewSource(zaptest.NewLogger(t)).ReadObject(ctx, store, "arrivals.parquet", s)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeMissingColumn))
}

func TestReadEmptyDirectory(t *testing.T) {
	ctx := context.Background()
	store, err := filesystem.NewStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, "sas_data/_SUCCESS", strings.NewReader("")))

	_, err = NewSource(zaptest.NewLogger(t)).ReadObject(ctx, store, "sas_data", rawSchema())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))
}
