package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/i94dw/pkg/errors"
)

func portTable(t *testing.T) *Table {
	t.Helper()
	tbl := NewTable("port", NewSchema("port",
		Field{Name: "port_code", Type: FieldTypeString},
		Field{Name: "port_name", Type: FieldTypeString},
		Field{Name: "state_code", Type: FieldTypeString},
	))
	require.NoError(t, tbl.AppendRow("ALC", "ALCAN", "AK"))
	require.NoError(t, tbl.AppendRow("ANC", "ANCHORAGE", nil))
	require.NoError(t, tbl.AppendRow("BAR", "BAKER AAF - BAKER ISLAND", "AK"))
	return tbl
}

func TestAppendRowArity(t *testing.T) {
	tbl := portTable(t)
	err := tbl.AppendRow("X")
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	assert.Equal(t, 3, tbl.Count())
}

func TestSelect(t *testing.T) {
	tbl := portTable(t)

	out, err := tbl.Select("port_dim", "STATE_CODE", "port_code")
	require.NoError(t, err)
	assert.Equal(t, "port_dim", out.Name)
	assert.Equal(t, []string{"state_code", "port_code"}, out.Schema.FieldNames())
	assert.Equal(t, tbl.Count(), out.Count())
	assert.Equal(t, []any{nil, "ANC"}, out.Rows[1])

	// projection copies rows
	out.Rows[0][0] = "ZZ"
	v, err := tbl.Value(0, "state_code")
	require.NoError(t, err)
	assert.Equal(t, "AK", v)
}

func TestSelectMissingColumn(t *testing.T) {
	_, err := portTable(t).Select("port_dim", "port_code", "country")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeMissingColumn))
}

func TestFillNull(t *testing.T) {
	tbl := NewTable("imm", NewSchema("imm",
		Field{Name: "depdate", Type: FieldTypeFloat},
		Field{Name: "i94addr", Type: FieldTypeString},
	))
	require.NoError(t, tbl.AppendRow(nil, nil))
	require.NoError(t, tbl.AppendRow(20550.0, "NY"))

	n, err := tbl.FillNull("depdate", 23146)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 23146.0, tbl.Rows[0][0])
	assert.Equal(t, 20550.0, tbl.Rows[1][0])

	_, err = tbl.FillNull("depdate", "unkown")
	assert.True(t, errors.IsType(err, errors.ErrorTypeCast))

	_, err = tbl.FillNull("gender", "unkown")
	assert.True(t, errors.IsType(err, errors.ErrorTypeMissingColumn))
}

func TestWithColumn(t *testing.T) {
	tbl := NewTable("imm", NewSchema("imm", Field{Name: "i94bir", Type: FieldTypeFloat}))
	require.NoError(t, tbl.AppendRow(37.0))
	require.NoError(t, tbl.AppendRow(-1.0))

	err := tbl.WithColumn("age", FieldTypeInt, func(row []any) (any, error) {
		return Convert(row[0], FieldTypeInt)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"i94bir", "age"}, tbl.Schema.FieldNames())
	assert.Equal(t, int64(37), tbl.Rows[0][1])
	assert.Equal(t, int64(-1), tbl.Rows[1][1])

	// same name replaces in place
	err = tbl.WithColumn("age", FieldTypeString, func(row []any) (any, error) {
		return "x", nil
	})
	require.NoError(t, err)
	assert.Len(t, tbl.Schema.Fields, 2)
	assert.Equal(t, FieldTypeString, tbl.Schema.Fields[1].Type)
}

func TestWithColumnFailureLeavesTableUnchanged(t *testing.T) {
	tbl := NewTable("imm", NewSchema("imm", Field{Name: "cicid", Type: FieldTypeString}))
	require.NoError(t, tbl.AppendRow("1"))
	require.NoError(t, tbl.AppendRow("abc"))

	err := tbl.WithColumn("id", FieldTypeInt, func(row []any) (any, error) {
		return Convert(row[0], FieldTypeInt)
	})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeCast))

	var structured *errors.Error
	require.True(t, errors.As(err, &structured))
	assert.Equal(t, 1, structured.Details["row"])
	assert.Len(t, tbl.Schema.Fields, 1)
	assert.Len(t, tbl.Rows[0], 1)
}

func TestConvert(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		typ     FieldType
		want    any
		wantErr bool
	}{
		{"nil stays nil", nil, FieldTypeInt, nil, false},
		{"float truncates", 5748517.0, FieldTypeInt, int64(5748517), false},
		{"negative float truncates", -1.9, FieldTypeInt, int64(-1), false},
		{"int string", " 2016 ", FieldTypeInt, int64(2016), false},
		{"decimal string", "4.0", FieldTypeInt, int64(4), false},
		{"bad int", "unkown", FieldTypeInt, nil, true},
		{"float string", "3.25", FieldTypeFloat, 3.25, false},
		{"compact date", "20160401", FieldTypeDate, time.Date(2016, 4, 1, 0, 0, 0, 0, time.UTC), false},
		{"iso date", "2016-04-01", FieldTypeDate, time.Date(2016, 4, 1, 0, 0, 0, 0, time.UTC), false},
		{"bad date", "04/01/2016", FieldTypeDate, nil, true},
		{"float to string", 23146.0, FieldTypeString, "23146", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Convert(tt.in, tt.typ)
			if tt.wantErr {
				assert.True(t, errors.IsType(err, errors.ErrorTypeCast))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "", FormatValue(nil))
	assert.Equal(t, "2023-05-16", FormatValue(time.Date(2023, 5, 16, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "18.5", FormatValue(18.5))
	assert.Equal(t, "42", FormatValue(int64(42)))
}
