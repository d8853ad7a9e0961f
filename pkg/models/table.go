// Package models provides the typed in-memory table the pipeline stages
// operate on. A Table is an ordered collection of uniform rows described by a
// Schema; a nil cell is a null.
//
// The table offers exactly the operations the ETL needs: schema-checked
// column selection, null filling, derived columns, and row counting.
// Column lookup is case-insensitive.
package models

import (
	"fmt"
	"strings"

	"github.com/ajitpratap0/i94dw/pkg/errors"
)

// FieldType represents the data type of a column
type FieldType string

const (
	FieldTypeString FieldType = "string"
	FieldTypeInt    FieldType = "int"
	FieldTypeFloat  FieldType = "float"
	FieldTypeDate   FieldType = "date"
)

// Field represents a single column in the schema.
type Field struct {
	// Name is the column identifier
	Name string `json:"name"`

	// Type specifies the data type of every non-null cell
	Type FieldType `json:"type"`

	// Nullable records whether nulls are expected in the column
	Nullable bool `json:"nullable"`
}

// Schema defines the structure of a table.
type Schema struct {
	// Name identifies the schema (e.g., dataset or table name)
	Name string `json:"name"`

	// Fields defines the ordered columns
	Fields []Field `json:"fields"`
}

// NewSchema creates a schema from fields.
func NewSchema(name string, fields ...Field) *Schema {
	return &Schema{Name: name, Fields: fields}
}

// Index returns the position of the named column, or -1.
func (s *Schema) Index(name string) int {
	for i, f := range s.Fields {
		if strings.EqualFold(f.Name, name) {
			return i
		}
	}
	return -1
}

// FieldNames returns column names in order.
func (s *Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Clone returns a deep copy of the schema.
func (s *Schema) Clone() *Schema {
	fields := make([]Field, len(s.Fields))
	copy(fields, s.Fields)
	return &Schema{Name: s.Name, Fields: fields}
}

// Table is an ordered collection of rows sharing one schema.
type Table struct {
	Name   string
	Schema *Schema
	Rows   [][]any
}

// NewTable creates an empty table.
func NewTable(name string, schema *Schema) *Table {
	return &Table{Name: name, Schema: schema}
}

// AppendRow adds one row; the arity must match the schema.
func (t *Table) AppendRow(values ...any) error {
	if len(values) != len(t.Schema.Fields) {
		return errors.Newf(errors.ErrorTypeValidation,
			"table %s expects %d values per row, got %d", t.Name, len(t.Schema.Fields), len(values))
	}
	row := make([]any, len(values))
	copy(row, values)
	t.Rows = append(t.Rows, row)
	return nil
}

// Count returns the number of rows.
func (t *Table) Count() int {
	return len(t.Rows)
}

// ColumnIndex returns the position of the named column or a MissingColumnError.
func (t *Table) ColumnIndex(name string) (int, error) {
	idx := t.Schema.Index(name)
	if idx < 0 {
		return -1, errors.MissingColumn(t.Name, name)
	}
	return idx, nil
}

// Value returns the cell at row for the named column.
func (t *Table) Value(row int, column string) (any, error) {
	idx, err := t.ColumnIndex(column)
	if err != nil {
		return nil, err
	}
	if row < 0 || row >= len(t.Rows) {
		return nil, errors.Newf(errors.ErrorTypeValidation, "row %d out of range for table %s", row, t.Name)
	}
	return t.Rows[row][idx], nil
}

// Select projects the named columns into a new table called name. Every row
// passes through; nothing is filtered.
func (t *Table) Select(name string, columns ...string) (*Table, error) {
	indexes := make([]int, len(columns))
	fields := make([]Field, len(columns))
	for i, col := range columns {
		idx, err := t.ColumnIndex(col)
		if err != nil {
			return nil, err
		}
		indexes[i] = idx
		fields[i] = t.Schema.Fields[idx]
	}

	out := &Table{
		Name:   name,
		Schema: NewSchema(name, fields...),
		Rows:   make([][]any, len(t.Rows)),
	}
	for r, row := range t.Rows {
		projected := make([]any, len(indexes))
		for i, idx := range indexes {
			projected[i] = row[idx]
		}
		out.Rows[r] = projected
	}
	return out, nil
}

// FillNull replaces nulls in column with value, converted to the column type.
// It returns the number of cells filled.
func (t *Table) FillNull(column string, value any) (int, error) {
	idx, err := t.ColumnIndex(column)
	if err != nil {
		return 0, err
	}
	converted, err := Convert(value, t.Schema.Fields[idx].Type)
	if err != nil {
		return 0, err
	}

	filled := 0
	for _, row := range t.Rows {
		if row[idx] == nil {
			row[idx] = converted
			filled++
		}
	}
	return filled, nil
}

// Deriver computes a derived cell from a full row.
type Deriver func(row []any) (any, error)

// WithColumn computes a column of the given type from every row. An existing
// column with the same name is replaced in place; otherwise the column is
// appended. The first failing row aborts the operation and leaves the table
// unchanged.
func (t *Table) WithColumn(name string, typ FieldType, derive Deriver) error {
	values := make([]any, len(t.Rows))
	for r, row := range t.Rows {
		v, err := derive(row)
		if err != nil {
			var structured *errors.Error
			if errors.As(err, &structured) {
				return structured.WithDetail("row", r).WithDetail("column", name)
			}
			return fmt.Errorf("derive %s at row %d: %w", name, r, err)
		}
		values[r] = v
	}

	field := Field{Name: name, Type: typ, Nullable: true}
	if idx := t.Schema.Index(name); idx >= 0 {
		t.Schema.Fields[idx] = field
		for r, row := range t.Rows {
			row[idx] = values[r]
		}
		return nil
	}

	t.Schema.Fields = append(t.Schema.Fields, field)
	for r := range t.Rows {
		t.Rows[r] = append(t.Rows[r], values[r])
	}
	return nil
}

// NullCount returns how many cells of column are null.
func (t *Table) NullCount(column string) (int, error) {
	idx, err := t.ColumnIndex(column)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, row := range t.Rows {
		if row[idx] == nil {
			n++
		}
	}
	return n, nil
}
