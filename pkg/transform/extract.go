package transform

import (
	"github.com/ajitpratap0/i94dw/pkg/errors"
	"github.com/ajitpratap0/i94dw/pkg/models"
	"github.com/ajitpratap0/i94dw/pkg/schema"
)

// Inputs holds the tables extraction projects from, keyed by dataset. The
// immigration table must already be null-filled and cast.
type Inputs map[schema.Dataset]*models.Table

// Extract projects the inputs into the fact table and the seven dimension
// tables, in schema.Star order. Each output is named after its warehouse table
// and carries the warehouse column names.
func Extract(in Inputs) ([]*models.Table, error) {
	star := schema.Star()
	out := make([]*models.Table, 0, len(star))
	for _, st := range star {
		tbl, err := Project(st, in)
		if err != nil {
			return nil, err
		}
		out = append(out, tbl)
	}
	return out, nil
}

// Project builds one star table from its origin dataset.
func Project(st schema.StarTable, in Inputs) (*models.Table, error) {
	src, ok := in[st.Origin]
	if !ok || src == nil {
		return nil, errors.Newf(errors.ErrorTypeValidation,
			"no %s input for table %s", st.Origin, st.Name)
	}
	tbl, err := src.Select(st.Name, st.SourceColumns()...)
	if err != nil {
		return nil, err
	}
	for i, c := range st.Columns {
		tbl.Schema.Fields[i].Name = c.Name
	}
	return tbl, nil
}
