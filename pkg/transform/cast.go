package transform

import (
	"github.com/ajitpratap0/i94dw/pkg/models"
)

// Derivation computes one typed column from one raw immigration column.
type Derivation struct {
	Target string
	Source string
	Type   models.FieldType
	// Offset marks a day-offset source converted through the epoch.
	Offset bool
}

// Derivations lists every typed column added to the immigration records, in
// the order they are appended.
var Derivations = []Derivation{
	{Target: "arr_date", Source: "arrdate", Type: models.FieldTypeDate, Offset: true},
	{Target: "dep_date", Source: "depdate", Type: models.FieldTypeDate, Offset: true},
	{Target: "age", Source: "i94bir", Type: models.FieldTypeInt},
	{Target: "year_of_birth", Source: "biryear", Type: models.FieldTypeInt},
	{Target: "city_code", Source: "i94cit", Type: models.FieldTypeInt},
	{Target: "country_code", Source: "i94res", Type: models.FieldTypeInt},
	{Target: "month", Source: "i94mon", Type: models.FieldTypeInt},
	{Target: "id", Source: "cicid", Type: models.FieldTypeInt},
	{Target: "visa", Source: "i94visa", Type: models.FieldTypeInt},
	{Target: "year_of_data", Source: "i94yr", Type: models.FieldTypeInt},
	{Target: "mode_code", Source: "i94mode", Type: models.FieldTypeInt},
	{Target: "date_added_to_file", Source: "dtadfile", Type: models.FieldTypeDate},
	{Target: "port_code", Source: "i94port", Type: models.FieldTypeString},
	{Target: "state_code", Source: "i94addr", Type: models.FieldTypeString},
}

// Cast appends the Derivations columns to tbl. Raw columns are kept. The
// first value that cannot be converted aborts with a cast error carrying the
// row and target column; tbl keeps the columns derived before it.
func Cast(tbl *models.Table) error {
	for _, d := range Derivations {
		idx, err := tbl.ColumnIndex(d.Source)
		if err != nil {
			return err
		}
		if err := tbl.WithColumn(d.Target, d.Type, d.deriver(idx)); err != nil {
			return err
		}
	}
	return nil
}

func (d Derivation) deriver(idx int) models.Deriver {
	if d.Offset {
		return func(row []any) (any, error) {
			if row[idx] == nil {
				return nil, nil
			}
			days, err := models.ToInt(row[idx])
			if err != nil {
				return nil, err
			}
			return OffsetToDate(days), nil
		}
	}
	return func(row []any) (any, error) {
		return models.Convert(row[idx], d.Type)
	}
}
