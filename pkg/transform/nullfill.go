package transform

import (
	"go.uber.org/zap"

	"github.com/ajitpratap0/i94dw/pkg/errors"
	"github.com/ajitpratap0/i94dw/pkg/models"
)

// NullDefault is the fixed replacement for nulls in one column.
type NullDefault struct {
	Column string
	Value  any
}

// UnknownLabel is the placeholder written into missing categorical fields.
// The spelling matches the values already loaded in the warehouse.
const UnknownLabel = "unkown"

// NullDefaults are the eight immigration columns known to carry nulls.
var NullDefaults = []NullDefault{
	{Column: "depdate", Value: 23146}, // a departure date past any arrival
	{Column: "dtadfile", Value: "20210618"},
	{Column: "i94bir", Value: -1}, // age cannot be negative
	{Column: "i94addr", Value: UnknownLabel},
	{Column: "occup", Value: UnknownLabel},
	{Column: "gender", Value: UnknownLabel},
	{Column: "i94mode", Value: 4}, // "Not reported" in the mode reference
	{Column: "biryear", Value: 2021},
}

// FillNulls replaces nulls in the NullDefaults columns of tbl, in place.
// Only a missing column is an error; a default that does not fit the column
// type leaves that column untouched.
func FillNulls(tbl *models.Table, logger *zap.Logger) error {
	for _, def := range NullDefaults {
		filled, err := tbl.FillNull(def.Column, def.Value)
		switch {
		case errors.IsType(err, errors.ErrorTypeMissingColumn):
			return err
		case err != nil:
			logger.Warn("default does not match column type, column left as is",
				zap.String("column", def.Column),
				zap.Any("default", def.Value),
				zap.Error(err))
			continue
		}
		logger.Debug("filled nulls",
			zap.String("column", def.Column),
			zap.Int("cells", filled))
	}
	return nil
}
