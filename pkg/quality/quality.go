// Package quality reports row-count and reference checks over produced
// tables. Checks are observational: they log and return results but never
// fail a run.
package quality

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ajitpratap0/i94dw/pkg/errors"
	"github.com/ajitpratap0/i94dw/pkg/models"
)

// Result is the outcome of one check.
type Result struct {
	Table    string
	Rows     int
	Complete bool
	Message  string
	// Warning is set for an incomplete table.
	Warning error
}

// Checker runs checks and logs their outcome.
type Checker struct {
	logger *zap.Logger
}

// NewChecker creates a checker.
func NewChecker(logger *zap.Logger) *Checker {
	return &Checker{logger: logger}
}

// Check counts the rows of each table. A table with zero rows is reported
// as incomplete.
func (c *Checker) Check(tables []*models.Table) []Result {
	results := make([]Result, 0, len(tables))
	for _, tbl := range tables {
		results = append(results, c.check(tbl.Name, tbl.Count()))
	}
	return results
}

func (c *Checker) check(name string, rows int) Result {
	if rows == 0 {
		warning := errors.IncompleteTable(name)
		c.logger.Warn(warning.Message, zap.String("table", name))
		return Result{Table: name, Message: warning.Message, Warning: warning}
	}

	msg := fmt.Sprintf("The %s table has %d number of rows", name, rows)
	c.logger.Info(msg, zap.String("table", name), zap.Int("rows", rows))
	return Result{Table: name, Rows: rows, Complete: true, Message: msg}
}

// Incomplete returns the names of the tables that failed the row-count check.
func Incomplete(results []Result) []string {
	var names []string
	for _, r := range results {
		if !r.Complete {
			names = append(names, r.Table)
		}
	}
	return names
}

// Orphans is the outcome of a reference check.
type Orphans struct {
	Child   string
	Column  string
	Parent  string
	Values  []any // distinct child values with no parent row
	Rows    int   // child rows carrying one of Values
	Checked int
}

// CheckReference reports the distinct non-null values of child.childCol
// that do not appear in parent.parentCol. Values are compared by their
// rendered form, so an int 4 matches a string "4".
func (c *Checker) CheckReference(child *models.Table, childCol string, parent *models.Table, parentCol string) (Orphans, error) {
	ci, err := child.ColumnIndex(childCol)
	if err != nil {
		return Orphans{}, err
	}
	pi, err := parent.ColumnIndex(parentCol)
	if err != nil {
		return Orphans{}, err
	}

	keys := make(map[string]struct{}, parent.Count())
	for _, row := range parent.Rows {
		if row[pi] != nil {
			keys[models.FormatValue(row[pi])] = struct{}{}
		}
	}

	out := Orphans{Child: child.Name, Column: childCol, Parent: parent.Name}
	seen := make(map[string]struct{})
	for _, row := range child.Rows {
		v := row[ci]
		if v == nil {
			continue
		}
		out.Checked++
		k := models.FormatValue(v)
		if _, ok := keys[k]; ok {
			continue
		}
		out.Rows++
		if _, dup := seen[k]; !dup {
			seen[k] = struct{}{}
			out.Values = append(out.Values, v)
		}
	}

	if out.Rows > 0 {
		c.logger.Warn("values without a matching reference row",
			zap.String("table", child.Name),
			zap.String("column", childCol),
			zap.String("reference", parent.Name),
			zap.Int("rows", out.Rows),
			zap.Any("values", out.Values))
	} else {
		c.logger.Info("reference check passed",
			zap.String("table", child.Name),
			zap.String("column", childCol),
			zap.String("reference", parent.Name),
			zap.Int("checked", out.Checked))
	}
	return out, nil
}
