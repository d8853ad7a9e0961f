package warehouse

import (
	"fmt"
	"strings"

	"github.com/ajitpratap0/i94dw/pkg/compression"
	"github.com/ajitpratap0/i94dw/pkg/schema"
)

// DropStatement returns the DROP for t.
func DropStatement(t schema.StarTable) string {
	return "DROP TABLE IF EXISTS " + t.Name
}

// CreateStatement returns the CREATE for t. Column order follows the
// catalog, which is also the column order of every extracted file.
func CreateStatement(t schema.StarTable) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(t.Name)
	b.WriteString(" (")
	for i, c := range t.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c.Name)
		b.WriteByte(' ')
		b.WriteString(c.SQLType)
		if c.PrimaryKey {
			b.WriteString(" PRIMARY KEY")
		}
		if c.NotNull {
			b.WriteString(" NOT NULL")
		}
	}
	b.WriteString(")")
	return b.String()
}

// CopySpec describes one bulk COPY.
type CopySpec struct {
	Table       string
	Source      string
	RoleARN     string
	Region      string
	Compression compression.Algorithm
}

// CopyStatement renders the Redshift COPY for spec.
func CopyStatement(spec CopySpec) string {
	stmt := fmt.Sprintf("COPY %s FROM %s CREDENTIALS %s REGION %s DELIMITER ',' REMOVEQUOTES",
		spec.Table,
		quote(spec.Source),
		quote("aws_iam_role="+spec.RoleARN),
		quote(spec.Region),
	)
	if opt := spec.Compression.CopyOption(); opt != "" {
		stmt += " " + opt
	}
	return stmt
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
