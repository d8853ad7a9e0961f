package schema

// Column maps one warehouse column to the column it is projected from.
// COPY loads files positionally, so the column order here is also the order
// of every extracted file.
type Column struct {
	Name       string // warehouse column
	Source     string // column in the origin table
	SQLType    string
	PrimaryKey bool
	NotNull    bool
}

// StarTable is one fact or dimension table of the warehouse.
type StarTable struct {
	Name    string
	Origin  Dataset
	Columns []Column
}

// SourceColumns returns the projection list for the table.
func (t StarTable) SourceColumns() []string {
	cols := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = c.Source
	}
	return cols
}

const (
	ImmigrationFact  = "immigration_fact"
	DateDim          = "date_dim"
	ImmigrantDim     = "immigrant_dim"
	ModeOfArrivalDim = "mode_of_arrival_dim"
	PortDim          = "port_dim"
	VisaDim          = "visa_dim"
	CountryDim       = "country_dim"
	DemographDim     = "demograph_dim"
)

var star = []StarTable{
	{
		Name:   ImmigrationFact,
		Origin: Immigration,
		Columns: []Column{
			{Name: "id", Source: "id", SQLType: "INTEGER", PrimaryKey: true},
			{Name: "arr_date", Source: "arr_date", SQLType: "DATE"},
			{Name: "country_code", Source: "country_code", SQLType: "INTEGER"},
			{Name: "state_code", Source: "state_code", SQLType: "VARCHAR(10)"},
			{Name: "port", Source: "port_code", SQLType: "VARCHAR(10)"},
			{Name: "mode_of_arrival", Source: "mode_code", SQLType: "INTEGER", NotNull: true},
			{Name: "visatype", Source: "visatype", SQLType: "VARCHAR(5)", NotNull: true},
		},
	},
	{
		Name:   DateDim,
		Origin: Immigration,
		Columns: []Column{
			{Name: "arr_date", Source: "arr_date", SQLType: "DATE"},
			{Name: "dep_date", Source: "dep_date", SQLType: "DATE"},
			{Name: "month", Source: "month", SQLType: "INTEGER"},
			{Name: "year_of_data", Source: "year_of_data", SQLType: "INTEGER"},
		},
	},
	{
		Name:   ImmigrantDim,
		Origin: Immigration,
		Columns: []Column{
			{Name: "id", Source: "id", SQLType: "INTEGER", PrimaryKey: true},
			{Name: "age", Source: "age", SQLType: "INTEGER"},
			{Name: "year_of_birth", Source: "year_of_birth", SQLType: "INTEGER"},
			{Name: "gender", Source: "gender", SQLType: "VARCHAR(10)"},
		},
	},
	{
		Name:   ModeOfArrivalDim,
		Origin: Modes,
		Columns: []Column{
			{Name: "code", Source: "mode_code", SQLType: "INTEGER", PrimaryKey: true},
			{Name: "mode", Source: "mode_name", SQLType: "VARCHAR(15)"},
		},
	},
	{
		Name:   PortDim,
		Origin: Ports,
		Columns: []Column{
			{Name: "code", Source: "port_code", SQLType: "VARCHAR(20)", PrimaryKey: true},
			{Name: "port", Source: "port_name", SQLType: "VARCHAR(50)"},
			{Name: "state_code", Source: "state_code", SQLType: "VARCHAR(15)"},
		},
	},
	{
		Name:   VisaDim,
		Origin: Visas,
		Columns: []Column{
			{Name: "visa_code", Source: "visa_code", SQLType: "INTEGER"},
			{Name: "visatype", Source: "visatype", SQLType: "VARCHAR(15)", PrimaryKey: true},
			{Name: "category", Source: "category", SQLType: "VARCHAR(20)"},
			{Name: "description", Source: "description", SQLType: "VARCHAR(128)"},
		},
	},
	{
		Name:   CountryDim,
		Origin: Countries,
		Columns: []Column{
			{Name: "code", Source: "country_code", SQLType: "INTEGER", PrimaryKey: true},
			{Name: "country", Source: "country", SQLType: "VARCHAR(128)"},
		},
	},
	{
		Name:   DemographDim,
		Origin: Demographics,
		Columns: []Column{
			{Name: "city", Source: "city", SQLType: "VARCHAR(50)"},
			{Name: "state", Source: "state", SQLType: "VARCHAR(128)"},
			{Name: "state_code", Source: "state_code", SQLType: "VARCHAR(20)"},
			{Name: "median_age", Source: "median_age", SQLType: "NUMERIC"},
			{Name: "male_population", Source: "male_population", SQLType: "INTEGER"},
			{Name: "female_population", Source: "female_population", SQLType: "INTEGER"},
			{Name: "total_population", Source: "total_population", SQLType: "INTEGER"},
			{Name: "number_of_veterans", Source: "number_of_veterans", SQLType: "INTEGER"},
			{Name: "race", Source: "race", SQLType: "VARCHAR(50)"},
			{Name: "average_household_size", Source: "average_household_size", SQLType: "NUMERIC"},
			{Name: "count", Source: "count", SQLType: "INTEGER"},
		},
	},
}

// Star returns the eight warehouse tables in extraction order.
func Star() []StarTable {
	out := make([]StarTable, len(star))
	copy(out, star)
	return out
}

// LoadOrder returns the fixed order tables are dropped, created and loaded.
// No foreign keys are declared, so the order carries no dependency meaning.
func LoadOrder() []StarTable {
	order := []string{
		ImmigrationFact, ImmigrantDim, VisaDim, ModeOfArrivalDim,
		PortDim, CountryDim, DemographDim, DateDim,
	}
	out := make([]StarTable, 0, len(order))
	for _, name := range order {
		t, _ := StarByName(name)
		out = append(out, t)
	}
	return out
}

// StarByName finds a warehouse table by name.
func StarByName(name string) (StarTable, bool) {
	for _, t := range star {
		if t.Name == name {
			return t, true
		}
	}
	return StarTable{}, false
}
