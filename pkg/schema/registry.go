// Package schema holds the static shapes the pipeline reads and writes: the
// five reference datasets, the raw immigration records, and the star-schema
// catalog shared by extraction and the warehouse loader.
package schema

import (
	"fmt"

	"github.com/ajitpratap0/i94dw/pkg/models"
)

// Dataset names one input of the pipeline.
type Dataset string

const (
	Immigration  Dataset = "immigration"
	Demographics Dataset = "demographics"
	Modes        Dataset = "mode_of_arrival"
	Ports        Dataset = "port"
	Visas        Dataset = "visatype"
	Countries    Dataset = "country"
)

func str(name string) models.Field { return models.Field{Name: name, Type: models.FieldTypeString, Nullable: true} }
func num(name string) models.Field { return models.Field{Name: name, Type: models.FieldTypeFloat, Nullable: true} }
func integer(name string) models.Field {
	return models.Field{Name: name, Type: models.FieldTypeInt, Nullable: true}
}

var registry = map[Dataset]*models.Schema{
	Demographics: models.NewSchema(string(Demographics),
		str("city"),
		str("state"),
		num("median_age"),
		integer("male_population"),
		integer("female_population"),
		integer("total_population"),
		integer("number_of_veterans"),
		integer("foreign_born"),
		num("average_household_size"),
		str("state_code"),
		str("race"),
		integer("count"),
	),
	Modes: models.NewSchema(string(Modes),
		integer("mode_code"),
		str("mode_name"),
	),
	Ports: models.NewSchema(string(Ports),
		str("port_code"),
		str("port_name"),
		str("state_code"),
	),
	Visas: models.NewSchema(string(Visas),
		integer("visa_code"),
		str("visatype"),
		str("category"),
		str("description"),
	),
	Countries: models.NewSchema(string(Countries),
		integer("country_code"),
		str("country"),
	),
	// Raw I-94 arrivals. Numeric codes arrive as doubles.
	Immigration: models.NewSchema(string(Immigration),
		num("cicid"),
		num("i94yr"),
		num("i94mon"),
		num("i94cit"),
		num("i94res"),
		str("i94port"),
		num("arrdate"),
		num("i94mode"),
		str("i94addr"),
		num("depdate"),
		num("i94bir"),
		num("i94visa"),
		num("count"),
		str("dtadfile"),
		str("visapost"),
		str("occup"),
		str("entdepa"),
		str("entdepd"),
		str("entdepu"),
		str("matflag"),
		num("biryear"),
		str("dtaddto"),
		str("gender"),
		str("insnum"),
		str("airline"),
		num("admnum"),
		str("fltno"),
		str("visatype"),
	),
}

// Lookup returns a private copy of the schema registered for ds.
func Lookup(ds Dataset) (*models.Schema, error) {
	s, ok := registry[ds]
	if !ok {
		return nil, fmt.Errorf("no schema registered for dataset %q", ds)
	}
	return s.Clone(), nil
}

// MustLookup is Lookup for datasets known at compile time.
func MustLookup(ds Dataset) *models.Schema {
	s, err := Lookup(ds)
	if err != nil {
		panic(err)
	}
	return s
}

// References lists the four reference datasets plus demographics, in the
// order they are read.
func References() []Dataset {
	return []Dataset{Modes, Ports, Visas, Countries, Demographics}
}
