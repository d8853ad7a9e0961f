package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/i94dw/pkg/models"
)

func TestLookupReturnsCopy(t *testing.T) {
	a, err := Lookup(Ports)
	require.NoError(t, err)
	a.Fields[0].Name = "mutated"

	b := MustLookup(Ports)
	assert.Equal(t, "port_code", b.Fields[0].Name)
}

func TestLookupUnknown(t *testing.T) {
	_, err := Lookup(Dataset("airlines"))
	assert.Error(t, err)
}

func TestReferenceShapes(t *testing.T) {
	assert.Equal(t, []string{"mode_code", "mode_name"}, MustLookup(Modes).FieldNames())
	assert.Equal(t, []string{"visa_code", "visatype", "category", "description"}, MustLookup(Visas).FieldNames())
	assert.Equal(t, []string{"country_code", "country"}, MustLookup(Countries).FieldNames())
	assert.Len(t, MustLookup(Demographics).Fields, 12)
	assert.Equal(t, models.FieldTypeFloat, MustLookup(Demographics).Fields[2].Type)
}

func TestStarSourcesExistInOrigins(t *testing.T) {
	// Columns derived by the casting stage are not in the raw immigration shape.
	derived := map[string]bool{
		"id": true, "arr_date": true, "dep_date": true, "country_code": true,
		"state_code": true, "port_code": true, "mode_code": true, "month": true,
		"year_of_data": true, "age": true, "year_of_birth": true,
	}
	for _, tbl := range Star() {
		origin := MustLookup(tbl.Origin)
		for _, col := range tbl.Columns {
			if tbl.Origin == Immigration && derived[col.Source] {
				continue
			}
			assert.GreaterOrEqual(t, origin.Index(col.Source), 0, "%s.%s", tbl.Name, col.Source)
		}
	}
}

func TestLoadOrderCoversStar(t *testing.T) {
	order := LoadOrder()
	require.Len(t, order, 8)
	seen := map[string]bool{}
	for _, tbl := range order {
		require.NotEmpty(t, tbl.Name)
		seen[tbl.Name] = true
	}
	for _, tbl := range Star() {
		assert.True(t, seen[tbl.Name], tbl.Name)
	}
	assert.Equal(t, ImmigrationFact, order[0].Name)
	assert.Equal(t, DateDim, order[7].Name)
}

func TestFactNotNullColumns(t *testing.T) {
	fact, ok := StarByName(ImmigrationFact)
	require.True(t, ok)
	var notNull []string
	for _, c := range fact.Columns {
		if c.NotNull {
			notNull = append(notNull, c.Name)
		}
	}
	assert.Equal(t, []string{"mode_of_arrival", "visatype"}, notNull)
}
