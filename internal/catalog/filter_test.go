package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(ps []Product) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Name)
	}
	return out
}

func TestFilter_CategoryScenario(t *testing.T) {
	products := []Product{
		{Name: "Brake Pad", Category: "Buy Parts"},
		{Name: "Rim", Category: "Wheels & Tires"},
	}

	got := Filter(products, Criteria{Category: "Wheels & Tires"})
	require.Len(t, got, 1)
	assert.Equal(t, "Rim", got[0].Name)
}

func TestFilter_CategoryIsCaseInsensitiveAndExact(t *testing.T) {
	products := []Product{
		{Name: "Rim", Category: "Wheels & Tires"},
		{Name: "Tire iron", Category: "Wheels"},
		{Name: "Uncategorised"},
	}

	assert.Equal(t, []string{"Rim"}, names(Filter(products, Criteria{Category: "wheels & tires"})))
	assert.Equal(t, []string{"Tire iron"}, names(Filter(products, Criteria{Category: "WHEELS"})))
	assert.Empty(t, Filter(products, Criteria{Category: "Wheel"}))
}

func TestFilter_PopulatedFieldRequiresExactMatch(t *testing.T) {
	products := []Product{
		{Name: "Civic headlight", Make: "Honda", Model: "Civic", Year: YearFromInt(2012)},
		{Name: "Civic Type R wing", Make: "Honda", Model: "Civic Type R", Year: YearFromString("2018")},
	}

	assert.Equal(t, []string{"Civic headlight"}, names(Filter(products, Criteria{Model: "civic"})))
	assert.Equal(t, []string{"Civic Type R wing"}, names(Filter(products, Criteria{Year: "2018"})))
	assert.Equal(t, []string{"Civic headlight", "Civic Type R wing"}, names(Filter(products, Criteria{Make: "HONDA"})))
	assert.Empty(t, Filter(products, Criteria{Make: "Hon"}))
}

func TestFilter_MissingFieldFallsBackToTextSearch(t *testing.T) {
	products := []Product{
		{Name: "Alternator", Description: "Fits Toyota Corolla 2005-2008"},
		{Name: "Starter", Description: "Fits Nissan"},
		{Name: "Mirror", Make: "Ford"},
	}

	assert.Equal(t, []string{"Alternator"}, names(Filter(products, Criteria{Make: "toyota"})))
	assert.Equal(t, []string{"Alternator"}, names(Filter(products, Criteria{Model: "Corolla", Year: "2005"})))

	// populated make never falls back, even if the text mentions the query
	assert.Empty(t, Filter(products, Criteria{Make: "mirror"}))
}

func TestFilter_CriteriaAreANDed(t *testing.T) {
	products := []Product{
		{Name: "A", Category: "Buy Parts", Make: "BMW"},
		{Name: "B", Category: "Buy Parts", Make: "Audi"},
		{Name: "C", Category: "Accessories", Make: "BMW"},
	}

	assert.Equal(t, []string{"A"}, names(Filter(products, Criteria{Category: "buy parts", Make: "bmw"})))
}

func TestFilter_BlankCriteriaAreIgnored(t *testing.T) {
	products := []Product{{Name: "A"}, {Name: "B", Category: "X"}}

	c := Criteria{Search: "  ", Category: "\t", Year: " ", Make: "", Model: "  "}
	assert.True(t, c.IsZero())
	assert.Equal(t, []string{"A", "B"}, names(Filter(products, c)))
}

func TestFilter_Search(t *testing.T) {
	products := []Product{
		{Name: "Brake Pad"},
		{Name: "Rotor", Description: "pairs with brake pads"},
		{Name: "Wiper"},
	}

	assert.Equal(t, []string{"Brake Pad", "Rotor"}, names(Filter(products, Criteria{Search: "BRAKE"})))
}

func TestFilter_PreservesOrder(t *testing.T) {
	products := []Product{
		{Name: "5", Make: "Kia"},
		{Name: "1", Make: "Kia"},
		{Name: "3"},
		{Name: "2", Make: "Kia"},
		{Name: "4 kia"},
	}

	got := Filter(products, Criteria{Make: "kia"})
	assert.Equal(t, []string{"5", "1", "2", "4 kia"}, names(got))

	// the result is a subsequence of the input
	j := 0
	for _, p := range products {
		if j < len(got) && p.Name == got[j].Name {
			j++
		}
	}
	assert.Equal(t, len(got), j)
}

func TestCategories_PresetsFirst(t *testing.T) {
	presets := []string{"Buy Parts", "Wheels & Tires"}
	products := []Product{
		{Category: "Lighting"},
		{Category: "buy parts"},
		{Category: "Buy Parts"},
		{Category: ""},
		{Category: "Audio"},
		{Category: "Lighting"},
	}

	got := Categories(products, presets)
	assert.Equal(t, []string{"Buy Parts", "Wheels & Tires", "Audio", "Lighting", "buy parts"}, got)
}

func TestCategories_EmptyCatalog(t *testing.T) {
	got := Categories(nil, DefaultCategories)
	assert.Equal(t, DefaultCategories, got)
}
