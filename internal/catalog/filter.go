package catalog

import (
	"sort"
	"strings"
)

// DefaultCategories is the navigation list shown regardless of catalog contents.
var DefaultCategories = []string{
	"Buy Parts",
	"Wheels & Tires",
	"Engine & Drivetrain",
	"Brakes & Suspension",
	"Body & Lighting",
	"Accessories",
}

// Criteria narrows a listing. Empty (after trimming) fields impose no constraint.
type Criteria struct {
	Search   string
	Category string
	Year     string
	Make     string
	Model    string
}

func (c Criteria) normalized() Criteria {
	return Criteria{
		Search:   strings.ToLower(strings.TrimSpace(c.Search)),
		Category: strings.TrimSpace(c.Category),
		Year:     strings.ToLower(strings.TrimSpace(c.Year)),
		Make:     strings.ToLower(strings.TrimSpace(c.Make)),
		Model:    strings.ToLower(strings.TrimSpace(c.Model)),
	}
}

func (c Criteria) IsZero() bool {
	return c.normalized() == Criteria{}
}

// Filter keeps the products matching every supplied criterion, in their
// original order.
func Filter(products []Product, c Criteria) []Product {
	c = c.normalized()

	out := make([]Product, 0, len(products))
	for _, p := range products {
		if matches(p, c) {
			out = append(out, p)
		}
	}
	return out
}

func matches(p Product, c Criteria) bool {
	if c.Category != "" && !strings.EqualFold(strings.TrimSpace(p.Category), c.Category) {
		return false
	}

	hay := haystack(p)

	if c.Search != "" && !strings.Contains(hay, c.Search) {
		return false
	}

	return fieldMatches(p.Year.String(), c.Year, hay) &&
		fieldMatches(p.Make, c.Make, hay) &&
		fieldMatches(p.Model, c.Model, hay)
}

// fieldMatches requires an exact case-insensitive match when the record has
// the field, and falls back to a text search over the record otherwise.
func fieldMatches(field, query, hay string) bool {
	if query == "" {
		return true
	}
	if field = strings.TrimSpace(field); field != "" {
		return strings.ToLower(field) == query
	}
	return strings.Contains(hay, query)
}

func haystack(p Product) string {
	return strings.ToLower(strings.Join([]string{
		p.Name,
		p.Description,
		p.Make,
		p.Model,
		p.Year.String(),
	}, " "))
}

// Categories returns presets in their given order followed by the distinct
// non-empty categories found in products, sorted. De-duplication against the
// presets is case-sensitive.
func Categories(products []Product, presets []string) []string {
	out := make([]string, 0, len(presets)+len(products))
	seen := make(map[string]struct{}, len(presets)+len(products))

	for _, c := range presets {
		out = append(out, c)
		seen[c] = struct{}{}
	}

	found := make([]string, 0)
	for _, p := range products {
		if p.Category == "" {
			continue
		}
		if _, dup := seen[p.Category]; dup {
			continue
		}
		seen[p.Category] = struct{}{}
		found = append(found, p.Category)
	}

	sort.Strings(found)
	return append(out, found...)
}
