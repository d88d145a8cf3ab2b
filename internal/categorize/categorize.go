// Package categorize assigns a coarse category to invoice text.
package categorize

import "strings"

// Other is the sentinel category returned when no keyword matches.
const Other = "Other"

// Category pairs a name with its keyword list.
type Category struct {
	Name     string
	Keywords []string
}

// Categorizer maps free text to the first matching category of an
// ordered list. Declaration order is the tie-break: when several
// categories match, the one declared first wins.
type Categorizer struct {
	categories []Category
}

// New builds a Categorizer over the given ordered categories.
func New(categories []Category) *Categorizer {
	return &Categorizer{categories: categories}
}

// Default returns a Categorizer with the built-in ordered table.
func Default() *Categorizer {
	return New([]Category{
		{Name: "Digital Service", Keywords: []string{
			"subscription", "saas", "hosting", "software", "domain", "cloud",
			"server", "api", "license", "digital", "online service", "webhosting",
			"abonnement", "abo", "mitgliedschaft",
		}},
		{Name: "Physical Product", Keywords: []string{
			"shipping", "delivery", "package", "tracking", "warehouse", "versand",
			"lieferung", "paket", "shipped", "dispatched", "product", "produkt",
		}},
		{Name: "Online Course", Keywords: []string{
			"course", "training", "education", "udemy", "coursera", "skillshare",
			"learning", "kurs", "schulung", "workshop", "webinar", "tutorial",
		}},
	})
}

// Categorize returns the first category whose keyword list matches the
// concatenation of subject and content, or Other when none match.
// Matching is case-insensitive.
func (c *Categorizer) Categorize(subject, content string) string {
	text := strings.ToLower(subject + " " + content)

	for _, cat := range c.categories {
		for _, keyword := range cat.Keywords {
			if strings.Contains(text, strings.ToLower(keyword)) {
				return cat.Name
			}
		}
	}
	return Other
}

// Names returns all category names in declaration order, plus Other.
func (c *Categorizer) Names() []string {
	names := make([]string, 0, len(c.categories)+1)
	for _, cat := range c.categories {
		names = append(names, cat.Name)
	}
	return append(names, Other)
}
