package catalog

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	lowerTR = cases.Lower(language.Turkish)
	lowerEN = cases.Lower(language.English)
)

// Search returns the series whose Turkish or English name contains term,
// ignoring case. Turkish names are folded with Turkish casing rules, so
// "DÖVİZ" finds "Döviz" and "ı" and "I" pair up. Results keep catalog order.
func (c *Catalog) Search(term string) []Series {
	term = strings.TrimSpace(term)
	if term == "" {
		return []Series{}
	}
	tr := lowerTR.String(term)
	en := lowerEN.String(term)

	out := make([]Series, 0)
	for _, s := range c.series {
		if strings.Contains(lowerTR.String(s.Name), tr) || strings.Contains(lowerEN.String(s.NameEng), en) {
			out = append(out, s)
		}
	}
	return out
}
