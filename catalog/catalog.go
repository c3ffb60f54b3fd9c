// Package catalog provides the EVDS reference data bundled with the library:
// categories, datagroups and series metadata. It backs offline metadata
// filtering and wildcard resolution and is never refreshed at runtime.
package catalog

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"sync"

	"github.com/tcmb/tcmb-go/internal/schema"
	"github.com/tcmb/tcmb-go/pattern"
)

//go:embed data/*.json
var bundled embed.FS

// Bundled file names inside a catalog filesystem.
const (
	CategoriesFile = "categories.json"
	DatagroupsFile = "datagroups.json"
	SeriesFile     = "series.json"
)

var loadDefault = sync.OnceValues(func() (*Catalog, error) {
	fsys, err := fs.Sub(bundled, "data")
	if err != nil {
		return nil, err
	}
	return Load(fsys)
})

// Catalog is an immutable set of reference records. It is safe for concurrent
// use; accessors return copies.
type Catalog struct {
	categories []Category
	datagroups []Datagroup
	series     []Series
	codes      []string
	byCode     map[string]int
	byGroup    map[string]int
}

// Default returns the bundled catalog. It is loaded on first use and shared by
// the whole process.
func Default() (*Catalog, error) {
	return loadDefault()
}

// MustDefault is like Default but panics if the bundled data is corrupt.
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(err)
	}
	return c
}

// Load reads a catalog from fsys, which must contain the categories,
// datagroups and series files at its root. Every record is validated before
// it is decoded.
func Load(fsys fs.FS) (*Catalog, error) {
	var (
		categories []Category
		datagroups []Datagroup
		series     []Series
	)
	if err := readRecords(fsys, CategoriesFile, schema.Category, &categories); err != nil {
		return nil, err
	}
	if err := readRecords(fsys, DatagroupsFile, schema.Datagroup, &datagroups); err != nil {
		return nil, err
	}
	if err := readRecords(fsys, SeriesFile, schema.Series, &series); err != nil {
		return nil, err
	}
	return New(categories, datagroups, series), nil
}

func readRecords(fsys fs.FS, name, schemaName string, dst any) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("catalog: read %s: %w", name, err)
	}

	var raw []interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("catalog: parse %s: %w", name, err)
	}
	if err := schema.CheckEach(raw, schemaName); err != nil {
		return fmt.Errorf("catalog: %s: %w", name, err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("catalog: decode %s: %w", name, err)
	}
	return nil
}

// New builds a catalog from records. The slices are copied; record order is
// kept and defines the order of every lookup result.
func New(categories []Category, datagroups []Datagroup, series []Series) *Catalog {
	c := &Catalog{
		categories: append([]Category(nil), categories...),
		datagroups: append([]Datagroup(nil), datagroups...),
		series:     append([]Series(nil), series...),
		codes:      make([]string, len(series)),
		byCode:     make(map[string]int, len(series)),
		byGroup:    make(map[string]int, len(datagroups)),
	}
	for i, s := range c.series {
		c.codes[i] = s.Code
		if _, dup := c.byCode[s.Code]; !dup {
			c.byCode[s.Code] = i
		}
	}
	for i, dg := range c.datagroups {
		if _, dup := c.byGroup[dg.Code]; !dup {
			c.byGroup[dg.Code] = i
		}
	}
	return c
}

// FromCodes builds a catalog holding only series codes. It is handy for
// resolving patterns against an arbitrary code list.
func FromCodes(codes ...string) *Catalog {
	series := make([]Series, len(codes))
	for i, code := range codes {
		series[i] = Series{Code: code}
	}
	return New(nil, nil, series)
}

// Len returns the number of series in the catalog.
func (c *Catalog) Len() int {
	return len(c.series)
}

// Codes returns every series code in catalog order.
func (c *Catalog) Codes() []string {
	return append([]string(nil), c.codes...)
}

// Lookup returns the series with the given code.
func (c *Catalog) Lookup(code string) (Series, bool) {
	i, ok := c.byCode[code]
	if !ok {
		return Series{}, false
	}
	return c.series[i], true
}

// Categories returns all categories.
func (c *Catalog) Categories() []Category {
	return append([]Category(nil), c.categories...)
}

// Datagroups returns the datagroups of a category, or all of them when
// categoryID is zero.
func (c *Catalog) Datagroups(categoryID int) []Datagroup {
	out := make([]Datagroup, 0, len(c.datagroups))
	for _, dg := range c.datagroups {
		if categoryID == 0 || int(dg.CategoryID) == categoryID {
			out = append(out, dg)
		}
	}
	return out
}

// Datagroup returns the datagroup with the given code.
func (c *Catalog) Datagroup(code string) (Datagroup, bool) {
	i, ok := c.byGroup[code]
	if !ok {
		return Datagroup{}, false
	}
	return c.datagroups[i], true
}

// Series returns the series of a datagroup, or all of them when datagroup is
// empty.
func (c *Catalog) Series(datagroup string) []Series {
	out := make([]Series, 0, len(c.series))
	for _, s := range c.series {
		if datagroup == "" || s.DatagroupCode == datagroup {
			out = append(out, s)
		}
	}
	return out
}

// Match returns the codes matching a wildcard pattern, in catalog order. It
// never touches the network.
func (c *Catalog) Match(p string) ([]string, error) {
	m, err := pattern.Compile(p)
	if err != nil {
		return nil, err
	}
	if m.Exact() {
		if _, ok := c.byCode[p]; ok {
			return []string{p}, nil
		}
		return []string{}, nil
	}
	return m.Filter(c.codes), nil
}
