// Package menu pairs the food and nutrient rows of menu tables and parses
// their cells.
package menu

import (
	"regexp"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"

	"github.com/msto63/etlap/internal/docx"
	"github.com/msto63/etlap/internal/parser"
	"github.com/msto63/etlap/pkg/core/cache"
	"github.com/msto63/etlap/pkg/core/logging"
)

// UnknownHeader is used for rows without any cell
const UnknownHeader = "?"

// Cell is one meal: the foods of a food cell and the nutrient record of the
// cell below it
type Cell struct {
	Label    string           `json:"label,omitempty" yaml:"label,omitempty"`
	Foods    []parser.Food    `json:"foods" yaml:"foods"`
	Nutrient *parser.Nutrient `json:"nutrient,omitempty" yaml:"nutrient,omitempty"`
}

// Row is a day (or other row header) with its meals
type Row struct {
	Header string `json:"header" yaml:"header"`
	Cells  []Cell `json:"cells" yaml:"cells"`
}

// Table is a parsed menu table
type Table struct {
	Index  int      `json:"index" yaml:"index"`
	Labels []string `json:"labels,omitempty" yaml:"labels,omitempty"`
	Rows   []Row    `json:"rows" yaml:"rows"`
}

// Options control Build
type Options struct {
	// RowFilter keeps only rows whose header matches. Nil keeps all rows.
	RowFilter *regexp.Regexp

	// Workers is the number of rows parsed concurrently
	Workers int

	// Cache memoizes cell parses; may be nil
	Cache *ParseCache

	Logger *logging.Logger
}

// ParseCache memoizes parsed cell texts across builds. Cached slices and
// records are shared and must not be modified.
type ParseCache struct {
	foods     *cache.Cache[string, []parser.Food]
	nutrients *cache.Cache[string, *parser.Nutrient]
}

// NewParseCache creates a cache holding up to maxItems texts per kind
func NewParseCache(maxItems int) *ParseCache {
	cfg := cache.Config{MaxItems: maxItems}
	return &ParseCache{
		foods:     cache.New[string, []parser.Food](cfg),
		nutrients: cache.New[string, *parser.Nutrient](cfg),
	}
}

// HitRate returns the share of cell lookups served from the cache in percent
func (c *ParseCache) HitRate() float64 {
	fh, fm, _ := c.foods.Stats()
	nh, nm, _ := c.nutrients.Stats()
	total := fh + fm + nh + nm
	if total == 0 {
		return 0
	}
	return float64(fh+nh) / float64(total) * 100
}

func (c *ParseCache) parseFoods(text string) []parser.Food {
	if c == nil {
		return parseFoods(text)
	}
	return c.foods.GetOrSet(text, func() []parser.Food { return parseFoods(text) })
}

func (c *ParseCache) parseNutrients(text string) *parser.Nutrient {
	if c == nil {
		return parser.ParseNutrients(text)
	}
	return c.nutrients.GetOrSet(text, func() *parser.Nutrient { return parser.ParseNutrients(text) })
}

func parseFoods(text string) []parser.Food {
	foods := parser.ParseFoods(norm.NFC.String(text))
	if foods == nil {
		foods = []parser.Food{}
	}
	return foods
}

// Stats summarizes parsed tables
type Stats struct {
	Tables    int `json:"tables" yaml:"tables"`
	Rows      int `json:"rows" yaml:"rows"`
	Cells     int `json:"cells" yaml:"cells"`
	Foods     int `json:"foods" yaml:"foods"`
	Nutrients int `json:"nutrients" yaml:"nutrients"`
}

// rowPair is a food row and the nutrient row below it
type rowPair struct {
	table    int
	header   string
	labels   []string
	food     []string
	nutrient []string
}

// Build converts document tables into menu tables. The first row of each
// table holds the column labels. The remaining rows alternate between food
// and nutrient rows; a trailing food row without nutrient row is dropped.
func Build(tables []docx.Table, opts Options) []Table {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	result := make([]Table, len(tables))
	var pairs []rowPair
	for i, t := range tables {
		result[i] = Table{Index: i + 1, Rows: []Row{}}
		if len(t.Rows) == 0 {
			continue
		}

		labels := cellsAfterHeader(t.Rows[0].Cells)
		result[i].Labels = make([]string, len(labels))
		for j, l := range labels {
			result[i].Labels[j] = singleLine(l)
		}

		body := t.Rows[1:]
		for j := 0; j+1 < len(body); j += 2 {
			header := Header(body[j].Cells)
			if opts.RowFilter != nil && !opts.RowFilter.MatchString(header) {
				logger.Debug("row filtered", "table", i+1, "header", header)
				continue
			}
			pairs = append(pairs, rowPair{
				table:    i,
				header:   header,
				labels:   result[i].Labels,
				food:     cellsAfterHeader(body[j].Cells),
				nutrient: cellsAfterHeader(body[j+1].Cells),
			})
		}
		if len(body)%2 == 1 {
			logger.Debug("trailing row without nutrient row", "table", i+1)
		}
	}

	rows := parseRows(pairs, opts.Workers, opts.Cache)
	for i, p := range pairs {
		result[p.table].Rows = append(result[p.table].Rows, rows[i])
	}
	return result
}

// parseRows parses the pairs with up to workers goroutines, keeping order
func parseRows(pairs []rowPair, workers int, pc *ParseCache) []Row {
	rows := make([]Row, len(pairs))
	if workers <= 1 || len(pairs) <= 1 {
		for i := range pairs {
			rows[i] = parseRow(pairs[i], pc)
		}
		return rows
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				rows[i] = parseRow(pairs[i], pc)
			}
		}()
	}
	for i := range pairs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return rows
}

func parseRow(p rowPair, pc *ParseCache) Row {
	n := len(p.food)
	if len(p.nutrient) < n {
		n = len(p.nutrient)
	}

	row := Row{Header: p.header, Cells: make([]Cell, n)}
	for i := 0; i < n; i++ {
		row.Cells[i] = Cell{
			Foods:    pc.parseFoods(p.food[i]),
			Nutrient: pc.parseNutrients(p.nutrient[i]),
		}
		if i < len(p.labels) {
			row.Cells[i].Label = p.labels[i]
		}
	}
	return row
}

// Header returns the row header: the first cell with line breaks removed
func Header(cells []string) string {
	if len(cells) == 0 {
		return UnknownHeader
	}
	return singleLine(cells[0])
}

func singleLine(s string) string {
	return norm.NFC.String(strings.NewReplacer("\r", "", "\n", "").Replace(s))
}

func cellsAfterHeader(cells []string) []string {
	if len(cells) <= 1 {
		return nil
	}
	return cells[1:]
}

// Summarize counts the content of parsed tables
func Summarize(tables []Table) Stats {
	s := Stats{Tables: len(tables)}
	for _, t := range tables {
		s.Rows += len(t.Rows)
		for _, r := range t.Rows {
			s.Cells += len(r.Cells)
			for _, c := range r.Cells {
				s.Foods += len(c.Foods)
				if c.Nutrient != nil {
					s.Nutrients++
				}
			}
		}
	}
	return s
}
