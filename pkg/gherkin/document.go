package gherkin

import "fmt"

// ScenarioType discriminates the three step-container kinds of a feature.
type ScenarioType string

const (
	TypeScenario        ScenarioType = "scenario"
	TypeScenarioOutline ScenarioType = "scenario_outline"
	TypeBackground      ScenarioType = "background"
)

// Feature is the parsed document tree for one .feature file.
type Feature struct {
	Name        string
	Description string
	Tags        []string
	Background  *Scenario
	Scenarios   []*Scenario
	Language    string
	URI         string
}

// Scenario is a concrete scenario, a scenario outline, or a background.
type Scenario struct {
	ID          string
	Type        ScenarioType
	Name        string
	Description string
	Tags        []string
	Steps       []*Step
	Examples    []*Examples
	Line        int
}

// IsOutline reports whether the scenario still needs example expansion.
func (s *Scenario) IsOutline() bool {
	return s.Type == TypeScenarioOutline
}

// Step is a single Given/When/Then/And/But line with its optional argument.
type Step struct {
	Keyword   string
	Text      string
	Line      int
	DataTable *DataTable
	DocString *DocString
}

// DocString is a triple-quoted block attached to a step. ContentType is the
// token following the opening delimiter (e.g. "json"), if any.
type DocString struct {
	Content     string
	ContentType string
	Line        int
}

// Examples is one example table of a scenario outline.
type Examples struct {
	Name        string
	Description string
	Tags        []string
	Header      []string
	Rows        [][]string
	Line        int
}

// DataTable is a rectangular pipe-delimited table attached to a step.
// Row 0 is conventionally the header row.
type DataTable struct {
	rows [][]string
}

// NewDataTable builds a table from raw rows. A table needs at least one row.
func NewDataTable(rows [][]string) (*DataTable, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("data table needs at least one row")
	}
	return &DataTable{rows: rows}, nil
}

// Raw returns the underlying cells, header row included.
func (t *DataTable) Raw() [][]string {
	return t.rows
}

// Len returns the number of rows, header included.
func (t *DataTable) Len() int {
	return len(t.rows)
}

// RowsWithoutHeader returns all rows except row 0.
func (t *DataTable) RowsWithoutHeader() [][]string {
	if len(t.rows) <= 1 {
		return nil
	}
	return t.rows[1:]
}

// Hashes maps every data row to a header->value map, one map per row.
func (t *DataTable) Hashes() []map[string]string {
	if len(t.rows) <= 1 {
		return nil
	}
	header := t.rows[0]
	hashes := make([]map[string]string, 0, len(t.rows)-1)
	for _, row := range t.rows[1:] {
		h := make(map[string]string, len(header))
		for i, key := range header {
			if i < len(row) {
				h[key] = row[i]
			}
		}
		hashes = append(hashes, h)
	}
	return hashes
}

// RowsHash reads the table as a two-column key/value list across all rows,
// column 0 keying column 1.
func (t *DataTable) RowsHash() map[string]string {
	h := make(map[string]string, len(t.rows))
	for _, row := range t.rows {
		if len(row) >= 2 {
			h[row[0]] = row[1]
		} else if len(row) == 1 {
			h[row[0]] = ""
		}
	}
	return h
}
