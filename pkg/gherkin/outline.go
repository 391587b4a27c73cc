package gherkin

import (
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// MaxExpandedScenarios caps how many scenarios one outline may generate.
// The ceiling guards against runaway example tables, not correctness.
const MaxExpandedScenarios = 1000

var placeholderPattern = regexp.MustCompile(`<([^>]+)>`)

// Expander turns scenario outlines into concrete scenarios by substituting
// example values into every <placeholder> occurrence.
type Expander struct {
	logger *slog.Logger
}

func NewExpander(logger *slog.Logger) *Expander {
	if logger == nil {
		logger = slog.Default()
	}
	return &Expander{logger: logger}
}

// Expand produces one concrete scenario per example row, across all Examples
// blocks of the outline. An outline relying on an external data provider
// (tagged, no inline examples) expands to nothing here.
func (e *Expander) Expand(outline *Scenario) ([]*Scenario, error) {
	if outline.Type != TypeScenarioOutline {
		return nil, fmt.Errorf("cannot expand %q: not a scenario outline", outline.Name)
	}
	if len(outline.Examples) == 0 {
		return nil, nil
	}
	if err := e.validatePlaceholders(outline); err != nil {
		return nil, err
	}

	var expanded []*Scenario
	for _, ex := range outline.Examples {
		for _, row := range ex.Rows {
			if len(expanded) >= MaxExpandedScenarios {
				e.logger.Warn("outline expansion truncated",
					"outline", outline.Name, "limit", MaxExpandedScenarios)
				return expanded, nil
			}
			values := make(map[string]string, len(ex.Header))
			for i, h := range ex.Header {
				values[h] = row[i]
			}
			expanded = append(expanded, instantiate(outline, ex, values))
		}
	}
	return expanded, nil
}

func (e *Expander) validatePlaceholders(outline *Scenario) error {
	unused, err := ValidateOutlinePlaceholders(outline)
	if err != nil {
		return err
	}
	if len(unused) > 0 {
		e.logger.Warn("examples headers never referenced by outline",
			"outline", outline.Name, "headers", unused)
	}
	return nil
}

// ValidateOutlinePlaceholders requires every placeholder referenced anywhere
// in the outline to appear in the union of its Examples headers. Headers
// nothing references are returned for the caller to warn about; they do not
// block expansion.
func ValidateOutlinePlaceholders(outline *Scenario) (unused []string, err error) {
	referenced := collectPlaceholders(outline)

	headers := make(map[string]bool)
	for _, ex := range outline.Examples {
		for _, h := range ex.Header {
			headers[h] = true
		}
	}

	var missing []string
	for ph := range referenced {
		if !headers[ph] {
			missing = append(missing, ph)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("outline %q references placeholders missing from Examples header: %s",
			outline.Name, strings.Join(missing, ", "))
	}

	for h := range headers {
		if !referenced[h] {
			unused = append(unused, h)
		}
	}
	sort.Strings(unused)
	return unused, nil
}

func collectPlaceholders(outline *Scenario) map[string]bool {
	found := make(map[string]bool)
	scan := func(text string) {
		for _, m := range placeholderPattern.FindAllStringSubmatch(text, -1) {
			found[m[1]] = true
		}
	}
	scan(outline.Name)
	scan(outline.Description)
	for _, step := range outline.Steps {
		scan(step.Text)
		if step.DataTable != nil {
			for _, row := range step.DataTable.Raw() {
				for _, cell := range row {
					scan(cell)
				}
			}
		}
		if step.DocString != nil {
			scan(step.DocString.Content)
		}
	}
	return found
}

// instantiate deep-copies the outline with every placeholder that has a
// value substituted; placeholders absent from the header pass through.
func instantiate(outline *Scenario, ex *Examples, values map[string]string) *Scenario {
	sub := func(text string) string {
		return placeholderPattern.ReplaceAllStringFunc(text, func(m string) string {
			name := m[1 : len(m)-1]
			if v, ok := values[name]; ok {
				return v
			}
			return m
		})
	}

	sc := &Scenario{
		ID:          uuid.NewString(),
		Type:        TypeScenario,
		Name:        sub(outline.Name),
		Description: sub(outline.Description),
		Tags:        mergeTags(outline.Tags, ex.Tags),
		Line:        outline.Line,
	}
	for _, step := range outline.Steps {
		copied := &Step{
			Keyword: step.Keyword,
			Text:    sub(step.Text),
			Line:    step.Line,
		}
		if step.DataTable != nil {
			raw := step.DataTable.Raw()
			rows := make([][]string, len(raw))
			for i, row := range raw {
				cells := make([]string, len(row))
				for j, cell := range row {
					cells[j] = sub(cell)
				}
				rows[i] = cells
			}
			copied.DataTable = &DataTable{rows: rows}
		}
		if step.DocString != nil {
			copied.DocString = &DocString{
				Content:     sub(step.DocString.Content),
				ContentType: step.DocString.ContentType,
				Line:        step.DocString.Line,
			}
		}
		sc.Steps = append(sc.Steps, copied)
	}
	return sc
}

func mergeTags(parent, child []string) []string {
	merged := make([]string, 0, len(parent)+len(child))
	merged = append(merged, parent...)
	for _, tag := range child {
		if !slices.Contains(merged, tag) {
			merged = append(merged, tag)
		}
	}
	return merged
}
