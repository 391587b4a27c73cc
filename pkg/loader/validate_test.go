package loader

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/denizgursoy/tursu/pkg/gherkin"
)

func validScenario(name string, line int) *gherkin.Scenario {
	return &gherkin.Scenario{
		Type: gherkin.TypeScenario,
		Name: name,
		Line: line,
		Steps: []*gherkin.Step{
			{Keyword: "Given", Text: "a step", Line: line + 1},
		},
	}
}

func TestValidate(t *testing.T) {
	t.Run("valid feature passes", func(t *testing.T) {
		feature := &gherkin.Feature{
			Name:      "ok",
			URI:       "ok.feature",
			Tags:      []string{"@smoke", "@DataProvider(sheet)"},
			Scenarios: []*gherkin.Scenario{validScenario("one", 3)},
		}
		require.NoError(t, Validate(feature))
	})

	t.Run("empty feature name", func(t *testing.T) {
		feature := &gherkin.Feature{
			URI:       "x.feature",
			Scenarios: []*gherkin.Scenario{validScenario("one", 3)},
		}
		err := Validate(feature)
		require.Error(t, err)
		require.Contains(t, err.Error(), "feature has an empty name")
	})

	t.Run("malformed tags", func(t *testing.T) {
		sc := validScenario("one", 3)
		sc.Tags = []string{"@ok", "not-a-tag"}
		feature := &gherkin.Feature{
			Name:      "f",
			URI:       "x.feature",
			Tags:      []string{"@fine", "@bad tag"},
			Scenarios: []*gherkin.Scenario{sc},
		}
		err := Validate(feature)
		require.Error(t, err)
		require.Contains(t, err.Error(), `malformed feature tag "@bad tag"`)
		require.Contains(t, err.Error(), `malformed tag "not-a-tag"`)
	})

	t.Run("duplicate scenario names report first line", func(t *testing.T) {
		feature := &gherkin.Feature{
			Name: "f",
			URI:  "x.feature",
			Scenarios: []*gherkin.Scenario{
				validScenario("same", 3),
				validScenario("same", 9),
			},
		}
		err := Validate(feature)
		require.Error(t, err)
		require.Contains(t, err.Error(), `duplicate scenario name "same" (first used at line 3)`)
	})

	t.Run("empty step text and bad keyword", func(t *testing.T) {
		sc := validScenario("one", 3)
		sc.Steps = append(sc.Steps,
			&gherkin.Step{Keyword: "Given", Text: "", Line: 5},
			&gherkin.Step{Keyword: "Whenever", Text: "something", Line: 6},
		)
		feature := &gherkin.Feature{Name: "f", URI: "x.feature", Scenarios: []*gherkin.Scenario{sc}}
		err := Validate(feature)
		require.Error(t, err)
		require.Contains(t, err.Error(), "step has no text")
		require.Contains(t, err.Error(), `invalid keyword "Whenever"`)
	})

	t.Run("outline placeholders validated against headers", func(t *testing.T) {
		outline := &gherkin.Scenario{
			Type: gherkin.TypeScenarioOutline,
			Name: "o",
			Line: 3,
			Steps: []*gherkin.Step{
				{Keyword: "Given", Text: "<n> and <missing>", Line: 4},
			},
			Examples: []*gherkin.Examples{
				{Header: []string{"n"}, Rows: [][]string{{"1"}}},
			},
		}
		feature := &gherkin.Feature{Name: "f", URI: "x.feature", Scenarios: []*gherkin.Scenario{outline}}
		err := Validate(feature)
		require.Error(t, err)
		require.Contains(t, err.Error(), "missing from Examples header")
	})

	t.Run("background steps are validated too", func(t *testing.T) {
		feature := &gherkin.Feature{
			Name:      "f",
			URI:       "x.feature",
			Scenarios: []*gherkin.Scenario{validScenario("one", 6)},
			Background: &gherkin.Scenario{
				Type:  gherkin.TypeBackground,
				Steps: []*gherkin.Step{{Keyword: "Setup", Text: "db", Line: 2}},
			},
		}
		err := Validate(feature)
		require.Error(t, err)
		require.Contains(t, err.Error(), `invalid keyword "Setup"`)
	})

	t.Run("all problems reported at once", func(t *testing.T) {
		sc := validScenario("", 3)
		sc.Tags = []string{"bad"}
		feature := &gherkin.Feature{URI: "x.feature", Scenarios: []*gherkin.Scenario{sc}}
		err := Validate(feature)
		require.Error(t, err)
		require.Contains(t, err.Error(), "feature has an empty name")
		require.Contains(t, err.Error(), "scenario has an empty name")
		require.Contains(t, err.Error(), `malformed tag "bad"`)
	})
}
