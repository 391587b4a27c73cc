package gherkin

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func parseSource(t *testing.T, source string) (*Feature, error) {
	t.Helper()
	return NewParser(nil).Parse(Tokenize(source), "test.feature")
}

func mustParse(t *testing.T, source string) *Feature {
	t.Helper()
	feature, err := parseSource(t, source)
	require.NoError(t, err)
	return feature
}

func TestParser_Parse(t *testing.T) {
	t.Run("full feature document", func(t *testing.T) {
		feature := mustParse(t, `@billing @slow
Feature: Checkout
  As a customer
  I want to pay

  Background: shared cart
    Given an empty cart

  @happy
  Scenario: single item
    When I add one item
    Then the total is 1
`)
		require.Equal(t, "Checkout", feature.Name)
		require.Equal(t, "As a customer\nI want to pay", feature.Description)
		require.Equal(t, []string{"@billing", "@slow"}, feature.Tags)
		require.Equal(t, "en", feature.Language)
		require.Equal(t, "test.feature", feature.URI)

		require.NotNil(t, feature.Background)
		require.Equal(t, TypeBackground, feature.Background.Type)
		require.Len(t, feature.Background.Steps, 1)

		require.Len(t, feature.Scenarios, 1)
		sc := feature.Scenarios[0]
		require.Equal(t, "single item", sc.Name)
		require.Equal(t, []string{"@happy"}, sc.Tags)
		require.NotEmpty(t, sc.ID)
		require.Len(t, sc.Steps, 2)
		require.Equal(t, "When", sc.Steps[0].Keyword)
		require.Equal(t, "I add one item", sc.Steps[0].Text)
		require.Equal(t, "Then", sc.Steps[1].Keyword)
	})

	t.Run("tags attach to the following scenario", func(t *testing.T) {
		feature := mustParse(t, `Feature: tagging
  Scenario: first
    Given a step

  @second-only
  Scenario: second
    Given another step
`)
		require.Empty(t, feature.Scenarios[0].Tags)
		require.Equal(t, []string{"@second-only"}, feature.Scenarios[1].Tags)
	})

	t.Run("language comment overrides default", func(t *testing.T) {
		feature := mustParse(t, `# language: de
Feature: sprache
  Scenario: eins
    Given ein schritt
`)
		require.Equal(t, "de", feature.Language)
	})

	t.Run("step with data table", func(t *testing.T) {
		feature := mustParse(t, `Feature: tables
  Scenario: users
    Given the following users
      | name  | age |
      | Alice | 30  |
      | Bob   | 25  |
`)
		table := feature.Scenarios[0].Steps[0].DataTable
		require.NotNil(t, table)
		require.Equal(t, [][]string{{"name", "age"}, {"Alice", "30"}, {"Bob", "25"}}, table.Raw())
	})

	t.Run("step with doc string", func(t *testing.T) {
		feature := mustParse(t, `Feature: docs
  Scenario: payload
    When I post
      """json
      {
        "a": 1
      }
      """
`)
		ds := feature.Scenarios[0].Steps[0].DocString
		require.NotNil(t, ds)
		require.Equal(t, "json", ds.ContentType)
		require.Equal(t, "{\n  \"a\": 1\n}", ds.Content)
	})

	t.Run("scenario outline with examples", func(t *testing.T) {
		feature := mustParse(t, `Feature: outlines
  Scenario Outline: eating <start>
    Given <start> cucumbers
    When I eat <eat>

    @fast
    Examples: small numbers
      | start | eat |
      | 12    | 5   |
      | 20    | 5   |
`)
		sc := feature.Scenarios[0]
		require.Equal(t, TypeScenarioOutline, sc.Type)
		require.Len(t, sc.Examples, 1)
		ex := sc.Examples[0]
		require.Equal(t, "small numbers", ex.Name)
		require.Equal(t, []string{"@fast"}, ex.Tags)
		require.Equal(t, []string{"start", "eat"}, ex.Header)
		require.Len(t, ex.Rows, 2)
	})

	t.Run("tags between examples and next scenario attach forward", func(t *testing.T) {
		feature := mustParse(t, `Feature: boundary
  Scenario Outline: bulk
    Given <n> items
    Examples:
      | n |
      | 1 |

  @next
  Scenario: after outline
    Given one step
`)
		require.Len(t, feature.Scenarios, 2)
		require.Empty(t, feature.Scenarios[0].Tags)
		require.Equal(t, []string{"@next"}, feature.Scenarios[1].Tags)
	})

	t.Run("outline with data provider tag needs no examples", func(t *testing.T) {
		feature := mustParse(t, `Feature: external data
  @DataProvider
  Scenario Outline: from spreadsheet
    Given <n> items
`)
		require.Len(t, feature.Scenarios, 1)
		require.Empty(t, feature.Scenarios[0].Examples)
	})
}

func TestParser_Errors(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		wantMsg string
		wantLn  int
	}{
		{
			name:    "missing feature declaration",
			source:  "Scenario: stray\n  Given a step\n",
			wantMsg: "missing Feature declaration",
			wantLn:  1,
		},
		{
			name:    "feature without scenarios",
			source:  "Feature: empty\n",
			wantMsg: "has no scenarios",
			wantLn:  1,
		},
		{
			name:    "scenario without steps",
			source:  "Feature: f\n  Scenario: stepless\n",
			wantMsg: "has no steps",
			wantLn:  2,
		},
		{
			name:    "background without steps",
			source:  "Feature: f\n  Background:\n  Scenario: s\n    Given x\n",
			wantMsg: "background has no steps",
			wantLn:  2,
		},
		{
			name:    "duplicate background",
			source:  "Feature: f\n  Background:\n    Given x\n  Background:\n    Given y\n  Scenario: s\n    Given z\n",
			wantMsg: "duplicate Background",
			wantLn:  4,
		},
		{
			name:    "outline without examples",
			source:  "Feature: f\n  Scenario Outline: o\n    Given <n>\n",
			wantMsg: "has no Examples",
			wantLn:  2,
		},
		{
			name:    "examples row arity mismatch",
			source:  "Feature: f\n  Scenario Outline: o\n    Given <Name>\n    Examples:\n      | Name | Age |\n      | Alice |\n",
			wantMsg: "has 1 cells, expected 2",
			wantLn:  6,
		},
		{
			name:    "duplicate examples header",
			source:  "Feature: f\n  Scenario Outline: o\n    Given <n>\n    Examples:\n      | n | n |\n      | 1 | 2 |\n",
			wantMsg: "duplicate entry",
			wantLn:  5,
		},
		{
			name:    "step with table and doc string",
			source:  "Feature: f\n  Scenario: s\n    Given x\n      | a |\n      \"\"\"\n      text\n      \"\"\"\n",
			wantMsg: "already has an argument",
			wantLn:  5,
		},
		{
			name:    "unterminated doc string",
			source:  "Feature: f\n  Scenario: s\n    Given x\n      \"\"\"\n      text\n",
			wantMsg: "unterminated doc string",
			wantLn:  4,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseSource(t, tc.source)
			require.Error(t, err)

			var parseErr *ParseError
			require.ErrorAs(t, err, &parseErr)
			require.Contains(t, parseErr.Message, tc.wantMsg)
			require.Equal(t, tc.wantLn, parseErr.Line)
			require.Equal(t, "test.feature", parseErr.File)
		})
	}
}

func TestNormalizeDocString(t *testing.T) {
	t.Run("de-indents to common minimum", func(t *testing.T) {
		got := normalizeDocString([]string{"    line one", "      nested", "    line two"})
		require.Equal(t, "line one\n  nested\nline two", got)
	})

	t.Run("strips leading and trailing blank lines", func(t *testing.T) {
		got := normalizeDocString([]string{"", "  body  ", ""})
		require.Equal(t, "body", got)
	})

	t.Run("resolves escapes", func(t *testing.T) {
		got := normalizeDocString([]string{`a\tb\nc \"quoted\" back\\slash`})
		require.Equal(t, "a\tb\nc \"quoted\" back\\slash", got)
	})
}
