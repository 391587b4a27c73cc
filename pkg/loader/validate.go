package loader

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/denizgursoy/tursu/pkg/gherkin"
)

// tagSyntax is @name or @name(params).
var tagSyntax = regexp.MustCompile(`^@\w+(\(.*\))?$`)

var stepKeywords = map[string]bool{
	"Given": true, "When": true, "Then": true, "And": true, "But": true,
}

// Validate runs semantic checks on a structurally valid feature and reports
// every problem at once, so authors fix the whole file in one pass.
func Validate(feature *gherkin.Feature) error {
	var problems []error
	report := func(format string, args ...any) {
		problems = append(problems, fmt.Errorf(format, args...))
	}

	if feature.Name == "" {
		report("%s: feature has an empty name", feature.URI)
	}
	for _, tag := range feature.Tags {
		if !tagSyntax.MatchString(tag) {
			report("%s: malformed feature tag %q", feature.URI, tag)
		}
	}

	seenNames := make(map[string]int)
	for _, sc := range feature.Scenarios {
		validateScenario(feature.URI, sc, report)
		if sc.Name != "" {
			if prev, ok := seenNames[sc.Name]; ok {
				report("%s:%d: duplicate scenario name %q (first used at line %d)", feature.URI, sc.Line, sc.Name, prev)
			} else {
				seenNames[sc.Name] = sc.Line
			}
		}
	}
	if feature.Background != nil {
		validateSteps(feature.URI, feature.Background, report)
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("feature validation failed: %w", errors.Join(problems...))
}

func validateScenario(uri string, sc *gherkin.Scenario, report func(string, ...any)) {
	if sc.Name == "" {
		report("%s:%d: scenario has an empty name", uri, sc.Line)
	}
	for _, tag := range sc.Tags {
		if !tagSyntax.MatchString(tag) {
			report("%s:%d: malformed tag %q on scenario %q", uri, sc.Line, tag, sc.Name)
		}
	}
	validateSteps(uri, sc, report)

	if sc.IsOutline() && len(sc.Examples) > 0 {
		if _, err := gherkin.ValidateOutlinePlaceholders(sc); err != nil {
			report("%s:%d: %s", uri, sc.Line, err.Error())
		}
	}
}

func validateSteps(uri string, sc *gherkin.Scenario, report func(string, ...any)) {
	for _, step := range sc.Steps {
		if step.Text == "" {
			report("%s:%d: step has no text", uri, step.Line)
		}
		if !stepKeywords[step.Keyword] {
			report("%s:%d: step has invalid keyword %q", uri, step.Line, step.Keyword)
		}
	}
}
