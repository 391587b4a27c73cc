// Package matcher resolves free-text step lines against a step registry,
// extracting and coercing captured parameters.
package matcher

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/denizgursoy/tursu/pkg/registry"
)

var ErrUndefinedStep = errors.New("undefined step")

// ParameterInfo describes one captured parameter before coercion.
type ParameterInfo struct {
	Raw      string
	Type     string
	Position int
}

// MatchResult is a resolved step: the winning definition, its coerced
// parameters, and the score that won.
type MatchResult struct {
	StepDefinition *registry.StepDefinition
	Parameters     []any
	ParameterInfo  []ParameterInfo
	Score          int
	Duration       time.Duration
}

// Matcher memoizes step resolution by raw step text. The cache is unbounded
// for the process lifetime; callers needing eviction call ClearCache.
type Matcher struct {
	reg *registry.Registry

	mu    sync.Mutex
	cache map[string]*MatchResult
}

func New(reg *registry.Registry) *Matcher {
	return &Matcher{
		reg:   reg,
		cache: make(map[string]*MatchResult),
	}
}

// Match finds the best-matching definition for a step text, or (nil, nil)
// when the step is undefined. Ambiguity between equally scored definitions
// is an error.
func (m *Matcher) Match(stepText string) (*MatchResult, error) {
	m.mu.Lock()
	if cached, ok := m.cache[stepText]; ok {
		m.mu.Unlock()
		return cached, nil
	}
	m.mu.Unlock()

	start := time.Now()
	def, err := m.reg.FindStepDefinition(stepText)
	if err != nil {
		return nil, err
	}
	if def == nil {
		return nil, nil
	}

	result := buildResult(def, stepText)
	result.Duration = time.Since(start)

	m.mu.Lock()
	m.cache[stepText] = result
	m.mu.Unlock()
	return result, nil
}

// FindAllMatches tests every registered definition independently and returns
// all matches sorted descending by score. Meant for ambiguity diagnostics
// and dry-run validation, not the hot path.
func (m *Matcher) FindAllMatches(stepText string) []*MatchResult {
	norm := registry.NormalizeStepText(stepText)

	var results []*MatchResult
	for _, def := range m.reg.Definitions() {
		if def.Pattern.MatchString(norm) {
			results = append(results, buildResult(def, stepText))
		}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	return results
}

// IsAmbiguous reports whether the two best matches tie on score.
func (m *Matcher) IsAmbiguous(stepText string) bool {
	results := m.FindAllMatches(stepText)
	return len(results) >= 2 && results[0].Score == results[1].Score
}

// ValidateUniqueMatch enforces that exactly one definition wins before a
// scenario executes the step: zero matches is an undefined-step error,
// a top-score tie enumerates every tied definition.
func (m *Matcher) ValidateUniqueMatch(stepText string) error {
	results := m.FindAllMatches(stepText)
	if len(results) == 0 {
		return fmt.Errorf("%w: %q", ErrUndefinedStep, stepText)
	}
	if len(results) >= 2 && results[0].Score == results[1].Score {
		top := results[0].Score
		var patterns []string
		for _, r := range results {
			if r.Score != top {
				break
			}
			patterns = append(patterns, fmt.Sprintf("%q (%s)", r.StepDefinition.PatternString, location(r.StepDefinition)))
		}
		return fmt.Errorf("%w: %q matches with equal score %d: %s",
			registry.ErrAmbiguousStep, stepText, top, strings.Join(patterns, ", "))
	}
	return nil
}

// ClearCache drops all memoized match results.
func (m *Matcher) ClearCache() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache = make(map[string]*MatchResult)
}

func buildResult(def *registry.StepDefinition, stepText string) *MatchResult {
	norm := registry.NormalizeStepText(stepText)
	groups := def.Pattern.FindStringSubmatch(norm)

	result := &MatchResult{
		StepDefinition: def,
		Score:          def.Score(norm),
	}
	if len(groups) <= 1 {
		return result
	}
	for i, raw := range groups[1:] {
		hint := ""
		if i < len(def.ParamHints) {
			hint = def.ParamHints[i]
		}
		value, typ := coerceParameter(raw, hint)
		result.Parameters = append(result.Parameters, value)
		result.ParameterInfo = append(result.ParameterInfo, ParameterInfo{Raw: raw, Type: typ, Position: i})
	}
	return result
}

func location(def *registry.StepDefinition) string {
	if def.Metadata.Source == "" {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d", def.Metadata.Source, def.Metadata.Line)
}
