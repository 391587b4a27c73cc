package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"
)

// DefaultStepTimeout applies when a registration carries no explicit timeout.
const DefaultStepTimeout = 30 * time.Second

var (
	ErrRegistryLocked = errors.New("step registry is locked")
	ErrDuplicateStep  = errors.New("duplicate step definition")
	ErrAmbiguousStep  = errors.New("ambiguous step")
)

// StepMetadata annotates a registration with its origin and author-supplied
// extras. Extra is a closed escape hatch for forward-compatible fields.
type StepMetadata struct {
	Source      string
	Line        int
	Description string
	Timeout     time.Duration
	Extra       map[string]string
}

func (m StepMetadata) location() string {
	if m.Source == "" {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d", m.Source, m.Line)
}

// StepDefinition binds one compiled pattern to its implementation. Immutable
// after registration.
type StepDefinition struct {
	Pattern        *regexp.Regexp
	PatternString  string
	Implementation any
	Metadata       StepMetadata
	ParameterCount int
	ParamHints     []string
	Timeout        time.Duration
}

// Registry is the authoritative catalog of step definitions and hooks for
// one test run. Registration must finish before Lock; once locked the
// catalog is read-only, so concurrent lookups from executing scenarios
// need no further coordination.
type Registry struct {
	mu     sync.RWMutex
	logger *slog.Logger

	locked bool
	defs   []*StepDefinition
	byKey  map[string]*StepDefinition
	hooks  map[HookType][]*Hook
}

func New(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{logger: logger}
	r.reset()
	return r
}

func (r *Registry) reset() {
	r.locked = false
	r.defs = nil
	r.byKey = make(map[string]*StepDefinition)
	r.hooks = make(map[HookType][]*Hook)
}

// Initialize clears all stored definitions and hooks and unlocks the
// registry, regardless of its current state.
func (r *Registry) Initialize() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reset()
}

// Lock freezes registration. Called once when execution begins.
func (r *Registry) Lock() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locked = true
}

func (r *Registry) Locked() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.locked
}

// Clear empties the registry. Clearing mid-run would corrupt execution, so
// it fails while locked.
func (r *Registry) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.locked {
		return fmt.Errorf("cannot clear: %w", ErrRegistryLocked)
	}
	r.reset()
	return nil
}

// RegisterStep compiles a {type}-placeholder pattern and stores the binding.
func (r *Registry) RegisterStep(pattern string, impl any, md StepMetadata) (*StepDefinition, error) {
	re, hints, err := CompilePattern(pattern)
	if err != nil {
		return nil, err
	}
	return r.register(&StepDefinition{
		Pattern:        re,
		PatternString:  pattern,
		Implementation: impl,
		Metadata:       md,
		ParameterCount: re.NumSubexp(),
		ParamHints:     hints,
		Timeout:        stepTimeout(md),
	})
}

// RegisterRegexp stores a raw regular expression binding, bypassing the
// placeholder mini-language. The pattern is anchored if it is not already.
func (r *Registry) RegisterRegexp(re *regexp.Regexp, impl any, md StepMetadata) (*StepDefinition, error) {
	src := re.String()
	if !strings.HasPrefix(src, "^") || !strings.HasSuffix(src, "$") {
		anchored, err := regexp.Compile("^" + strings.TrimSuffix(strings.TrimPrefix(src, "^"), "$") + "$")
		if err != nil {
			return nil, fmt.Errorf("cannot anchor step pattern %q: %w", src, err)
		}
		re = anchored
	}
	return r.register(&StepDefinition{
		Pattern:        re,
		PatternString:  src,
		Implementation: impl,
		Metadata:       md,
		ParameterCount: re.NumSubexp(),
		Timeout:        stepTimeout(md),
	})
}

func stepTimeout(md StepMetadata) time.Duration {
	if md.Timeout > 0 {
		return md.Timeout
	}
	return DefaultStepTimeout
}

func (r *Registry) register(def *StepDefinition) (*StepDefinition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.locked {
		return nil, fmt.Errorf("cannot register step %q: %w", def.PatternString, ErrRegistryLocked)
	}

	key := normalizeKey(def.PatternString)
	if existing, ok := r.byKey[key]; ok {
		return nil, fmt.Errorf("%w: %q first registered at %s, redefined at %s",
			ErrDuplicateStep, def.PatternString, existing.Metadata.location(), def.Metadata.location())
	}

	r.defs = append(r.defs, def)
	r.byKey[key] = def
	return def, nil
}

// FindStepDefinition resolves a step text to its single best definition.
// Returns (nil, nil) when nothing matches; an ambiguity between top-scored
// candidates is a hard error, never a silent pick.
func (r *Registry) FindStepDefinition(stepText string) (*StepDefinition, error) {
	norm := NormalizeStepText(stepText)

	r.mu.RLock()
	defer r.mu.RUnlock()

	// Literal steps resolve in one map probe.
	if def, ok := r.byKey[normalizeKey(norm)]; ok && def.Pattern.MatchString(norm) {
		return def, nil
	}

	var best []*StepDefinition
	bestScore := 0
	for _, def := range r.defs {
		if !def.Pattern.MatchString(norm) {
			continue
		}
		score := def.Score(norm)
		switch {
		case len(best) == 0 || score > bestScore:
			best = best[:0]
			best = append(best, def)
			bestScore = score
		case score == bestScore:
			best = append(best, def)
		}
	}

	switch len(best) {
	case 0:
		return nil, nil
	case 1:
		return best[0], nil
	default:
		return nil, ambiguityError(norm, best, bestScore)
	}
}

func ambiguityError(stepText string, defs []*StepDefinition, score int) error {
	patterns := make([]string, len(defs))
	for i, def := range defs {
		patterns[i] = fmt.Sprintf("%q (%s)", def.PatternString, def.Metadata.location())
	}
	sort.Strings(patterns)
	return fmt.Errorf("%w: %q matches %d definitions with equal score %d: %s",
		ErrAmbiguousStep, stepText, len(defs), score, strings.Join(patterns, ", "))
}

// Definitions returns the registered definitions in registration order.
func (r *Registry) Definitions() []*StepDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*StepDefinition, len(r.defs))
	copy(out, r.defs)
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}
