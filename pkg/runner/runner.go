// Package runner wires the loader, registry, matcher, and context hierarchy
// into one test run. It is the narrow surface feature-execution callers use;
// reporting and browser wiring stay outside.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"github.com/denizgursoy/tursu/internal/snippet"
	"github.com/denizgursoy/tursu/pkg/bddcontext"
	"github.com/denizgursoy/tursu/pkg/gherkin"
	"github.com/denizgursoy/tursu/pkg/loader"
	"github.com/denizgursoy/tursu/pkg/matcher"
	"github.com/denizgursoy/tursu/pkg/registry"
)

// Runner owns exactly one registry and one context hierarchy per test run.
// Registration happens through the builder chain before Run or DryRun locks
// the registry.
type Runner struct {
	registry *registry.Registry
	matcher  *matcher.Matcher
	loader   *loader.Loader
	expander *gherkin.Expander
	contexts *bddcontext.Hierarchy
	logger   *slog.Logger

	patterns string
	tagExpr  string
	err      error
}

func NewRunner(logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	reg := registry.New(logger)
	return &Runner{
		registry: reg,
		matcher:  matcher.New(reg),
		loader:   loader.New(logger),
		expander: gherkin.NewExpander(logger),
		contexts: bddcontext.NewHierarchy(),
		logger:   logger,
	}
}

// WithFeatures sets the comma-separated feature file/directory/glob patterns.
func (r *Runner) WithFeatures(patterns string) *Runner {
	r.patterns = patterns
	return r
}

// WithTagExpression restricts the run to scenarios matching a cucumber tag
// expression, e.g. "@smoke and not @slow".
func (r *Runner) WithTagExpression(expr string) *Runner {
	r.tagExpr = expr
	return r
}

// RegisterStep binds a {type}-placeholder pattern to an implementation. The
// caller's file and line are recorded so duplicate and ambiguity errors can
// name both definitions.
func (r *Runner) RegisterStep(pattern string, impl any) *Runner {
	md := callerMetadata()
	if _, err := r.registry.RegisterStep(pattern, impl, md); err != nil && r.err == nil {
		r.err = err
	}
	return r
}

// RegisterHook adds a lifecycle hook.
func (r *Runner) RegisterHook(h registry.Hook) *Runner {
	if err := r.registry.RegisterHook(h); err != nil && r.err == nil {
		r.err = err
	}
	return r
}

// Registry exposes the run's step catalog, e.g. for raw-regex registration.
func (r *Runner) Registry() *registry.Registry { return r.registry }

// Contexts exposes the run's World/Feature/Scenario/Step stores.
func (r *Runner) Contexts() *bddcontext.Hierarchy { return r.contexts }

func callerMetadata() registry.StepMetadata {
	// Two frames up: callerMetadata, RegisterStep, caller.
	if _, file, line, ok := runtime.Caller(2); ok {
		return registry.StepMetadata{Source: file, Line: line}
	}
	return registry.StepMetadata{}
}

// Report summarizes a dry run.
type Report struct {
	Features  int
	Scenarios int
	Steps     int
	Undefined []string
	Ambiguous []string
	Snippets  string
}

// OK reports whether every step resolved to exactly one definition.
func (rep *Report) OK() bool {
	return len(rep.Undefined) == 0 && len(rep.Ambiguous) == 0
}

// DryRun parses all features, locks the registry, and validates that every
// step of every expanded scenario resolves uniquely, without executing
// anything. Undefined steps come back with generated stub snippets.
func (r *Runner) DryRun(ctx context.Context) (*Report, error) {
	features, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	r.registry.Lock()

	report := &Report{Features: len(features)}
	seenUndefined := make(map[string]bool)

	for _, feature := range features {
		scenarios, err := r.concreteScenarios(feature)
		if err != nil {
			return nil, err
		}
		report.Scenarios += len(scenarios)
		for _, sc := range scenarios {
			for _, step := range stepsWithBackground(feature, sc) {
				report.Steps++
				vErr := r.matcher.ValidateUniqueMatch(step.Text)
				switch {
				case vErr == nil:
				case errors.Is(vErr, matcher.ErrUndefinedStep):
					if !seenUndefined[step.Text] {
						seenUndefined[step.Text] = true
						report.Undefined = append(report.Undefined, step.Text)
					}
				case errors.Is(vErr, registry.ErrAmbiguousStep):
					report.Ambiguous = append(report.Ambiguous, vErr.Error())
				default:
					return nil, vErr
				}
			}
		}
	}

	if len(report.Undefined) > 0 {
		var b strings.Builder
		if err := snippet.NewGenerator("").Generate(&b, report.Undefined); err != nil {
			return nil, fmt.Errorf("cannot generate snippets: %w", err)
		}
		report.Snippets = b.String()
	}
	return report, nil
}

// Run executes every scenario of every discovered feature, threading hooks
// and the context hierarchy through execution.
func (r *Runner) Run(ctx context.Context) error {
	features, err := r.load(ctx)
	if err != nil {
		return err
	}
	r.registry.Lock()

	for _, hook := range r.registry.GetHooks(registry.BeforeAll, nil) {
		if err := hook.Implementation(ctx); err != nil {
			return fmt.Errorf("BeforeAll hook %q: %w", hook.Name, err)
		}
	}

	var runErr error
	for _, feature := range features {
		if runErr = r.runFeature(ctx, feature); runErr != nil {
			break
		}
	}

	for _, hook := range r.registry.GetHooks(registry.AfterAll, nil) {
		if err := hook.Implementation(ctx); err != nil && runErr == nil {
			runErr = fmt.Errorf("AfterAll hook %q: %w", hook.Name, err)
		}
	}
	return runErr
}

func (r *Runner) load(ctx context.Context) ([]*gherkin.Feature, error) {
	if r.err != nil {
		return nil, r.err
	}
	patterns := r.patterns
	if patterns == "" {
		patterns = "."
	}
	features, err := r.loader.ParseAll(ctx, patterns)
	if err != nil {
		return nil, err
	}
	if r.tagExpr != "" {
		features, err = r.loader.FilterByTagExpression(features, r.tagExpr)
		if err != nil {
			return nil, err
		}
	}
	return features, nil
}

// concreteScenarios expands outlines and passes plain scenarios through.
func (r *Runner) concreteScenarios(feature *gherkin.Feature) ([]*gherkin.Scenario, error) {
	var out []*gherkin.Scenario
	for _, sc := range feature.Scenarios {
		if !sc.IsOutline() {
			out = append(out, sc)
			continue
		}
		expanded, err := r.expander.Expand(sc)
		if err != nil {
			return nil, err
		}
		out = append(out, expanded...)
	}
	return out, nil
}

func stepsWithBackground(feature *gherkin.Feature, sc *gherkin.Scenario) []*gherkin.Step {
	if feature.Background == nil {
		return sc.Steps
	}
	steps := make([]*gherkin.Step, 0, len(feature.Background.Steps)+len(sc.Steps))
	steps = append(steps, feature.Background.Steps...)
	return append(steps, sc.Steps...)
}

func (r *Runner) runFeature(ctx context.Context, feature *gherkin.Feature) error {
	defer r.contexts.EndFeature()

	scenarios, err := r.concreteScenarios(feature)
	if err != nil {
		return err
	}
	for _, sc := range scenarios {
		if err := r.runScenario(ctx, feature, sc); err != nil {
			return fmt.Errorf("%s: scenario %q: %w", feature.URI, sc.Name, err)
		}
	}
	return nil
}

func (r *Runner) runScenario(ctx context.Context, feature *gherkin.Feature, sc *gherkin.Scenario) error {
	defer r.contexts.EndScenario()

	tags := append(append([]string{}, feature.Tags...), sc.Tags...)
	for _, hook := range r.registry.GetHooks(registry.Before, tags) {
		if err := hook.Implementation(ctx); err != nil {
			return fmt.Errorf("Before hook %q: %w", hook.Name, err)
		}
	}

	var stepErr error
	for _, step := range stepsWithBackground(feature, sc) {
		if stepErr = r.runStep(ctx, step, tags); stepErr != nil {
			stepErr = fmt.Errorf("step %q (line %d): %w", step.Text, step.Line, stepErr)
			break
		}
	}

	for _, hook := range r.registry.GetHooks(registry.After, tags) {
		if err := hook.Implementation(ctx); err != nil && stepErr == nil {
			stepErr = fmt.Errorf("After hook %q: %w", hook.Name, err)
		}
	}
	return stepErr
}

func (r *Runner) runStep(ctx context.Context, step *gherkin.Step, tags []string) error {
	defer r.contexts.EndStep()

	for _, hook := range r.registry.GetHooks(registry.BeforeStep, tags) {
		if err := hook.Implementation(ctx); err != nil {
			return fmt.Errorf("BeforeStep hook %q: %w", hook.Name, err)
		}
	}

	result, err := r.matcher.Match(step.Text)
	if err != nil {
		return err
	}
	if result == nil {
		return fmt.Errorf("%w: %q", matcher.ErrUndefinedStep, step.Text)
	}

	stepCtx, cancel := context.WithTimeout(ctx, result.StepDefinition.Timeout)
	invokeErr := invokeStep(stepCtx, result, step)
	cancel()
	if invokeErr != nil {
		return invokeErr
	}

	for _, hook := range r.registry.GetHooks(registry.AfterStep, tags) {
		if err := hook.Implementation(ctx); err != nil {
			return fmt.Errorf("AfterStep hook %q: %w", hook.Name, err)
		}
	}
	return nil
}
