package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/denizgursoy/tursu/pkg/matcher"
	"github.com/denizgursoy/tursu/pkg/registry"
)

func writeFeature(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func mustRegexp(t *testing.T, expr string) *regexp.Regexp {
	t.Helper()
	re, err := regexp.Compile(expr)
	require.NoError(t, err)
	return re
}

func TestRunner_Run(t *testing.T) {
	t.Run("executes steps in document order", func(t *testing.T) {
		dir := t.TempDir()
		writeFeature(t, dir, "cart.feature", `Feature: cart
  Scenario: add items
    Given the cart is empty
    When I add 3 items
    Then the cart holds 3 items
`)
		var calls []string
		var added, held int
		r := NewRunner(nil).
			WithFeatures(dir).
			RegisterStep("the cart is empty", func() error {
				calls = append(calls, "empty")
				return nil
			}).
			RegisterStep("I add {int} items", func(n int) error {
				calls = append(calls, "add")
				added = n
				return nil
			}).
			RegisterStep("the cart holds {int} items", func(n int) error {
				calls = append(calls, "holds")
				held = n
				return nil
			})

		require.NoError(t, r.Run(context.Background()))
		require.Equal(t, []string{"empty", "add", "holds"}, calls)
		require.Equal(t, 3, added)
		require.Equal(t, 3, held)
		require.True(t, r.Registry().Locked())
	})

	t.Run("background runs before every scenario", func(t *testing.T) {
		dir := t.TempDir()
		writeFeature(t, dir, "bg.feature", `Feature: background
  Background:
    Given a fresh database

  Scenario: first
    When scenario one runs

  Scenario: second
    When scenario two runs
`)
		var calls []string
		record := func(name string) func() error {
			return func() error {
				calls = append(calls, name)
				return nil
			}
		}
		r := NewRunner(nil).
			WithFeatures(dir).
			RegisterStep("a fresh database", record("bg")).
			RegisterStep("scenario one runs", record("one")).
			RegisterStep("scenario two runs", record("two"))

		require.NoError(t, r.Run(context.Background()))
		require.Equal(t, []string{"bg", "one", "bg", "two"}, calls)
	})

	t.Run("outlines expand to one run per example row", func(t *testing.T) {
		dir := t.TempDir()
		writeFeature(t, dir, "outline.feature", `Feature: outline
  Scenario Outline: eat <eat>
    Given I eat <eat> cucumbers

    Examples:
      | eat |
      | 5   |
      | 7   |
`)
		var eaten []int
		r := NewRunner(nil).
			WithFeatures(dir).
			RegisterStep("I eat {int} cucumbers", func(n int) error {
				eaten = append(eaten, n)
				return nil
			})

		require.NoError(t, r.Run(context.Background()))
		require.Equal(t, []int{5, 7}, eaten)
	})

	t.Run("hooks run in lifecycle order", func(t *testing.T) {
		dir := t.TempDir()
		writeFeature(t, dir, "hooks.feature", `Feature: hooks
  Scenario: only
    Given the step runs
`)
		var calls []string
		record := func(name string) registry.HookFunc {
			return func(ctx context.Context) error {
				calls = append(calls, name)
				return nil
			}
		}
		r := NewRunner(nil).
			WithFeatures(dir).
			RegisterStep("the step runs", func() error {
				calls = append(calls, "step")
				return nil
			}).
			RegisterHook(registry.Hook{Type: registry.BeforeAll, Implementation: record("before-all")}).
			RegisterHook(registry.Hook{Type: registry.Before, Implementation: record("before")}).
			RegisterHook(registry.Hook{Type: registry.BeforeStep, Implementation: record("before-step")}).
			RegisterHook(registry.Hook{Type: registry.AfterStep, Implementation: record("after-step")}).
			RegisterHook(registry.Hook{Type: registry.After, Implementation: record("after")}).
			RegisterHook(registry.Hook{Type: registry.AfterAll, Implementation: record("after-all")})

		require.NoError(t, r.Run(context.Background()))
		require.Equal(t, []string{"before-all", "before", "before-step", "step", "after-step", "after", "after-all"}, calls)
	})

	t.Run("tagged hooks skip non-matching scenarios", func(t *testing.T) {
		dir := t.TempDir()
		writeFeature(t, dir, "tagged.feature", `Feature: tagged
  @smoke
  Scenario: tagged
    Given a step runs

  Scenario: untagged
    Given a step runs
`)
		hookRuns := 0
		r := NewRunner(nil).
			WithFeatures(dir).
			RegisterStep("a step runs", func() error { return nil }).
			RegisterHook(registry.Hook{
				Type: registry.Before,
				Tags: []string{"@smoke"},
				Implementation: func(ctx context.Context) error {
					hookRuns++
					return nil
				},
			})

		require.NoError(t, r.Run(context.Background()))
		require.Equal(t, 1, hookRuns)
	})

	t.Run("tag expression restricts scenarios", func(t *testing.T) {
		dir := t.TempDir()
		writeFeature(t, dir, "filtered.feature", `Feature: filtered
  @smoke
  Scenario: wanted
    Given the wanted step

  @nightly
  Scenario: unwanted
    Given the unwanted step
`)
		var calls []string
		r := NewRunner(nil).
			WithFeatures(dir).
			WithTagExpression("@smoke").
			RegisterStep("the wanted step", func() error {
				calls = append(calls, "wanted")
				return nil
			}).
			RegisterStep("the unwanted step", func() error {
				calls = append(calls, "unwanted")
				return nil
			})

		require.NoError(t, r.Run(context.Background()))
		require.Equal(t, []string{"wanted"}, calls)
	})

	t.Run("undefined step fails the run", func(t *testing.T) {
		dir := t.TempDir()
		writeFeature(t, dir, "undef.feature", `Feature: undef
  Scenario: missing
    Given nobody implemented this
`)
		err := NewRunner(nil).WithFeatures(dir).Run(context.Background())
		require.ErrorIs(t, err, matcher.ErrUndefinedStep)
	})

	t.Run("step failure stops the scenario and names the step", func(t *testing.T) {
		dir := t.TempDir()
		writeFeature(t, dir, "fail.feature", `Feature: fail
  Scenario: breaks
    Given a failing step
    Then this never runs
`)
		reached := false
		err := NewRunner(nil).
			WithFeatures(dir).
			RegisterStep("a failing step", func() error { return errors.New("boom") }).
			RegisterStep("this never runs", func() error {
				reached = true
				return nil
			}).
			Run(context.Background())

		require.Error(t, err)
		require.Contains(t, err.Error(), `step "a failing step"`)
		require.Contains(t, err.Error(), "boom")
		require.False(t, reached)
	})

	t.Run("registration errors surface at run time", func(t *testing.T) {
		dir := t.TempDir()
		writeFeature(t, dir, "reg.feature", `Feature: reg
  Scenario: s
    Given a step
`)
		err := NewRunner(nil).
			WithFeatures(dir).
			RegisterStep("a step", func() error { return nil }).
			RegisterStep("a step", func() error { return nil }).
			Run(context.Background())

		require.ErrorIs(t, err, registry.ErrDuplicateStep)
	})

	t.Run("scenario state is isolated and world state persists", func(t *testing.T) {
		dir := t.TempDir()
		writeFeature(t, dir, "state.feature", `Feature: state
  Scenario: writer
    Given I remember things

  Scenario: reader
    Then earlier scenario state is gone
`)
		r := NewRunner(nil)
		var leaked bool
		var worldSurvived bool
		r.WithFeatures(dir).
			RegisterStep("I remember things", func() error {
				r.Contexts().Scenario().Set("note", "secret")
				r.Contexts().World().Set("suite", "run-1")
				return nil
			}).
			RegisterStep("earlier scenario state is gone", func() error {
				leaked = r.Contexts().Scenario().Has("note")
				worldSurvived = r.Contexts().World().Has("suite")
				return nil
			})

		require.NoError(t, r.Run(context.Background()))
		require.False(t, leaked)
		require.True(t, worldSurvived)
	})

	t.Run("step timeout from metadata", func(t *testing.T) {
		dir := t.TempDir()
		writeFeature(t, dir, "slow.feature", `Feature: slow
  Scenario: hangs
    Given a slow step
`)
		r := NewRunner(nil).WithFeatures(dir)
		block := make(chan struct{})
		defer close(block)
		_, err := r.Registry().RegisterStep("a slow step", func() error {
			<-block
			return nil
		}, registry.StepMetadata{Timeout: 20 * time.Millisecond})
		require.NoError(t, err)

		err = r.Run(context.Background())
		require.Error(t, err)
		require.Contains(t, err.Error(), "timed out")
	})
}

func TestRunner_DryRun(t *testing.T) {
	t.Run("counts features scenarios and steps", func(t *testing.T) {
		dir := t.TempDir()
		writeFeature(t, dir, "a.feature", `Feature: a
  Background:
    Given setup

  Scenario: one
    When something happens

  Scenario Outline: many <n>
    Then <n> results appear

    Examples:
      | n |
      | 1 |
      | 2 |
`)
		r := NewRunner(nil).
			WithFeatures(dir).
			RegisterStep("setup", func() error { return nil }).
			RegisterStep("something happens", func() error { return nil }).
			RegisterStep("{int} results appear", func(n int) error { return nil })

		report, err := r.DryRun(context.Background())
		require.NoError(t, err)
		require.True(t, report.OK())
		require.Equal(t, 1, report.Features)
		require.Equal(t, 3, report.Scenarios)
		// Background step counts once per concrete scenario.
		require.Equal(t, 6, report.Steps)
		require.Empty(t, report.Snippets)
	})

	t.Run("undefined steps produce snippets", func(t *testing.T) {
		dir := t.TempDir()
		writeFeature(t, dir, "undef.feature", `Feature: undef
  Scenario: missing
    Given I pay 12.50 for "coffee"
    And I pay 12.50 for "coffee"
`)
		report, err := NewRunner(nil).WithFeatures(dir).DryRun(context.Background())
		require.NoError(t, err)
		require.False(t, report.OK())
		// The same undefined text is reported once.
		require.Equal(t, []string{`I pay 12.50 for "coffee"`}, report.Undefined)
		require.Contains(t, report.Snippets, "func IPayFor(arg1 float64, arg2 string) error")
		require.Contains(t, report.Snippets, "I pay {float} for {string}")
	})

	t.Run("ambiguous steps are reported", func(t *testing.T) {
		dir := t.TempDir()
		writeFeature(t, dir, "amb.feature", `Feature: amb
  Scenario: s
    Given the ball is red
`)
		r := NewRunner(nil).WithFeatures(dir)
		_, err := r.Registry().RegisterRegexp(mustRegexp(t, `^the (\w+) is red$`), func(string) error { return nil }, registry.StepMetadata{})
		require.NoError(t, err)
		_, err = r.Registry().RegisterRegexp(mustRegexp(t, `^the (\S+) is red$`), func(string) error { return nil }, registry.StepMetadata{})
		require.NoError(t, err)

		report, err := r.DryRun(context.Background())
		require.NoError(t, err)
		require.False(t, report.OK())
		require.Len(t, report.Ambiguous, 1)
		require.Contains(t, report.Ambiguous[0], "the ball is red")
	})

	t.Run("dry run executes nothing", func(t *testing.T) {
		dir := t.TempDir()
		writeFeature(t, dir, "noexec.feature", `Feature: noexec
  Scenario: s
    Given an observable step
`)
		executed := false
		r := NewRunner(nil).
			WithFeatures(dir).
			RegisterStep("an observable step", func() error {
				executed = true
				return nil
			})

		report, err := r.DryRun(context.Background())
		require.NoError(t, err)
		require.True(t, report.OK())
		require.False(t, executed)
		require.True(t, r.Registry().Locked())
	})
}
