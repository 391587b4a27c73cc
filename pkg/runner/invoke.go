package runner

import (
	"context"
	"fmt"
	"reflect"

	"github.com/denizgursoy/tursu/pkg/gherkin"
	"github.com/denizgursoy/tursu/pkg/matcher"
)

var (
	contextType   = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType     = reflect.TypeOf((*error)(nil)).Elem()
	dataTableType = reflect.TypeOf((*gherkin.DataTable)(nil))
	docStringType = reflect.TypeOf((*gherkin.DocString)(nil))
)

// invokeStep calls a step implementation with the coerced parameters. The
// function may take a leading context.Context and a trailing *DataTable or
// *DocString, and may return nothing or a single error. The call runs under
// the step's timeout.
func invokeStep(ctx context.Context, result *matcher.MatchResult, step *gherkin.Step) error {
	fn := reflect.ValueOf(result.StepDefinition.Implementation)
	if !fn.IsValid() || fn.Kind() != reflect.Func {
		return fmt.Errorf("step %q: implementation is not a function", result.StepDefinition.PatternString)
	}
	fnType := fn.Type()

	args, err := buildArgs(ctx, fnType, result, step)
	if err != nil {
		return fmt.Errorf("step %q: %w", result.StepDefinition.PatternString, err)
	}

	done := make(chan error, 1)
	go func() {
		out := fn.Call(args)
		if len(out) == 1 && out[0].Type().Implements(errorType) {
			if e, _ := out[0].Interface().(error); e != nil {
				done <- e
				return
			}
		}
		done <- nil
	}()

	select {
	case callErr := <-done:
		return callErr
	case <-ctx.Done():
		return fmt.Errorf("step %q timed out: %w", result.StepDefinition.PatternString, ctx.Err())
	}
}

func buildArgs(ctx context.Context, fnType reflect.Type, result *matcher.MatchResult, step *gherkin.Step) ([]reflect.Value, error) {
	values := make([]any, 0, len(result.Parameters)+2)

	next := 0
	if fnType.NumIn() > 0 && fnType.In(0) == contextType {
		values = append(values, ctx)
		next = 1
	}
	for _, p := range result.Parameters {
		values = append(values, p)
	}

	// A step argument fills the last parameter when the function asks for it.
	if n := fnType.NumIn(); n > next+len(result.Parameters) {
		last := fnType.In(n - 1)
		switch {
		case last == dataTableType && step.DataTable != nil:
			values = append(values, step.DataTable)
		case last == docStringType && step.DocString != nil:
			values = append(values, step.DocString)
		}
	}

	if len(values) != fnType.NumIn() {
		return nil, fmt.Errorf("implementation takes %d arguments, step provides %d", fnType.NumIn(), len(values))
	}

	args := make([]reflect.Value, len(values))
	for i, v := range values {
		converted, err := convertArg(v, fnType.In(i))
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		args[i] = converted
	}
	return args, nil
}

func convertArg(value any, target reflect.Type) (reflect.Value, error) {
	v := reflect.ValueOf(value)
	if !v.IsValid() {
		return reflect.Zero(target), nil
	}
	if v.Type().AssignableTo(target) {
		return v, nil
	}
	if isNumericKind(v.Kind()) && isNumericKind(target.Kind()) {
		return v.Convert(target), nil
	}
	if v.Kind() == reflect.String && target.Kind() == reflect.String {
		return v.Convert(target), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %T as %s", value, target)
}

func isNumericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
