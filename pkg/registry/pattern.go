package registry

import (
	"fmt"
	"regexp"
	"strings"
)

// builtinParams maps placeholder type names to their capture patterns.
var builtinParams = map[string]string{
	"int":    `(-?\d+)`,
	"float":  `(-?\d*\.?\d+)`,
	"word":   `(\w+)`,
	"string": `"([^"]*)"`,
	"any":    `(.*)`,
}

// CompilePattern turns a step pattern with {type} placeholders into an
// anchored regular expression. Regex metacharacters in the literal text are
// escaped, so authors write plain text plus placeholders, not raw regex.
// The returned hints list the placeholder type at each capture position.
func CompilePattern(pattern string) (*regexp.Regexp, []string, error) {
	var b strings.Builder
	var hints []string
	b.WriteString("^")

	rest := pattern
	for {
		open := strings.Index(rest, "{")
		if open == -1 {
			break
		}
		close := strings.Index(rest[open:], "}")
		if close == -1 {
			break
		}
		close += open

		name := strings.ToLower(rest[open+1 : close])
		capture, ok := builtinParams[name]
		if !ok {
			return nil, nil, fmt.Errorf("unknown parameter type {%s} in step pattern %q", rest[open+1:close], pattern)
		}

		b.WriteString(regexp.QuoteMeta(rest[:open]))
		b.WriteString(capture)
		hints = append(hints, name)
		rest = rest[close+1:]
	}
	b.WriteString(regexp.QuoteMeta(rest))
	b.WriteString("$")

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, nil, fmt.Errorf("cannot compile step pattern %q: %w", pattern, err)
	}
	return re, hints, nil
}

// normalizeKey is the exact-lookup key form shared by registration and
// resolution: lower-cased with internal whitespace collapsed.
func normalizeKey(s string) string {
	return strings.ToLower(NormalizeStepText(s))
}

// NormalizeStepText trims and collapses internal whitespace of a step line.
func NormalizeStepText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
