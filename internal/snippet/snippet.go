// Package snippet renders ready-to-paste Go step-definition stubs for
// undefined steps.
package snippet

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode"

	"github.com/dave/jennifer/jen"
)

var (
	quotedLiteral = regexp.MustCompile(`"[^"]*"`)
	floatLiteral  = regexp.MustCompile(`-?\d+\.\d+`)
	intLiteral    = regexp.MustCompile(`-?\d+`)
)

// SuggestPattern derives a step pattern from raw step text by replacing
// literal values with typed placeholders: quoted strings become {string},
// decimals {float}, integers {int}.
func SuggestPattern(stepText string) string {
	pattern := quotedLiteral.ReplaceAllString(stepText, "{string}")
	pattern = floatLiteral.ReplaceAllString(pattern, "{float}")
	return intLiteral.ReplaceAllString(pattern, "{int}")
}

// FuncName derives an exported Go identifier from step text, dropping
// placeholders and non-alphanumeric characters.
func FuncName(stepText string) string {
	text := quotedLiteral.ReplaceAllString(stepText, " ")
	text = regexp.MustCompile(`\{\w+\}`).ReplaceAllString(text, " ")
	text = floatLiteral.ReplaceAllString(text, " ")
	text = intLiteral.ReplaceAllString(text, " ")

	var b strings.Builder
	for _, word := range strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		b.WriteString(string(runes))
	}
	if b.Len() == 0 {
		return "UndefinedStep"
	}
	return b.String()
}

// Generator renders step stubs into one Go source fragment.
type Generator struct {
	pkgName string
}

// NewGenerator targets the package the stubs would live in. dir may be
// empty; the package name falls back to "steps" when detection fails.
func NewGenerator(dir string) *Generator {
	name := "steps"
	if detected, err := detectPackageName(dir); err == nil && detected != "" {
		name = detected
	}
	return &Generator{pkgName: name}
}

// Generate writes one stub per undefined step text, each annotated with the
// suggested registration pattern.
func (g *Generator) Generate(w io.Writer, stepTexts []string) error {
	f := jen.NewFile(g.pkgName)

	seen := make(map[string]bool)
	for _, text := range stepTexts {
		pattern := SuggestPattern(text)
		name := FuncName(text)
		if seen[name] {
			continue
		}
		seen[name] = true

		params := make([]jen.Code, 0)
		for i, hint := range placeholderHints(pattern) {
			arg := jen.Id(argName(i))
			switch hint {
			case "int":
				arg = arg.Int()
			case "float":
				arg = arg.Float64()
			default:
				arg = arg.String()
			}
			params = append(params, arg)
		}

		f.Commentf("%s matches: %s", name, pattern)
		f.Func().Id(name).Params(params...).Error().Block(
			jen.Return(jen.Qual("errors", "New").Call(jen.Lit("step not implemented"))),
		)
	}

	_, err := w.Write([]byte(f.GoString()))
	return err
}

var placeholderToken = regexp.MustCompile(`\{(\w+)\}`)

func placeholderHints(pattern string) []string {
	var hints []string
	for _, m := range placeholderToken.FindAllStringSubmatch(pattern, -1) {
		hints = append(hints, strings.ToLower(m[1]))
	}
	return hints
}

func argName(i int) string {
	return fmt.Sprintf("arg%d", i+1)
}
