package registry

import (
	"strings"
	"unicode"
)

// Score ranks how specifically this definition matches a step text. The
// formula is shared by registry resolution and the matcher so both agree on
// what "more specific" means:
//
//	+1000 for a verbatim pattern/text match
//	+len(pattern string)
//	+100 - 10*parameterCount
//	+specificity of the compiled pattern source
func (d *StepDefinition) Score(stepText string) int {
	score := 0
	if d.PatternString == stepText {
		score += 1000
	}
	score += len(d.PatternString)
	score += 100 - 10*d.ParameterCount
	score += specificity(d.Pattern.String())
	return score
}

// specificity rewards literal text and penalizes regex machinery: literal
// alphanumeric/whitespace characters count double, metacharacters count
// against, explicit word boundaries count five-fold. Floors at zero.
func specificity(source string) int {
	literals := 0
	metas := 0
	for _, r := range source {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsSpace(r):
			literals++
		case strings.ContainsRune(`\.+*?()[]{}^$|`, r):
			metas++
		}
	}
	boundaries := strings.Count(source, `\b`)

	s := literals*2 - metas + boundaries*5
	if s < 0 {
		return 0
	}
	return s
}
