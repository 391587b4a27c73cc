package matcher

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	intPattern   = regexp.MustCompile(`^-?\d+$`)
	floatPattern = regexp.MustCompile(`^-?\d*\.\d+$`)
)

// coerceParameter converts a captured string to its semantic type. An
// explicit {type} hint from the pattern wins; without one the raw text is
// sniffed (integer, float, quoted string, else left as-is).
func coerceParameter(raw, hint string) (any, string) {
	switch hint {
	case "int":
		if v, err := strconv.Atoi(raw); err == nil {
			return v, "int"
		}
	case "float":
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return v, "float"
		}
	case "string":
		// The {string} capture group already excludes the quotes.
		return raw, "string"
	case "word", "any":
		return raw, "string"
	case "":
		return sniff(raw)
	}
	return raw, "string"
}

func sniff(raw string) (any, string) {
	switch {
	case intPattern.MatchString(raw):
		if v, err := strconv.Atoi(raw); err == nil {
			return v, "int"
		}
	case floatPattern.MatchString(raw):
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return v, "float"
		}
	case len(raw) >= 2 && strings.HasPrefix(raw, `"`) && strings.HasSuffix(raw, `"`):
		return raw[1 : len(raw)-1], "string"
	}
	return raw, "string"
}
