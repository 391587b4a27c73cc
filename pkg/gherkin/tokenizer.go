package gherkin

import (
	"bufio"
	"strings"
)

const (
	featureKeyword         = "Feature:"
	backgroundKeyword      = "Background:"
	scenarioKeyword        = "Scenario:"
	scenarioOutlineKeyword = "Scenario Outline:"
	examplesKeyword        = "Examples:"
)

var stepKeywords = []string{"Given", "When", "Then", "And", "But"}

// Tokenize classifies every line of a feature source into a typed token.
// Lines inside a doc-string block are emitted verbatim as Text tokens so
// step keywords or pipes inside the block keep their literal meaning.
func Tokenize(source string) []Token {
	scanner := bufio.NewScanner(strings.NewReader(source))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	tokens := make([]Token, 0, 64)
	lineNo := 0
	docStringDelim := ""

	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()
		trimmed := strings.TrimLeft(raw, " \t")
		indent := len(raw) - len(trimmed)
		trimmed = strings.TrimRight(trimmed, " \t")
		column := indent + 1

		if docStringDelim != "" {
			if strings.HasPrefix(trimmed, docStringDelim) {
				tokens = append(tokens, Token{Type: TokenDocStringSeparator, Line: lineNo, Column: column, Indent: indent})
				docStringDelim = ""
			} else {
				// Preserve the raw line so de-indentation can run later.
				tokens = append(tokens, Token{Type: TokenText, Value: raw, Line: lineNo, Column: column, Indent: indent})
			}
			continue
		}

		tok := classifyLine(trimmed, raw)
		tok.Line = lineNo
		tok.Column = column
		tok.Indent = indent
		if tok.Type == TokenDocStringSeparator {
			docStringDelim = tok.Keyword
		}
		tokens = append(tokens, tok)
	}

	tokens = append(tokens, Token{Type: TokenEOF, Line: lineNo + 1, Column: 1})
	return tokens
}

func classifyLine(trimmed, raw string) Token {
	switch {
	case trimmed == "":
		return Token{Type: TokenEmpty}
	case strings.HasPrefix(trimmed, "#"):
		return Token{Type: TokenComment, Value: strings.TrimSpace(trimmed[1:])}
	case strings.HasPrefix(trimmed, "@"):
		return Token{Type: TokenTagLine, Value: trimmed}
	case strings.HasPrefix(trimmed, `"""`):
		return Token{Type: TokenDocStringSeparator, Keyword: `"""`, Value: strings.TrimSpace(trimmed[3:])}
	case strings.HasPrefix(trimmed, "```"):
		return Token{Type: TokenDocStringSeparator, Keyword: "```", Value: strings.TrimSpace(trimmed[3:])}
	case strings.HasPrefix(trimmed, featureKeyword):
		return Token{Type: TokenFeatureLine, Keyword: "Feature", Value: strings.TrimSpace(trimmed[len(featureKeyword):])}
	case strings.HasPrefix(trimmed, backgroundKeyword):
		return Token{Type: TokenBackgroundLine, Keyword: "Background", Value: strings.TrimSpace(trimmed[len(backgroundKeyword):])}
	case strings.HasPrefix(trimmed, scenarioOutlineKeyword):
		return Token{Type: TokenScenarioOutlineLine, Keyword: "Scenario Outline", Value: strings.TrimSpace(trimmed[len(scenarioOutlineKeyword):])}
	case strings.HasPrefix(trimmed, scenarioKeyword):
		return Token{Type: TokenScenarioLine, Keyword: "Scenario", Value: strings.TrimSpace(trimmed[len(scenarioKeyword):])}
	case strings.HasPrefix(trimmed, examplesKeyword):
		return Token{Type: TokenExamplesLine, Keyword: "Examples", Value: strings.TrimSpace(trimmed[len(examplesKeyword):])}
	case strings.HasPrefix(trimmed, "|"):
		return Token{Type: TokenTableRow, Value: trimmed}
	}

	for _, kw := range stepKeywords {
		if strings.HasPrefix(trimmed, kw+" ") {
			return Token{Type: TokenStepLine, Keyword: kw, Value: strings.TrimSpace(trimmed[len(kw)+1:])}
		}
	}

	return Token{Type: TokenText, Value: trimmed}
}

// splitTableRow splits a pipe-delimited row into trimmed cells. The empty
// fragments produced by the leading and trailing delimiters are dropped;
// interior empty cells are kept so rows stay rectangular.
func splitTableRow(line string) []string {
	parts := strings.Split(line, "|")
	if len(parts) > 0 && strings.TrimSpace(parts[0]) == "" {
		parts = parts[1:]
	}
	if len(parts) > 0 && strings.TrimSpace(parts[len(parts)-1]) == "" {
		parts = parts[:len(parts)-1]
	}
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}
	return cells
}
