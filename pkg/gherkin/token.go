package gherkin

import "fmt"

// TokenType identifies the structural role of a single source line.
type TokenType int

const (
	TokenEmpty TokenType = iota
	TokenComment
	TokenTagLine
	TokenFeatureLine
	TokenBackgroundLine
	TokenScenarioLine
	TokenScenarioOutlineLine
	TokenExamplesLine
	TokenStepLine
	TokenTableRow
	TokenDocStringSeparator
	TokenText
	TokenEOF
)

var tokenTypeNames = map[TokenType]string{
	TokenEmpty:               "Empty",
	TokenComment:             "Comment",
	TokenTagLine:             "TagLine",
	TokenFeatureLine:         "FeatureLine",
	TokenBackgroundLine:      "BackgroundLine",
	TokenScenarioLine:        "ScenarioLine",
	TokenScenarioOutlineLine: "ScenarioOutlineLine",
	TokenExamplesLine:        "ExamplesLine",
	TokenStepLine:            "StepLine",
	TokenTableRow:            "TableRow",
	TokenDocStringSeparator:  "DocStringSeparator",
	TokenText:                "Text",
	TokenEOF:                 "EOF",
}

func (t TokenType) String() string {
	if name, ok := tokenTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Token is one classified source line. Tokens are immutable once produced:
// the parser consumes them strictly left to right.
type Token struct {
	Type    TokenType
	Value   string
	Keyword string
	Line    int
	Column  int
	Indent  int
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%d:%d): %s", t.Type, t.Line, t.Column, t.Value)
}
