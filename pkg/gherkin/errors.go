package gherkin

import "fmt"

// ParseError is a structural grammar violation at a known source position.
type ParseError struct {
	Message string
	Line    int
	Column  int
	File    string
}

func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

func newParseError(file string, tok Token, format string, args ...any) *ParseError {
	return &ParseError{
		Message: fmt.Sprintf(format, args...),
		Line:    tok.Line,
		Column:  tok.Column,
		File:    file,
	}
}
