package gherkin

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// DefaultLanguage is assumed when no "# language:" comment is present.
const DefaultLanguage = "en"

var languageComment = regexp.MustCompile(`^language:\s*(\S+)`)

// Parser builds Feature documents from token streams. A zero-value Parser is
// not usable; construct one with NewParser.
type Parser struct {
	logger *slog.Logger
}

func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// Parse consumes the token stream in a single pass and returns the feature
// tree, or a ParseError on the first structural violation.
func (p *Parser) Parse(tokens []Token, file string) (*Feature, error) {
	s := &parseState{tokens: tokens, file: file, logger: p.logger}
	return s.parseFeature()
}

type parseState struct {
	tokens []Token
	pos    int
	file   string
	logger *slog.Logger

	feature *Feature
}

func (s *parseState) cur() Token {
	if s.pos >= len(s.tokens) {
		return Token{Type: TokenEOF, Line: s.lastLine() + 1, Column: 1}
	}
	return s.tokens[s.pos]
}

func (s *parseState) lastLine() int {
	if len(s.tokens) == 0 {
		return 0
	}
	return s.tokens[len(s.tokens)-1].Line
}

func (s *parseState) advance() {
	s.pos++
}

// checkLanguage records a "# language: xx" comment on the feature.
func (s *parseState) checkLanguage(tok Token) {
	if m := languageComment.FindStringSubmatch(tok.Value); m != nil {
		s.feature.Language = m[1]
	}
}

func (s *parseState) parseFeature() (*Feature, error) {
	s.feature = &Feature{Language: DefaultLanguage, URI: s.file}

	featureTok, err := s.parseFeatureHeader()
	if err != nil {
		return nil, err
	}
	s.feature.Name = featureTok.Value
	s.feature.Description = s.collectDescription()

	var pendingTags []string
	var pendingTagTok Token

	for {
		tok := s.cur()
		switch tok.Type {
		case TokenEOF:
			if len(pendingTags) > 0 {
				s.logger.Warn("skipping orphaned tags", "file", s.file, "line", pendingTagTok.Line, "tags", pendingTags)
			}
			if len(s.feature.Scenarios) == 0 {
				return nil, newParseError(s.file, featureTok, "feature %q has no scenarios", s.feature.Name)
			}
			return s.feature, nil

		case TokenEmpty:
			s.advance()

		case TokenComment:
			s.checkLanguage(tok)
			s.advance()

		case TokenTagLine:
			pendingTags = append(pendingTags, splitTags(tok.Value)...)
			pendingTagTok = tok
			s.advance()

		case TokenBackgroundLine:
			if len(pendingTags) > 0 {
				s.logger.Warn("skipping orphaned tags before background", "file", s.file, "line", pendingTagTok.Line, "tags", pendingTags)
				pendingTags = nil
			}
			if s.feature.Background != nil {
				return nil, newParseError(s.file, tok, "duplicate Background block")
			}
			bg, err := s.parseBackground(tok)
			if err != nil {
				return nil, err
			}
			s.feature.Background = bg

		case TokenScenarioLine, TokenScenarioOutlineLine:
			sc, leftover, err := s.parseScenario(tok, pendingTags)
			if err != nil {
				return nil, err
			}
			s.feature.Scenarios = append(s.feature.Scenarios, sc)
			pendingTags = leftover

		case TokenText:
			// Stray free text between blocks carries no structure.
			s.logger.Debug("skipping stray text", "file", s.file, "line", tok.Line)
			s.advance()

		default:
			return nil, newParseError(s.file, tok, "unexpected %s in feature body", tok.Type)
		}
	}
}

// parseFeatureHeader consumes leading tags and the Feature line.
func (s *parseState) parseFeatureHeader() (Token, error) {
	for {
		tok := s.cur()
		switch tok.Type {
		case TokenEmpty:
			s.advance()
		case TokenComment:
			s.checkLanguage(tok)
			s.advance()
		case TokenTagLine:
			s.feature.Tags = append(s.feature.Tags, splitTags(tok.Value)...)
			s.advance()
		case TokenFeatureLine:
			s.advance()
			return tok, nil
		default:
			return Token{}, &ParseError{Message: "missing Feature declaration", Line: 1, Column: 1, File: s.file}
		}
	}
}

// collectDescription joins free-text lines up to the next structural token.
func (s *parseState) collectDescription() string {
	var lines []string
	for {
		tok := s.cur()
		if tok.Type == TokenText {
			lines = append(lines, tok.Value)
			s.advance()
			continue
		}
		if tok.Type == TokenEmpty {
			// Blank lines inside a description survive as separators.
			if len(lines) > 0 {
				lines = append(lines, "")
			}
			s.advance()
			continue
		}
		break
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func (s *parseState) parseBackground(tok Token) (*Scenario, error) {
	s.advance()
	bg := &Scenario{
		ID:   uuid.NewString(),
		Type: TypeBackground,
		Name: tok.Value,
		Line: tok.Line,
	}
	bg.Description = s.collectDescription()

	steps, err := s.parseSteps()
	if err != nil {
		return nil, err
	}
	if len(steps) == 0 {
		return nil, newParseError(s.file, tok, "background has no steps")
	}
	bg.Steps = steps
	return bg, nil
}

// parseScenario parses one scenario or scenario outline. Tag lines consumed
// while looking for the next Examples block may belong to the following
// scenario; those are handed back to the caller as leftover tags instead of
// rewinding the cursor.
func (s *parseState) parseScenario(tok Token, tags []string) (*Scenario, []string, error) {
	s.advance()
	typ := TypeScenario
	if tok.Type == TokenScenarioOutlineLine {
		typ = TypeScenarioOutline
	}
	sc := &Scenario{
		ID:   uuid.NewString(),
		Type: typ,
		Name: tok.Value,
		Tags: tags,
		Line: tok.Line,
	}
	sc.Description = s.collectDescription()

	steps, err := s.parseSteps()
	if err != nil {
		return nil, nil, err
	}
	if len(steps) == 0 {
		return nil, nil, newParseError(s.file, tok, "scenario %q has no steps", sc.Name)
	}
	sc.Steps = steps

	var leftover []string
	if typ == TypeScenarioOutline {
		leftover, err = s.parseExamplesBlocks(sc)
		if err != nil {
			return nil, nil, err
		}
		if len(sc.Examples) == 0 && !hasDataProviderTag(sc.Tags) {
			return nil, nil, newParseError(s.file, tok, "scenario outline %q has no Examples", sc.Name)
		}
	}
	return sc, leftover, nil
}

func (s *parseState) parseSteps() ([]*Step, error) {
	var steps []*Step
	for {
		tok := s.cur()
		switch tok.Type {
		case TokenEmpty:
			s.advance()
		case TokenComment:
			s.checkLanguage(tok)
			s.advance()
		case TokenStepLine:
			s.advance()
			keyword := tok.Keyword
			if keyword == "" {
				keyword = "Given"
			}
			step := &Step{Keyword: keyword, Text: tok.Value, Line: tok.Line}
			if err := s.parseStepArgument(step); err != nil {
				return nil, err
			}
			steps = append(steps, step)
		default:
			return steps, nil
		}
	}
}

// parseStepArgument attaches at most one data table or doc string to a step.
func (s *parseState) parseStepArgument(step *Step) error {
	for {
		tok := s.cur()
		switch tok.Type {
		case TokenComment:
			s.checkLanguage(tok)
			s.advance()

		case TokenTableRow:
			if step.DataTable != nil || step.DocString != nil {
				return newParseError(s.file, tok, "step already has an argument")
			}
			table, err := s.parseDataTable()
			if err != nil {
				return err
			}
			step.DataTable = table

		case TokenDocStringSeparator:
			if step.DataTable != nil || step.DocString != nil {
				return newParseError(s.file, tok, "step already has an argument")
			}
			docString, err := s.parseDocString(tok)
			if err != nil {
				return err
			}
			step.DocString = docString

		default:
			return nil
		}
	}
}

func (s *parseState) parseDataTable() (*DataTable, error) {
	first := s.cur()
	var rows [][]string
	for {
		tok := s.cur()
		if tok.Type == TokenComment {
			s.advance()
			continue
		}
		if tok.Type != TokenTableRow {
			break
		}
		rows = append(rows, splitTableRow(tok.Value))
		s.advance()
	}
	table, err := NewDataTable(rows)
	if err != nil {
		return nil, newParseError(s.file, first, "%s", err.Error())
	}
	return table, nil
}

func (s *parseState) parseDocString(open Token) (*DocString, error) {
	s.advance()
	var lines []string
	for {
		tok := s.cur()
		switch tok.Type {
		case TokenText, TokenEmpty:
			lines = append(lines, tok.Value)
			s.advance()
		case TokenDocStringSeparator:
			s.advance()
			return &DocString{
				Content:     normalizeDocString(lines),
				ContentType: open.Value,
				Line:        open.Line,
			}, nil
		default:
			return nil, newParseError(s.file, open, "unterminated doc string")
		}
	}
}

// parseExamplesBlocks parses zero or more trailing Examples blocks. Returns
// any tag lines that turned out to belong to the next scenario.
func (s *parseState) parseExamplesBlocks(sc *Scenario) ([]string, error) {
	var pendingTags []string
	for {
		tok := s.cur()
		switch tok.Type {
		case TokenEmpty:
			s.advance()
		case TokenComment:
			s.checkLanguage(tok)
			s.advance()
		case TokenTagLine:
			pendingTags = append(pendingTags, splitTags(tok.Value)...)
			s.advance()
		case TokenExamplesLine:
			ex, err := s.parseExamples(tok, pendingTags)
			if err != nil {
				return nil, err
			}
			pendingTags = nil
			sc.Examples = append(sc.Examples, ex)
		default:
			return pendingTags, nil
		}
	}
}

func (s *parseState) parseExamples(tok Token, tags []string) (*Examples, error) {
	s.advance()
	ex := &Examples{Name: tok.Value, Tags: tags, Line: tok.Line}
	ex.Description = s.collectDescription()

	for {
		rowTok := s.cur()
		if rowTok.Type == TokenComment {
			s.advance()
			continue
		}
		if rowTok.Type != TokenTableRow {
			break
		}
		cells := splitTableRow(rowTok.Value)
		s.advance()

		if ex.Header == nil {
			if err := validateExamplesHeader(cells); err != nil {
				return nil, newParseError(s.file, rowTok, "%s", err.Error())
			}
			ex.Header = cells
			continue
		}
		if len(cells) != len(ex.Header) {
			return nil, newParseError(s.file, rowTok, "examples row has %d cells, expected %d", len(cells), len(ex.Header))
		}
		ex.Rows = append(ex.Rows, cells)
	}

	if ex.Header == nil {
		return nil, newParseError(s.file, tok, "examples block %q has no table", ex.Name)
	}
	return ex, nil
}

func validateExamplesHeader(header []string) error {
	seen := make(map[string]bool, len(header))
	for _, h := range header {
		if h == "" {
			return fmt.Errorf("examples header has an empty entry")
		}
		if seen[h] {
			return fmt.Errorf("examples header has duplicate entry %q", h)
		}
		seen[h] = true
	}
	return nil
}

func splitTags(line string) []string {
	return strings.Fields(line)
}

func hasDataProviderTag(tags []string) bool {
	for _, tag := range tags {
		if tag == "@DataProvider" || strings.Contains(tag, "DataProvider(") {
			return true
		}
	}
	return false
}

// normalizeDocString de-indents to the minimum common leading whitespace,
// trims trailing whitespace per line, resolves backslash escapes, and strips
// leading and trailing blank lines.
func normalizeDocString(lines []string) string {
	minIndent := -1
	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" {
			continue
		}
		indent := len(line) - len(trimmed)
		if minIndent < 0 || indent < minIndent {
			minIndent = indent
		}
	}
	if minIndent < 0 {
		minIndent = 0
	}

	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if len(line) >= minIndent {
			line = line[minIndent:]
		} else {
			line = strings.TrimLeft(line, " \t")
		}
		out = append(out, resolveEscapes(strings.TrimRight(line, " \t")))
	}

	start, end := 0, len(out)
	for start < end && out[start] == "" {
		start++
	}
	for end > start && out[end-1] == "" {
		end--
	}
	return strings.Join(out[start:end], "\n")
}

func resolveEscapes(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i == len(s)-1 {
			b.WriteByte(s[i])
			continue
		}
		switch s[i+1] {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case '"':
			b.WriteByte('"')
		case '\'':
			b.WriteByte('\'')
		case '\\':
			b.WriteByte('\\')
		default:
			b.WriteByte(s[i])
			continue
		}
		i++
	}
	return b.String()
}
