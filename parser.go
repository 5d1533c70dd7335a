package cronexec

import (
	"fmt"
	"strings"
)

// parser is the internal parser state. It works on one field at a time:
// tokens[pos:end] are the tokens of the current field.
type parser struct {
	tokens []Token
	pos    int
	end    int
	input  string
	def    *Definition
	field  FieldDefinition
}

// fieldTokens delimits the tokens of one field.
type fieldTokens struct {
	start, end int
}

// Parse parses a cron expression in the given dialect. Besides the field
// syntax it accepts the @yearly, @annually, @monthly, @weekly, @daily,
// @midnight and @hourly macros.
func Parse(def *Definition, input string) (*Cron, error) {
	if def == nil {
		return nil, DefinitionError("nil definition")
	}
	if name, ok := strings.CutPrefix(strings.TrimSpace(input), "@"); ok {
		return parseMacro(def, name, input)
	}

	tokens, err := Tokenize(input)
	if err != nil {
		return nil, err
	}

	if len(tokens) == 0 {
		return nil, ParseError("empty expression", Span{0, 0}, input, "")
	}

	p := &parser{tokens: tokens, input: input, def: def}
	return p.parseCron()
}

func (p *parser) peek() *Token {
	if p.pos < p.end {
		return &p.tokens[p.pos]
	}
	return nil
}

func (p *parser) advance() *Token {
	tok := p.peek()
	if tok != nil {
		p.pos++
	}
	return tok
}

func (p *parser) error(message string, span Span) error {
	return ParseError(message, span, p.input, "")
}

func (p *parser) errorAtEnd(message string) error {
	span := Span{0, 0}
	if p.end > 0 {
		end := p.tokens[p.end-1].Span.End
		span = Span{end, end}
	}
	return ParseError(message, span, p.input, "")
}

func (p *parser) consume(expected string, kind TokenKind) (*Token, error) {
	tok := p.peek()
	if tok != nil && tok.Kind == kind {
		p.pos++
		return tok, nil
	}
	if tok != nil {
		return nil, p.error(fmt.Sprintf("expected %s on the %s field, found %s", expected, p.field.Name, tok.Kind), tok.Span)
	}
	return nil, p.errorAtEnd(fmt.Sprintf("expected %s on the %s field", expected, p.field.Name))
}

func (p *parser) span(g fieldTokens) Span {
	return Span{p.tokens[g.start].Span.Start, p.tokens[g.end-1].Span.End}
}

// splitFields groups the token stream by field separators.
func (p *parser) splitFields() []fieldTokens {
	var groups []fieldTokens
	start := 0
	for i, tok := range p.tokens {
		if tok.Kind == TokenSeparator {
			groups = append(groups, fieldTokens{start, i})
			start = i + 1
		}
	}
	return append(groups, fieldTokens{start, len(p.tokens)})
}

// --- Grammar productions ---

func (p *parser) parseCron() (*Cron, error) {
	groups := p.splitFields()
	required, total := p.def.requiredFields(), len(p.def.Fields)
	if len(groups) < required || len(groups) > total {
		want := fmt.Sprint(total)
		if required != total {
			want = fmt.Sprintf("%d to %d", required, total)
		}
		return nil, p.error(
			fmt.Sprintf("%s expressions have %s fields, found %d", p.def.Name, want, len(groups)),
			Span{0, len(p.input)},
		)
	}

	exprs := make(map[FieldName]FieldExpression, len(groups))
	for i, g := range groups {
		p.pos, p.end, p.field = g.start, g.end, p.def.Fields[i]
		expr, err := p.parseField()
		if err != nil {
			return nil, err
		}
		if err := validateExpr(p.def, p.field.Name, expr, p.field.Constraints, false); err != nil {
			return nil, p.error(err.Error(), p.span(g))
		}
		exprs[p.field.Name] = expr
	}
	return NewCron(p.def, exprs)
}

// parseField parses `'?' | item (',' item)*`.
func (p *parser) parseField() (FieldExpression, error) {
	if tok := p.peek(); tok != nil && tok.Kind == TokenQuestion {
		p.advance()
		if !p.field.Constraints.Supports(SpecialQuestionMark) {
			suggestion := p.input[:tok.Span.Start] + "*" + p.input[tok.Span.End:]
			return FieldExpression{}, ParseError(
				fmt.Sprintf("'?' is not supported on the %s field", p.field.Name),
				tok.Span, p.input, strings.TrimSpace(suggestion),
			)
		}
		if next := p.peek(); next != nil {
			return FieldExpression{}, p.error("'?' must stand alone", next.Span)
		}
		return QuestionMark(), nil
	}

	var items []FieldExpression
	for {
		item, err := p.parseItem()
		if err != nil {
			return FieldExpression{}, err
		}
		items = append(items, item)
		if p.peek() == nil {
			break
		}
		if _, err := p.consume("','", TokenComma); err != nil {
			return FieldExpression{}, err
		}
	}
	if len(items) == 1 {
		return items[0], nil
	}
	return And(items...), nil
}

// parseItem parses `base ('/' number)?`.
func (p *parser) parseItem() (FieldExpression, error) {
	base, err := p.parseBase()
	if err != nil {
		return FieldExpression{}, err
	}
	slash := p.peek()
	if slash == nil || slash.Kind != TokenSlash {
		return base, nil
	}
	p.advance()
	step, err := p.consume("step", TokenNumber)
	if err != nil {
		return FieldExpression{}, err
	}
	if step.NumberVal < 1 {
		return FieldExpression{}, p.error("step must be positive", step.Span)
	}
	switch {
	case base.Kind == ExprKindAlways, base.Kind == ExprKindOn && !base.IsSpecial():
		return Every(base, step.NumberVal), nil
	case base.Kind == ExprKindBetween:
		return BetweenEvery(base.From, base.To, step.NumberVal), nil
	}
	return FieldExpression{}, p.error("'/' must follow '*', a value or a range", slash.Span)
}

// parseBase parses `'*' | 'L' ('-' number)? | 'LW' | value ('-' value |
// 'W' | 'L' | '#' number)?`.
func (p *parser) parseBase() (FieldExpression, error) {
	tok := p.peek()
	if tok == nil {
		return FieldExpression{}, p.errorAtEnd(fmt.Sprintf("expected a value on the %s field", p.field.Name))
	}

	switch tok.Kind {
	case TokenStar:
		p.advance()
		return Always(), nil
	case TokenWord:
		switch tok.WordVal {
		case "L":
			p.advance()
			if p.field.Name == FieldDayOfWeek {
				if !p.field.Constraints.Supports(SpecialL) {
					return FieldExpression{}, p.error(fmt.Sprintf("'L' is not supported on the %s field", p.field.Name), tok.Span)
				}
				// Alone on the day of week, L is the last day of the week.
				return On(p.field.Constraints.fromISOWeekday(6)), nil
			}
			if next := p.peek(); next != nil && next.Kind == TokenDash {
				p.advance()
				n, err := p.consume("offset", TokenNumber)
				if err != nil {
					return FieldExpression{}, err
				}
				return OnSpecial(0, SpecialL, n.NumberVal), nil
			}
			return OnSpecial(0, SpecialL, 0), nil
		case "LW":
			p.advance()
			return OnSpecial(0, SpecialLW, 0), nil
		}
	case TokenNumber:
	default:
		return FieldExpression{}, p.error(fmt.Sprintf("unexpected %s on the %s field", tok.Kind, p.field.Name), tok.Span)
	}

	v, err := p.parseValue()
	if err != nil {
		return FieldExpression{}, err
	}
	next := p.peek()
	if next == nil {
		return On(v), nil
	}
	switch next.Kind {
	case TokenDash:
		p.advance()
		to, err := p.parseValue()
		if err != nil {
			return FieldExpression{}, err
		}
		from, to := p.weekdayRange(v, to)
		return Between(from, to), nil
	case TokenHash:
		p.advance()
		n, err := p.consume("ordinal", TokenNumber)
		if err != nil {
			return FieldExpression{}, err
		}
		return OnSpecial(v, SpecialHash, n.NumberVal), nil
	case TokenWord:
		switch next.WordVal {
		case "W":
			p.advance()
			return OnSpecial(v, SpecialW, 0), nil
		case "L":
			p.advance()
			return OnSpecial(v, SpecialL, 0), nil
		}
		return FieldExpression{}, p.error(fmt.Sprintf("unexpected '%s' on the %s field", next.WordVal, p.field.Name), next.Span)
	}
	return On(v), nil
}

// parseValue parses a number or a month or weekday name.
func (p *parser) parseValue() (int, error) {
	tok := p.advance()
	if tok == nil {
		return 0, p.errorAtEnd(fmt.Sprintf("expected a value on the %s field", p.field.Name))
	}
	switch tok.Kind {
	case TokenNumber:
		return tok.NumberVal, nil
	case TokenWord:
		switch p.field.Name {
		case FieldMonth:
			if m, ok := monthNames[tok.WordVal]; ok {
				return m, nil
			}
		case FieldDayOfWeek:
			if d, ok := dayNames[tok.WordVal]; ok {
				return p.field.Constraints.fromISOWeekday(d), nil
			}
		}
		return 0, p.error(fmt.Sprintf("unknown name '%s' on the %s field", tok.WordVal, p.field.Name), tok.Span)
	}
	return 0, p.error(fmt.Sprintf("expected a value on the %s field, found %s", p.field.Name, tok.Kind), tok.Span)
}

// weekdayRange uses the other numbering of Sunday when a day-of-week domain
// has two of them, so SUN-TUE and FRI-SUN stay ascending.
func (p *parser) weekdayRange(from, to int) (int, int) {
	c := p.field.Constraints
	if p.field.Name != FieldDayOfWeek || from <= to {
		return from, to
	}
	if from-7 >= c.Min && c.isoWeekday(from) == 7 {
		return from - 7, to
	}
	if to+7 <= c.Max && c.isoWeekday(to) == 7 {
		return from, to + 7
	}
	return from, to
}

// parseMacro expands an @-macro into the dialect's fields.
func parseMacro(def *Definition, name, input string) (*Cron, error) {
	minute, hour, month := On(0), On(0), Always()
	var dom, dow FieldExpression
	switch strings.ToLower(name) {
	case "yearly", "annually":
		dom, month, dow = On(1), On(1), Always()
	case "monthly":
		dom, dow = On(1), Always()
	case "weekly":
		dowField, ok := def.Field(FieldDayOfWeek)
		if !ok {
			return nil, DefinitionError(fmt.Sprintf("%s has no day of week field for @weekly", def.Name))
		}
		dom, dow = Always(), On(dowField.Constraints.fromISOWeekday(7))
	case "daily", "midnight":
		dom, dow = Always(), Always()
	case "hourly":
		hour, dom, dow = Always(), Always(), Always()
	default:
		start := strings.Index(input, "@")
		return nil, ParseError(fmt.Sprintf("unknown macro '@%s'", name), Span{start, len(input)}, input, "@daily")
	}
	if def.SupportsQuestionMark() {
		if dow.Kind == ExprKindAlways {
			dow = QuestionMark()
		} else {
			dom = QuestionMark()
		}
	}

	candidates := map[FieldName]FieldExpression{
		FieldSecond:     On(0),
		FieldMinute:     minute,
		FieldHour:       hour,
		FieldDayOfMonth: dom,
		FieldMonth:      month,
		FieldDayOfWeek:  dow,
	}
	exprs := make(map[FieldName]FieldExpression, len(candidates))
	for fieldName, expr := range candidates {
		if def.HasField(fieldName) {
			exprs[fieldName] = expr
		}
	}
	return NewCron(def, exprs)
}
