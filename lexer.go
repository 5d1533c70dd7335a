package cronexec

import (
	"strconv"
	"strings"
)

// TokenKind represents the type of token.
type TokenKind int

const (
	TokenNumber TokenKind = iota
	TokenWord
	TokenStar
	TokenQuestion
	TokenComma
	TokenDash
	TokenSlash
	TokenHash
	TokenSeparator
)

func (k TokenKind) String() string {
	switch k {
	case TokenNumber:
		return "number"
	case TokenWord:
		return "word"
	case TokenStar:
		return "'*'"
	case TokenQuestion:
		return "'?'"
	case TokenComma:
		return "','"
	case TokenDash:
		return "'-'"
	case TokenSlash:
		return "'/'"
	case TokenHash:
		return "'#'"
	case TokenSeparator:
		return "field separator"
	}
	return "token"
}

// Token represents a lexed token.
type Token struct {
	Kind TokenKind
	Span Span

	// Value fields (only one is set based on Kind)
	NumberVal int
	WordVal   string // upper-cased
}

// lexer is the internal lexer state.
type lexer struct {
	input string
	pos   int
}

// Tokenize tokenizes a cron expression. Runs of whitespace between fields
// become a single TokenSeparator; leading and trailing whitespace is dropped.
func Tokenize(input string) ([]Token, error) {
	l := &lexer{input: input}
	return l.tokenize()
}

func (l *lexer) tokenize() ([]Token, error) {
	var tokens []Token
	l.skipWhitespace()
	for l.pos < len(l.input) {
		start := l.pos
		ch := l.input[l.pos]

		if isWhitespace(ch) {
			l.skipWhitespace()
			if l.pos < len(l.input) {
				tokens = append(tokens, Token{Kind: TokenSeparator, Span: Span{start, l.pos}})
			}
			continue
		}

		if kind, ok := punctuation[ch]; ok {
			l.pos++
			tokens = append(tokens, Token{Kind: kind, Span: Span{start, l.pos}})
			continue
		}

		if isDigit(ch) {
			tok, err := l.lexNumber()
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
			continue
		}

		if isAlpha(ch) {
			tokens = append(tokens, l.lexWord())
			continue
		}

		return nil, LexError("unexpected character '"+string(ch)+"'", Span{start, start + 1}, l.input)
	}

	return tokens, nil
}

var punctuation = map[byte]TokenKind{
	'*': TokenStar,
	'?': TokenQuestion,
	',': TokenComma,
	'-': TokenDash,
	'/': TokenSlash,
	'#': TokenHash,
}

func (l *lexer) skipWhitespace() {
	for l.pos < len(l.input) && isWhitespace(l.input[l.pos]) {
		l.pos++
	}
}

func (l *lexer) lexNumber() (Token, error) {
	start := l.pos
	for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
		l.pos++
	}
	num, err := strconv.Atoi(l.input[start:l.pos])
	if err != nil {
		return Token{}, LexError("invalid number", Span{start, l.pos}, l.input)
	}
	return Token{Kind: TokenNumber, Span: Span{start, l.pos}, NumberVal: num}, nil
}

// lexWord reads a run of letters. Digits end a word so that "15W" lexes as
// a number followed by a word.
func (l *lexer) lexWord() Token {
	start := l.pos
	for l.pos < len(l.input) && isAlpha(l.input[l.pos]) {
		l.pos++
	}
	return Token{Kind: TokenWord, Span: Span{start, l.pos}, WordVal: strings.ToUpper(l.input[start:l.pos])}
}

// monthNames maps three-letter month abbreviations to month numbers.
var monthNames = map[string]int{
	"JAN": 1, "FEB": 2, "MAR": 3, "APR": 4, "MAY": 5, "JUN": 6,
	"JUL": 7, "AUG": 8, "SEP": 9, "OCT": 10, "NOV": 11, "DEC": 12,
}

// dayNames maps three-letter weekday abbreviations to ISO weekdays.
var dayNames = map[string]int{
	"MON": 1, "TUE": 2, "WED": 3, "THU": 4, "FRI": 5, "SAT": 6, "SUN": 7,
}

// Helper functions

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isWhitespace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
