package parser

import (
	"fmt"
	"strings"
	"unicode"
)

// Lexer scans weld source into tokens. Whitespace and // comments are
// skipped; the grammar is not newline-sensitive.
type Lexer struct {
	input  []rune
	pos    int  // index of the current rune
	ch     rune // current rune (0 = EOF)
	line   int  // 1-based
	column int  // 1-based

	errs []error
}

// NewLexer returns a lexer positioned at the first rune of input.
func NewLexer(input string) *Lexer {
	l := &Lexer{input: []rune(input), pos: -1, line: 1, column: 0}
	l.advance()
	return l
}

// Errors returns the lexical errors collected so far.
func (l *Lexer) Errors() []error { return l.errs }

func (l *Lexer) errorf(line int, format string, args ...any) {
	l.errs = append(l.errs, fmt.Errorf("line %d: %s", line, fmt.Sprintf(format, args...)))
}

func (l *Lexer) advance() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}
	l.pos++
	if l.pos >= len(l.input) {
		l.ch = 0
		return
	}
	l.ch = l.input[l.pos]
	l.column++
}

func (l *Lexer) peek() rune {
	if l.pos+1 >= len(l.input) {
		return 0
	}
	return l.input[l.pos+1]
}

// Next returns the next token.
func (l *Lexer) Next() Token {
	l.skipSpaceAndComments()

	tok := Token{Line: l.line, Column: l.column}
	switch {
	case l.ch == 0:
		tok.Type = EOF
		return tok
	case isIdentStart(l.ch):
		word := l.readIdent()
		tok.Type = lookupIdent(word)
		tok.Literal = word
		return tok
	case unicode.IsDigit(l.ch):
		lit, isFloat := l.readNumber()
		if isFloat {
			tok.Type = FLOAT
		} else {
			tok.Type = INT
		}
		tok.Literal = lit
		return tok
	case l.ch == '"':
		tok.Type = STRING
		tok.Literal = l.readString()
		return tok
	}

	two := func(t TokenType) Token {
		tok.Type = t
		tok.Literal = string(t)
		l.advance()
		l.advance()
		return tok
	}
	one := func(t TokenType) Token {
		tok.Type = t
		tok.Literal = string(t)
		l.advance()
		return tok
	}

	switch l.ch {
	case '=':
		if l.peek() == '=' {
			return two(EQ)
		}
		return one(ASSIGN)
	case '!':
		if l.peek() == '=' {
			return two(NOT_EQ)
		}
		return one(BANG)
	case '<':
		if l.peek() == '=' {
			return two(LE)
		}
		return one(LT)
	case '>':
		if l.peek() == '=' {
			return two(GE)
		}
		return one(GT)
	case '&':
		if l.peek() == '&' {
			return two(AND)
		}
	case '|':
		if l.peek() == '|' {
			return two(OR)
		}
		return one(PIPE)
	case '+':
		return one(PLUS)
	case '-':
		return one(MINUS)
	case '*':
		return one(ASTERISK)
	case '/':
		return one(SLASH)
	case '%':
		return one(PERCENT)
	case '?':
		return one(QUESTION)
	case ',':
		return one(COMMA)
	case ';':
		return one(SEMICOLON)
	case ':':
		return one(COLON)
	case '.':
		return one(DOT)
	case '(':
		return one(LPAREN)
	case ')':
		return one(RPAREN)
	case '{':
		return one(LBRACE)
	case '}':
		return one(RBRACE)
	case '[':
		return one(LBRACKET)
	case ']':
		return one(RBRACKET)
	}

	l.errorf(l.line, "illegal character %q", l.ch)
	tok.Type = ILLEGAL
	tok.Literal = string(l.ch)
	l.advance()
	return tok
}

func (l *Lexer) skipSpaceAndComments() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\n' {
			l.advance()
		}
		if l.ch == '/' && l.peek() == '/' {
			for l.ch != '\n' && l.ch != 0 {
				l.advance()
			}
			continue
		}
		return
	}
}

func (l *Lexer) readIdent() string {
	start := l.pos
	for isIdentStart(l.ch) || unicode.IsDigit(l.ch) {
		l.advance()
	}
	return string(l.input[start:l.pos])
}

func (l *Lexer) readNumber() (string, bool) {
	start := l.pos
	isFloat := false
	for unicode.IsDigit(l.ch) {
		l.advance()
	}
	if l.ch == '.' && unicode.IsDigit(l.peek()) {
		isFloat = true
		l.advance()
		for unicode.IsDigit(l.ch) {
			l.advance()
		}
	}
	return string(l.input[start:l.pos]), isFloat
}

func (l *Lexer) readString() string {
	startLine := l.line
	l.advance() // opening quote
	var sb strings.Builder
	for l.ch != '"' {
		if l.ch == 0 {
			l.errorf(startLine, "unterminated string")
			return sb.String()
		}
		if l.ch == '\\' {
			l.advance()
			switch l.ch {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case '\\':
				sb.WriteByte('\\')
			case '"':
				sb.WriteByte('"')
			default:
				l.errorf(l.line, "unknown escape \\%c", l.ch)
				sb.WriteRune(l.ch)
			}
			l.advance()
			continue
		}
		sb.WriteRune(l.ch)
		l.advance()
	}
	l.advance() // closing quote
	return sb.String()
}

func isIdentStart(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}
