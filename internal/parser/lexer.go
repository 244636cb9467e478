package parser

import "fmt"

type tokenType int

const (
	tokenIllegal tokenType = iota
	tokenEOF

	tokenIdent
	tokenInt
	tokenFloat
	tokenString
	tokenTrue
	tokenFalse
	tokenNull

	tokenPlus
	tokenMinus
	tokenAsterisk
	tokenSlash
	tokenPercent
	tokenEq
	tokenNotEq
	tokenLt
	tokenLtEq
	tokenGt
	tokenGtEq
	tokenAnd
	tokenOr
	tokenBitAnd
	tokenBitOr
	tokenBitXor
	tokenShl
	tokenShr
	tokenShrU

	tokenLParen
	tokenRParen
	tokenDot
)

type token struct {
	typ     tokenType
	literal string
	pos     int
}

type lexer struct {
	input    string
	position int
}

func newLexer(input string) *lexer {
	return &lexer{input: input}
}

func (l *lexer) nextToken() token {
	l.skipWhitespace()

	if l.position >= len(l.input) {
		return token{typ: tokenEOF, pos: l.position}
	}

	pos := l.position
	ch := l.input[l.position]

	switch ch {
	case '+':
		l.position++
		return token{typ: tokenPlus, literal: "+", pos: pos}
	case '-':
		l.position++
		return token{typ: tokenMinus, literal: "-", pos: pos}
	case '*':
		l.position++
		return token{typ: tokenAsterisk, literal: "*", pos: pos}
	case '/':
		l.position++
		return token{typ: tokenSlash, literal: "/", pos: pos}
	case '%':
		l.position++
		return token{typ: tokenPercent, literal: "%", pos: pos}
	case '^':
		l.position++
		return token{typ: tokenBitXor, literal: "^", pos: pos}
	case '(':
		l.position++
		return token{typ: tokenLParen, literal: "(", pos: pos}
	case ')':
		l.position++
		return token{typ: tokenRParen, literal: ")", pos: pos}
	case '.':
		if l.position+1 < len(l.input) && isDigit(l.input[l.position+1]) {
			return l.readNumber()
		}
		l.position++
		return token{typ: tokenDot, literal: ".", pos: pos}
	case '=':
		if l.peekIs('=') {
			l.position += 2
			return token{typ: tokenEq, literal: "==", pos: pos}
		}
	case '!':
		if l.peekIs('=') {
			l.position += 2
			return token{typ: tokenNotEq, literal: "!=", pos: pos}
		}
	case '<':
		if l.peekIs('=') {
			l.position += 2
			return token{typ: tokenLtEq, literal: "<=", pos: pos}
		}
		if l.peekIs('<') {
			l.position += 2
			return token{typ: tokenShl, literal: "<<", pos: pos}
		}
		l.position++
		return token{typ: tokenLt, literal: "<", pos: pos}
	case '>':
		if l.peekIs('=') {
			l.position += 2
			return token{typ: tokenGtEq, literal: ">=", pos: pos}
		}
		if l.peekIs('>') {
			if l.position+2 < len(l.input) && l.input[l.position+2] == '>' {
				l.position += 3
				return token{typ: tokenShrU, literal: ">>>", pos: pos}
			}
			l.position += 2
			return token{typ: tokenShr, literal: ">>", pos: pos}
		}
		l.position++
		return token{typ: tokenGt, literal: ">", pos: pos}
	case '&':
		if l.peekIs('&') {
			l.position += 2
			return token{typ: tokenAnd, literal: "&&", pos: pos}
		}
		l.position++
		return token{typ: tokenBitAnd, literal: "&", pos: pos}
	case '|':
		if l.peekIs('|') {
			l.position += 2
			return token{typ: tokenOr, literal: "||", pos: pos}
		}
		l.position++
		return token{typ: tokenBitOr, literal: "|", pos: pos}
	case '"':
		return l.readString()
	}

	if isDigit(ch) {
		return l.readNumber()
	}
	if isIdentStart(ch) {
		return l.readIdentifier()
	}

	l.position++
	return token{typ: tokenIllegal, literal: string(ch), pos: pos}
}

func (l *lexer) peekIs(ch byte) bool {
	return l.position+1 < len(l.input) && l.input[l.position+1] == ch
}

func (l *lexer) skipWhitespace() {
	for l.position < len(l.input) {
		switch l.input[l.position] {
		case ' ', '\t', '\r', '\n':
			l.position++
		default:
			return
		}
	}
}

func (l *lexer) readIdentifier() token {
	pos := l.position
	for l.position < len(l.input) && isIdentPart(l.input[l.position]) {
		l.position++
	}
	literal := l.input[pos:l.position]

	typ := tokenIdent
	switch literal {
	case "true":
		typ = tokenTrue
	case "false":
		typ = tokenFalse
	case "null":
		typ = tokenNull
	}
	return token{typ: typ, literal: literal, pos: pos}
}

// readNumber consumes an integer or floating literal including the source
// language's type suffixes (L, U, UL, f, d).
func (l *lexer) readNumber() token {
	pos := l.position
	isFloat := false

	for l.position < len(l.input) {
		ch := l.input[l.position]
		switch {
		case isDigit(ch):
			l.position++
		case ch == '.' && !isFloat && l.position+1 < len(l.input) && isDigit(l.input[l.position+1]):
			isFloat = true
			l.position++
		case ch == 'e' || ch == 'E':
			if l.position+1 < len(l.input) && (isDigit(l.input[l.position+1]) || l.input[l.position+1] == '-' || l.input[l.position+1] == '+') {
				isFloat = true
				l.position += 2
				continue
			}
			goto suffix
		default:
			goto suffix
		}
	}

suffix:
	for l.position < len(l.input) {
		switch l.input[l.position] {
		case 'l', 'L', 'u', 'U':
			l.position++
			continue
		case 'f', 'F', 'd', 'D':
			isFloat = true
			l.position++
			continue
		}
		break
	}

	typ := tokenInt
	if isFloat {
		typ = tokenFloat
	}
	return token{typ: typ, literal: l.input[pos:l.position], pos: pos}
}

func (l *lexer) readString() token {
	pos := l.position
	l.position++ // opening quote
	for l.position < len(l.input) {
		ch := l.input[l.position]
		if ch == '\\' {
			l.position += 2
			continue
		}
		if ch == '"' {
			l.position++
			return token{typ: tokenString, literal: l.input[pos:l.position], pos: pos}
		}
		l.position++
	}
	return token{typ: tokenIllegal, literal: l.input[pos:], pos: pos}
}

func isDigit(ch byte) bool { return '0' <= ch && ch <= '9' }

func isIdentStart(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isIdentPart(ch byte) bool { return isIdentStart(ch) || isDigit(ch) }

func (t token) String() string {
	return fmt.Sprintf("%q@%d", t.literal, t.pos)
}
