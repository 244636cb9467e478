// Package parser turns the operator's C#-like expression text into an
// expression tree. It covers exactly the evaluation core's surface:
// identifiers, literals, property access, parentheses and the binary
// operator set. It is deliberately not a full language grammar.
package parser

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/iantalarico/google-cloud-dotnet-debugger/internal/dbgobj"
	"github.com/iantalarico/google-cloud-dotnet-debugger/internal/expr"
	"github.com/iantalarico/google-cloud-dotnet-debugger/internal/sig"
)

const (
	_ int = iota
	LOWEST
	COND_OR     // ||
	COND_AND    // &&
	BITWISE_OR  // |
	BITWISE_XOR // ^
	BITWISE_AND // &
	EQUALS      // == !=
	COMPARISON  // < <= > >=
	SHIFT       // << >> >>>
	SUM         // + -
	PRODUCT     // * / %
	PREFIX      // -x
	MEMBER      // x.Count
)

var precedences = map[tokenType]int{
	tokenOr:       COND_OR,
	tokenAnd:      COND_AND,
	tokenBitOr:    BITWISE_OR,
	tokenBitXor:   BITWISE_XOR,
	tokenBitAnd:   BITWISE_AND,
	tokenEq:       EQUALS,
	tokenNotEq:    EQUALS,
	tokenLt:       COMPARISON,
	tokenLtEq:     COMPARISON,
	tokenGt:       COMPARISON,
	tokenGtEq:     COMPARISON,
	tokenShl:      SHIFT,
	tokenShr:      SHIFT,
	tokenShrU:     SHIFT,
	tokenPlus:     SUM,
	tokenMinus:    SUM,
	tokenAsterisk: PRODUCT,
	tokenSlash:    PRODUCT,
	tokenPercent:  PRODUCT,
	tokenDot:      MEMBER,
}

var binaryOperators = map[tokenType]expr.BinaryOperator{
	tokenPlus:     expr.OpAdd,
	tokenMinus:    expr.OpSub,
	tokenAsterisk: expr.OpMul,
	tokenSlash:    expr.OpDiv,
	tokenPercent:  expr.OpMod,
	tokenEq:       expr.OpEq,
	tokenNotEq:    expr.OpNe,
	tokenLt:       expr.OpLt,
	tokenLtEq:     expr.OpLe,
	tokenGt:       expr.OpGt,
	tokenGtEq:     expr.OpGe,
	tokenAnd:      expr.OpConditionalAnd,
	tokenOr:       expr.OpConditionalOr,
	tokenBitAnd:   expr.OpBitwiseAnd,
	tokenBitOr:    expr.OpBitwiseOr,
	tokenBitXor:   expr.OpBitwiseXor,
	tokenShl:      expr.OpShl,
	tokenShr:      expr.OpShrS,
	tokenShrU:     expr.OpShrU,
}

type Parser struct {
	l      *lexer
	errors []string

	curToken  token
	peekToken token

	// propertyKinds maps property names to their declared result kinds,
	// supplied by whichever component resolved the surrounding frame's
	// metadata. Unknown properties compile as plain object references.
	propertyKinds map[string]dbgobj.ElementKind
}

type Option func(*Parser)

// WithPropertyKinds supplies result-kind metadata for property access.
func WithPropertyKinds(kinds map[string]dbgobj.ElementKind) Option {
	return func(p *Parser) { p.propertyKinds = kinds }
}

func New(input string, opts ...Option) *Parser {
	p := &Parser{l: newLexer(input)}
	for _, opt := range opts {
		opt(p)
	}
	// Prime curToken and peekToken.
	p.advance()
	p.advance()
	return p
}

// Parse consumes the whole input and returns the root of the tree.
func Parse(input string, opts ...Option) (expr.Expression, error) {
	p := New(input, opts...)
	root := p.parseExpression(LOWEST)
	if p.curToken.typ != tokenEOF && len(p.errors) == 0 {
		p.errorf("unexpected %s after expression", p.peekOrCur())
	}
	if len(p.errors) > 0 {
		return nil, fmt.Errorf("parsing expression: %s", strings.Join(p.errors, "; "))
	}
	return root, nil
}

func (p *Parser) advance() {
	p.curToken = p.peekToken
	p.peekToken = p.l.nextToken()
}

func (p *Parser) errorf(format string, a ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, a...))
}

func (p *Parser) peekOrCur() string {
	if p.curToken.typ == tokenEOF {
		return "end of input"
	}
	return p.curToken.String()
}

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekToken.typ]; ok {
		return prec
	}
	return LOWEST
}

// parseExpression is a Pratt loop over the binary operators; everything the
// parser accepts is left-associative.
func (p *Parser) parseExpression(precedence int) expr.Expression {
	left := p.parsePrefix()
	if left == nil {
		return nil
	}

	for precedence < p.peekPrecedence() {
		p.advance()
		left = p.parseInfix(left)
		if left == nil {
			return nil
		}
	}

	p.advance()
	return left
}

func (p *Parser) parsePrefix() expr.Expression {
	switch p.curToken.typ {
	case tokenIdent:
		return expr.NewIdentifier(p.curToken.literal)
	case tokenInt:
		return p.parseIntegerLiteral()
	case tokenFloat:
		return p.parseFloatLiteral()
	case tokenString:
		return p.parseStringLiteral()
	case tokenTrue:
		return expr.NewLiteral(&dbgobj.Boolean{Value: true})
	case tokenFalse:
		return expr.NewLiteral(&dbgobj.Boolean{Value: false})
	case tokenNull:
		return expr.NewLiteral(&dbgobj.Reference{})
	case tokenMinus:
		return p.parseNegatedLiteral()
	case tokenLParen:
		return p.parseGrouped()
	case tokenEOF:
		p.errorf("unexpected end of input")
		return nil
	default:
		p.errorf("unexpected token %s", p.curToken)
		return nil
	}
}

func (p *Parser) parseInfix(left expr.Expression) expr.Expression {
	if p.curToken.typ == tokenDot {
		return p.parsePropertyAccess(left)
	}

	op, ok := binaryOperators[p.curToken.typ]
	if !ok {
		p.errorf("token %s is not a binary operator", p.curToken)
		return nil
	}

	precedence := precedences[p.curToken.typ]
	p.advance()
	right := p.parseSubExpression(precedence)
	if right == nil {
		return nil
	}
	return expr.NewBinary(op, left, right)
}

// parseSubExpression parses a right operand without consuming the token
// after it, so the enclosing loop keeps control of associativity.
func (p *Parser) parseSubExpression(precedence int) expr.Expression {
	left := p.parsePrefix()
	if left == nil {
		return nil
	}
	for precedence < p.peekPrecedence() {
		p.advance()
		left = p.parseInfix(left)
		if left == nil {
			return nil
		}
	}
	return left
}

func (p *Parser) parsePropertyAccess(left expr.Expression) expr.Expression {
	if p.peekToken.typ != tokenIdent {
		p.errorf("expected a property name after '.', got %s", p.peekToken)
		return nil
	}
	p.advance()
	name := p.curToken.literal

	kind := dbgobj.KindClass
	if k, ok := p.propertyKinds[name]; ok {
		kind = k
	}
	return expr.NewProperty(left, name, sig.Signature(kind))
}

func (p *Parser) parseGrouped() expr.Expression {
	p.advance()
	inner := p.parseSubExpression(LOWEST)
	if inner == nil {
		return nil
	}
	if p.peekToken.typ != tokenRParen {
		p.errorf("expected ')', got %s", p.peekToken)
		return nil
	}
	p.advance()
	return inner
}

// parseNegatedLiteral folds a leading minus into the numeric literal that
// follows it. The grammar has no general unary operators.
func (p *Parser) parseNegatedLiteral() expr.Expression {
	switch p.peekToken.typ {
	case tokenInt:
		p.advance()
		return p.parseIntegerLiteralSigned(true)
	case tokenFloat:
		p.advance()
		lit := p.parseFloatLiteral()
		if lit == nil {
			return nil
		}
		return negateFloatLiteral(lit)
	default:
		p.errorf("'-' must be followed by a numeric literal, got %s", p.peekToken)
		return nil
	}
}

func (p *Parser) parseIntegerLiteral() expr.Expression {
	return p.parseIntegerLiteralSigned(false)
}

// parseIntegerLiteralSigned applies the source language's literal typing:
// the literal takes the first kind among int, uint, long, ulong that can
// represent it, narrowed or widened by an explicit suffix.
func (p *Parser) parseIntegerLiteralSigned(negative bool) expr.Expression {
	digits := p.curToken.literal
	var unsigned, long bool
	for strings.ContainsAny(digits[len(digits)-1:], "uUlL") {
		switch digits[len(digits)-1] {
		case 'u', 'U':
			unsigned = true
		case 'l', 'L':
			long = true
		}
		digits = digits[:len(digits)-1]
	}

	value, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		p.errorf("invalid integer literal %q", p.curToken.literal)
		return nil
	}

	if negative {
		if unsigned {
			p.errorf("unsigned literal %q cannot be negative", p.curToken.literal)
			return nil
		}
		if value > math.MaxInt64 {
			p.errorf("integer literal %q out of range", p.curToken.literal)
			return nil
		}
		signed := -int64(value)
		if !long && signed >= math.MinInt32 {
			return expr.NewLiteral(dbgobj.NewPrimitive(int32(signed)))
		}
		return expr.NewLiteral(dbgobj.NewPrimitive(signed))
	}

	switch {
	case unsigned && !long:
		if value <= math.MaxUint32 {
			return expr.NewLiteral(dbgobj.NewPrimitive(uint32(value)))
		}
		return expr.NewLiteral(dbgobj.NewPrimitive(value))
	case unsigned && long:
		return expr.NewLiteral(dbgobj.NewPrimitive(value))
	case long:
		if value > math.MaxInt64 {
			p.errorf("integer literal %q out of range", p.curToken.literal)
			return nil
		}
		return expr.NewLiteral(dbgobj.NewPrimitive(int64(value)))
	default:
		if value <= math.MaxInt32 {
			return expr.NewLiteral(dbgobj.NewPrimitive(int32(value)))
		}
		if value <= math.MaxInt64 {
			return expr.NewLiteral(dbgobj.NewPrimitive(int64(value)))
		}
		return expr.NewLiteral(dbgobj.NewPrimitive(value))
	}
}

func (p *Parser) parseFloatLiteral() expr.Expression {
	digits := p.curToken.literal
	single := false
	switch digits[len(digits)-1] {
	case 'f', 'F':
		single = true
		digits = digits[:len(digits)-1]
	case 'd', 'D':
		digits = digits[:len(digits)-1]
	}

	value, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		p.errorf("invalid floating literal %q", p.curToken.literal)
		return nil
	}
	if single {
		return expr.NewLiteral(dbgobj.NewPrimitive(float32(value)))
	}
	return expr.NewLiteral(dbgobj.NewPrimitive(value))
}

func (p *Parser) parseStringLiteral() expr.Expression {
	value, err := strconv.Unquote(p.curToken.literal)
	if err != nil {
		p.errorf("invalid string literal %s", p.curToken.literal)
		return nil
	}
	return expr.NewLiteral(&dbgobj.String{Value: value})
}

func negateFloatLiteral(e expr.Expression) expr.Expression {
	lit, ok := e.(*expr.Literal)
	if !ok {
		return e
	}
	switch v := lit.Raw().(type) {
	case *dbgobj.Primitive[float32]:
		return expr.NewLiteral(dbgobj.NewPrimitive(-v.Value))
	case *dbgobj.Primitive[float64]:
		return expr.NewLiteral(dbgobj.NewPrimitive(-v.Value))
	}
	return e
}
