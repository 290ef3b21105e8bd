package rules

// expr.go implements the row-rule expression sub-language.
//
// The grammar is intentionally tiny:
//
//	expr       := or_expr
//	or_expr    := and_expr ("or" and_expr)*
//	and_expr   := comparison ("and" comparison)*
//	comparison := operand (cmp_op operand)? | function_call | "(" expr ")"
//	cmp_op     := "<=" | "<" | ">=" | ">" | "==" | "!="
//	function   := ("is_null" | "not_null") "(" column ")"
//	operand    := column | number | 'string' | "string"
//
// Expressions are parsed into a tagged tree and walked by a closed
// interpreter (eval.go). User input is never handed to any general
// evaluation facility, so a rules file cannot execute code.

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/carlhabs/data-quality-analyzer/internal/coerce"
)

// ExpressionError reports a row-rule expression that failed to parse or that
// references an unknown column or function. Pos is a zero-based byte offset
// into the expression source.
type ExpressionError struct {
	Rule  string
	Token string
	Pos   int
	Msg   string
}

func (e *ExpressionError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("row rule %q: %s at offset %d: %s", e.Rule, e.Token, e.Pos, e.Msg)
	}
	return fmt.Sprintf("row rule %q: %s", e.Rule, e.Msg)
}

// ----------------------------------------------------------------------------
// Lexer
// ----------------------------------------------------------------------------

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokNumber
	tokString
	tokOp // <= < >= > == !=
	tokAnd
	tokOr
	tokLParen
	tokRParen
	tokComma
	tokEOF
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

type lexer struct {
	src  string
	pos  int
	rule string
}

func (l *lexer) errf(pos int, tok, format string, args ...any) error {
	return &ExpressionError{Rule: l.rule, Token: tok, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func (l *lexer) lex() ([]token, error) {
	var tokens []token
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case unicode.IsSpace(rune(c)):
			l.pos++

		case c == '(':
			tokens = append(tokens, token{tokLParen, "(", l.pos})
			l.pos++
		case c == ')':
			tokens = append(tokens, token{tokRParen, ")", l.pos})
			l.pos++
		case c == ',':
			tokens = append(tokens, token{tokComma, ",", l.pos})
			l.pos++

		case c == '<' || c == '>' || c == '=' || c == '!':
			start := l.pos
			op := string(c)
			if l.pos+1 < len(l.src) && l.src[l.pos+1] == '=' {
				op += "="
				l.pos++
			}
			l.pos++
			if op == "=" || op == "!" {
				return nil, l.errf(start, op, "unknown operator")
			}
			tokens = append(tokens, token{tokOp, op, start})

		case c == '\'' || c == '"':
			start := l.pos
			quote := c
			end := strings.IndexByte(l.src[l.pos+1:], quote)
			if end < 0 {
				return nil, l.errf(start, string(quote), "unterminated string literal")
			}
			tokens = append(tokens, token{tokString, l.src[l.pos+1 : l.pos+1+end], start})
			l.pos += end + 2

		case c >= '0' && c <= '9':
			start := l.pos
			for l.pos < len(l.src) && (l.src[l.pos] >= '0' && l.src[l.pos] <= '9' || l.src[l.pos] == '.') {
				l.pos++
			}
			text := l.src[start:l.pos]
			if _, err := strconv.ParseFloat(text, 64); err != nil {
				return nil, l.errf(start, text, "malformed number literal")
			}
			tokens = append(tokens, token{tokNumber, text, start})

		case c == '_' || unicode.IsLetter(rune(c)):
			start := l.pos
			for l.pos < len(l.src) {
				r := l.src[l.pos]
				if r == '_' || unicode.IsLetter(rune(r)) || r >= '0' && r <= '9' {
					l.pos++
					continue
				}
				break
			}
			text := l.src[start:l.pos]
			switch text {
			case "and":
				tokens = append(tokens, token{tokAnd, text, start})
			case "or":
				tokens = append(tokens, token{tokOr, text, start})
			default:
				tokens = append(tokens, token{tokIdent, text, start})
			}

		default:
			return nil, l.errf(l.pos, string(c), "invalid character")
		}
	}
	tokens = append(tokens, token{tokEOF, "", len(l.src)})
	return tokens, nil
}

// ----------------------------------------------------------------------------
// Parser
// ----------------------------------------------------------------------------

// knownFuncs is the closed set of callable functions.
var knownFuncs = map[string]struct{}{"is_null": {}, "not_null": {}}

type parser struct {
	rule    string
	tokens  []token
	index   int
	columns map[string]coerce.Type // dataset columns → declared type ("" if none)
}

// compileExpr parses source into a boolean expression tree. columns maps
// every dataset column name to its declared type (empty for undeclared).
func compileExpr(ruleName, source string, columns map[string]coerce.Type) (boolNode, error) {
	lx := &lexer{src: source, rule: ruleName}
	tokens, err := lx.lex()
	if err != nil {
		return nil, err
	}
	p := &parser{rule: ruleName, tokens: tokens, columns: columns}
	root, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, p.errf(tok, "unexpected trailing token")
	}
	return root, nil
}

func (p *parser) peek() token { return p.tokens[p.index] }

func (p *parser) next() token {
	tok := p.tokens[p.index]
	if tok.kind != tokEOF {
		p.index++
	}
	return tok
}

func (p *parser) expect(kind tokenKind, what string) (token, error) {
	tok := p.next()
	if tok.kind != kind {
		return tok, p.errf(tok, "expected %s", what)
	}
	return tok, nil
}

func (p *parser) errf(tok token, format string, args ...any) error {
	text := tok.text
	if tok.kind == tokEOF {
		text = "end of expression"
	}
	return &ExpressionError{Rule: p.rule, Token: text, Pos: tok.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) parseOr() (boolNode, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOr {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &orNode{left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (boolNode, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokAnd {
		p.next()
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &andNode{left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseComparison() (boolNode, error) {
	// Parenthesized sub-expression.
	if p.peek().kind == tokLParen {
		p.next()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, `")"`); err != nil {
			return nil, err
		}
		return inner, nil
	}

	// Function call: is_null(col) / not_null(col).
	if tok := p.peek(); tok.kind == tokIdent {
		if _, known := knownFuncs[tok.text]; known {
			return p.parseCall()
		}
		if p.tokens[p.index+1].kind == tokLParen {
			return nil, p.errf(tok, "unknown function")
		}
	}

	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokOp {
		// A bare operand is only meaningful as a boolean column reference.
		col, ok := left.(*columnOperand)
		if !ok || (col.typ != "" && col.typ != coerce.TypeBool) {
			return nil, p.errf(p.peek(), "expected comparison operator")
		}
		return &boolColumnNode{column: col}, nil
	}
	op := p.next()
	right, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	return &cmpNode{op: op.text, left: left, right: right}, nil
}

func (p *parser) parseCall() (boolNode, error) {
	name := p.next()
	if _, err := p.expect(tokLParen, `"("`); err != nil {
		return nil, err
	}
	arg, err := p.expect(tokIdent, "column name")
	if err != nil {
		return nil, err
	}
	col, err := p.columnRef(arg)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokRParen, `")"`); err != nil {
		return nil, err
	}
	return &callNode{fn: name.text, column: col}, nil
}

func (p *parser) parseOperand() (operand, error) {
	tok := p.next()
	switch tok.kind {
	case tokIdent:
		return p.columnRef(tok)
	case tokNumber:
		f, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			return nil, p.errf(tok, "malformed number literal")
		}
		return &literalOperand{value: coerce.Value{Type: coerce.TypeFloat, Float: f}}, nil
	case tokString:
		return &literalOperand{value: coerce.Value{Type: coerce.TypeString, Str: tok.text}}, nil
	}
	return nil, p.errf(tok, "expected column, number, or string")
}

func (p *parser) columnRef(tok token) (*columnOperand, error) {
	typ, ok := p.columns[tok.text]
	if !ok {
		return nil, p.errf(tok, "unknown column")
	}
	return &columnOperand{name: tok.text, typ: typ}, nil
}
