package parser

import (
	"fmt"
	"os"
	"unicode"

	"github.com/weldlang/weld/ast"
)

// Parser is a recursive-descent parser for weld source.
type Parser struct {
	lex  *Lexer
	cur  Token
	peek Token
	errs []error
	file string
}

// ParseFile reads and parses a weld source file.
func ParseFile(path string) (*ast.Program, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return ParseSource(string(src), path)
}

// ParseSource parses weld source text into a Program. The name parameter is
// used for error messages and diagnostics.
func ParseSource(source, name string) (*ast.Program, error) {
	p := &Parser{lex: NewLexer(source), file: name}
	p.next()
	p.next()
	prog := p.parseProgram()
	prog.SourceFile = name
	if err := p.firstError(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return prog, nil
}

func (p *Parser) firstError() error {
	if errs := p.lex.Errors(); len(errs) > 0 {
		return errs[0]
	}
	if len(p.errs) > 0 {
		return p.errs[0]
	}
	return nil
}

func (p *Parser) next() {
	p.cur = p.peek
	p.peek = p.lex.Next()
}

func (p *Parser) errorf(format string, args ...any) {
	p.errs = append(p.errs, fmt.Errorf("line %d: %s", p.cur.Line, fmt.Sprintf(format, args...)))
}

// expect consumes the current token if it has the wanted type, recording an
// error otherwise.
func (p *Parser) expect(t TokenType) Token {
	tok := p.cur
	if tok.Type != t {
		p.errorf("expected %q, got %q", t, tok.Literal)
		return tok
	}
	p.next()
	return tok
}

func (p *Parser) parseProgram() *ast.Program {
	prog := &ast.Program{}
	for p.cur.Type != EOF {
		if p.cur.Type == SEMICOLON {
			p.next()
			continue
		}
		before := p.cur
		s := p.parseStmt()
		if s != nil {
			prog.Statements = append(prog.Statements, s)
		}
		// Guarantee progress even on malformed input.
		if p.cur == before && p.cur.Type != EOF {
			p.next()
		}
	}
	return prog
}

func (p *Parser) parseBlock() []ast.Statement {
	p.expect(LBRACE)
	var stmts []ast.Statement
	for p.cur.Type != RBRACE && p.cur.Type != EOF {
		if p.cur.Type == SEMICOLON {
			p.next()
			continue
		}
		before := p.cur
		s := p.parseStmt()
		if s != nil {
			stmts = append(stmts, s)
		}
		if p.cur == before && p.cur.Type != RBRACE && p.cur.Type != EOF {
			p.next()
		}
	}
	p.expect(RBRACE)
	return stmts
}

func (p *Parser) parseStmt() ast.Statement {
	switch p.cur.Type {
	case INLINE:
		return p.parseTemplateDecl()
	case FUNC:
		return p.parseFuncDecl()
	case LET:
		return p.parseLetStmt()
	case IF:
		return p.parseIfStmt()
	case WHILE:
		line := p.cur.Line
		p.next()
		cond := p.parseExpr()
		body := p.parseBlock()
		return &ast.WhileStmt{BaseStmt: ast.BaseStmt{SourceLine: line}, Cond: cond, Body: body}
	case LOOP:
		line := p.cur.Line
		p.next()
		return &ast.LoopStmt{BaseStmt: ast.BaseStmt{SourceLine: line}, Body: p.parseBlock()}
	case FOR:
		return p.parseForStmt()
	case SWITCH:
		return p.parseSwitchStmt()
	case BREAK:
		line := p.cur.Line
		p.next()
		return &ast.BreakStmt{BaseStmt: ast.BaseStmt{SourceLine: line}}
	case CONTINUE:
		line := p.cur.Line
		p.next()
		return &ast.ContinueStmt{BaseStmt: ast.BaseStmt{SourceLine: line}}
	case RETURN:
		line := p.cur.Line
		p.next()
		var val ast.Expr
		if p.startsExpr() {
			val = p.parseExpr()
		}
		return &ast.ReturnStmt{BaseStmt: ast.BaseStmt{SourceLine: line}, Value: val}
	default:
		return p.parseSimpleStmt()
	}
}

// startsExpr reports whether the current token can begin an expression;
// used to detect bare returns.
func (p *Parser) startsExpr() bool {
	switch p.cur.Type {
	case IDENT, INT, FLOAT, STRING, TRUE, FALSE, NIL, LPAREN, LBRACKET,
		BANG, MINUS, PIPE, OR:
		return true
	}
	return false
}

// parseSimpleStmt parses a let, assignment, or expression statement — the
// forms allowed in for-loop init and post slots.
func (p *Parser) parseSimpleStmt() ast.Statement {
	if p.cur.Type == LET {
		return p.parseLetStmt()
	}
	line := p.cur.Line
	expr := p.parseExpr()
	if p.cur.Type == ASSIGN {
		p.next()
		value := p.parseExpr()
		switch target := expr.(type) {
		case *ast.IdentExpr:
			return &ast.AssignStmt{BaseStmt: ast.BaseStmt{SourceLine: line}, Target: target.Name, Value: value}
		case *ast.IndexExpr:
			return &ast.IndexAssignStmt{BaseStmt: ast.BaseStmt{SourceLine: line}, Object: target.Object, Index: target.Index, Value: value}
		case *ast.DotExpr:
			return &ast.DotAssignStmt{BaseStmt: ast.BaseStmt{SourceLine: line}, Object: target.Object, Field: target.Field, Value: value}
		default:
			p.errorf("invalid assignment target")
			return nil
		}
	}
	if expr == nil {
		return nil
	}
	return &ast.ExprStmt{BaseStmt: ast.BaseStmt{SourceLine: line}, Expression: expr}
}

func (p *Parser) parseLetStmt() ast.Statement {
	line := p.cur.Line
	p.expect(LET)
	name := p.expect(IDENT).Literal
	var typ *ast.Type
	if p.cur.Type == COLON {
		p.next()
		typ = p.parseType()
	}
	p.expect(ASSIGN)
	value := p.parseExpr()
	return &ast.LetStmt{BaseStmt: ast.BaseStmt{SourceLine: line}, Name: name, Type: typ, Value: value}
}

func (p *Parser) parseIfStmt() ast.Statement {
	line := p.cur.Line
	p.expect(IF)
	cond := p.parseExpr()
	body := p.parseBlock()
	var elseBody []ast.Statement
	if p.cur.Type == ELSE {
		p.next()
		if p.cur.Type == IF {
			elseBody = []ast.Statement{p.parseIfStmt()}
		} else {
			elseBody = p.parseBlock()
		}
	}
	return &ast.IfStmt{BaseStmt: ast.BaseStmt{SourceLine: line}, Cond: cond, Body: body, Else: elseBody}
}

func (p *Parser) parseForStmt() ast.Statement {
	line := p.cur.Line
	p.expect(FOR)
	if p.cur.Type == IDENT && p.peek.Type == IN {
		v := p.cur.Literal
		p.next()
		p.next()
		coll := p.parseExpr()
		body := p.parseBlock()
		return &ast.ForInStmt{BaseStmt: ast.BaseStmt{SourceLine: line}, Var: v, Collection: coll, Body: body}
	}
	var init, post ast.Statement
	var cond ast.Expr
	if p.cur.Type != SEMICOLON {
		init = p.parseSimpleStmt()
	}
	p.expect(SEMICOLON)
	if p.cur.Type != SEMICOLON {
		cond = p.parseExpr()
	}
	p.expect(SEMICOLON)
	if p.cur.Type != LBRACE {
		post = p.parseSimpleStmt()
	}
	body := p.parseBlock()
	return &ast.ForStmt{BaseStmt: ast.BaseStmt{SourceLine: line}, Init: init, Cond: cond, Post: post, Body: body}
}

func (p *Parser) parseSwitchStmt() ast.Statement {
	line := p.cur.Line
	p.expect(SWITCH)
	subject := p.parseExpr()
	p.expect(LBRACE)
	sw := &ast.SwitchStmt{BaseStmt: ast.BaseStmt{SourceLine: line}, Subject: subject}
	for p.cur.Type == CASE || p.cur.Type == DEFAULT {
		if p.cur.Type == CASE {
			p.next()
			values := []ast.Expr{p.parseExpr()}
			for p.cur.Type == COMMA {
				p.next()
				values = append(values, p.parseExpr())
			}
			p.expect(COLON)
			sw.Cases = append(sw.Cases, ast.SwitchCase{Values: values, Body: p.parseCaseBody()})
		} else {
			p.next()
			p.expect(COLON)
			sw.Default = p.parseCaseBody()
			sw.HasDflt = true
		}
	}
	p.expect(RBRACE)
	return sw
}

func (p *Parser) parseCaseBody() []ast.Statement {
	var stmts []ast.Statement
	for p.cur.Type != CASE && p.cur.Type != DEFAULT && p.cur.Type != RBRACE && p.cur.Type != EOF {
		if p.cur.Type == SEMICOLON {
			p.next()
			continue
		}
		before := p.cur
		s := p.parseStmt()
		if s != nil {
			stmts = append(stmts, s)
		}
		if p.cur == before {
			p.next()
		}
	}
	return stmts
}

func (p *Parser) parseFuncDecl() ast.Statement {
	line := p.cur.Line
	p.expect(FUNC)
	name := p.expect(IDENT).Literal
	p.expect(LPAREN)
	params := p.parseParams()
	p.expect(RPAREN)
	var result *ast.Type
	if p.cur.Type == COLON {
		p.next()
		result = p.parseType()
	}
	body := p.parseBlock()
	return &ast.FuncDecl{BaseStmt: ast.BaseStmt{SourceLine: line}, Name: name, Params: params, Result: result, Body: body}
}

func (p *Parser) parseTemplateDecl() ast.Statement {
	line := p.cur.Line
	p.expect(INLINE)
	p.expect(FUNC)
	p.expect(LPAREN)
	var recv ast.Param
	if p.cur.Type != RPAREN {
		recv = p.parseParam()
	}
	p.expect(RPAREN)
	name := p.expect(IDENT).Literal
	p.expect(LPAREN)
	params := p.parseParams()
	p.expect(RPAREN)
	var result *ast.Type
	if p.cur.Type == COLON {
		p.next()
		result = p.parseType()
	}
	decl := &ast.TemplateDecl{
		BaseStmt: ast.BaseStmt{SourceLine: line},
		Receiver: recv,
		Name:     name,
		Params:   params,
		Result:   result,
	}
	if p.cur.Type == ASSIGN {
		p.next()
		decl.Expr = p.parseExpr()
	} else {
		decl.Body = p.parseBlock()
	}
	return decl
}

func (p *Parser) parseParams() []ast.Param {
	var params []ast.Param
	for p.cur.Type == IDENT {
		params = append(params, p.parseParam())
		if p.cur.Type != COMMA {
			break
		}
		p.next()
	}
	return params
}

func (p *Parser) parseParam() ast.Param {
	name := p.expect(IDENT).Literal
	var typ *ast.Type
	if p.cur.Type == COLON {
		p.next()
		typ = p.parseType()
	}
	return ast.Param{Name: name, Type: typ}
}

func (p *Parser) parseType() *ast.Type {
	if p.cur.Type == LBRACKET {
		p.next()
		elem := p.parseType()
		p.expect(RBRACKET)
		return ast.ArrayOf(elem)
	}
	name := p.expect(IDENT).Literal
	switch name {
	case "int":
		return ast.IntType
	case "float":
		return ast.FloatType
	case "string":
		return ast.StringType
	case "bool":
		return ast.BoolType
	case "any":
		return ast.AnyType
	case "func":
		return ast.FuncType
	}
	if isTypeParamName(name) {
		return ast.ParamType(name)
	}
	p.errorf("unknown type %q", name)
	return ast.UnknownType
}

// isTypeParamName reports whether name is a template type parameter: a
// single uppercase letter.
func isTypeParamName(name string) bool {
	return len(name) == 1 && unicode.IsUpper(rune(name[0]))
}

// --- Expressions ---

// binaryPrec maps operator tokens to precedence levels; higher binds tighter.
var binaryPrec = map[TokenType]int{
	OR:       1,
	AND:      2,
	EQ:       3,
	NOT_EQ:   3,
	LT:       4,
	GT:       4,
	LE:       4,
	GE:       4,
	PLUS:     5,
	MINUS:    5,
	ASTERISK: 6,
	SLASH:    6,
	PERCENT:  6,
}

// parseExpr parses a full expression, including the ternary form.
func (p *Parser) parseExpr() ast.Expr {
	cond := p.parseBinaryExpr(1)
	if p.cur.Type != QUESTION {
		return cond
	}
	p.next()
	then := p.parseBinaryExpr(1)
	p.expect(COLON)
	// Right-associate on the else side.
	elseExpr := p.parseExpr()
	return &ast.TernaryExpr{Cond: cond, Then: then, Else: elseExpr}
}

func (p *Parser) parseBinaryExpr(minPrec int) ast.Expr {
	left := p.parseUnary()
	for {
		prec, ok := binaryPrec[p.cur.Type]
		if !ok || prec < minPrec {
			return left
		}
		op := p.cur.Literal
		p.next()
		right := p.parseBinaryExpr(prec + 1)
		left = &ast.BinaryExpr{Left: left, Op: op, Right: right}
	}
}

func (p *Parser) parseUnary() ast.Expr {
	switch p.cur.Type {
	case BANG, MINUS:
		op := p.cur.Literal
		p.next()
		return &ast.UnaryExpr{Op: op, Operand: p.parseUnary()}
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() ast.Expr {
	expr := p.parsePrimary()
	for {
		switch p.cur.Type {
		case LPAREN:
			p.next()
			var args []ast.Expr
			for p.cur.Type != RPAREN && p.cur.Type != EOF {
				args = append(args, p.parseExpr())
				if p.cur.Type != COMMA {
					break
				}
				p.next()
			}
			p.expect(RPAREN)
			expr = &ast.CallExpr{Func: expr, Args: args}
		case LBRACKET:
			p.next()
			idx := p.parseExpr()
			p.expect(RBRACKET)
			expr = &ast.IndexExpr{Object: expr, Index: idx}
		case DOT:
			p.next()
			field := p.expect(IDENT).Literal
			expr = &ast.DotExpr{Object: expr, Field: field}
		default:
			return expr
		}
	}
}

func (p *Parser) parsePrimary() ast.Expr {
	switch p.cur.Type {
	case INT:
		v := p.cur.Literal
		p.next()
		return &ast.IntLiteral{Value: v}
	case FLOAT:
		v := p.cur.Literal
		p.next()
		return &ast.FloatLiteral{Value: v}
	case STRING:
		v := p.cur.Literal
		p.next()
		return &ast.StringLiteral{Value: v}
	case TRUE:
		p.next()
		return &ast.BoolLiteral{Value: true}
	case FALSE:
		p.next()
		return &ast.BoolLiteral{Value: false}
	case NIL:
		p.next()
		return &ast.NilLiteral{}
	case IDENT:
		name := p.cur.Literal
		p.next()
		return &ast.IdentExpr{Name: name}
	case LPAREN:
		p.next()
		inner := p.parseExpr()
		p.expect(RPAREN)
		return &ast.ParenExpr{Inner: inner}
	case LBRACKET:
		p.next()
		var elems []ast.Expr
		for p.cur.Type != RBRACKET && p.cur.Type != EOF {
			elems = append(elems, p.parseExpr())
			if p.cur.Type != COMMA {
				break
			}
			p.next()
		}
		p.expect(RBRACKET)
		return &ast.ArrayLiteral{Elements: elems}
	case PIPE:
		return p.parseLambda()
	case OR:
		// `||` in expression-head position is an empty lambda parameter list.
		p.next()
		return p.finishLambda(nil)
	default:
		p.errorf("unexpected token %q", p.cur.Literal)
		return nil
	}
}

func (p *Parser) parseLambda() ast.Expr {
	p.expect(PIPE)
	var params []string
	for p.cur.Type == IDENT {
		params = append(params, p.cur.Literal)
		p.next()
		if p.cur.Type != COMMA {
			break
		}
		p.next()
	}
	p.expect(PIPE)
	return p.finishLambda(params)
}

func (p *Parser) finishLambda(params []string) ast.Expr {
	if p.cur.Type == LBRACE {
		return &ast.LambdaExpr{Params: params, Body: p.parseBlock()}
	}
	return &ast.LambdaExpr{Params: params, Expr: p.parseExpr()}
}
