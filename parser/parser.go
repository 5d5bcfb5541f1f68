// ==============================================================================================
// FILE: parser/parser.go
// ==============================================================================================
// PACKAGE: parser
// PURPOSE: Recursive-descent parser with Pratt-style expression precedence
//          climbing. Converts the lexer's token stream into the AST
//          package's node tree. Defines the grammar and syntax rules of
//          the language.
// ==============================================================================================
package parser

import (
	"strconv"
	"strings"

	"github.com/ckl-lang/ckl/ast"
	"github.com/ckl-lang/ckl/lexer"
	langerrors "github.com/ckl-lang/ckl/lang/errors"
	"github.com/ckl-lang/ckl/token"
)

// Precedence levels, lowest to highest.
const (
	_ int = iota
	LOWEST
	OR_PREC
	AND_PREC
	NOT_PREC
	COMPARE
	IN_PREC
	ADD
	MUL
	PREFIX
	PIPE
	CALL
	INDEX
)

var binPrecedence = map[string]int{
	"or":  OR_PREC,
	"and": AND_PREC,
	"==":  COMPARE, "<>": COMPARE, "!=": COMPARE,
	"<": COMPARE, ">": COMPARE, "<=": COMPARE, ">=": COMPARE,
	// `is` falls through to equality only when parsePredicateSuffix
	// couldn't make a recognized predicate out of what follows it.
	"is": COMPARE,
	"in": IN_PREC,
	"+":  ADD, "-": ADD,
	"*": MUL, "/": MUL, "%": MUL,
	"!>": PIPE,
}

// Parser holds parse state over a token Cursor.
type Parser struct {
	c        *lexer.Cursor
	filename string
}

func New(toks []token.Token, filename string) *Parser {
	return &Parser{c: lexer.NewCursor(toks), filename: filename}
}

// ParseProgram parses a whole source file/REPL chunk into a single Block
// node whose Statements are the top-level statements.
func ParseProgram(source, filename string) (ast.Node, error) {
	toks, err := lexer.Scan(source, filename)
	if err != nil {
		if le, ok := err.(*lexer.Error); ok {
			return nil, langerrors.NewSyntaxError(le.Pos, le.Msg)
		}
		return nil, err
	}
	p := New(toks, filename)
	return p.parseProgram()
}

func (p *Parser) parseProgram() (ast.Node, error) {
	startTok := p.c.Peek()
	stmts, err := p.parseStatementList(func() bool { return !p.c.HasNext() })
	if err != nil {
		return nil, err
	}
	return &ast.Block{Base: ast.NewBase(startTok), Statements: stmts}, nil
}

// parseStatementList parses statements until done() reports true, folding a
// bare string literal that immediately precedes a `def` into that def's
// Doc field instead of keeping it as its own statement.
func (p *Parser) parseStatementList(done func() bool) ([]ast.Node, error) {
	var stmts []ast.Node
	var pendingDoc string
	havePendingDoc := false
	for !done() {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		if lit, ok := stmt.(*ast.StringLiteral); ok && p.c.Peekn(0, "def", nil) {
			pendingDoc = lit.Value
			havePendingDoc = true
			for p.c.MatchIf(";") {
			}
			continue
		}
		if havePendingDoc {
			if def, ok := stmt.(*ast.Def); ok {
				def.Doc = pendingDoc
			}
			havePendingDoc = false
		}
		stmts = append(stmts, stmt)
		for p.c.MatchIf(";") {
		}
	}
	return stmts, nil
}

func (p *Parser) errf(format string, args ...interface{}) error {
	return langerrors.NewSyntaxError(p.c.Pos(), format, args...)
}

// checkAssignable rejects assignment to any identifier beginning with
// "checkerlang_"; those names are reserved and read-only.
func (p *Parser) checkAssignable(name string) error {
	if strings.HasPrefix(name, "checkerlang_") {
		return p.errf("cannot assign to reserved identifier %q", name)
	}
	return nil
}

// ---- statements ----

func (p *Parser) parseStatement() (ast.Node, error) {
	tok := p.c.Peek()
	switch {
	case p.c.MatchIf("def"):
		return p.parseDef(tok)
	case p.c.MatchIf("require"):
		return p.parseRequire(tok)
	case p.c.MatchIf("break"):
		return &ast.Break{Base: ast.NewBase(tok)}, nil
	case p.c.MatchIf("continue"):
		return &ast.Continue{Base: ast.NewBase(tok)}, nil
	case p.c.MatchIf("return"):
		return p.parseReturn(tok)
	case p.c.MatchIf("error"):
		val, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		return &ast.ErrorRaise{Base: ast.NewBase(tok), Value: val}, nil
	}
	if p.c.Peekn(0, "[", nil) {
		if node, ok, err := p.tryDestructuringAssign(tok); ok {
			return node, err
		}
	}
	return p.parseExpression(LOWEST)
}

func (p *Parser) parseDef(tok token.Token) (ast.Node, error) {
	if p.c.Peekn(0, "[", nil) {
		p.c.Next()
		names, err := p.parseNameList("]")
		if err != nil {
			return nil, err
		}
		if _, err := p.c.Match("=", token.OPERATOR); err != nil {
			return nil, err
		}
		val, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		return &ast.DefDestructuring{Base: ast.NewBase(tok), Names: names, Value: val}, nil
	}
	name, err := p.c.MatchIdentifier()
	if err != nil {
		return nil, err
	}
	if _, err := p.c.Match("=", token.OPERATOR); err != nil {
		return nil, err
	}
	val, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	return &ast.Def{Base: ast.NewBase(tok), Name: name.Value, Value: val}, nil
}

func (p *Parser) parseNameList(closing string) ([]string, error) {
	var names []string
	for !p.c.Peekn(0, closing, nil) {
		id, err := p.c.MatchIdentifier()
		if err != nil {
			return nil, err
		}
		names = append(names, id.Value)
		if !p.c.MatchIf(",") {
			break
		}
	}
	if _, err := p.c.Match(closing, token.INTERPUNCT); err != nil {
		return nil, err
	}
	return names, nil
}

func (p *Parser) tryDestructuringAssign(tok token.Token) (ast.Node, bool, error) {
	mark := p.c.Mark()
	p.c.Next() // '['
	names, err := p.parseNameList("]")
	if err != nil || !p.c.Peekn(0, "=", nil) || p.c.Peekn(1, "=", nil) {
		p.c.Reset(mark)
		return nil, false, nil
	}
	for _, name := range names {
		if err := p.checkAssignable(name); err != nil {
			return nil, true, err
		}
	}
	p.c.Next()
	val, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, true, err
	}
	return &ast.AssignDestructuring{Base: ast.NewBase(tok), Names: names, Value: val}, true, nil
}

func (p *Parser) parseReturn(tok token.Token) (ast.Node, error) {
	if p.atStatementEnd() {
		return &ast.Return{Base: ast.NewBase(tok)}, nil
	}
	val, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	return &ast.Return{Base: ast.NewBase(tok), Value: val}, nil
}

func (p *Parser) atStatementEnd() bool {
	t := p.c.Peek()
	if t.Kind == token.EOF {
		return true
	}
	switch t.Value {
	case ";", "end", "else", "elif", "catch", "finally":
		return true
	}
	return false
}

func (p *Parser) parseRequire(tok token.Token) (ast.Node, error) {
	spec, err := p.parseExpression(ADD)
	if err != nil {
		return nil, err
	}
	req := &ast.Require{Base: ast.NewBase(tok), ModuleSpec: spec, Mode: "qualified"}
	if p.c.MatchIf("as") {
		id, err := p.c.MatchIdentifier()
		if err != nil {
			return nil, err
		}
		req.Alias = id.Value
	} else if p.c.MatchIf("unqualified") {
		req.Mode = "unqualified"
	} else if p.c.Peekn(0, ",", nil) || p.c.Peekn(0, "import", nil) {
		p.c.MatchIf("import")
		req.Mode = "import"
		for {
			id, err := p.c.MatchIdentifier()
			if err != nil {
				return nil, err
			}
			spec := ast.ImportSpec{Name: id.Value}
			if p.c.MatchIf("as") {
				alias, err := p.c.MatchIdentifier()
				if err != nil {
					return nil, err
				}
				spec.Alias = alias.Value
			}
			req.Imports = append(req.Imports, spec)
			if !p.c.MatchIf(",") {
				break
			}
		}
	}
	return req, nil
}

// ---- expressions: precedence climbing ----

func (p *Parser) parseExpression(minPrec int) (ast.Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	left, err = p.parsePredicateSuffix(left)
	if err != nil {
		return nil, err
	}
	for {
		t := p.c.Peek()
		prec, ok := binPrecedence[t.Value]
		if t.Value == "not" && p.c.Peekn(1, "in", nil) {
			prec, ok = IN_PREC, true
		}
		if !ok || prec < minPrec {
			break
		}
		if prec == COMPARE {
			left, err = p.parseRelChain(left)
			if err != nil {
				return nil, err
			}
			continue
		}
		tok := p.c.Next()
		negate := false
		if tok.Value == "not" {
			if _, err := p.c.Match("in", token.KEYWORD); err != nil {
				return nil, err
			}
			tok.Value = "in"
			negate = true
		}
		right, err := p.parseExpression(prec + 1)
		if err != nil {
			return nil, err
		}
		left = p.makeBinary(tok, left, right, negate)
	}
	return left, nil
}

// parseRelChain folds chained comparisons: `a <op1> b <op2> c ...`
// desugars to `a <op1> b and b <op2> c and ...`, the rhs of each
// comparison becoming the lhs of the next.
func (p *Parser) parseRelChain(first ast.Node) (ast.Node, error) {
	lhs := first
	var chain ast.Node
	for {
		t := p.c.Peek()
		prec, ok := binPrecedence[t.Value]
		if !ok || prec != COMPARE {
			break
		}
		tok := p.c.Next()
		rhs, err := p.parseExpression(COMPARE + 1)
		if err != nil {
			return nil, err
		}
		clause := p.makeBinary(tok, lhs, rhs, false)
		if chain == nil {
			chain = clause
		} else {
			chain = &ast.And{Base: ast.NewBase(tok), Left: chain, Right: clause}
		}
		lhs = rhs
	}
	return chain, nil
}

func (p *Parser) makeBinary(tok token.Token, left, right ast.Node, negate bool) ast.Node {
	base := ast.NewBase(tok)
	switch tok.Value {
	case "and":
		return &ast.And{Base: base, Left: left, Right: right}
	case "or":
		return &ast.Or{Base: base, Left: left, Right: right}
	case "in":
		return &ast.In{Base: base, Left: left, Right: right, Negate: negate}
	case "!>":
		// Pipeline: `a !> f` desugars to `f(a)`.
		return &ast.Funcall{Base: base, Callee: right, Args: []ast.Arg{{Value: left}}}
	default:
		// Every operator here desugars to a call to the real,
		// user-visible builtin of the same operation, so `a < b` and
		// `less(a, b)` produce the identical Funcall node.
		name := opName(tok.Value)
		return &ast.Funcall{
			Base:   base,
			Callee: &ast.Identifier{Base: base, Name: name},
			Args:   []ast.Arg{{Value: left}, {Value: right}},
		}
	}
}

func opName(op string) string {
	switch op {
	case "+":
		return "add"
	case "-":
		return "sub"
	case "*":
		return "mul"
	case "/":
		return "div"
	case "%":
		return "mod"
	case "==":
		return "equals"
	case "<>", "!=":
		return "not_equals"
	case "<":
		return "less"
	case ">":
		return "greater"
	case "<=":
		return "less_equals"
	case ">=":
		return "greater_equals"
	case "!>":
		return "pipe"
	case "is":
		return "equals"
	}
	return op
}

// predicateTypeTags is the closed set of type names the `is` predicate
// suffix tests against dynamically: `x is <tag>` desugars to
// `equals(type(x), "<tag>")`.
var predicateTypeTags = map[string]bool{
	"string": true, "int": true, "decimal": true, "boolean": true,
	"pattern": true, "date": true, "null": true, "func": true,
	"input": true, "output": true, "list": true, "set": true,
	"map": true, "object": true, "node": true,
}

// parsePredicateSuffix handles the predicate-suffix sub-grammar:
// `is [not] P` for a closed set of P shapes, plus the bare suffix forms
// `starts/ends [not] with`, `contains [not]`, `matches [not]` (`[not]
// in` is a binary operator in parseExpression). Both require multi-token lookahead, and a failed `is [not] P`
// match must rewind and let `is` fall through as the equality operator
// rather than becoming a syntax error.
func (p *Parser) parsePredicateSuffix(left ast.Node) (ast.Node, error) {
	for {
		node, matched, err := p.parseIsSuffix(left)
		if err != nil {
			return nil, err
		}
		if matched {
			left = node
			continue
		}
		node, matched, err = p.parseBareSuffix(left)
		if err != nil {
			return nil, err
		}
		if matched {
			left = node
			continue
		}
		return left, nil
	}
}

func (p *Parser) parseIsSuffix(left ast.Node) (ast.Node, bool, error) {
	if !p.c.Peekn(0, "is", nil) {
		return left, false, nil
	}
	mark := p.c.Mark()
	isTok := p.c.Next()
	negate := p.c.MatchIf("not")
	node, ok, err := p.parseIsPredicate(left, isTok)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		p.c.Reset(mark)
		return left, false, nil
	}
	if negate {
		node = &ast.Not{Base: ast.NewBase(isTok), Operand: node}
	}
	return node, true, nil
}

// parseIsPredicate tries to consume one of the closed set of predicate
// shapes following `is [not]`. ok is false (with no tokens consumed
// beyond those already backtrack-safe under the caller's Mark) when
// nothing recognized follows.
func (p *Parser) parseIsPredicate(left ast.Node, isTok token.Token) (ast.Node, bool, error) {
	base := ast.NewBase(isTok)
	switch {
	case p.c.Peekn(0, "empty", nil):
		p.c.Next()
		return call1(base, "is_empty", left), true, nil
	case p.c.Peekn(0, "zero", nil):
		p.c.Next()
		return call1(base, "is_zero", left), true, nil
	case p.c.Peekn(0, "negative", nil):
		p.c.Next()
		return call1(base, "is_negative", left), true, nil
	case p.c.Peekn(0, "numerical", nil) || p.c.Peekn(0, "alphanumerical", nil):
		name := "is_" + p.c.Next().Value
		minN, maxN, err := p.parseLenQualifiers(base)
		if err != nil {
			return nil, false, err
		}
		return callN(base, name, call1(base, "string", left), minN, maxN), true, nil
	case p.c.Peekn(0, "date", nil):
		p.c.Next()
		layout := "yyyyMMdd"
		if p.c.MatchIf("with", "hour") {
			layout = "yyyyMMddHH"
		}
		return callN(base, "is_valid_date", call1(base, "string", left), strLit(base, layout)), true, nil
	case p.c.Peekn(0, "time", nil):
		p.c.Next()
		return callN(base, "is_valid_time", call1(base, "string", left), strLit(base, "HHmm")), true, nil
	case p.c.Peekn(0, "in", nil):
		p.c.Next()
		rhs, err := p.parseExpression(IN_PREC + 1)
		if err != nil {
			return nil, false, err
		}
		return &ast.In{Base: base, Left: left, Right: rhs}, true, nil
	}
	if p.c.Peek().Kind == token.IDENTIFIER && predicateTypeTags[p.c.Peek().Value] {
		tag := p.c.Next().Value
		return callN(base, "equals", call1(base, "type", left), strLit(base, tag)), true, nil
	}
	return left, false, nil
}

// parseLenQualifiers consumes zero or more `min_len N` / `max_len N` /
// `exact_len N` qualifiers following `numerical`/`alphanumerical`,
// defaulting to `null` (no bound).
func (p *Parser) parseLenQualifiers(base ast.Base) (ast.Node, ast.Node, error) {
	var minN, maxN ast.Node = &ast.NullLiteral{Base: base}, &ast.NullLiteral{Base: base}
	for {
		switch {
		case p.c.Peekn(0, "min_len", nil):
			p.c.Next()
			n, err := p.parseExpression(PREFIX)
			if err != nil {
				return nil, nil, err
			}
			minN = n
		case p.c.Peekn(0, "max_len", nil):
			p.c.Next()
			n, err := p.parseExpression(PREFIX)
			if err != nil {
				return nil, nil, err
			}
			maxN = n
		case p.c.Peekn(0, "exact_len", nil):
			p.c.Next()
			n, err := p.parseExpression(PREFIX)
			if err != nil {
				return nil, nil, err
			}
			minN, maxN = n, n
		default:
			return minN, maxN, nil
		}
	}
}

// parseBareSuffix handles the suffix-style predicates that aren't
// introduced by `is`: `starts/ends [not] with EXPR`, `contains [not]
// EXPR`, `matches [not] EXPR`. `[not] in` is handled as an ordinary
// binary operator in parseExpression instead, since it needs no `with`
// companion token.
func (p *Parser) parseBareSuffix(left ast.Node) (ast.Node, bool, error) {
	for _, kw := range [...]string{"starts", "ends"} {
		if node, ok, err := p.tryWithSuffix(left, kw, kw+"_with"); err != nil || ok {
			return node, ok, err
		}
	}
	if node, ok, err := p.tryBareCall(left, "contains", "contains"); err != nil || ok {
		return node, ok, err
	}
	if node, ok, err := p.tryBareCall(left, "matches", "matches"); err != nil || ok {
		return node, ok, err
	}
	return left, false, nil
}

func (p *Parser) tryWithSuffix(left ast.Node, keyword, builtin string) (ast.Node, bool, error) {
	tok := p.c.Peek()
	if p.c.MatchIf(keyword, "with") {
		rhs, err := p.parseExpression(COMPARE + 1)
		if err != nil {
			return nil, false, err
		}
		return callN(ast.NewBase(tok), builtin, left, rhs), true, nil
	}
	if p.c.MatchIf(keyword, "not", "with") {
		rhs, err := p.parseExpression(COMPARE + 1)
		if err != nil {
			return nil, false, err
		}
		base := ast.NewBase(tok)
		return &ast.Not{Base: base, Operand: callN(base, builtin, left, rhs)}, true, nil
	}
	return left, false, nil
}

func (p *Parser) tryBareCall(left ast.Node, keyword, builtin string) (ast.Node, bool, error) {
	tok := p.c.Peek()
	if p.c.MatchIf(keyword, "not") {
		rhs, err := p.parseExpression(COMPARE + 1)
		if err != nil {
			return nil, false, err
		}
		base := ast.NewBase(tok)
		return &ast.Not{Base: base, Operand: callN(base, builtin, left, rhs)}, true, nil
	}
	if p.c.MatchIf(keyword) {
		rhs, err := p.parseExpression(COMPARE + 1)
		if err != nil {
			return nil, false, err
		}
		return callN(ast.NewBase(tok), builtin, left, rhs), true, nil
	}
	return left, false, nil
}

func call1(base ast.Base, name string, arg ast.Node) ast.Node {
	return &ast.Funcall{Base: base, Callee: &ast.Identifier{Base: base, Name: name}, Args: []ast.Arg{{Value: arg}}}
}

func callN(base ast.Base, name string, args ...ast.Node) ast.Node {
	out := make([]ast.Arg, len(args))
	for i, a := range args {
		out[i] = ast.Arg{Value: a}
	}
	return &ast.Funcall{Base: base, Callee: &ast.Identifier{Base: base, Name: name}, Args: out}
}

func strLit(base ast.Base, s string) ast.Node {
	return &ast.StringLiteral{Base: base, Value: s}
}

func (p *Parser) parseUnary() (ast.Node, error) {
	tok := p.c.Peek()
	switch tok.Value {
	case "not":
		p.c.Next()
		operand, err := p.parseExpression(NOT_PREC)
		if err != nil {
			return nil, err
		}
		return &ast.Not{Base: ast.NewBase(tok), Operand: operand}, nil
	case "-":
		p.c.Next()
		operand, err := p.parseExpression(PREFIX)
		if err != nil {
			return nil, err
		}
		base := ast.NewBase(tok)
		// A literal int/decimal operand folds the sign directly into
		// the literal; any other operand desugars to sub(0, x) rather
		// than a dedicated negation built-in.
		switch lit := operand.(type) {
		case *ast.IntLiteral:
			lit.Value = -lit.Value
			return lit, nil
		case *ast.DecimalLiteral:
			lit.Value = -lit.Value
			return lit, nil
		}
		return &ast.Funcall{
			Base:   base,
			Callee: &ast.Identifier{Base: base, Name: "sub"},
			Args:   []ast.Arg{{Value: &ast.IntLiteral{Base: base, Value: 0}}, {Value: operand}},
		}, nil
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (ast.Node, error) {
	node, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.c.Peek()
		switch {
		case tok.Value == "(":
			node, err = p.parseCall(node)
		case tok.Value == "[":
			node, err = p.parseIndex(node)
		case tok.Value == "->":
			node, err = p.parseArrow(node)
		default:
			return node, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

func (p *Parser) parseCall(callee ast.Node) (ast.Node, error) {
	tok := p.c.Next() // '('
	args, err := p.parseArgs(")")
	if err != nil {
		return nil, err
	}
	return &ast.Funcall{Base: ast.NewBase(tok), Callee: callee, Args: args}, nil
}

func (p *Parser) parseArgs(closing string) ([]ast.Arg, error) {
	var args []ast.Arg
	for !p.c.Peekn(0, closing, nil) {
		if p.c.MatchIf("...") {
			val, err := p.parseExpression(ADD)
			if err != nil {
				return nil, err
			}
			args = append(args, ast.Arg{Value: val, Spread: true})
		} else if p.c.Peekn(0, "", &identKind) && p.c.Peekn(1, "=", nil) && !p.c.Peekn(2, "=", nil) {
			id, _ := p.c.MatchIdentifier()
			p.c.Next() // '='
			val, err := p.parseExpression(ADD)
			if err != nil {
				return nil, err
			}
			args = append(args, ast.Arg{Name: id.Value, Value: val})
		} else {
			val, err := p.parseExpression(LOWEST)
			if err != nil {
				return nil, err
			}
			args = append(args, ast.Arg{Value: val})
		}
		if !p.c.MatchIf(",") {
			break
		}
	}
	if _, err := p.c.Match(closing, token.INTERPUNCT); err != nil {
		return nil, err
	}
	return args, nil
}

var identKind = token.IDENTIFIER

func (p *Parser) parseIndex(target ast.Node) (ast.Node, error) {
	tok := p.c.Next() // '['
	idx, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	var def ast.Node
	if p.c.MatchIf(",") {
		def, err = p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.c.Match("]", token.INTERPUNCT); err != nil {
		return nil, err
	}
	node := &ast.Deref{Base: ast.NewBase(tok), Target: target, Index: idx, Default: def}
	if p.c.Peekn(0, "=", nil) && !p.c.Peekn(1, "=", nil) {
		p.c.Next()
		val, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		return &ast.DerefAssign{Base: ast.NewBase(tok), Target: target, Index: idx, Value: val}, nil
	}
	return node, nil
}

func (p *Parser) parseArrow(target ast.Node) (ast.Node, error) {
	tok := p.c.Next() // '->'
	name, err := p.c.MatchIdentifier()
	if err != nil {
		return nil, err
	}
	if p.c.Peekn(0, "(", nil) {
		p.c.Next()
		args, err := p.parseArgs(")")
		if err != nil {
			return nil, err
		}
		return &ast.DerefInvoke{Base: ast.NewBase(tok), Target: target, Name: name.Value, Args: args}, nil
	}
	node := ast.Node(&ast.Deref{Base: ast.NewBase(tok), Target: target, IsArrow: true, Name: name.Value})
	if p.c.Peekn(0, "=", nil) && !p.c.Peekn(1, "=", nil) {
		p.c.Next()
		val, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		return &ast.DerefAssign{Base: ast.NewBase(tok), Target: target, IsArrow: true, Name: name.Value, Value: val}, nil
	}
	return node, nil
}

func (p *Parser) parsePrimary() (ast.Node, error) {
	tok := p.c.Peek()
	switch tok.Kind {
	case token.INT:
		p.c.Next()
		n, err := parseIntLiteral(tok.Value)
		if err != nil {
			return nil, p.errf("invalid integer literal %q", tok.Value)
		}
		return &ast.IntLiteral{Base: ast.NewBase(tok), Value: n}, nil
	case token.DECIMAL:
		p.c.Next()
		f, err := strconv.ParseFloat(strings.ReplaceAll(tok.Value, "_", ""), 64)
		if err != nil {
			return nil, p.errf("invalid decimal literal %q", tok.Value)
		}
		return &ast.DecimalLiteral{Base: ast.NewBase(tok), Value: f}, nil
	case token.STRING:
		p.c.Next()
		return &ast.StringLiteral{Base: ast.NewBase(tok), Value: tok.Value}, nil
	case token.PATTERN:
		p.c.Next()
		return &ast.PatternLiteral{Base: ast.NewBase(tok), Source: tok.Value}, nil
	case token.BOOLEAN:
		p.c.Next()
		return &ast.BooleanLiteral{Base: ast.NewBase(tok), Value: tok.Value == "TRUE"}, nil
	}

	switch {
	case p.c.MatchIf("null"):
		return &ast.NullLiteral{Base: ast.NewBase(tok)}, nil
	case p.c.MatchIf("("):
		inner, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		if _, err := p.c.Match(")", token.INTERPUNCT); err != nil {
			return nil, err
		}
		return inner, nil
	case p.c.Peekn(0, "[", nil):
		return p.parseListLiteral()
	case p.c.Peekn(0, "<<<", nil):
		return p.parseMapLiteral()
	case p.c.Peekn(0, "<<", nil):
		return p.parseSetLiteral()
	case p.c.Peekn(0, "<*", nil):
		return p.parseObjectLiteral()
	case p.c.Peekn(0, "fn", nil) || p.c.Peekn(0, "def", nil):
		return p.parseLambda()
	case p.c.MatchIf("if"):
		return p.parseIf(tok)
	case p.c.MatchIf("for"):
		return p.parseFor(tok)
	case p.c.MatchIf("while"):
		return p.parseWhile(tok)
	case p.c.MatchIf("do"):
		return p.parseBlock(tok)
	case p.c.Peekn(0, "...", nil):
		p.c.Next()
		val, err := p.parseExpression(ADD)
		if err != nil {
			return nil, err
		}
		return &ast.Spread{Base: ast.NewBase(tok), Value: val}, nil
	}

	if tok.Kind == token.IDENTIFIER {
		p.c.Next()
		ident := &ast.Identifier{Base: ast.NewBase(tok), Name: tok.Value}
		if p.c.Peekn(0, "=", nil) && !p.c.Peekn(1, "=", nil) {
			p.c.Next()
			if err := p.checkAssignable(tok.Value); err != nil {
				return nil, err
			}
			val, err := p.parseExpression(LOWEST)
			if err != nil {
				return nil, err
			}
			return &ast.Assign{Base: ast.NewBase(tok), Name: tok.Value, Value: val}, nil
		}
		for _, compound := range []string{"+=", "-=", "*=", "/=", "%="} {
			if p.c.Peekn(0, compound, nil) {
				p.c.Next()
				if err := p.checkAssignable(tok.Value); err != nil {
					return nil, err
				}
				rhs, err := p.parseExpression(LOWEST)
				if err != nil {
					return nil, err
				}
				base := ast.NewBase(tok)
				op := strings.TrimSuffix(compound, "=")
				// `x += 1` desugars to `x = add(x, 1)`, the same named
				// builtin the bare `+` operator calls (makeBinary).
				call := &ast.Funcall{
					Base:   base,
					Callee: &ast.Identifier{Base: base, Name: opName(op)},
					Args:   []ast.Arg{{Value: ident}, {Value: rhs}},
				}
				return &ast.Assign{Base: base, Name: tok.Value, Value: call}, nil
			}
		}
		return ident, nil
	}

	if tok.Kind == token.EOF {
		return nil, p.errf("Unexpected end of input")
	}
	return nil, p.errf("unexpected token %q", tok.Value)
}

func parseIntLiteral(s string) (int64, error) {
	s = strings.ReplaceAll(s, "_", "")
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return strconv.ParseInt(s[2:], 16, 64)
	}
	if strings.HasPrefix(s, "0b") || strings.HasPrefix(s, "0B") {
		return strconv.ParseInt(s[2:], 2, 64)
	}
	return strconv.ParseInt(s, 10, 64)
}

// ---- compound forms ----

func (p *Parser) parseLambda() (ast.Node, error) {
	tok := p.c.Next() // 'fn' or 'def'
	if _, err := p.c.Match("(", token.INTERPUNCT); err != nil {
		return nil, err
	}
	var params []ast.Param
	for !p.c.Peekn(0, ")", nil) {
		name, err := p.c.MatchIdentifier()
		if err != nil {
			return nil, err
		}
		param := ast.Param{Name: name.Value}
		if p.c.MatchIf("...") {
			param.Rest = true
		} else if p.c.Peekn(0, "=", nil) && !p.c.Peekn(1, "=", nil) {
			p.c.Next()
			def, err := p.parseExpression(ADD)
			if err != nil {
				return nil, err
			}
			param.Default = def
		}
		params = append(params, param)
		if !p.c.MatchIf(",") {
			break
		}
	}
	if _, err := p.c.Match(")", token.INTERPUNCT); err != nil {
		return nil, err
	}
	body, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	return &ast.Lambda{Base: ast.NewBase(tok), Params: params, Body: body}, nil
}

func (p *Parser) parseIf(tok token.Token) (ast.Node, error) {
	node := &ast.If{Base: ast.NewBase(tok)}
	for {
		cond, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		if _, err := p.c.Match("then", token.KEYWORD); err != nil {
			return nil, err
		}
		then, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		node.Branches = append(node.Branches, ast.IfBranch{Cond: cond, Then: then})
		if p.c.MatchIf("elif") {
			continue
		}
		break
	}
	if p.c.MatchIf("else") {
		els, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		node.Else = els
	}
	return node, nil
}

func (p *Parser) parseFor(tok token.Token) (ast.Node, error) {
	names, err := p.parseLoopNames()
	if err != nil {
		return nil, err
	}
	if _, err := p.c.Match("in", token.KEYWORD); err != nil {
		return nil, err
	}
	variant := p.matchVariant()
	iterable, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	// The body is a plain expression; a multi-statement body is written
	// as a `do ... end` block, which is itself one expression form.
	body, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	return &ast.For{Base: ast.NewBase(tok), Names: names, Variant: variant, Iterable: iterable, Body: body}, nil
}

// matchVariant consumes an optional keys/values/entries selector right
// after `in`; a bare `for k in keys` therefore reads `keys` as the
// selector, not as a variable named keys.
func (p *Parser) matchVariant() string {
	for _, v := range []string{"keys", "values", "entries"} {
		if p.c.MatchIf(v) {
			return v
		}
	}
	return "values"
}

func (p *Parser) parseLoopNames() ([]string, error) {
	if p.c.MatchIf("[") {
		return p.parseNameList("]")
	}
	id, err := p.c.MatchIdentifier()
	if err != nil {
		return nil, err
	}
	return []string{id.Value}, nil
}

func (p *Parser) parseWhile(tok token.Token) (ast.Node, error) {
	cond, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	// Same body rule as for-loops: one expression, usually a do-block.
	body, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	return &ast.While{Base: ast.NewBase(tok), Cond: cond, Body: body}, nil
}

// parseClauseBody parses the statement list making up a catch/finally
// clause body, using the same termination rule as the enclosing block.
func (p *Parser) parseClauseBody() (ast.Node, error) {
	tok := p.c.Peek()
	bodyEnd := func() bool {
		return p.c.Peekn(0, "end", nil) || p.c.Peekn(0, "catch", nil) || p.c.Peekn(0, "finally", nil)
	}
	stmts, err := p.parseStatementList(bodyEnd)
	if err != nil {
		return nil, err
	}
	return &ast.Block{Base: ast.NewBase(tok), Statements: stmts}, nil
}

func (p *Parser) parseBlock(tok token.Token) (ast.Node, error) {
	bodyEnd := func() bool {
		return p.c.Peekn(0, "end", nil) || p.c.Peekn(0, "catch", nil) || p.c.Peekn(0, "finally", nil)
	}
	stmts, err := p.parseStatementList(bodyEnd)
	if err != nil {
		return nil, err
	}
	block := &ast.Block{Base: ast.NewBase(tok), Statements: stmts}
	for p.c.MatchIf("catch") {
		var valExpr ast.Node
		if p.c.MatchIf("all") {
			valExpr = nil
		} else {
			v, err := p.parseExpression(LOWEST)
			if err != nil {
				return nil, err
			}
			valExpr = v
		}
		body, err := p.parseClauseBody()
		if err != nil {
			return nil, err
		}
		p.c.MatchIf(";")
		block.Catches = append(block.Catches, ast.CatchClause{ValueExpr: valExpr, Body: body})
	}
	if p.c.MatchIf("finally") {
		body, err := p.parseClauseBody()
		if err != nil {
			return nil, err
		}
		p.c.MatchIf(";")
		block.Finally = body
	}
	if _, err := p.c.Match("end", token.KEYWORD); err != nil {
		return nil, err
	}
	return block, nil
}

// ---- container literals & comprehensions ----

func (p *Parser) parseListLiteral() (ast.Node, error) {
	tok := p.c.Next() // '['
	if p.c.Peekn(0, "]", nil) {
		p.c.Next()
		return &ast.ListLiteral{Base: ast.NewBase(tok)}, nil
	}
	first, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	if p.c.Peekn(0, "for", nil) || p.c.Peekn(0, "also", nil) {
		comp, err := p.parseComprehension()
		if err != nil {
			return nil, err
		}
		if _, err := p.c.Match("]", token.INTERPUNCT); err != nil {
			return nil, err
		}
		return &ast.ListLiteral{Base: ast.NewBase(tok), Comp: comp, Expr: first}, nil
	}
	elems := []ast.Node{first}
	for p.c.MatchIf(",") {
		e, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
	}
	if _, err := p.c.Match("]", token.INTERPUNCT); err != nil {
		return nil, err
	}
	return &ast.ListLiteral{Base: ast.NewBase(tok), Elements: elems}, nil
}

func (p *Parser) parseSetLiteral() (ast.Node, error) {
	tok := p.c.Next() // '<<'
	if p.c.Peekn(0, ">>", nil) {
		p.c.Next()
		return &ast.SetLiteral{Base: ast.NewBase(tok)}, nil
	}
	first, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	if p.c.Peekn(0, "for", nil) || p.c.Peekn(0, "also", nil) {
		comp, err := p.parseComprehension()
		if err != nil {
			return nil, err
		}
		if _, err := p.c.Match(">>", token.INTERPUNCT); err != nil {
			return nil, err
		}
		return &ast.SetLiteral{Base: ast.NewBase(tok), Comp: comp, Expr: first}, nil
	}
	elems := []ast.Node{first}
	for p.c.MatchIf(",") {
		e, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
	}
	if _, err := p.c.Match(">>", token.INTERPUNCT); err != nil {
		return nil, err
	}
	return &ast.SetLiteral{Base: ast.NewBase(tok), Elements: elems}, nil
}

// parseComprehension parses the `for id[,id] in [variant] src [also for
// ...] [if cond]` tail shared by list/set literals, plus nested `for`
// clauses joined by "also" (parallel); the Cartesian-product form is a
// plain nested comprehension left to the evaluator to flatten.
func (p *Parser) parseComprehension() (*ast.Comprehension, error) {
	comp := &ast.Comprehension{}
	join := ""
	for {
		if join == "" {
			if _, err := p.c.Match("for", token.KEYWORD); err != nil {
				return nil, err
			}
		} else if !p.c.MatchIf("for") {
			break
		}
		names, err := p.parseLoopNames()
		if err != nil {
			return nil, err
		}
		if _, err := p.c.Match("in", token.KEYWORD); err != nil {
			return nil, err
		}
		variant := p.matchVariant()
		src, err := p.parseExpression(IN_PREC + 1)
		if err != nil {
			return nil, err
		}
		comp.Clauses = append(comp.Clauses, ast.CompClause{Names: names, Variant: variant, Source: src, Join: join})
		if p.c.MatchIf("also") {
			join = "also"
			continue
		}
		join = "product"
		if !p.c.Peekn(0, "for", nil) {
			break
		}
	}
	if p.c.MatchIf("if") {
		cond, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		comp.Cond = cond
	}
	return comp, nil
}

func (p *Parser) parseMapLiteral() (ast.Node, error) {
	tok := p.c.Next() // '<<<'
	if p.c.Peekn(0, ">>>", nil) {
		p.c.Next()
		return &ast.MapLiteral{Base: ast.NewBase(tok)}, nil
	}
	keyExpr, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	if _, err := p.c.Match("=>", token.INTERPUNCT); err != nil {
		return nil, err
	}
	valExpr, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	if p.c.Peekn(0, "for", nil) {
		if _, err := p.c.Match("for", token.KEYWORD); err != nil {
			return nil, err
		}
		v, err := p.c.MatchIdentifier()
		if err != nil {
			return nil, err
		}
		if _, err := p.c.Match("in", token.KEYWORD); err != nil {
			return nil, err
		}
		variant := p.matchVariant()
		src, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		m := &ast.MapLiteral{Base: ast.NewBase(tok), Var: v.Value, Variant: variant, Source: src, KeyExpr: keyExpr, ValExpr: valExpr, IsComp: true}
		if p.c.MatchIf("if") {
			cond, err := p.parseExpression(LOWEST)
			if err != nil {
				return nil, err
			}
			m.Cond = cond
		}
		if _, err := p.c.Match(">>>", token.INTERPUNCT); err != nil {
			return nil, err
		}
		return m, nil
	}
	pairs := []ast.MapPair{{Key: keyExpr, Value: valExpr}}
	for p.c.MatchIf(",") {
		k, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		if _, err := p.c.Match("=>", token.INTERPUNCT); err != nil {
			return nil, err
		}
		v, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, ast.MapPair{Key: k, Value: v})
	}
	if _, err := p.c.Match(">>>", token.INTERPUNCT); err != nil {
		return nil, err
	}
	return &ast.MapLiteral{Base: ast.NewBase(tok), Pairs: pairs}, nil
}

func (p *Parser) parseObjectLiteral() (ast.Node, error) {
	tok := p.c.Next() // '<*'
	var pairs []ast.ObjectPair
	for !p.c.Peekn(0, "*>", nil) {
		id, err := p.c.MatchIdentifier()
		if err != nil {
			return nil, err
		}
		if _, err := p.c.Match("=", token.OPERATOR); err != nil {
			return nil, err
		}
		val, err := p.parseExpression(ADD)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, ast.ObjectPair{Key: id.Value, Value: val})
		if !p.c.MatchIf(",") {
			break
		}
	}
	if _, err := p.c.Match("*>", token.INTERPUNCT); err != nil {
		return nil, err
	}
	return &ast.ObjectLiteral{Base: ast.NewBase(tok), Pairs: pairs}, nil
}
