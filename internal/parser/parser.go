// Package parser implements the ClassQL recursive-descent parser.
//
// Grammar, lowest precedence first:
//
//	Query   := OrExpr
//	OrExpr  := AndExpr ("or" AndExpr)*
//	AndExpr := NotExpr (("and")? NotExpr)*   adjacency is implicit AND
//	NotExpr := "not" NotExpr | Atom
//	Atom    := "(" Query ")" | FieldPredicate | DayAtom
//
// Both binary operators are left-associative; "not" binds the single
// following NotExpr. Operator-category and value-type legality are the
// semantic analyzer's concern: the parser accepts any condition or binop
// token after a field head so that "credit hours contains 3" surfaces as
// a semantic diagnostic, not a syntax error.
//
// The parser fails fast: the first unexpected token aborts with one
// syntactic diagnostic carrying that token's span. Empty input is a
// legal success producing a query with a nil root.
package parser

import (
	"strconv"
	"strings"

	"github.com/CFdefense/ClassQL/internal/ast"
	"github.com/CFdefense/ClassQL/internal/diag"
	"github.com/CFdefense/ClassQL/internal/token"
)

// Parse consumes a token slice and produces a raw AST or a syntactic
// diagnostic.
func Parse(toks []token.Token) (*ast.Query, *diag.Diagnostic) {
	if len(toks) == 0 {
		return &ast.Query{}, nil
	}
	p := &parser{toks: toks}
	root, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.toks) {
		return nil, p.errUnexpected("end of input")
	}
	return &ast.Query{Root: root}, nil
}

type parser struct {
	toks []token.Token
	pos  int
}

func (p *parser) peek() (token.Token, bool) {
	if p.pos >= len(p.toks) {
		return token.Token{}, false
	}
	return p.toks[p.pos], true
}

func (p *parser) advance() token.Token {
	tok := p.toks[p.pos]
	p.pos++
	return tok
}

// eoiSpan is the zero-width span at the end of the last token, used for
// unexpected-end-of-input diagnostics.
func (p *parser) eoiSpan() diag.Span {
	if len(p.toks) == 0 {
		return diag.NewSpan(0, 0)
	}
	end := p.toks[len(p.toks)-1].Span.End
	return diag.NewSpan(end, end)
}

func (p *parser) errUnexpected(expected string) *diag.Diagnostic {
	tok, ok := p.peek()
	if !ok {
		d := diag.New(diag.Syntactic, p.eoiSpan(), "unexpected end of input").WithExpected(expected)
		return &d
	}
	d := diag.New(diag.Syntactic, tok.Span,
		"expected %s, found %q", expected, tok.Lexeme).WithExpected(expected)
	return &d
}

func (p *parser) parseOr() (ast.Expr, *diag.Diagnostic) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		tok, ok := p.peek()
		if !ok || tok.Kind != token.OR {
			return left, nil
		}
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = ast.Or{Left: left, Right: right}
	}
}

// parseAnd handles explicit "and" plus implicit AND between adjacent
// atoms: any token that can begin an atom continues the conjunction.
func (p *parser) parseAnd() (ast.Expr, *diag.Diagnostic) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for {
		tok, ok := p.peek()
		if !ok {
			return left, nil
		}
		switch {
		case tok.Kind == token.AND:
			p.advance()
		case token.CanStartAtom(tok.Kind):
			// implicit AND
		default:
			return left, nil
		}
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = ast.And{Left: left, Right: right}
	}
}

func (p *parser) parseNot() (ast.Expr, *diag.Diagnostic) {
	tok, ok := p.peek()
	if ok && tok.Kind == token.NOT {
		kw := p.advance()
		child, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return ast.Not{Child: child, KwSpan: kw.Span}, nil
	}
	return p.parseAtom()
}

func (p *parser) parseAtom() (ast.Expr, *diag.Diagnostic) {
	tok, ok := p.peek()
	if !ok {
		return nil, p.errUnexpected("a field, day, \"(\", or \"not\"")
	}
	switch {
	case tok.Kind == token.LPAREN:
		return p.parseGroup()
	case token.IsDay(tok.Kind):
		return p.parseDayAtom()
	case tok.Kind == token.FULL:
		return p.parseFull()
	case timeField(tok.Kind) != "":
		return p.parseTimePredicate()
	case fieldFor(tok.Kind) != "":
		return p.parseFieldPredicate()
	default:
		return nil, p.errUnexpected("a field, day, \"(\", or \"not\"")
	}
}

func (p *parser) parseGroup() (ast.Expr, *diag.Diagnostic) {
	open := p.advance()
	inner, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	tok, ok := p.peek()
	if !ok {
		d := diag.New(diag.Syntactic, p.eoiSpan(), "unterminated group").WithExpected("\")\"")
		return nil, &d
	}
	if tok.Kind != token.RPAREN {
		return nil, p.errUnexpected("\")\"")
	}
	closing := p.advance()
	// Never nest a group directly inside a group.
	if g, isGroup := inner.(ast.Group); isGroup {
		inner = g.Child
	}
	return ast.Group{Child: inner, ParenSpan: open.Span.Join(closing.Span)}, nil
}

// parseFieldPredicate parses <field-head> <op> <value> for string and
// numeric fields. The value may be a parenthesized group of values
// joined by and/or, which distributes the field and operator over each
// value: sub is (CS or MATH).
func (p *parser) parseFieldPredicate() (ast.Expr, *diag.Diagnostic) {
	head := p.advance()
	field := fieldFor(head.Kind)

	opTok, err := p.expectOp(head)
	if err != nil {
		return nil, err
	}
	return p.parsePredicateValue(head, field, opTok)
}

func (p *parser) parsePredicateValue(head token.Token, field ast.Field, opTok token.Token) (ast.Expr, *diag.Diagnostic) {
	if tok, ok := p.peek(); ok && tok.Kind == token.LPAREN {
		return p.parseValueGroup(head, field, opTok)
	}
	value, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	return ast.FieldPredicate{
		Field:    field,
		OpTok:    opTok,
		Value:    value,
		NodeSpan: head.Span.Join(value.Span()),
	}, nil
}

// parseValueGroup parses "(" ValueOr ")" where each leaf value becomes
// its own predicate with the shared field and operator.
func (p *parser) parseValueGroup(head token.Token, field ast.Field, opTok token.Token) (ast.Expr, *diag.Diagnostic) {
	open := p.advance()
	inner, err := p.parseValueOr(head, field, opTok)
	if err != nil {
		return nil, err
	}
	tok, ok := p.peek()
	if !ok {
		d := diag.New(diag.Syntactic, p.eoiSpan(), "unterminated group").WithExpected("\")\"")
		return nil, &d
	}
	if tok.Kind != token.RPAREN {
		return nil, p.errUnexpected("\")\" or \"and\"/\"or\"")
	}
	closing := p.advance()
	return ast.Group{Child: inner, ParenSpan: open.Span.Join(closing.Span)}, nil
}

func (p *parser) parseValueOr(head token.Token, field ast.Field, opTok token.Token) (ast.Expr, *diag.Diagnostic) {
	left, err := p.parseValueAnd(head, field, opTok)
	if err != nil {
		return nil, err
	}
	for {
		tok, ok := p.peek()
		if !ok || tok.Kind != token.OR {
			return left, nil
		}
		p.advance()
		right, err := p.parseValueAnd(head, field, opTok)
		if err != nil {
			return nil, err
		}
		left = ast.Or{Left: left, Right: right}
	}
}

func (p *parser) parseValueAnd(head token.Token, field ast.Field, opTok token.Token) (ast.Expr, *diag.Diagnostic) {
	left, err := p.parseValueTerm(head, field, opTok)
	if err != nil {
		return nil, err
	}
	for {
		tok, ok := p.peek()
		if !ok || tok.Kind != token.AND {
			return left, nil
		}
		p.advance()
		right, err := p.parseValueTerm(head, field, opTok)
		if err != nil {
			return nil, err
		}
		left = ast.And{Left: left, Right: right}
	}
}

func (p *parser) parseValueTerm(head token.Token, field ast.Field, opTok token.Token) (ast.Expr, *diag.Diagnostic) {
	if tok, ok := p.peek(); ok && tok.Kind == token.LPAREN {
		return p.parseValueGroup(head, field, opTok)
	}
	value, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	return ast.FieldPredicate{
		Field:    field,
		OpTok:    opTok,
		Value:    value,
		NodeSpan: head.Span.Join(value.Span()),
	}, nil
}

// parseTimePredicate parses start/end/time predicates:
//
//	start <binop> <time>
//	start <time> to <time>
func (p *parser) parseTimePredicate() (ast.Expr, *diag.Diagnostic) {
	head := p.advance()
	field := timeField(head.Kind)

	if tok, ok := p.peek(); ok && tok.Kind == token.TIME {
		from := p.advance()
		sep, ok := p.peek()
		if !ok || sep.Kind != token.TO {
			return nil, p.errUnexpected("\"to\"")
		}
		p.advance()
		toTok, ok := p.peek()
		if !ok || toTok.Kind != token.TIME {
			return nil, p.errUnexpected("a time like 11:00am")
		}
		p.advance()
		rng := ast.TimeRange{
			From: ast.Time{Lexeme: from.Lexeme, Minutes: -1, NodeSpan: from.Span},
			To:   ast.Time{Lexeme: toTok.Lexeme, Minutes: -1, NodeSpan: toTok.Span},
		}
		return ast.FieldPredicate{
			Field:    field,
			Value:    rng,
			NodeSpan: head.Span.Join(rng.Span()),
		}, nil
	}

	opTok, err := p.expectOp(head)
	if err != nil {
		return nil, err
	}
	return p.parsePredicateValue(head, field, opTok)
}

// parseFull parses the synthetic full predicate: bare "full", or
// "full <condition> <true|false>".
func (p *parser) parseFull() (ast.Expr, *diag.Diagnostic) {
	head := p.advance()
	tok, ok := p.peek()
	if !ok || (!token.IsCondition(tok.Kind) && !token.IsBinOp(tok.Kind)) {
		return ast.FieldPredicate{Field: ast.FieldFull, NodeSpan: head.Span}, nil
	}
	opTok := p.advance()
	return p.parsePredicateValue(head, ast.FieldFull, opTok)
}

// parseDayAtom parses a bare day or a day with condition and value.
func (p *parser) parseDayAtom() (ast.Expr, *diag.Diagnostic) {
	day := p.advance()
	tok, ok := p.peek()
	if !ok || (!token.IsCondition(tok.Kind) && !token.IsBinOp(tok.Kind)) {
		return ast.DayAtom{Day: day, NodeSpan: day.Span}, nil
	}
	opTok := p.advance()
	value, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	return ast.DayAtom{
		Day:      day,
		OpTok:    opTok,
		HasCond:  true,
		Value:    value,
		NodeSpan: day.Span.Join(value.Span()),
	}, nil
}

// expectOp consumes the operator token after a field head. Any condition
// or binop token is accepted here; category legality against the field's
// domain is checked by the semantic analyzer.
func (p *parser) expectOp(head token.Token) (token.Token, *diag.Diagnostic) {
	tok, ok := p.peek()
	if !ok || (!token.IsCondition(tok.Kind) && !token.IsBinOp(tok.Kind)) {
		return token.Token{}, p.errUnexpected("an operator after \"" + head.Lexeme + "\"")
	}
	return p.advance(), nil
}

// parseValue consumes one literal value. Type legality (integer where a
// string is required, and so on) is the semantic analyzer's concern.
func (p *parser) parseValue() (ast.Value, *diag.Diagnostic) {
	tok, ok := p.peek()
	if !ok {
		return nil, p.errUnexpected("a value")
	}
	switch tok.Kind {
	case token.IDENTIFIER, token.TRUE, token.FALSE:
		p.advance()
		return ast.String{Text: tok.Lexeme, Lexeme: tok.Lexeme, NodeSpan: tok.Span}, nil
	case token.STRING:
		p.advance()
		text := strings.TrimSuffix(strings.TrimPrefix(tok.Lexeme, `"`), `"`)
		return ast.String{Text: text, Lexeme: tok.Lexeme, NodeSpan: tok.Span}, nil
	case token.INTEGER:
		p.advance()
		n, err := strconv.ParseInt(tok.Lexeme, 10, 64)
		if err != nil {
			d := diag.New(diag.Syntactic, tok.Span, "integer %q out of range", tok.Lexeme)
			return nil, &d
		}
		return ast.Integer{N: n, NodeSpan: tok.Span}, nil
	case token.TIME:
		p.advance()
		return ast.Time{Lexeme: tok.Lexeme, Minutes: -1, NodeSpan: tok.Span}, nil
	default:
		return nil, p.errUnexpected("a value")
	}
}

// fieldFor maps a field-head token to its canonical field, folding the
// keyword synonyms: sub → subject, size/pop → enrollment, cap →
// max_enrollment, type → meeting_type, rm → room.
func fieldFor(k token.Kind) ast.Field {
	switch k {
	case token.PROF:
		return ast.FieldProf
	case token.SUBJECT:
		return ast.FieldSubject
	case token.COURSE:
		return ast.FieldCourse
	case token.TITLE:
		return ast.FieldTitle
	case token.DESCRIPTION:
		return ast.FieldDescription
	case token.METHOD:
		return ast.FieldMethod
	case token.CAMPUS:
		return ast.FieldCampus
	case token.MEETING_TYPE, token.TYPE:
		return ast.FieldMeetingType
	case token.PREREQS:
		return ast.FieldPrereqs
	case token.COREREQS:
		return ast.FieldCorereqs
	case token.BUILDING:
		return ast.FieldBuilding
	case token.ROOM:
		return ast.FieldRoom
	case token.ACCESSIBILITY:
		return ast.FieldAccessibility
	case token.CREDIT_HOURS:
		return ast.FieldCreditHours
	case token.ENROLLMENT, token.SIZE, token.POP:
		return ast.FieldEnrollment
	case token.ENROLLMENT_CAP, token.CAP:
		return ast.FieldMaxEnrollment
	}
	return ""
}

// timeField maps the time field heads; the bare "time" keyword queries
// the meeting start time.
func timeField(k token.Kind) ast.Field {
	switch k {
	case token.START, token.TIME_KW:
		return ast.FieldStart
	case token.END:
		return ast.FieldEnd
	}
	return ""
}
