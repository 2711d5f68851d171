// Package ast defines the ClassQL abstract syntax tree.
//
// Expr and Value are sealed interfaces - only types in this package
// implement them. The marker method pattern prevents external
// implementations and enables exhaustive type switches in the semantic
// analyzer and code generator.
//
// The same node types serve both the raw tree built by the parser and
// the normalized tree produced by the semantic analyzer. The analyzer
// guarantees the following about its output:
//   - no Group nodes remain (associativity is structural),
//   - no DayAtom nodes remain (bare days become FieldPredicates),
//   - every FieldPredicate.Field is a canonical Field,
//   - every FieldPredicate.Op is a canonical Op, except on time-range
//     predicates, whose Op stays empty,
//   - every Time value has Minutes in [0, 1440).
//
// Every node carries the source span it was parsed from.
package ast

import (
	"github.com/CFdefense/ClassQL/internal/diag"
	"github.com/CFdefense/ClassQL/internal/token"
)

// Expr is a node in the boolean query expression tree.
//
// Expr types:
//   - Or, And, Not: logical composition
//   - Group: parenthesized subexpression (raw tree only)
//   - FieldPredicate: a leaf predicate on one field
//   - DayAtom: a day mention, bare or with a condition (raw tree only)
type Expr interface {
	exprNode() // Marker method - seals interface to this package
	Span() diag.Span
}

// Value is a literal operand of a field predicate.
//
// Value types:
//   - String: quoted string or bare identifier text
//   - Integer: decimal integer
//   - Time: a clock time, normalized to minutes from midnight
//   - TimeRange: an inclusive time window
type Value interface {
	valueNode() // Marker method - seals interface to this package
	Span() diag.Span
}

// Or is a logical disjunction. Left-associative.
type Or struct {
	Left  Expr
	Right Expr
}

func (Or) exprNode() {}

// Span covers both operands.
func (o Or) Span() diag.Span { return o.Left.Span().Join(o.Right.Span()) }

// And is a logical conjunction, explicit ("and") or implicit (adjacent
// atoms). Left-associative.
type And struct {
	Left  Expr
	Right Expr
}

func (And) exprNode() {}

// Span covers both operands.
func (a And) Span() diag.Span { return a.Left.Span().Join(a.Right.Span()) }

// Not negates its child. Binds tighter than and/or.
type Not struct {
	Child  Expr
	KwSpan diag.Span // span of the "not" keyword
}

func (Not) exprNode() {}

// Span covers the keyword and the negated expression.
func (n Not) Span() diag.Span { return n.KwSpan.Join(n.Child.Span()) }

// Group is a parenthesized subexpression. The parser keeps it for
// position tracking; the semantic analyzer collapses it. A Group never
// directly wraps another Group.
type Group struct {
	Child     Expr
	ParenSpan diag.Span // span from "(" through ")"
}

func (Group) exprNode() {}

// Span covers the parentheses.
func (g Group) Span() diag.Span { return g.ParenSpan }

// Field identifies a queryable field. The parser emits the canonical
// field for each synonym it recognizes (sub → FieldSubject, cap →
// FieldMaxEnrollment); the semantic analyzer validates the operator
// category against the field's domain.
type Field string

const (
	FieldProf          Field = "prof"
	FieldSubject       Field = "subject"
	FieldCourse        Field = "course"
	FieldTitle         Field = "title"
	FieldDescription   Field = "description"
	FieldCreditHours   Field = "credit_hours"
	FieldPrereqs       Field = "prereqs"
	FieldCorereqs      Field = "corereqs"
	FieldMethod        Field = "method"
	FieldCampus        Field = "campus"
	FieldEnrollment    Field = "enrollment"
	FieldMaxEnrollment Field = "max_enrollment"
	FieldFull          Field = "full"
	FieldMeetingType   Field = "meeting_type"
	FieldStart         Field = "start"
	FieldEnd           Field = "end"
	FieldBuilding      Field = "building"
	FieldRoom          Field = "room"
	FieldAccessibility Field = "accessibility"
	FieldIsMonday      Field = "is_monday"
	FieldIsTuesday     Field = "is_tuesday"
	FieldIsWednesday   Field = "is_wednesday"
	FieldIsThursday    Field = "is_thursday"
	FieldIsFriday      Field = "is_friday"
	FieldIsSaturday    Field = "is_saturday"
	FieldIsSunday      Field = "is_sunday"
)

// DayField returns the is_<day> field for a day token kind.
func DayField(k token.Kind) Field {
	return Field("is_" + token.DayName(k))
}

// Op is a canonical predicate operator. The parser records the operator
// token it saw; the semantic analyzer folds it to one of these.
type Op string

const (
	OpEq         Op = "="
	OpNe         Op = "!="
	OpLt         Op = "<"
	OpGt         Op = ">"
	OpLe         Op = "<="
	OpGe         Op = ">="
	OpContains   Op = "contains"
	OpStartsWith Op = "starts_with"
	OpEndsWith   Op = "ends_with"
)

// FieldPredicate is a leaf predicate: one field, one operator, one value.
//
// The parser fills Field, OpTok, and Value. The semantic analyzer fills
// Op from OpTok and validates the combination. A bare "full" atom is a
// FieldPredicate with Value nil until normalization.
type FieldPredicate struct {
	Field    Field
	OpTok    token.Token // operator token as written (synonyms intact)
	Op       Op          // canonical operator; set by the semantic analyzer
	Value    Value
	NodeSpan diag.Span
}

func (FieldPredicate) exprNode() {}

// Span covers the field keyword through the value.
func (p FieldPredicate) Span() diag.Span { return p.NodeSpan }

// DayAtom is a day mention: bare ("monday" means meets on Monday) or
// with a condition and truth value ("monday is false"). The semantic
// analyzer rewrites every DayAtom into a FieldPredicate on the
// corresponding is_<day> field.
type DayAtom struct {
	Day      token.Token // the day token as written (abbreviation intact)
	OpTok    token.Token // condition token; zero value when bare
	HasCond  bool
	Value    Value // nil when bare
	NodeSpan diag.Span
}

func (DayAtom) exprNode() {}

// Span covers the day token through the value, if any.
func (d DayAtom) Span() diag.Span { return d.NodeSpan }

// String is a text value from a quoted string, identifier, email
// identifier, or alphanumeric course number. Text holds the value with
// quotes stripped; Lexeme the exact source spelling.
type String struct {
	Text     string
	Lexeme   string
	NodeSpan diag.Span
}

func (String) valueNode() {}

// Span covers the literal.
func (s String) Span() diag.Span { return s.NodeSpan }

// Integer is a decimal integer literal.
type Integer struct {
	N        int64
	NodeSpan diag.Span
}

func (Integer) valueNode() {}

// Span covers the literal.
func (i Integer) Span() diag.Span { return i.NodeSpan }

// Time is a clock-time literal. The parser records the lexeme and sets
// Minutes to -1; the semantic analyzer parses and normalizes it to
// minutes from midnight (12am = 0, 12pm = 720).
type Time struct {
	Lexeme   string
	Minutes  int
	NodeSpan diag.Span
}

func (Time) valueNode() {}

// Span covers the literal.
func (t Time) Span() diag.Span { return t.NodeSpan }

// TimeRange is an inclusive window between two times ("9am to 11am").
type TimeRange struct {
	From Time
	To   Time
}

func (TimeRange) valueNode() {}

// Span covers both endpoints.
func (r TimeRange) Span() diag.Span { return r.From.Span().Join(r.To.Span()) }

// Query is the root of a parsed query. Root is nil for empty input,
// which compiles to an unfiltered select-all.
type Query struct {
	Root Expr
}
