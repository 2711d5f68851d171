// Package semantic validates and normalizes a raw ClassQL AST.
//
// Normalization is a deterministic bottom-up rewrite:
//   - Group nodes are collapsed (associativity is already structural),
//   - operator synonyms fold to canonical operators (is → =, has →
//     contains, at least → >=),
//   - bare day atoms become is_<day> = 1 predicates, conditioned day
//     atoms become is_<day> = 0/1,
//   - time literals are parsed to minutes from midnight (12am = 0,
//     12pm = 720) and asserted to lie in [0, 1440).
//
// Analysis rejects operator/field category mismatches, wrongly typed
// values, and day conditions with non-boolean values. The analyzer is a
// pure AST → AST transform and is idempotent: normalizing a normalized
// tree returns it unchanged.
package semantic

import (
	"strconv"
	"strings"

	"github.com/CFdefense/ClassQL/internal/ast"
	"github.com/CFdefense/ClassQL/internal/diag"
	"github.com/CFdefense/ClassQL/internal/token"
)

// Category is a field's operator/value domain.
type Category int

const (
	// CategoryString fields take condition operators and text values.
	CategoryString Category = iota
	// CategoryNumeric fields take comparison operators and integers.
	CategoryNumeric
	// CategoryTime fields take comparison operators and time literals.
	CategoryTime
	// CategoryBoolean fields take =/!= and true/false.
	CategoryBoolean
)

func (c Category) String() string {
	switch c {
	case CategoryString:
		return "string"
	case CategoryNumeric:
		return "numeric"
	case CategoryTime:
		return "time"
	case CategoryBoolean:
		return "boolean"
	}
	return "unknown"
}

// FieldCategories maps every canonical field to its domain.
var FieldCategories = map[ast.Field]Category{
	ast.FieldProf:          CategoryString,
	ast.FieldSubject:       CategoryString,
	ast.FieldCourse:        CategoryString,
	ast.FieldTitle:         CategoryString,
	ast.FieldDescription:   CategoryString,
	ast.FieldPrereqs:       CategoryString,
	ast.FieldCorereqs:      CategoryString,
	ast.FieldMethod:        CategoryString,
	ast.FieldCampus:        CategoryString,
	ast.FieldMeetingType:   CategoryString,
	ast.FieldBuilding:      CategoryString,
	ast.FieldRoom:          CategoryString,
	ast.FieldAccessibility: CategoryString,
	ast.FieldCreditHours:   CategoryNumeric,
	ast.FieldEnrollment:    CategoryNumeric,
	ast.FieldMaxEnrollment: CategoryNumeric,
	ast.FieldStart:         CategoryTime,
	ast.FieldEnd:           CategoryTime,
	ast.FieldFull:          CategoryBoolean,
	ast.FieldIsMonday:      CategoryBoolean,
	ast.FieldIsTuesday:     CategoryBoolean,
	ast.FieldIsWednesday:   CategoryBoolean,
	ast.FieldIsThursday:    CategoryBoolean,
	ast.FieldIsFriday:      CategoryBoolean,
	ast.FieldIsSaturday:    CategoryBoolean,
	ast.FieldIsSunday:      CategoryBoolean,
}

// conditionOps folds condition tokens (string domain) to canonical ops.
var conditionOps = map[token.Kind]ast.Op{
	token.EQ:             ast.OpEq,
	token.IS:             ast.OpEq,
	token.EQUALS:         ast.OpEq,
	token.NE:             ast.OpNe,
	token.NOT_EQUALS:     ast.OpNe,
	token.DOES_NOT_EQUAL: ast.OpNe,
	token.CONTAINS:       ast.OpContains,
	token.HAS:            ast.OpContains,
	token.STARTS_WITH:    ast.OpStartsWith,
	token.ENDS_WITH:      ast.OpEndsWith,
}

// binOps folds comparison tokens (numeric/time domain) to canonical ops.
var binOps = map[token.Kind]ast.Op{
	token.EQ:               ast.OpEq,
	token.IS:               ast.OpEq,
	token.EQUALS:           ast.OpEq,
	token.NE:               ast.OpNe,
	token.NOT_EQUALS:       ast.OpNe,
	token.DOES_NOT_EQUAL:   ast.OpNe,
	token.LT:               ast.OpLt,
	token.LESS_THAN:        ast.OpLt,
	token.FEWER_THAN:       ast.OpLt,
	token.GT:               ast.OpGt,
	token.GREATER_THAN:     ast.OpGt,
	token.MORE_THAN:        ast.OpGt,
	token.LE:               ast.OpLe,
	token.LESS_OR_EQUAL:    ast.OpLe,
	token.AT_MOST:          ast.OpLe,
	token.GE:               ast.OpGe,
	token.GREATER_OR_EQUAL: ast.OpGe,
	token.AT_LEAST:         ast.OpGe,
}

// Analyze validates and normalizes a raw query. The input is not
// modified; the returned query satisfies the normalized-tree invariants
// documented in package ast.
func Analyze(q *ast.Query) (*ast.Query, *diag.Diagnostic) {
	if q == nil || q.Root == nil {
		return &ast.Query{}, nil
	}
	root, err := normalize(q.Root)
	if err != nil {
		return nil, err
	}
	return &ast.Query{Root: root}, nil
}

func normalize(e ast.Expr) (ast.Expr, *diag.Diagnostic) {
	switch n := e.(type) {
	case ast.Or:
		left, err := normalize(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := normalize(n.Right)
		if err != nil {
			return nil, err
		}
		return ast.Or{Left: left, Right: right}, nil
	case ast.And:
		left, err := normalize(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := normalize(n.Right)
		if err != nil {
			return nil, err
		}
		return ast.And{Left: left, Right: right}, nil
	case ast.Not:
		child, err := normalize(n.Child)
		if err != nil {
			return nil, err
		}
		return ast.Not{Child: child, KwSpan: n.KwSpan}, nil
	case ast.Group:
		return normalize(n.Child)
	case ast.FieldPredicate:
		return normalizePredicate(n)
	case ast.DayAtom:
		return normalizeDayAtom(n)
	}
	d := diag.New(diag.Semantic, e.Span(), "unsupported expression node")
	return nil, &d
}

func normalizePredicate(p ast.FieldPredicate) (ast.Expr, *diag.Diagnostic) {
	cat, ok := FieldCategories[p.Field]
	if !ok {
		d := diag.New(diag.Semantic, p.Span(), "unknown field %q", string(p.Field))
		return nil, &d
	}

	switch cat {
	case CategoryString:
		return normalizeStringPredicate(p)
	case CategoryNumeric:
		return normalizeNumericPredicate(p)
	case CategoryTime:
		return normalizeTimePredicate(p)
	case CategoryBoolean:
		return normalizeBooleanPredicate(p)
	}
	d := diag.New(diag.Semantic, p.Span(), "unknown category for field %q", string(p.Field))
	return nil, &d
}

func normalizeStringPredicate(p ast.FieldPredicate) (ast.Expr, *diag.Diagnostic) {
	op, err := foldOp(p, conditionOps, "string")
	if err != nil {
		return nil, err
	}
	switch v := p.Value.(type) {
	case ast.String:
		p.Op = op
		p.OpTok = token.Token{}
		return p, nil
	case ast.Integer:
		d := diag.New(diag.Semantic, v.Span(),
			"integer value not valid for string field %q", string(p.Field)).
			WithExpected("a text value")
		return nil, &d
	case ast.Time:
		d := diag.New(diag.Semantic, v.Span(),
			"time value not valid for string field %q", string(p.Field)).
			WithExpected("a text value")
		return nil, &d
	}
	d := diag.New(diag.Semantic, p.Span(),
		"field %q requires a text value", string(p.Field)).WithExpected("a text value")
	return nil, &d
}

func normalizeNumericPredicate(p ast.FieldPredicate) (ast.Expr, *diag.Diagnostic) {
	op, err := foldOp(p, binOps, "numeric")
	if err != nil {
		return nil, err
	}
	switch v := p.Value.(type) {
	case ast.Integer:
		p.Op = op
		p.OpTok = token.Token{}
		return p, nil
	case ast.Time:
		d := diag.New(diag.Semantic, v.Span(),
			"time value not valid for numeric field %q", string(p.Field)).
			WithExpected("a number")
		return nil, &d
	}
	d := diag.New(diag.Semantic, p.Span(),
		"field %q requires a number", string(p.Field)).WithExpected("a number")
	return nil, &d
}

func normalizeTimePredicate(p ast.FieldPredicate) (ast.Expr, *diag.Diagnostic) {
	switch v := p.Value.(type) {
	case ast.TimeRange:
		from, err := normalizeTime(v.From)
		if err != nil {
			return nil, err
		}
		to, err := normalizeTime(v.To)
		if err != nil {
			return nil, err
		}
		p.Value = ast.TimeRange{From: from, To: to}
		return p, nil
	case ast.Time:
		op, err := foldOp(p, binOps, "time")
		if err != nil {
			return nil, err
		}
		t, err := normalizeTime(v)
		if err != nil {
			return nil, err
		}
		p.Op = op
		p.OpTok = token.Token{}
		p.Value = t
		return p, nil
	case ast.Integer:
		d := diag.New(diag.Semantic, v.Span(),
			"integer value not valid for time field %q", string(p.Field)).
			WithExpected("a time like 9:30am")
		return nil, &d
	}
	d := diag.New(diag.Semantic, p.Span(),
		"field %q requires a time value", string(p.Field)).WithExpected("a time like 9:30am")
	return nil, &d
}

// normalizeBooleanPredicate handles the synthetic full field: bare
// "full" means full = true, and a supplied value must be a truth value.
func normalizeBooleanPredicate(p ast.FieldPredicate) (ast.Expr, *diag.Diagnostic) {
	if p.Value == nil {
		p.Op = ast.OpEq
		p.Value = ast.Integer{N: 1, NodeSpan: p.NodeSpan}
		return p, nil
	}
	op, err := foldOp(p, conditionOps, "boolean")
	if err != nil {
		return nil, err
	}
	if op != ast.OpEq && op != ast.OpNe {
		d := diag.New(diag.Semantic, p.OpTok.Span,
			"operator %q not valid for boolean field %q", p.OpTok.Lexeme, string(p.Field)).
			WithExpected("is, =, or !=")
		return nil, &d
	}
	truth, ok := truthValue(p.Value)
	if !ok {
		d := diag.New(diag.Semantic, p.Value.Span(),
			"field %q requires a truth value", string(p.Field)).
			WithExpected("true or false")
		return nil, &d
	}
	if op == ast.OpNe {
		truth = !truth
	}
	p.Op = ast.OpEq
	p.OpTok = token.Token{}
	p.Value = ast.Integer{N: boolBit(truth), NodeSpan: p.Value.Span()}
	return p, nil
}

// normalizeDayAtom rewrites day mentions into is_<day> predicates: a
// bare day means the section meets that day.
func normalizeDayAtom(d ast.DayAtom) (ast.Expr, *diag.Diagnostic) {
	field := ast.DayField(d.Day.Kind)
	if !d.HasCond {
		return ast.FieldPredicate{
			Field:    field,
			Op:       ast.OpEq,
			Value:    ast.Integer{N: 1, NodeSpan: d.NodeSpan},
			NodeSpan: d.NodeSpan,
		}, nil
	}
	return normalizeBooleanPredicate(ast.FieldPredicate{
		Field:    field,
		OpTok:    d.OpTok,
		Value:    d.Value,
		NodeSpan: d.NodeSpan,
	})
}

// foldOp maps the predicate's operator token to a canonical operator in
// the given category table. A predicate that already carries a canonical
// operator (a normalized tree being re-analyzed) passes through.
func foldOp(p ast.FieldPredicate, table map[token.Kind]ast.Op, category string) (ast.Op, *diag.Diagnostic) {
	if p.OpTok.Lexeme == "" && p.Op != "" {
		return p.Op, nil
	}
	if op, ok := table[p.OpTok.Kind]; ok {
		return op, nil
	}
	d := diag.New(diag.Semantic, p.OpTok.Span,
		"operator %q not valid for %s field %q", p.OpTok.Lexeme, category, string(p.Field))
	return "", &d
}

// truthValue interprets a value as a boolean: true/false/1/0.
func truthValue(v ast.Value) (bool, bool) {
	switch val := v.(type) {
	case ast.String:
		switch strings.ToLower(val.Text) {
		case "true", "1":
			return true, true
		case "false", "0":
			return false, true
		}
	case ast.Integer:
		switch val.N {
		case 1:
			return true, true
		case 0:
			return false, true
		}
	}
	return false, false
}

func boolBit(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// normalizeTime parses a time lexeme (H:MMam, H am, 12pm...) to minutes
// from midnight. 12am maps to 0 and 12pm to 720; the result must lie in
// [0, 1440). A time that already carries normalized minutes passes
// through unchanged.
func normalizeTime(t ast.Time) (ast.Time, *diag.Diagnostic) {
	if t.Minutes >= 0 {
		return t, nil
	}
	minutes, ok := ParseMinutes(t.Lexeme)
	if !ok {
		d := diag.New(diag.Semantic, t.Span(),
			"malformed time %q", t.Lexeme).WithExpected("a time like 9:30am")
		return ast.Time{}, &d
	}
	t.Minutes = minutes
	return t, nil
}

// ParseMinutes converts a time lexeme to minutes from midnight. Returns
// false for hours outside 1..12, minutes outside 0..59, or a missing
// am/pm suffix.
func ParseMinutes(lexeme string) (int, bool) {
	s := strings.ToLower(strings.TrimSpace(lexeme))
	var pm bool
	switch {
	case strings.HasSuffix(s, "pm"):
		pm = true
		s = strings.TrimSpace(strings.TrimSuffix(s, "pm"))
	case strings.HasSuffix(s, "am"):
		s = strings.TrimSpace(strings.TrimSuffix(s, "am"))
	default:
		return 0, false
	}

	hourText, minuteText, hasMinutes := strings.Cut(s, ":")
	hour, err := strconv.Atoi(hourText)
	if err != nil || hour < 1 || hour > 12 {
		return 0, false
	}
	minute := 0
	if hasMinutes {
		minute, err = strconv.Atoi(minuteText)
		if err != nil || minute < 0 || minute > 59 {
			return 0, false
		}
	}

	if hour == 12 {
		hour = 0
	}
	if pm {
		hour += 12
	}
	total := hour*60 + minute
	if total < 0 || total >= 1440 {
		return 0, false
	}
	return total, true
}
