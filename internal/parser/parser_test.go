package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CFdefense/ClassQL/internal/ast"
	"github.com/CFdefense/ClassQL/internal/diag"
	"github.com/CFdefense/ClassQL/internal/lexer"
	"github.com/CFdefense/ClassQL/internal/token"
)

func mustParse(t *testing.T, source string) *ast.Query {
	t.Helper()
	toks, lexDiags := lexer.Lex(source)
	require.Empty(t, lexDiags)
	q, d := Parse(toks)
	require.Nil(t, d, "unexpected diagnostic for %q: %v", source, d)
	return q
}

func parseErr(t *testing.T, source string) *diag.Diagnostic {
	t.Helper()
	toks, lexDiags := lexer.Lex(source)
	require.Empty(t, lexDiags)
	q, d := Parse(toks)
	require.Nil(t, q)
	require.NotNil(t, d, "expected diagnostic for %q", source)
	return d
}

func TestParse_EmptyInput(t *testing.T) {
	q, d := Parse(nil)
	require.Nil(t, d)
	require.NotNil(t, q)
	assert.Nil(t, q.Root)
}

func TestParse_SimplePredicate(t *testing.T) {
	q := mustParse(t, "prof contains alan")

	pred, ok := q.Root.(ast.FieldPredicate)
	require.True(t, ok, "root should be a FieldPredicate, got %T", q.Root)
	assert.Equal(t, ast.FieldProf, pred.Field)
	assert.Equal(t, token.CONTAINS, pred.OpTok.Kind)

	v, ok := pred.Value.(ast.String)
	require.True(t, ok)
	assert.Equal(t, "alan", v.Text)
}

func TestParse_QuotedValue(t *testing.T) {
	q := mustParse(t, `title contains "Operating Systems"`)

	pred := q.Root.(ast.FieldPredicate)
	v := pred.Value.(ast.String)
	assert.Equal(t, "Operating Systems", v.Text)
	assert.Equal(t, `"Operating Systems"`, v.Lexeme)
}

func TestParse_FieldSynonymsFold(t *testing.T) {
	testCases := []struct {
		source string
		field  ast.Field
	}{
		{"sub = CS", ast.FieldSubject},
		{"size > 10", ast.FieldEnrollment},
		{"pop > 10", ast.FieldEnrollment},
		{"cap > 10", ast.FieldMaxEnrollment},
		{"enrollment cap > 10", ast.FieldMaxEnrollment},
		{"type is lecture", ast.FieldMeetingType},
		{"meeting type is lecture", ast.FieldMeetingType},
		{"rm contains 100a", ast.FieldRoom},
	}
	for _, tc := range testCases {
		t.Run(tc.source, func(t *testing.T) {
			q := mustParse(t, tc.source)
			pred, ok := q.Root.(ast.FieldPredicate)
			require.True(t, ok)
			assert.Equal(t, tc.field, pred.Field)
		})
	}
}

func TestParse_OrLowerThanAnd(t *testing.T) {
	// a or b and c parses as a or (b and c)
	q := mustParse(t, "monday or tuesday and friday")

	or, ok := q.Root.(ast.Or)
	require.True(t, ok, "root should be Or, got %T", q.Root)
	_, ok = or.Left.(ast.DayAtom)
	assert.True(t, ok)
	_, ok = or.Right.(ast.And)
	assert.True(t, ok)
}

func TestParse_NotTighterThanAnd(t *testing.T) {
	// not a and b parses as (not a) and b
	q := mustParse(t, "not monday and tuesday")

	and, ok := q.Root.(ast.And)
	require.True(t, ok, "root should be And, got %T", q.Root)
	_, ok = and.Left.(ast.Not)
	assert.True(t, ok)
	_, ok = and.Right.(ast.DayAtom)
	assert.True(t, ok)
}

func TestParse_LeftAssociativity(t *testing.T) {
	q := mustParse(t, "monday and tuesday and friday")

	// ((monday AND tuesday) AND friday)
	outer, ok := q.Root.(ast.And)
	require.True(t, ok)
	_, ok = outer.Left.(ast.And)
	assert.True(t, ok)
	_, ok = outer.Right.(ast.DayAtom)
	assert.True(t, ok)
}

func TestParse_ImplicitAnd(t *testing.T) {
	// Adjacent atoms conjoin: monday wednesday friday.
	q := mustParse(t, "monday wednesday friday")

	outer, ok := q.Root.(ast.And)
	require.True(t, ok, "root should be And, got %T", q.Root)
	inner, ok := outer.Left.(ast.And)
	require.True(t, ok)
	_, ok = inner.Left.(ast.DayAtom)
	assert.True(t, ok)
}

func TestParse_ImplicitAndMixed(t *testing.T) {
	q := mustParse(t, "prof contains alan monday")

	and, ok := q.Root.(ast.And)
	require.True(t, ok)
	_, ok = and.Left.(ast.FieldPredicate)
	assert.True(t, ok)
	_, ok = and.Right.(ast.DayAtom)
	assert.True(t, ok)
}

func TestParse_Group(t *testing.T) {
	q := mustParse(t, "(monday or tuesday) and friday")

	and := q.Root.(ast.And)
	group, ok := and.Left.(ast.Group)
	require.True(t, ok, "left should be Group, got %T", and.Left)
	_, ok = group.Child.(ast.Or)
	assert.True(t, ok)
}

func TestParse_GroupNeverNestsDirectly(t *testing.T) {
	q := mustParse(t, "((monday))")

	group, ok := q.Root.(ast.Group)
	require.True(t, ok)
	_, isGroup := group.Child.(ast.Group)
	assert.False(t, isGroup, "group must not directly wrap a group")
}

func TestParse_NumericPredicate(t *testing.T) {
	q := mustParse(t, "credit hours at least 3")

	pred := q.Root.(ast.FieldPredicate)
	assert.Equal(t, ast.FieldCreditHours, pred.Field)
	assert.Equal(t, token.AT_LEAST, pred.OpTok.Kind)
	v, ok := pred.Value.(ast.Integer)
	require.True(t, ok)
	assert.Equal(t, int64(3), v.N)
}

func TestParse_TimeComparison(t *testing.T) {
	q := mustParse(t, "start < 12pm")

	pred := q.Root.(ast.FieldPredicate)
	assert.Equal(t, ast.FieldStart, pred.Field)
	assert.Equal(t, token.LT, pred.OpTok.Kind)
	v, ok := pred.Value.(ast.Time)
	require.True(t, ok)
	assert.Equal(t, "12pm", v.Lexeme)
	assert.Equal(t, -1, v.Minutes, "minutes are set by the semantic analyzer")
}

func TestParse_TimeRange(t *testing.T) {
	q := mustParse(t, "start 9am to 11am")

	pred := q.Root.(ast.FieldPredicate)
	assert.Equal(t, ast.FieldStart, pred.Field)
	rng, ok := pred.Value.(ast.TimeRange)
	require.True(t, ok, "value should be TimeRange, got %T", pred.Value)
	assert.Equal(t, "9am", rng.From.Lexeme)
	assert.Equal(t, "11am", rng.To.Lexeme)
}

func TestParse_TimeKeywordIsStart(t *testing.T) {
	q := mustParse(t, "time > 9am")
	pred := q.Root.(ast.FieldPredicate)
	assert.Equal(t, ast.FieldStart, pred.Field)
}

func TestParse_BareFull(t *testing.T) {
	q := mustParse(t, "full")

	pred, ok := q.Root.(ast.FieldPredicate)
	require.True(t, ok)
	assert.Equal(t, ast.FieldFull, pred.Field)
	assert.Nil(t, pred.Value)
}

func TestParse_FullWithCondition(t *testing.T) {
	q := mustParse(t, "full is false")

	pred := q.Root.(ast.FieldPredicate)
	assert.Equal(t, ast.FieldFull, pred.Field)
	assert.Equal(t, token.IS, pred.OpTok.Kind)
	v := pred.Value.(ast.String)
	assert.Equal(t, "false", v.Text)
}

func TestParse_NotFull(t *testing.T) {
	q := mustParse(t, "not full")

	not, ok := q.Root.(ast.Not)
	require.True(t, ok)
	pred := not.Child.(ast.FieldPredicate)
	assert.Equal(t, ast.FieldFull, pred.Field)
}

func TestParse_BareDay(t *testing.T) {
	q := mustParse(t, "monday")

	day, ok := q.Root.(ast.DayAtom)
	require.True(t, ok)
	assert.Equal(t, token.MONDAY, day.Day.Kind)
	assert.False(t, day.HasCond)
}

func TestParse_DayWithCondition(t *testing.T) {
	q := mustParse(t, "monday is false")

	day := q.Root.(ast.DayAtom)
	assert.True(t, day.HasCond)
	assert.Equal(t, token.IS, day.OpTok.Kind)
	v := day.Value.(ast.String)
	assert.Equal(t, "false", v.Text)
}

func TestParse_AbbreviatedDay(t *testing.T) {
	q := mustParse(t, "mon wed fri")

	outer, ok := q.Root.(ast.And)
	require.True(t, ok)
	inner := outer.Left.(ast.And)
	assert.Equal(t, token.MONDAY, inner.Left.(ast.DayAtom).Day.Kind)
	assert.Equal(t, token.WEDNESDAY, inner.Right.(ast.DayAtom).Day.Kind)
	assert.Equal(t, token.FRIDAY, outer.Right.(ast.DayAtom).Day.Kind)
}

func TestParse_ValueGroupDistributes(t *testing.T) {
	// sub is (CS or MATH) distributes the field and operator over the
	// grouped values.
	q := mustParse(t, "sub is (CS or MATH)")

	group, ok := q.Root.(ast.Group)
	require.True(t, ok, "root should be Group, got %T", q.Root)
	or, ok := group.Child.(ast.Or)
	require.True(t, ok)

	left := or.Left.(ast.FieldPredicate)
	right := or.Right.(ast.FieldPredicate)
	assert.Equal(t, ast.FieldSubject, left.Field)
	assert.Equal(t, ast.FieldSubject, right.Field)
	assert.Equal(t, "CS", left.Value.(ast.String).Text)
	assert.Equal(t, "MATH", right.Value.(ast.String).Text)
}

func TestParse_OperatorCategoryIsNotSyntax(t *testing.T) {
	// A wrong-category operator still parses; the semantic analyzer
	// rejects it with a semantic diagnostic.
	q := mustParse(t, "credit hours contains 3")

	pred := q.Root.(ast.FieldPredicate)
	assert.Equal(t, ast.FieldCreditHours, pred.Field)
	assert.Equal(t, token.CONTAINS, pred.OpTok.Kind)
}

func TestParse_Spans(t *testing.T) {
	source := "prof contains alan"
	q := mustParse(t, source)

	pred := q.Root.(ast.FieldPredicate)
	assert.Equal(t, 0, pred.Span().Start)
	assert.Equal(t, len(source), pred.Span().End)
}

func TestParse_ErrUnexpectedToken(t *testing.T) {
	d := parseErr(t, "prof contains and")

	assert.Equal(t, diag.Syntactic, d.Kind)
	assert.Contains(t, d.Message, `found "and"`)
	// The span points at the offending token.
	assert.Equal(t, 14, d.Span.Start)
	assert.Equal(t, 17, d.Span.End)
}

func TestParse_ErrMissingOperator(t *testing.T) {
	d := parseErr(t, "prof alan")

	assert.Equal(t, diag.Syntactic, d.Kind)
	assert.Contains(t, d.Expected, "operator")
}

func TestParse_ErrUnexpectedEndOfInput(t *testing.T) {
	d := parseErr(t, "prof contains")

	assert.Equal(t, diag.Syntactic, d.Kind)
	assert.Equal(t, "unexpected end of input", d.Message)
	// Span is the zero-width point after the last token.
	assert.Equal(t, 13, d.Span.Start)
	assert.Equal(t, 13, d.Span.End)
}

func TestParse_ErrUnterminatedGroup(t *testing.T) {
	d := parseErr(t, "(monday or tuesday")

	assert.Equal(t, diag.Syntactic, d.Kind)
	assert.Equal(t, "unterminated group", d.Message)
}

func TestParse_ErrTrailingTokens(t *testing.T) {
	d := parseErr(t, "monday )")

	assert.Equal(t, diag.Syntactic, d.Kind)
	assert.Contains(t, d.Message, `found ")"`)
}

func TestParse_ErrMissingRangeEnd(t *testing.T) {
	d := parseErr(t, "start 9am to")

	assert.Equal(t, diag.Syntactic, d.Kind)
	assert.Equal(t, "unexpected end of input", d.Message)
}
