// Package codegen compiles a normalized ClassQL AST to a single
// parameterized SQL statement for SQLite.
//
// String, integer and time values are parameterized (never
// interpolated): the generated text carries them only as ? placeholders
// and the parameter list holds the values in left-to-right order of
// their placeholders. Day flags compile to a literal comparison against
// 0 or 1 and the full predicate to a column comparison; neither binds a
// parameter. A successful generation always satisfies placeholder
// count == len(params).
//
// Meeting-time predicates are one-to-many with respect to the
// section-centric result row, so each compiles to an EXISTS subquery
// over meeting_times correlated on the section key: "at least one
// meeting time satisfies P". A negated meeting-time predicate becomes
// NOT (EXISTS ...), i.e. no meeting time satisfies P.
package codegen

import (
	"fmt"
	"strings"

	"github.com/CFdefense/ClassQL/internal/ast"
)

// BaseQuery is the fixed section-centric projection: every generated
// statement is this query with an optional WHERE clause. Meeting times
// are always joined for display even when the query never mentions them.
const BaseQuery = `SELECT DISTINCT
	c.subject_code,
	c.number AS course_number,
	c.title,
	c.description,
	c.credit_hours,
	c.prerequisites,
	c.corequisites,
	s.sequence AS section_sequence,
	s.max_enrollment,
	s.enrollment,
	s.instruction_method,
	s.campus,
	p.name AS professor_name,
	p.email_address AS professor_email,
	tc.name AS term_name,
	mt.start_minutes,
	mt.end_minutes,
	mt.meeting_type,
	mt.is_monday,
	mt.is_tuesday,
	mt.is_wednesday,
	mt.is_thursday,
	mt.is_friday,
	mt.is_saturday,
	mt.is_sunday
FROM sections s
JOIN courses c ON s.school_id = c.school_id
	AND s.subject_code = c.subject_code
	AND s.course_number = c.number
JOIN term_collections tc ON s.term_collection_id = tc.id
	AND s.school_id = tc.school_id
LEFT JOIN professors p ON s.primary_professor_id = p.id
	AND s.school_id = p.school_id
LEFT JOIN meeting_times mt ON s.sequence = mt.section_sequence
	AND s.term_collection_id = mt.term_collection_id
	AND s.school_id = mt.school_id
	AND s.subject_code = mt.subject_code
	AND s.course_number = mt.course_number`

// meetingTimeKey correlates the EXISTS subquery with the outer section.
const meetingTimeKey = `mtx.section_sequence = s.sequence
	AND mtx.term_collection_id = s.term_collection_id
	AND mtx.school_id = s.school_id
	AND mtx.subject_code = s.subject_code
	AND mtx.course_number = s.course_number`

// fieldColumn maps a canonical field to its SQL column. Aggregate fields
// live on meeting_times and compile through EXISTS; their columns use
// the subquery alias mtx.
type fieldColumn struct {
	column    string
	aggregate bool
}

var fieldColumns = map[ast.Field]fieldColumn{
	ast.FieldSubject:       {column: "c.subject_code"},
	ast.FieldCourse:        {column: "c.number"},
	ast.FieldTitle:         {column: "c.title"},
	ast.FieldDescription:   {column: "c.description"},
	ast.FieldCreditHours:   {column: "c.credit_hours"},
	ast.FieldPrereqs:       {column: "c.prerequisites"},
	ast.FieldCorereqs:      {column: "c.corequisites"},
	ast.FieldMethod:        {column: "s.instruction_method"},
	ast.FieldCampus:        {column: "s.campus"},
	ast.FieldEnrollment:    {column: "s.enrollment"},
	ast.FieldMaxEnrollment: {column: "s.max_enrollment"},
	ast.FieldMeetingType:   {column: "mtx.meeting_type", aggregate: true},
	ast.FieldStart:         {column: "mtx.start_minutes", aggregate: true},
	ast.FieldEnd:           {column: "mtx.end_minutes", aggregate: true},
	ast.FieldBuilding:      {column: "mtx.building", aggregate: true},
	ast.FieldRoom:          {column: "mtx.room", aggregate: true},
	ast.FieldAccessibility: {column: "mtx.accessibility", aggregate: true},
	ast.FieldIsMonday:      {column: "mtx.is_monday", aggregate: true},
	ast.FieldIsTuesday:     {column: "mtx.is_tuesday", aggregate: true},
	ast.FieldIsWednesday:   {column: "mtx.is_wednesday", aggregate: true},
	ast.FieldIsThursday:    {column: "mtx.is_thursday", aggregate: true},
	ast.FieldIsFriday:      {column: "mtx.is_friday", aggregate: true},
	ast.FieldIsSaturday:    {column: "mtx.is_saturday", aggregate: true},
	ast.FieldIsSunday:      {column: "mtx.is_sunday", aggregate: true},
}

// Generator compiles normalized queries to SQL.
type Generator struct{}

// NewGenerator creates a new Generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate converts a normalized query to parameterized SQL. An empty
// query produces the base query with no WHERE clause. The returned
// params hold one value per ? placeholder, in placeholder order.
func (g *Generator) Generate(q *ast.Query) (string, []any, error) {
	if q == nil || q.Root == nil {
		return BaseQuery, []any{}, nil
	}
	where, params, err := g.genExpr(q.Root)
	if err != nil {
		return "", nil, err
	}
	return BaseQuery + "\nWHERE " + where, params, nil
}

func (g *Generator) genExpr(e ast.Expr) (string, []any, error) {
	switch n := e.(type) {
	case ast.And:
		return g.genBinary(n.Left, n.Right, "AND")
	case ast.Or:
		return g.genBinary(n.Left, n.Right, "OR")
	case ast.Not:
		child, params, err := g.genExpr(n.Child)
		if err != nil {
			return "", nil, err
		}
		return "NOT (" + child + ")", params, nil
	case ast.FieldPredicate:
		return g.genPredicate(n)
	default:
		return "", nil, fmt.Errorf("unsupported node type in normalized tree: %T", e)
	}
}

func (g *Generator) genBinary(left, right ast.Expr, op string) (string, []any, error) {
	leftSQL, leftParams, err := g.genExpr(left)
	if err != nil {
		return "", nil, err
	}
	rightSQL, rightParams, err := g.genExpr(right)
	if err != nil {
		return "", nil, err
	}
	sql := fmt.Sprintf("(%s) %s (%s)", leftSQL, op, rightSQL)
	return sql, append(leftParams, rightParams...), nil
}

func (g *Generator) genPredicate(p ast.FieldPredicate) (string, []any, error) {
	if p.Field == ast.FieldFull {
		return genFull(p)
	}
	if p.Field == ast.FieldProf {
		return genProf(p)
	}

	col, ok := fieldColumns[p.Field]
	if !ok {
		return "", nil, fmt.Errorf("no column mapping for field %q", string(p.Field))
	}

	frag, params, err := genComparison(col.column, p)
	if err != nil {
		return "", nil, err
	}
	if col.aggregate {
		return wrapExists(frag), params, nil
	}
	return frag, params, nil
}

// genComparison emits the predicate fragment for a single column.
func genComparison(column string, p ast.FieldPredicate) (string, []any, error) {
	switch v := p.Value.(type) {
	case ast.String:
		return genStringComparison(column, p.Op, v.Text)
	case ast.Integer:
		if isDayField(p.Field) {
			// Day flags compare against a literal 0/1, not a parameter.
			return fmt.Sprintf("%s = %d", column, v.N), nil, nil
		}
		if !isComparisonOp(p.Op) {
			return "", nil, fmt.Errorf("operator %q invalid for column %s", p.Op, column)
		}
		return fmt.Sprintf("%s %s ?", column, p.Op), []any{v.N}, nil
	case ast.Time:
		if !isComparisonOp(p.Op) {
			return "", nil, fmt.Errorf("operator %q invalid for column %s", p.Op, column)
		}
		return fmt.Sprintf("%s %s ?", column, p.Op), []any{int64(v.Minutes)}, nil
	case ast.TimeRange:
		frag := fmt.Sprintf("(%s >= ? AND %s <= ?)", column, column)
		return frag, []any{int64(v.From.Minutes), int64(v.To.Minutes)}, nil
	}
	return "", nil, fmt.Errorf("unsupported value type %T for column %s", p.Value, column)
}

// genStringComparison emits case-insensitive string matching. LIKE
// patterns lowercase the needle into the parameter; equality lowercases
// both sides in SQL so the value binds unmodified.
func genStringComparison(column string, op ast.Op, text string) (string, []any, error) {
	switch op {
	case ast.OpContains:
		return fmt.Sprintf("LOWER(%s) LIKE ?", column), []any{"%" + strings.ToLower(text) + "%"}, nil
	case ast.OpStartsWith:
		return fmt.Sprintf("LOWER(%s) LIKE ?", column), []any{strings.ToLower(text) + "%"}, nil
	case ast.OpEndsWith:
		return fmt.Sprintf("LOWER(%s) LIKE ?", column), []any{"%" + strings.ToLower(text)}, nil
	case ast.OpEq:
		return fmt.Sprintf("LOWER(%s) = LOWER(?)", column), []any{text}, nil
	case ast.OpNe:
		return fmt.Sprintf("LOWER(%s) <> LOWER(?)", column), []any{text}, nil
	}
	return "", nil, fmt.Errorf("operator %q invalid for string column %s", op, column)
}

// genProf matches professor predicates against name or email address, so
// "prof contains alan" finds alan@school.edu as well.
func genProf(p ast.FieldPredicate) (string, []any, error) {
	v, ok := p.Value.(ast.String)
	if !ok {
		return "", nil, fmt.Errorf("professor predicate requires a text value, got %T", p.Value)
	}
	nameFrag, nameParams, err := genStringComparison("p.name", p.Op, v.Text)
	if err != nil {
		return "", nil, err
	}
	emailFrag, emailParams, err := genStringComparison("p.email_address", p.Op, v.Text)
	if err != nil {
		return "", nil, err
	}
	sql := fmt.Sprintf("(%s OR %s)", nameFrag, emailFrag)
	return sql, append(nameParams, emailParams...), nil
}

// genFull expands the synthetic full predicate: a section is full when
// enrollment has reached its cap.
func genFull(p ast.FieldPredicate) (string, []any, error) {
	v, ok := p.Value.(ast.Integer)
	if !ok {
		return "", nil, fmt.Errorf("full predicate requires a normalized truth value, got %T", p.Value)
	}
	if v.N == 1 {
		return "s.enrollment >= s.max_enrollment", nil, nil
	}
	return "s.enrollment < s.max_enrollment", nil, nil
}

func wrapExists(frag string) string {
	return "EXISTS (SELECT 1 FROM meeting_times mtx WHERE " + meetingTimeKey + " AND " + frag + ")"
}

func isComparisonOp(op ast.Op) bool {
	switch op {
	case ast.OpEq, ast.OpNe, ast.OpLt, ast.OpGt, ast.OpLe, ast.OpGe:
		return true
	}
	return false
}

func isDayField(f ast.Field) bool {
	switch f {
	case ast.FieldIsMonday, ast.FieldIsTuesday, ast.FieldIsWednesday,
		ast.FieldIsThursday, ast.FieldIsFriday, ast.FieldIsSaturday, ast.FieldIsSunday:
		return true
	}
	return false
}
