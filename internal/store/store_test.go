package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CFdefense/ClassQL/internal/compiler"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

// seedCatalog inserts one school with two sections: an in-person MWF
// morning operating systems course taught by Alan, and an online afternoon
// calculus course with no free seats.
func seedCatalog(t *testing.T, st *Store) {
	t.Helper()
	stmts := []struct {
		query string
		args  []any
	}{
		{`INSERT INTO schools (id, name) VALUES (?, ?)`,
			[]any{"marist", "Marist College"}},
		{`INSERT INTO term_collections (id, school_id, year, season, name, still_collecting) VALUES (?, ?, ?, ?, ?, 0)`,
			[]any{"202640", "marist", 2026, "Spring", "Spring 2026"}},
		{`INSERT INTO professors (id, school_id, name, email_address, first_name, last_name) VALUES (?, ?, ?, ?, ?, ?)`,
			[]any{"p1", "marist", "Alan Labouseur", "alan.labouseur@marist.edu", "Alan", "Labouseur"}},
		{`INSERT INTO professors (id, school_id, name, email_address, first_name, last_name) VALUES (?, ?, ?, ?, ?, ?)`,
			[]any{"p2", "marist", "Grace Hopper", "grace.hopper@marist.edu", "Grace", "Hopper"}},
		{`INSERT INTO courses (school_id, subject_code, number, title, description, credit_hours) VALUES (?, ?, ?, ?, ?, ?)`,
			[]any{"marist", "CMPT", "424N", "Operating Systems", "Design of operating systems", 4}},
		{`INSERT INTO courses (school_id, subject_code, number, title, description, credit_hours) VALUES (?, ?, ?, ?, ?, ?)`,
			[]any{"marist", "MATH", "210", "Calculus I", "Limits and derivatives", 3}},
		{`INSERT INTO sections (sequence, term_collection_id, subject_code, course_number, school_id, max_enrollment, instruction_method, campus, enrollment, primary_professor_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			[]any{"001", "202640", "CMPT", "424N", "marist", 30, "In Person", "Main", 12, "p1"}},
		{`INSERT INTO sections (sequence, term_collection_id, subject_code, course_number, school_id, max_enrollment, instruction_method, campus, enrollment, primary_professor_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			[]any{"002", "202640", "MATH", "210", "marist", 25, "Online", "Main", 25, "p2"}},
		{`INSERT INTO meeting_times (section_sequence, term_collection_id, subject_code, course_number, school_id, meeting_type, start_minutes, end_minutes, building, room, is_monday, is_wednesday, is_friday) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, 1, 1)`,
			[]any{"001", "202640", "CMPT", "424N", "marist", "Lecture", 570, 645, "Hancock", "2023"}},
		{`INSERT INTO meeting_times (section_sequence, term_collection_id, subject_code, course_number, school_id, meeting_type, start_minutes, end_minutes, is_tuesday, is_thursday) VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1, 1)`,
			[]any{"002", "202640", "MATH", "210", "marist", "Lecture", 840, 915}},
	}
	for _, stmt := range stmts {
		_, err := st.DB().Exec(stmt.query, stmt.args...)
		require.NoError(t, err, "seed: %s", stmt.query)
	}
}

// search compiles a ClassQL query and runs it against the store.
func search(t *testing.T, st *Store, query string) []Section {
	t.Helper()
	result, diags := compiler.Compile(query)
	require.Empty(t, diags, "compile %q: %v", query, diags)
	sections, err := st.Search(context.Background(), result.SQL, result.Params)
	require.NoError(t, err)
	return sections
}

func TestOpen_AppliesSchema(t *testing.T) {
	st := openTestStore(t)

	var count int
	err := st.DB().QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'sections'`,
	).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestOpen_Idempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.db")

	first, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	assert.NoError(t, second.Close())
}

func TestSearch_EmptyQueryReturnsAllSections(t *testing.T) {
	st := openTestStore(t)
	seedCatalog(t, st)

	sections := search(t, st, "")
	assert.Len(t, sections, 2)
}

func TestSearch_ProfessorByNameAndEmail(t *testing.T) {
	st := openTestStore(t)
	seedCatalog(t, st)

	byName := search(t, st, "prof contains alan")
	require.Len(t, byName, 1)
	assert.Equal(t, "CMPT 424N-001", byName[0].Code())

	byEmail := search(t, st, `prof ends with "marist.edu"`)
	assert.Len(t, byEmail, 2)
}

func TestSearch_DayPredicateUsesMeetingTimes(t *testing.T) {
	st := openTestStore(t)
	seedCatalog(t, st)

	sections := search(t, st, "monday")
	require.Len(t, sections, 1)
	assert.Equal(t, "CMPT", sections[0].SubjectCode)
	assert.Equal(t, "MWF", sections[0].DaySummary())
}

func TestSearch_TimeComparison(t *testing.T) {
	st := openTestStore(t)
	seedCatalog(t, st)

	morning := search(t, st, "start < 12pm")
	require.Len(t, morning, 1)
	assert.Equal(t, "9:30am-10:45am", morning[0].TimeSummary())
}

func TestSearch_FullSections(t *testing.T) {
	st := openTestStore(t)
	seedCatalog(t, st)

	full := search(t, st, "full")
	require.Len(t, full, 1)
	assert.Equal(t, "MATH", full[0].SubjectCode)

	open := search(t, st, "not full")
	require.Len(t, open, 1)
	assert.Equal(t, "CMPT", open[0].SubjectCode)
}

func TestSearch_CombinedPredicates(t *testing.T) {
	st := openTestStore(t)
	seedCatalog(t, st)

	sections := search(t, st, "sub is (CMPT or MATH) and credit hours at least 4")
	require.Len(t, sections, 1)
	assert.Equal(t, "Operating Systems", sections[0].Title.String)
}

func TestSearch_NoMatches(t *testing.T) {
	st := openTestStore(t)
	seedCatalog(t, st)

	sections := search(t, st, "campus is north")
	assert.NotNil(t, sections)
	assert.Empty(t, sections)
}

func TestSection_Summaries(t *testing.T) {
	sec := Section{
		SubjectCode:     "CMPT",
		CourseNumber:    "424N",
		SectionSequence: "001",
		StartMinutes:    sql.NullInt64{Int64: 570, Valid: true},
		EndMinutes:      sql.NullInt64{Int64: 645, Valid: true},
		IsTuesday:       sql.NullBool{Bool: true, Valid: true},
		IsThursday:      sql.NullBool{Bool: true, Valid: true},
	}

	assert.Equal(t, "CMPT 424N-001", sec.Code())
	assert.Equal(t, "TR", sec.DaySummary())
	assert.Equal(t, "9:30am-10:45am", sec.TimeSummary())

	// No meeting data renders as TBA.
	assert.Equal(t, "TBA", Section{}.DaySummary())
	assert.Equal(t, "TBA", Section{}.TimeSummary())
}

func TestFormatMinutes(t *testing.T) {
	testCases := []struct {
		minutes int
		want    string
	}{
		{0, "12:00am"},
		{720, "12:00pm"},
		{570, "9:30am"},
		{1439, "11:59pm"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, formatMinutes(tc.minutes))
	}
}
