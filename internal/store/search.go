package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Section is one row of the compiler's fixed projection: a course
// section with its joined course, primary professor, and one meeting
// time (sections with several meeting times produce several rows).
type Section struct {
	SubjectCode     string
	CourseNumber    string
	Title           sql.NullString
	Description     sql.NullString
	CreditHours     float64
	Prerequisites   sql.NullString
	Corequisites    sql.NullString
	SectionSequence string
	MaxEnrollment   sql.NullInt64
	Enrollment      sql.NullInt64
	Method          sql.NullString
	Campus          sql.NullString
	ProfessorName   sql.NullString
	ProfessorEmail  sql.NullString
	TermName        sql.NullString
	StartMinutes    sql.NullInt64
	EndMinutes      sql.NullInt64
	MeetingType     sql.NullString
	IsMonday        sql.NullBool
	IsTuesday       sql.NullBool
	IsWednesday     sql.NullBool
	IsThursday      sql.NullBool
	IsFriday        sql.NullBool
	IsSaturday      sql.NullBool
	IsSunday        sql.NullBool
}

// Code formats the section as "CS 101-001".
func (s Section) Code() string {
	return fmt.Sprintf("%s %s-%s", s.SubjectCode, s.CourseNumber, s.SectionSequence)
}

// DaySummary formats meeting days as registrar-style letters, e.g.
// "MWF" or "TR" (R is Thursday).
func (s Section) DaySummary() string {
	var b strings.Builder
	days := []struct {
		set    sql.NullBool
		letter string
	}{
		{s.IsMonday, "M"},
		{s.IsTuesday, "T"},
		{s.IsWednesday, "W"},
		{s.IsThursday, "R"},
		{s.IsFriday, "F"},
		{s.IsSaturday, "S"},
		{s.IsSunday, "U"},
	}
	for _, d := range days {
		if d.set.Valid && d.set.Bool {
			b.WriteString(d.letter)
		}
	}
	if b.Len() == 0 {
		return "TBA"
	}
	return b.String()
}

// TimeSummary formats the meeting window as "9:30am-10:45am", or "TBA"
// when no meeting time is recorded.
func (s Section) TimeSummary() string {
	if !s.StartMinutes.Valid || !s.EndMinutes.Valid {
		return "TBA"
	}
	return formatMinutes(int(s.StartMinutes.Int64)) + "-" + formatMinutes(int(s.EndMinutes.Int64))
}

func formatMinutes(m int) string {
	hour := m / 60
	minute := m % 60
	suffix := "am"
	if hour >= 12 {
		suffix = "pm"
	}
	h12 := hour % 12
	if h12 == 0 {
		h12 = 12
	}
	return fmt.Sprintf("%d:%02d%s", h12, minute, suffix)
}

// Search executes a compiled query against the catalog and scans the
// fixed projection. The SQL must come from the ClassQL code generator;
// the parameter order is the generator's placeholder order.
func (s *Store) Search(ctx context.Context, query string, params []any) ([]Section, error) {
	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	defer rows.Close()

	var sections []Section
	for rows.Next() {
		var sec Section
		err := rows.Scan(
			&sec.SubjectCode,
			&sec.CourseNumber,
			&sec.Title,
			&sec.Description,
			&sec.CreditHours,
			&sec.Prerequisites,
			&sec.Corequisites,
			&sec.SectionSequence,
			&sec.MaxEnrollment,
			&sec.Enrollment,
			&sec.Method,
			&sec.Campus,
			&sec.ProfessorName,
			&sec.ProfessorEmail,
			&sec.TermName,
			&sec.StartMinutes,
			&sec.EndMinutes,
			&sec.MeetingType,
			&sec.IsMonday,
			&sec.IsTuesday,
			&sec.IsWednesday,
			&sec.IsThursday,
			&sec.IsFriday,
			&sec.IsSaturday,
			&sec.IsSunday,
		)
		if err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		sections = append(sections, sec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sections: %w", err)
	}

	// Return empty slice instead of nil
	if sections == nil {
		sections = []Section{}
	}
	return sections, nil
}
