package timetable

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// LectureTable maps section name -> weekday name -> ordered subject list,
// where the list index is the lecture-of-day.
type LectureTable map[string]map[string][]string

// LoadLectures reads the lecture file.
func LoadLectures(path string) (LectureTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lecture file: %w", err)
	}
	var table LectureTable
	if err := json.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("parse lecture file: %w", err)
	}
	return table, nil
}

// Subject resolves the subject taught to a section at the given lecture
// index on the given weekday. Missing section, weekday or index yields "".
func (t LectureTable) Subject(section string, day time.Weekday, index int) string {
	week, ok := t[section]
	if !ok {
		return ""
	}
	subjects, ok := week[day.String()]
	if !ok || index < 0 || index >= len(subjects) {
		return ""
	}
	return subjects[index]
}

// HasSection reports whether the section exists in the table.
func (t LectureTable) HasSection(section string) bool {
	_, ok := t[section]
	return ok
}

// IsHoliday reports whether a known section has no lectures on the given
// weekday.
func (t LectureTable) IsHoliday(section string, day time.Weekday) bool {
	week, ok := t[section]
	if !ok {
		return false
	}
	_, scheduled := week[day.String()]
	return !scheduled
}
