package roster

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
)

// Field is one extra attribute of a student record, carried verbatim into
// the identity payload.
type Field struct {
	Key   string
	Value string
}

// StudentRecord is one attendee entry. Extra fields beyond roll number and
// name are preserved in sorted key order so payload rendering stays
// deterministic.
type StudentRecord struct {
	RollNumber string
	Name       string
	Extras     []Field
}

// UnmarshalJSON keeps unknown fields instead of dropping them.
func (r *StudentRecord) UnmarshalJSON(data []byte) error {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	for key, val := range fields {
		text := fmt.Sprint(val)
		switch key {
		case "Roll_Number":
			r.RollNumber = text
		case "Name":
			r.Name = text
		default:
			r.Extras = append(r.Extras, Field{Key: key, Value: text})
		}
	}
	sort.Slice(r.Extras, func(i, j int) bool { return r.Extras[i].Key < r.Extras[j].Key })
	return nil
}

// Values returns the record's values in payload order: roll number, name,
// then extras.
func (r StudentRecord) Values() []string {
	vals := make([]string, 0, 2+len(r.Extras))
	vals = append(vals, r.RollNumber, r.Name)
	for _, f := range r.Extras {
		vals = append(vals, f.Value)
	}
	return vals
}

// Equal compares full record value equality, extras included.
func (r StudentRecord) Equal(other StudentRecord) bool {
	if r.RollNumber != other.RollNumber || r.Name != other.Name || len(r.Extras) != len(other.Extras) {
		return false
	}
	for i := range r.Extras {
		if r.Extras[i] != other.Extras[i] {
			return false
		}
	}
	return true
}

// StudentStore holds the attendee roster sorted ascending by numeric roll
// number. The sort happens once at load and is never repeated.
type StudentStore struct {
	records []StudentRecord
}

// LoadStudents reads and sorts the student roster. A record whose roll
// number is not numeric-comparable is a data error, not a query error.
func LoadStudents(path string) (*StudentStore, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read student roster: %w", err)
	}
	var records []StudentRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("parse student roster: %w", err)
	}
	for _, rec := range records {
		if _, err := strconv.Atoi(rec.RollNumber); err != nil {
			return nil, fmt.Errorf("student roster: non-numeric roll number %q", rec.RollNumber)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		a, _ := strconv.Atoi(records[i].RollNumber)
		b, _ := strconv.Atoi(records[j].RollNumber)
		return a < b
	})
	return &StudentStore{records: records}, nil
}

// NewStudentStore builds a store from in-memory records, sorting once.
func NewStudentStore(records []StudentRecord) *StudentStore {
	sorted := make([]StudentRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool {
		a, _ := strconv.Atoi(sorted[i].RollNumber)
		b, _ := strconv.Atoi(sorted[j].RollNumber)
		return a < b
	})
	return &StudentStore{records: sorted}
}

// Validate looks up a scanned roll/name pair with a binary search over the
// sorted roster. An exact roll match is accepted only when the name also
// matches exactly. Malformed queries return nil rather than failing.
func (s *StudentStore) Validate(roll, name string) *StudentRecord {
	query, err := strconv.Atoi(roll)
	if err != nil {
		return nil
	}
	low, high := 0, len(s.records)-1
	for low <= high {
		mid := (low + high) / 2
		candidate, err := strconv.Atoi(s.records[mid].RollNumber)
		if err != nil {
			return nil
		}
		if candidate == query && s.records[mid].Name == name {
			rec := s.records[mid]
			return &rec
		}
		if candidate > query {
			high = mid - 1
		} else {
			low = mid + 1
		}
	}
	return nil
}

// Records returns the sorted roster.
func (s *StudentStore) Records() []StudentRecord {
	return s.records
}
