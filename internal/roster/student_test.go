package roster

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func sampleStore() *StudentStore {
	return NewStudentStore([]StudentRecord{
		{RollNumber: "104", Name: "Dan Brook"},
		{RollNumber: "101", Name: "Jane Doe"},
		{RollNumber: "110", Name: "Eve Short"},
		{RollNumber: "102", Name: "Bob Stone"},
		{RollNumber: "107", Name: "Carol King"},
	})
}

func TestLoadStudentsSortsNumerically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "student.json")
	content := `[
		{"Roll_Number": "110", "Name": "Eve Short"},
		{"Roll_Number": "9", "Name": "Amy Low", "Section": "B"},
		{"Roll_Number": "101", "Name": "Jane Doe"}
	]`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write student file: %v", err)
	}
	store, err := LoadStudents(path)
	if err != nil {
		t.Fatalf("LoadStudents() failed: %v", err)
	}
	records := store.Records()
	for i := 1; i < len(records); i++ {
		prev, _ := strconv.Atoi(records[i-1].RollNumber)
		cur, _ := strconv.Atoi(records[i].RollNumber)
		if prev > cur {
			t.Fatalf("records not sorted: %d before %d", prev, cur)
		}
	}
	// "9" sorts before "101" numerically, not lexically.
	if records[0].RollNumber != "9" {
		t.Fatalf("first record = %s, want 9", records[0].RollNumber)
	}
}

func TestLoadStudentsRejectsNonNumericRoll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "student.json")
	if err := os.WriteFile(path, []byte(`[{"Roll_Number": "x1", "Name": "Bad"}]`), 0o644); err != nil {
		t.Fatalf("write student file: %v", err)
	}
	if _, err := LoadStudents(path); err == nil {
		t.Fatal("expected error for non-numeric roll in data file")
	}
}

func TestValidateFindsEveryRecord(t *testing.T) {
	store := sampleStore()
	for _, want := range store.Records() {
		got := store.Validate(want.RollNumber, want.Name)
		if got == nil {
			t.Fatalf("Validate(%s, %s) returned nil", want.RollNumber, want.Name)
		}
		if !got.Equal(want) {
			t.Fatalf("Validate(%s, %s) = %+v, want %+v", want.RollNumber, want.Name, got, want)
		}
	}
}

func TestValidateMisses(t *testing.T) {
	store := sampleStore()
	if store.Validate("999", "Jane Doe") != nil {
		t.Error("absent roll should return nil")
	}
	if store.Validate("101", "Wrong Name") != nil {
		t.Error("wrong name should return nil")
	}
	if store.Validate("abc", "Jane Doe") != nil {
		t.Error("malformed roll should return nil")
	}
	empty := NewStudentStore(nil)
	if empty.Validate("101", "Jane Doe") != nil {
		t.Error("empty store should return nil")
	}
}

func TestStudentRecordExtras(t *testing.T) {
	path := filepath.Join(t.TempDir(), "student.json")
	content := `[{"Roll_Number": "101", "Name": "Jane Doe", "Section": "A", "Batch": "2026"}]`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write student file: %v", err)
	}
	store, err := LoadStudents(path)
	if err != nil {
		t.Fatalf("LoadStudents() failed: %v", err)
	}
	rec := store.Records()[0]
	values := rec.Values()
	if len(values) != 4 {
		t.Fatalf("Values() length = %d, want 4", len(values))
	}
	if values[0] != "101" || values[1] != "Jane Doe" {
		t.Fatalf("Values() = %v, roll and name must come first", values)
	}
	// Extras sorted by key: Batch before Section.
	if values[2] != "2026" || values[3] != "A" {
		t.Fatalf("Values() extras = %v, want [2026 A]", values[2:])
	}
}

func TestParseIdentityPayload(t *testing.T) {
	roll, name, ok := ParseIdentityPayload("['101', 'Jane Doe']")
	if !ok || roll != "101" || name != "Jane Doe" {
		t.Fatalf("ParseIdentityPayload = (%s, %s, %v)", roll, name, ok)
	}

	if _, _, ok := ParseIdentityPayload("['101']"); ok {
		t.Error("single-field payload should not parse")
	}
	if _, _, ok := ParseIdentityPayload(""); ok {
		t.Error("empty payload should not parse")
	}
}

func TestEncodePayloadRoundTrip(t *testing.T) {
	rec := StudentRecord{RollNumber: "107", Name: "Carol King", Extras: []Field{{Key: "Section", Value: "A"}}}
	payload := EncodeIdentityPayload(rec)
	if payload != "['107', 'Carol King', 'A']" {
		t.Fatalf("EncodeIdentityPayload = %q", payload)
	}
	roll, name, ok := ParseIdentityPayload(payload)
	if !ok || roll != rec.RollNumber || name != rec.Name {
		t.Fatalf("round trip = (%s, %s, %v)", roll, name, ok)
	}
}
