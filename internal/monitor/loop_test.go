package monitor

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"amc/internal/queue"
	"amc/internal/roster"
	"amc/internal/session"
	"amc/internal/timetable"
)

type nullGateway struct{}

func (nullGateway) ExportBatch(ctx context.Context, b session.Batch) (string, error) {
	return "/tmp/a.csv", nil
}
func (nullGateway) ExportDay(ctx context.Context, b []session.Batch) (string, error) {
	return "/tmp/d.csv", nil
}
func (nullGateway) Notify(ctx context.Context, a, r, s, body string) error { return nil }

type nullFeedback struct{}

func (nullFeedback) Play(kind session.Kind, detail string) {}

func newMachine(t *testing.T, breakpoints []string) (*session.Machine, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "faculty.json")
	content := `[{"Code": "FAC101", "Name": "Ada Lovelace", "Email": "ada@example.edu"}]`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write faculty file: %v", err)
	}
	faculty, err := roster.LoadFaculty(path, 100000, time.Now())
	if err != nil {
		t.Fatalf("LoadFaculty() failed: %v", err)
	}
	students := roster.NewStudentStore([]roster.StudentRecord{{RollNumber: "101", Name: "Jane Doe"}})
	oracle, err := timetable.FromBreakpoints(breakpoints)
	if err != nil {
		t.Fatalf("FromBreakpoints() failed: %v", err)
	}
	lectures := timetable.LectureTable{"CSE-A": {time.Monday.String(): {"Mathematics"}}}
	machine := session.New(session.Config{Section: "CSE-A", WarnLead: 5 * time.Minute},
		faculty, students, oracle, lectures, nullGateway{}, nullFeedback{})
	return machine, strconv.Itoa(faculty.Records()[0].Token)
}

func TestLoopHaltsOutsideHours(t *testing.T) {
	machine, _ := newMachine(t, []string{"09:00", "10:00"})
	clock := func() time.Time {
		return time.Date(2026, time.March, 9, 15, 0, 0, 0, time.UTC)
	}
	loop := New(machine, queue.NewInMemory(4), 5*time.Millisecond, clock)

	done := make(chan error, 1)
	go func() { done <- loop.Run(context.Background()) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() = %v, want nil on out-of-hours halt", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not halt outside operating hours")
	}
}

func TestLoopFeedsScansIntoMachine(t *testing.T) {
	machine, token := newMachine(t, []string{"09:00", "10:00"})
	clock := func() time.Time {
		return time.Date(2026, time.March, 9, 9, 30, 0, 0, time.UTC)
	}
	scans := queue.NewInMemory(4)
	loop := New(machine, scans, 5*time.Millisecond, clock)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	if err := scans.Publish(ctx, queue.Scan{ID: "1", Payload: token}); err != nil {
		t.Fatalf("Publish() failed: %v", err)
	}
	if err := scans.Publish(ctx, queue.Scan{ID: "2", Payload: "['101', 'Jane Doe']"}); err != nil {
		t.Fatalf("Publish() failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		snap := machine.Snapshot()
		if snap.State == "authenticated" && snap.AttendeeCount == 1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	snap := machine.Snapshot()
	if snap.State != "authenticated" || snap.AttendeeCount != 1 {
		t.Fatalf("machine did not process scans: %+v", snap)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop on cancel")
	}
}
