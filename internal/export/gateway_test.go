package export

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"amc/internal/roster"
	"amc/internal/session"
)

func sampleBatch() session.Batch {
	return session.Batch{
		ID:   "b-1",
		Host: roster.FacultyRecord{Code: "FAC101", Name: "ada lovelace", Email: "ada@example.edu"},
		Attendees: []roster.StudentRecord{
			{RollNumber: "110", Name: "eve short"},
			{RollNumber: "101", Name: "jane doe"},
		},
		Subject:   "Mathematics",
		SlotIndex: 0,
		SlotRange: "(09:00-10:00)",
		FlushedAt: time.Date(2026, time.March, 9, 10, 0, 0, 0, time.UTC),
	}
}

func TestExportBatchWritesArtifact(t *testing.T) {
	g := NewGateway(t.TempDir(), "CSE-A", nil)
	path, err := g.ExportBatch(context.Background(), sampleBatch())
	if err != nil {
		t.Fatalf("ExportBatch() failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	content := string(raw)
	for _, want := range []string{"(09:00-10:00)", "Mathematics", "FAC101", "Ada Lovelace", "Jane Doe", "Eve Short"} {
		if !strings.Contains(content, want) {
			t.Errorf("artifact missing %q:\n%s", want, content)
		}
	}
	// Attendees come out sorted by roll number.
	if strings.Index(content, "101") > strings.Index(content, "110") {
		t.Error("attendees not ordered by roll number")
	}
}

func TestExportDayCombinesBatches(t *testing.T) {
	g := NewGateway(t.TempDir(), "CSE-A", nil)
	second := sampleBatch()
	second.Subject = "Physics"
	second.SlotIndex = 1
	second.SlotRange = "(10:00-11:00)"

	path, err := g.ExportDay(context.Background(), []session.Batch{sampleBatch(), second})
	if err != nil {
		t.Fatalf("ExportDay() failed: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	content := string(raw)
	if !strings.Contains(content, "Mathematics") || !strings.Contains(content, "Physics") {
		t.Fatalf("day artifact missing a lecture:\n%s", content)
	}
}

func TestExportDayEmptyLedger(t *testing.T) {
	g := NewGateway(t.TempDir(), "CSE-A", nil)
	if _, err := g.ExportDay(context.Background(), nil); err == nil {
		t.Fatal("empty ledger should fail")
	}
}

func TestNotifyWithoutMailer(t *testing.T) {
	g := NewGateway(t.TempDir(), "CSE-A", nil)
	err := g.Notify(context.Background(), "/tmp/a.csv", "ada@example.edu", "s", "b")
	if err == nil {
		t.Fatal("unconfigured mailer must surface an error")
	}
}

func TestNewMailerRequiresCredentials(t *testing.T) {
	if NewMailer("smtp.example.com", 587, "", "") != nil {
		t.Fatal("missing credentials should yield nil mailer")
	}
	if NewMailer("smtp.example.com", 587, "user", "pass") == nil {
		t.Fatal("complete credentials should yield a mailer")
	}
}
