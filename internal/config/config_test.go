package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func validApp(dataDir string) App {
	return App{
		TokenModulus: 100000,
		WarnLead:     5 * time.Minute,
		SectionName:  "CSE-A",
		TickInterval: time.Second,
		DataDir:      dataDir,
	}
}

func TestValidate(t *testing.T) {
	if err := validApp("resource").Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	bad := validApp("resource")
	bad.TokenModulus = 1
	if bad.Validate() == nil {
		t.Error("modulus 1 should be rejected")
	}

	bad = validApp("resource")
	bad.SectionName = ""
	if bad.Validate() == nil {
		t.Error("empty section should be rejected")
	}

	bad = validApp("resource")
	bad.WarnLead = 0
	if bad.Validate() == nil {
		t.Error("zero warn lead should be rejected")
	}
}

func TestValidateGenerator(t *testing.T) {
	// The generator runs without section or tick settings.
	app := App{TokenModulus: 100000}
	if err := app.ValidateGenerator(); err != nil {
		t.Fatalf("generator config rejected: %v", err)
	}

	app.TokenModulus = 1
	if app.ValidateGenerator() == nil {
		t.Error("modulus 1 should be rejected")
	}
}

func TestRequireFiles(t *testing.T) {
	dir := t.TempDir()
	app := validApp(dir)
	if app.RequireFiles() == nil {
		t.Fatal("missing data files should be reported")
	}

	for _, name := range []string{"faculty.json", "student.json", "timing.json", "lecture.json"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("[]"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := app.RequireFiles(); err != nil {
		t.Fatalf("complete data dir rejected: %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	app := Load()
	if app.TokenModulus != 100000 {
		t.Errorf("default modulus = %d", app.TokenModulus)
	}
	if app.WarnLead != 5*time.Minute {
		t.Errorf("default warn lead = %s", app.WarnLead)
	}
	if app.TickInterval != time.Second {
		t.Errorf("default tick interval = %s", app.TickInterval)
	}
}
