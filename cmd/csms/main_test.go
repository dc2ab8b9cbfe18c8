package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/phmhse/csmstrack/internal/db"
	"github.com/phmhse/csmstrack/internal/models"
	"github.com/phmhse/csmstrack/internal/store"
)

func run(t *testing.T, in string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetIn(strings.NewReader(in))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// writeConfig writes a sqlite-backed config into a temp dir.
func writeConfig(t *testing.T) (cfgPath, dbPath string) {
	t.Helper()
	dir := t.TempDir()
	dbPath = filepath.Join(dir, "csms.db")
	cfgPath = filepath.Join(dir, "csms.yaml")
	cfg := fmt.Sprintf(`timezone: Asia/Jakarta
database:
  driver: sqlite
  dsn: %s
reminders:
  fallback_recipient: hse@example.com
logging:
  level: warn
`, dbPath)
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	return cfgPath, dbPath
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, "", "version")
	if err != nil {
		t.Fatalf("version command failed: %v", err)
	}
	if !strings.Contains(out, "csms dev") {
		t.Errorf("expected output to contain 'csms dev', got: %s", out)
	}
	if !strings.Contains(out, "commit: none") {
		t.Errorf("expected output to contain 'commit: none', got: %s", out)
	}
}

func TestVersionCmdWithCustomValues(t *testing.T) {
	origVersion, origCommit, origDate := Version, Commit, Date
	Version, Commit, Date = "1.0.0", "abc123", "2026-01-01"
	defer func() { Version, Commit, Date = origVersion, origCommit, origDate }()

	out, err := run(t, "", "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "csms 1.0.0 (commit: abc123, built: 2026-01-01)") {
		t.Errorf("unexpected version output: %s", out)
	}
}

func TestRootCmd_ListsSubcommands(t *testing.T) {
	out, err := run(t, "", "--help")
	if err != nil {
		t.Fatal(err)
	}
	for _, sub := range []string{"serve", "remind", "report", "db", "version"} {
		if !strings.Contains(out, sub) {
			t.Errorf("help should list %q, got: %s", sub, out)
		}
	}
}

func TestCommands_DefaultConfigFlag(t *testing.T) {
	for _, args := range [][]string{
		{"serve", "--help"},
		{"remind", "--help"},
		{"report", "--help"},
		{"db", "init", "--help"},
		{"db", "reset", "--help"},
	} {
		out, err := run(t, "", args...)
		if err != nil {
			t.Fatalf("%v failed: %v", args, err)
		}
		if !strings.Contains(out, "--config") || !strings.Contains(out, "csms.yaml") {
			t.Errorf("%v: expected --config defaulting to csms.yaml, got: %s", args, out)
		}
	}
}

func TestCommands_MissingConfig(t *testing.T) {
	for _, args := range [][]string{
		{"remind", "--config", "/nonexistent/csms.yaml"},
		{"report", "--all", "--config", "/nonexistent/csms.yaml"},
		{"db", "init", "--config", "/nonexistent/csms.yaml"},
	} {
		_, err := run(t, "", args...)
		if err == nil {
			t.Fatalf("%v: expected error for missing config", args)
		}
		if !strings.Contains(err.Error(), "load config") {
			t.Errorf("%v: error = %q, want to mention load config", args, err)
		}
	}
}

func TestDBInitAndReset(t *testing.T) {
	cfg, _ := writeConfig(t)

	out, err := run(t, "", "db", "init", "--config", cfg)
	if err != nil {
		t.Fatalf("db init: %v", err)
	}
	want := fmt.Sprintf("Migrated %d tables", len(db.AllModels()))
	if !strings.Contains(out, want) {
		t.Errorf("expected %q, got: %s", want, out)
	}

	out, err = run(t, "no\n", "db", "reset", "--config", cfg)
	if err != nil {
		t.Fatalf("db reset: %v", err)
	}
	if !strings.Contains(out, "Aborted.") {
		t.Errorf("expected abort without 'yes', got: %s", out)
	}

	out, err = run(t, "", "db", "reset", "--yes", "--config", cfg)
	if err != nil {
		t.Fatalf("db reset --yes: %v", err)
	}
	if !strings.Contains(out, "Dropped all tables") {
		t.Errorf("expected tables dropped, got: %s", out)
	}
}

func seedProject(t *testing.T, dbPath string) *models.Project {
	t.Helper()
	gdb, err := db.Connect("sqlite", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	}()
	p, err := store.CreateProject(context.Background(), gdb, &models.Project{
		Name: "Rig A", StartDate: "2024-06-01", EndDate: "2024-06-30",
	})
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestReportCmd_WritesFile(t *testing.T) {
	cfg, dbPath := writeConfig(t)
	if _, err := run(t, "", "db", "init", "--config", cfg); err != nil {
		t.Fatal(err)
	}
	p := seedProject(t, dbPath)

	dir := t.TempDir()
	out, err := run(t, "", "report", "--config", cfg, "--project", p.ID, "--format", "csv", "--out", dir)
	if err != nil {
		t.Fatalf("report: %v\n%s", err, out)
	}
	if !strings.Contains(out, "CSMS Compliance Report - Rig A") {
		t.Errorf("expected title in output, got: %s", out)
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "CSMS_Report_Rig_A_*.csv"))
	if len(matches) != 1 {
		t.Fatalf("expected one csv in %s, got %v", dir, matches)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(string(data), "\n"); got != 2+len(store.StandardTasks) {
		t.Errorf("csv lines = %d, want %d", got, 2+len(store.StandardTasks))
	}
}

func TestReportCmd_Errors(t *testing.T) {
	cfg, _ := writeConfig(t)
	if _, err := run(t, "", "db", "init", "--config", cfg); err != nil {
		t.Fatal(err)
	}

	if _, err := run(t, "", "report", "--config", cfg, "--format", "docx", "--all"); err == nil {
		t.Error("expected error for unsupported format")
	}
	if _, err := run(t, "", "report", "--config", cfg); err == nil {
		t.Error("expected error for an empty selection")
	}
	if _, err := run(t, "", "report", "--config", cfg, "--all", "--upload"); err == nil ||
		!strings.Contains(err.Error(), "drive is not configured") {
		t.Errorf("expected drive error, got %v", err)
	}
}

func TestRemindCmd_RequiresEmailUnlessDryRun(t *testing.T) {
	cfg, _ := writeConfig(t)
	if _, err := run(t, "", "db", "init", "--config", cfg); err != nil {
		t.Fatal(err)
	}

	_, err := run(t, "", "remind", "--config", cfg)
	if err == nil || !strings.Contains(err.Error(), "email.api_key") {
		t.Fatalf("expected email error, got %v", err)
	}

	out, err := run(t, "", "remind", "--dry-run", "--config", cfg)
	if err != nil {
		t.Fatalf("remind --dry-run: %v", err)
	}
	if !strings.Contains(out, "(dry run)") {
		t.Errorf("expected dry-run summary, got: %s", out)
	}

	out, err = run(t, "", "remind", "--preview", "--config", cfg)
	if err != nil {
		t.Fatalf("remind --preview: %v", err)
	}
	if !strings.Contains(out, "No reminders due.") {
		t.Errorf("expected empty preview, got: %s", out)
	}
}

func TestOutputPath(t *testing.T) {
	dir := t.TempDir()
	if got := outputPath(dir, "r.pdf"); got != filepath.Join(dir, "r.pdf") {
		t.Errorf("outputPath(dir) = %q", got)
	}
	file := filepath.Join(dir, "custom.pdf")
	if got := outputPath(file, "r.pdf"); got != file {
		t.Errorf("outputPath(file) = %q", got)
	}
}
