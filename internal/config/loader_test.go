package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_ExpandsEnvironment(t *testing.T) {
	t.Setenv("CRONEXEC_TEST_TZ", "Europe/Berlin")

	path := filepath.Join(t.TempDir(), "schedules.yaml")
	data := `version: "1"
timezone: ${CRONEXEC_TEST_TZ}
dialect: ${CRONEXEC_TEST_DIALECT:-quartz}
schedules:
  - name: morning
    expression: "0 0 9 ? * MON-FRI"
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Timezone != "Europe/Berlin" {
		t.Errorf("Timezone = %q, want Europe/Berlin", cfg.Timezone)
	}
	if cfg.Dialect != "quartz" {
		t.Errorf("Dialect = %q, want the default quartz", cfg.Dialect)
	}
	if len(cfg.Schedules) != 1 || cfg.Schedules[0].Name != "morning" {
		t.Errorf("Schedules = %+v", cfg.Schedules)
	}
}

func TestLoad_UnresolvedVariable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedules.yaml")
	data := "version: \"1\"\ntimezone: ${CRONEXEC_TEST_UNSET_A}\ndialect: ${CRONEXEC_TEST_UNSET_B}\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for unresolved variables")
	}
	for _, name := range []string{"CRONEXEC_TEST_UNSET_A", "CRONEXEC_TEST_UNSET_B"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error should mention %s: %v", name, err)
		}
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("error should wrap a not-exist error: %v", err)
	}
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse([]byte("version: \"1\"\nschedule: []\n"))
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestParse_Limits(t *testing.T) {
	cfg, err := Parse([]byte("version: \"1\"\nlimits:\n  max_iterations: 50\n  max_year_drift: 5\n"))
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if cfg.Limits == nil || cfg.Limits.MaxIterations != 50 || cfg.Limits.MaxYearDrift != 5 {
		t.Errorf("Limits = %+v, want {50 5}", cfg.Limits)
	}
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil) failed: %v", err)
	}
	if cfg.Version != "" || len(cfg.Schedules) != 0 {
		t.Errorf("Parse(nil) = %+v, want zero config", cfg)
	}
}
