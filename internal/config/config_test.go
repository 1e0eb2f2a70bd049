package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoadYAMLAppliesDefaults(t *testing.T) {
	path := writeFile(t, "watersafe.yaml", `
log_level: debug
dataset:
  systems_url: https://example.org/dashboard_data.json
  refresh_interval: 5m
tasks:
  due_soon_days: 0
letters:
  annual_overdue_days: 0
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("log level: %s", cfg.LogLevel)
	}
	if cfg.Dataset.RefreshInterval != 5*time.Minute {
		t.Fatalf("refresh interval: %s", cfg.Dataset.RefreshInterval)
	}
	if cfg.Tasks.DueSoonDays != 7 {
		t.Fatalf("due soon days default not applied: %d", cfg.Tasks.DueSoonDays)
	}
	if cfg.Tasks.FallbackDueDate != DefaultFallbackDueDate {
		t.Fatalf("fallback due date: %s", cfg.Tasks.FallbackDueDate)
	}
	if cfg.Letters.AnnualOverdueDays != 7 {
		t.Fatalf("annual overdue days default not applied: %d", cfg.Letters.AnnualOverdueDays)
	}
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "watersafe.json", `{"dataset":{"systems_url":"systems.json"},"letters":{"default_recipients":250}}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Letters.DefaultRecipients != 250 {
		t.Fatalf("default recipients: %d", cfg.Letters.DefaultRecipients)
	}
}

func TestLoadRejectsEmptyFile(t *testing.T) {
	path := writeFile(t, "empty.yaml", "   \n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for empty config")
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tasks.FallbackDueDate = "12/31/2024"
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected fallback date validation error")
	}
	cfg = DefaultConfig()
	cfg.Publish.Enabled = true
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected publish validation error")
	}
	cfg = DefaultConfig()
	cfg.Mail.Enabled = true
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected mail validation error")
	}
	if err := Validate(DefaultConfig()); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestSaveRoundTripYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := DefaultConfig()
	cfg.API.Addr = ":9090"
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.API.Addr != ":9090" {
		t.Fatalf("addr: %s", loaded.API.Addr)
	}
}

func TestManagerReload(t *testing.T) {
	path := writeFile(t, "watersafe.yaml", "log_level: info\n")
	m, err := NewManager(path)
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	future := time.Now().Add(time.Minute)
	if err := os.WriteFile(path, []byte("log_level: warn\n"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	needs, err := m.NeedsReload()
	if err != nil || !needs {
		t.Fatalf("expected reload needed, got %v %v", needs, err)
	}
	cfg, err := m.Reload()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if cfg.LogLevel != "warn" || m.Get().LogLevel != "warn" {
		t.Fatalf("reload did not apply")
	}
}
