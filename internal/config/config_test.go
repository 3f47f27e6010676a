package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"atelier/internal/config"
)

func TestDefaultPolicyValues(t *testing.T) {
	cfg := config.Default()
	if cfg.Compliance.GracePeriodDays != 7 {
		t.Fatalf("expected 7 day grace period, got %d", cfg.Compliance.GracePeriodDays)
	}
	if cfg.Compliance.CycleDays != 7 {
		t.Fatalf("expected 7 day cycle, got %d", cfg.Compliance.CycleDays)
	}
	if cfg.Compliance.CycleRequirement != 2 {
		t.Fatalf("expected requirement of 2, got %d", cfg.Compliance.CycleRequirement)
	}
	if cfg.Reminders.PlanDays != 30 {
		t.Fatalf("expected 30 plan days, got %d", cfg.Reminders.PlanDays)
	}
	if cfg.Reminders.SendHour != 9 {
		t.Fatalf("expected send hour 9, got %d", cfg.Reminders.SendHour)
	}
	if cfg.Reminders.DefaultTimezone != "UTC" {
		t.Fatalf("expected UTC default timezone, got %q", cfg.Reminders.DefaultTimezone)
	}
}

func TestLoadAppliesFileValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
data_dir = "` + filepath.Join(dir, "data") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"
api_bind = "127.0.0.1:0"

[compliance]
grace_period_days = 14
cycle_days = 7
cycle_requirement = 3

[reminders]
send_hour = 7
default_timezone = "America/New_York"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if resolved != path {
		t.Fatalf("expected resolved path %q, got %q", path, resolved)
	}
	if cfg.Compliance.GracePeriodDays != 14 {
		t.Fatalf("expected grace 14, got %d", cfg.Compliance.GracePeriodDays)
	}
	if cfg.Compliance.CycleRequirement != 3 {
		t.Fatalf("expected requirement 3, got %d", cfg.Compliance.CycleRequirement)
	}
	if cfg.Reminders.SendHour != 7 {
		t.Fatalf("expected send hour 7, got %d", cfg.Reminders.SendHour)
	}
	if cfg.Reminders.DefaultTimezone != "America/New_York" {
		t.Fatalf("expected America/New_York, got %q", cfg.Reminders.DefaultTimezone)
	}
}

func TestLoadMissingExplicitPathFails(t *testing.T) {
	if _, _, err := config.Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatal("expected error for missing explicit config path")
	}
}

func TestValidateRejectsShortGrace(t *testing.T) {
	cfg := config.Default()
	cfg.Compliance.GracePeriodDays = 3
	cfg.Compliance.CycleDays = 7
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error for grace shorter than cycle")
	}
	if !strings.Contains(err.Error(), "grace_period_days") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsBadTimezone(t *testing.T) {
	cfg := config.Default()
	cfg.Reminders.DefaultTimezone = "Mars/Olympus_Mons"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for unknown timezone")
	}
}

func TestValidateRejectsBadGatewayURL(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.GatewayURL = "mail.example.com"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for non-http gateway URL")
	}
}
