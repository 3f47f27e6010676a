package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and API bind configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
	APIToken string `toml:"api_token"`
}

// Compliance contains the seed-upload policy knobs.
type Compliance struct {
	// GracePeriodDays is the elapsed time allowed since the last qualifying
	// upload before an artist is demoted.
	GracePeriodDays int `toml:"grace_period_days"`
	// CycleDays is the recurring obligation window.
	CycleDays int `toml:"cycle_days"`
	// CycleRequirement is the number of qualifying uploads expected per cycle.
	CycleRequirement int `toml:"cycle_requirement"`
	// ScanInterval is the number of seconds between automatic scans.
	ScanInterval int `toml:"scan_interval"`
	// ScanTimeout bounds a single scan pass, in seconds.
	ScanTimeout int `toml:"scan_timeout"`
	// ScanWorkers is the number of concurrent per-artist workers in a scan.
	ScanWorkers int `toml:"scan_workers"`
}

// Reminders contains roadmap reminder scheduling configuration.
type Reminders struct {
	// PlanDays is the expected length of a reminder plan.
	PlanDays int `toml:"plan_days"`
	// SendHour is the local wall-clock hour reminders fire at.
	SendHour int `toml:"send_hour"`
	// DefaultTimezone is used when an artist has no time zone on record.
	DefaultTimezone string `toml:"default_timezone"`
	// PollInterval is the deferred-task poll cadence, in seconds.
	PollInterval int `toml:"poll_interval"`
	// MaxAttempts is how many times a reminder delivery is retried before
	// the task is abandoned.
	MaxAttempts int `toml:"max_attempts"`
	// RetryDelay is the number of seconds before a failed delivery is retried.
	RetryDelay int `toml:"retry_delay"`
}

// Notifications contains configuration for the outbound message gateway.
type Notifications struct {
	GatewayURL         string `toml:"gateway_url"`
	RequestTimeout     int    `toml:"request_timeout"`
	DedupWindowSeconds int    `toml:"dedup_window_seconds"`
	Demotions          bool   `toml:"demotions"`
	Restorations       bool   `toml:"restorations"`
	Reminders          bool   `toml:"reminders"`
}

// Roles contains configuration for the external role directory.
type Roles struct {
	DirectoryURL   string `toml:"directory_url"`
	APIToken       string `toml:"api_token"`
	ArtistRole     string `toml:"artist_role"`
	MemberRole     string `toml:"member_role"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for atelier.
//
// Sections by subsystem:
//   - Paths: data/log directories, API bind address and token
//   - Compliance: grace period, cycle, requirement, scan cadence
//   - Reminders: plan length, local send hour, task runner cadence
//   - Notifications: message gateway settings and per-kind toggles
//   - Roles: role directory endpoint and role names
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Compliance    Compliance    `toml:"compliance"`
	Reminders     Reminders     `toml:"reminders"`
	Notifications Notifications `toml:"notifications"`
	Roles         Roles         `toml:"roles"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/atelier/config.toml")
}

// Load locates, parses, and validates a configuration file. An empty path
// selects the default location; a missing file at the default location is not
// an error and yields the repository defaults. The resolved path (empty when
// defaults were used) is returned alongside the config.
func Load(path string) (*Config, string, error) {
	cfg := Default()

	resolved, explicit, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", err
	}

	data, err := os.ReadFile(resolved)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, "", fmt.Errorf("parse config %s: %w", resolved, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		resolved = ""
	default:
		return nil, "", fmt.Errorf("read config %s: %w", resolved, err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return &cfg, resolved, nil
}

func resolveConfigPath(path string) (resolved string, explicit bool, err error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		return expanded, true, nil
	}
	fallback, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	return fallback, false, nil
}

// WriteSample writes the embedded sample configuration to the given path.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// EnsureDirectories creates the data and log directories if needed.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the location of the SQLite ledger database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "atelier.db")
}

// GracePeriod returns the configured grace period as a duration.
func (c *Compliance) GracePeriod() time.Duration {
	return time.Duration(c.GracePeriodDays) * 24 * time.Hour
}

// Cycle returns the configured obligation cycle as a duration.
func (c *Compliance) Cycle() time.Duration {
	return time.Duration(c.CycleDays) * 24 * time.Hour
}
