package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCompliance()
	c.normalizeReminders()
	c.normalizeNotifications()
	c.normalizeRoles()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func (c *Config) normalizeCompliance() {
	if c.Compliance.GracePeriodDays <= 0 {
		c.Compliance.GracePeriodDays = defaultGracePeriodDays
	}
	if c.Compliance.CycleDays <= 0 {
		c.Compliance.CycleDays = defaultCycleDays
	}
	if c.Compliance.CycleRequirement <= 0 {
		c.Compliance.CycleRequirement = defaultCycleRequirement
	}
	if c.Compliance.ScanInterval <= 0 {
		c.Compliance.ScanInterval = defaultScanInterval
	}
	if c.Compliance.ScanTimeout <= 0 {
		c.Compliance.ScanTimeout = defaultScanTimeout
	}
	if c.Compliance.ScanWorkers <= 0 {
		c.Compliance.ScanWorkers = defaultScanWorkers
	}
}

func (c *Config) normalizeReminders() {
	if c.Reminders.PlanDays <= 0 {
		c.Reminders.PlanDays = defaultPlanDays
	}
	if c.Reminders.SendHour < 0 || c.Reminders.SendHour > 23 {
		c.Reminders.SendHour = defaultSendHour
	}
	c.Reminders.DefaultTimezone = strings.TrimSpace(c.Reminders.DefaultTimezone)
	if c.Reminders.DefaultTimezone == "" {
		c.Reminders.DefaultTimezone = defaultTimezone
	}
	if c.Reminders.PollInterval <= 0 {
		c.Reminders.PollInterval = defaultTaskPollInterval
	}
	if c.Reminders.MaxAttempts <= 0 {
		c.Reminders.MaxAttempts = defaultReminderAttempts
	}
	if c.Reminders.RetryDelay <= 0 {
		c.Reminders.RetryDelay = defaultReminderRetryDelay
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.GatewayURL = strings.TrimSpace(c.Notifications.GatewayURL)
	if c.Notifications.GatewayURL == "" {
		if value, ok := os.LookupEnv("ATELIER_GATEWAY_URL"); ok {
			c.Notifications.GatewayURL = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
	if c.Notifications.DedupWindowSeconds < 0 {
		c.Notifications.DedupWindowSeconds = defaultDedupWindow
	}
}

func (c *Config) normalizeRoles() {
	c.Roles.DirectoryURL = strings.TrimSpace(strings.TrimSuffix(c.Roles.DirectoryURL, "/"))
	c.Roles.APIToken = strings.TrimSpace(c.Roles.APIToken)
	if c.Roles.APIToken == "" {
		if value, ok := os.LookupEnv("ATELIER_ROLES_TOKEN"); ok {
			c.Roles.APIToken = strings.TrimSpace(value)
		}
	}
	if strings.TrimSpace(c.Roles.ArtistRole) == "" {
		c.Roles.ArtistRole = defaultArtistRole
	}
	if strings.TrimSpace(c.Roles.MemberRole) == "" {
		c.Roles.MemberRole = defaultMemberRole
	}
	if c.Roles.RequestTimeout <= 0 {
		c.Roles.RequestTimeout = defaultRolesTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if trimmed == "~" {
			return home, nil
		}
		trimmed = filepath.Join(home, trimmed[2:])
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path: %w", err)
	}
	return abs, nil
}
