package config

import (
	"fmt"
	"net"
	"strings"
	"time"
)

// Validate checks the configuration for values the daemon cannot run with.
func (c *Config) Validate() error {
	if c.Paths.DataDir == "" {
		return fmt.Errorf("paths.data_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return fmt.Errorf("paths.log_dir must be set")
	}
	if _, _, err := net.SplitHostPort(c.Paths.APIBind); err != nil {
		return fmt.Errorf("paths.api_bind %q: %w", c.Paths.APIBind, err)
	}
	if c.Compliance.GracePeriodDays < c.Compliance.CycleDays {
		// A grace window shorter than the cycle would demote artists who are
		// still inside their first obligation window.
		return fmt.Errorf("compliance.grace_period_days (%d) must be at least compliance.cycle_days (%d)",
			c.Compliance.GracePeriodDays, c.Compliance.CycleDays)
	}
	if c.Reminders.SendHour < 0 || c.Reminders.SendHour > 23 {
		return fmt.Errorf("reminders.send_hour must be between 0 and 23")
	}
	if _, err := time.LoadLocation(c.Reminders.DefaultTimezone); err != nil {
		return fmt.Errorf("reminders.default_timezone %q: %w", c.Reminders.DefaultTimezone, err)
	}
	if url := c.Notifications.GatewayURL; url != "" && !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return fmt.Errorf("notifications.gateway_url must be an http(s) URL")
	}
	if url := c.Roles.DirectoryURL; url != "" && !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return fmt.Errorf("roles.directory_url must be an http(s) URL")
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}
