package config

const (
	defaultDataDir            = "~/.local/share/atelier/data"
	defaultLogDir             = "~/.local/share/atelier/logs"
	defaultAPIBind            = "127.0.0.1:7610"
	defaultGracePeriodDays    = 7
	defaultCycleDays          = 7
	defaultCycleRequirement   = 2
	defaultScanInterval       = 3600
	defaultScanTimeout        = 600
	defaultScanWorkers        = 4
	defaultPlanDays           = 30
	defaultSendHour           = 9
	defaultTimezone           = "UTC"
	defaultTaskPollInterval   = 30
	defaultReminderAttempts   = 3
	defaultReminderRetryDelay = 300
	defaultNotifyTimeout      = 10
	defaultDedupWindow        = 600
	defaultArtistRole         = "artist"
	defaultMemberRole         = "member"
	defaultRolesTimeout       = 10
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Compliance: Compliance{
			GracePeriodDays:  defaultGracePeriodDays,
			CycleDays:        defaultCycleDays,
			CycleRequirement: defaultCycleRequirement,
			ScanInterval:     defaultScanInterval,
			ScanTimeout:      defaultScanTimeout,
			ScanWorkers:      defaultScanWorkers,
		},
		Reminders: Reminders{
			PlanDays:        defaultPlanDays,
			SendHour:        defaultSendHour,
			DefaultTimezone: defaultTimezone,
			PollInterval:    defaultTaskPollInterval,
			MaxAttempts:     defaultReminderAttempts,
			RetryDelay:      defaultReminderRetryDelay,
		},
		Notifications: Notifications{
			RequestTimeout:     defaultNotifyTimeout,
			DedupWindowSeconds: defaultDedupWindow,
			Demotions:          true,
			Restorations:       true,
			Reminders:          true,
		},
		Roles: Roles{
			ArtistRole:     defaultArtistRole,
			MemberRole:     defaultMemberRole,
			RequestTimeout: defaultRolesTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
