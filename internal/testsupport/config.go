package testsupport

import (
	"path/filepath"
	"testing"

	"atelier/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithGatewayURL points the notification gateway at the given URL.
func WithGatewayURL(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Notifications.GatewayURL = url
	}
}

// WithRoleDirectory points the role directory client at the given URL.
func WithRoleDirectory(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Roles.DirectoryURL = url
	}
}

// WithAPIToken sets the daemon API bearer token.
func WithAPIToken(token string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Paths.APIToken = token
	}
}
