package config

import (
	"time"

	"github.com/dmitrijs2005/panelkeeper/internal/client/platform"
	"github.com/dmitrijs2005/panelkeeper/internal/client/services"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "PANELKEEPER"

// Config holds runtime settings for the panelkeeper client.
//
// Durations are time.Duration values; in JSON they may be written as "3s"
// or integer nanoseconds, in the environment as "3s".
type Config struct {
	// ServerAddr is the cloud server used when no account is saved yet.
	ServerAddr   string `envconfig:"SERVER_ADDR"`
	DatabasePath string `envconfig:"DATABASE_PATH"`
	CacheDir     string `envconfig:"CACHE_DIR"`

	LoginTimeout        time.Duration `envconfig:"LOGIN_TIMEOUT"`
	OnlineCheckInterval time.Duration `envconfig:"ONLINE_CHECK_INTERVAL"`
	SyncPollInterval    time.Duration `envconfig:"SYNC_POLL_INTERVAL"`
	SyncMaxDuration     time.Duration `envconfig:"SYNC_MAX_DURATION"`

	AppSlug string `envconfig:"APP_SLUG"`
	// Locale overrides the locale taken from LC_ALL/LC_MESSAGES/LANG.
	Locale    string `envconfig:"LOCALE"`
	PushToken string `envconfig:"PUSH_TOKEN"`
	ProbeAddr string `envconfig:"PROBE_ADDR"`

	LogFormat string `envconfig:"LOG_FORMAT"`
	LogLevel  string `envconfig:"LOG_LEVEL"`

	// DeepLink is a login link to apply at startup.
	DeepLink string `envconfig:"DEEP_LINK"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerAddr = ""
	c.DatabasePath = "panelkeeper.db"
	c.CacheDir = "cache"
	c.LoginTimeout = services.DefaultLoginTimeout
	c.OnlineCheckInterval = 3 * time.Second
	c.SyncPollInterval = services.DefaultSyncPollInterval
	c.SyncMaxDuration = services.DefaultSyncMaxDuration
	c.AppSlug = "panelkeeper"
	c.Locale = ""
	c.PushToken = ""
	c.ProbeAddr = platform.DefaultProbeAddr
	c.LogFormat = "json"
	c.LogLevel = "info"
	c.DeepLink = ""
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), the environment (including a .env file) and
// command-line flags. Later sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg, dotEnvFile)
	parseFlags(cfg)
	return cfg
}
