// Package config loads runtime configuration for the panelkeeper client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Environment variables prefixed with PANELKEEPER_, optionally read
//     from a .env file in the working directory (see parseEnv).
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string     cloud server URL used when no account is saved
//	-d string     path of the local database
//	-i int        online status check interval (seconds)
//	-l string     log level
//	-link string  login link to apply at startup
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "3s" or integer nanoseconds. Keys that are absent keep their
// previous value:
//
//	{
//	  "server_addr": "https://cloud.example",
//	  "database_path": "panelkeeper.db",
//	  "online_check_interval": "3s",
//	  "sync_max_duration": "5m",
//	  "log_format": "text"
//	}
//
// # Environment
//
//	PANELKEEPER_SERVER_ADDR, PANELKEEPER_DATABASE_PATH, PANELKEEPER_CACHE_DIR,
//	PANELKEEPER_LOGIN_TIMEOUT, PANELKEEPER_ONLINE_CHECK_INTERVAL,
//	PANELKEEPER_SYNC_POLL_INTERVAL, PANELKEEPER_SYNC_MAX_DURATION,
//	PANELKEEPER_APP_SLUG, PANELKEEPER_LOCALE, PANELKEEPER_PUSH_TOKEN,
//	PANELKEEPER_PROBE_ADDR, PANELKEEPER_LOG_FORMAT, PANELKEEPER_LOG_LEVEL,
//	PANELKEEPER_DEEP_LINK
package config
