package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/panelkeeper/internal/flagx"
	"github.com/dmitrijs2005/panelkeeper/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer
// fields distinguish "absent" from "empty", so a partial file only touches
// the settings it names.
type JsonConfig struct {
	ServerAddr          *string         `json:"server_addr"`
	DatabasePath        *string         `json:"database_path"`
	CacheDir            *string         `json:"cache_dir"`
	LoginTimeout        *timex.Duration `json:"login_timeout"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval"`
	SyncPollInterval    *timex.Duration `json:"sync_poll_interval"`
	SyncMaxDuration     *timex.Duration `json:"sync_max_duration"`
	AppSlug             *string         `json:"app_slug"`
	Locale              *string         `json:"locale"`
	PushToken           *string         `json:"push_token"`
	ProbeAddr           *string         `json:"probe_addr"`
	LogFormat           *string         `json:"log_format"`
	LogLevel            *string         `json:"log_level"`
}

// parseJson overlays Config with values loaded from the JSON file named by
// -c or -config. Without either flag nothing is loaded. Read and unmarshal
// errors panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.ConfigFile(os.Args[1:])
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.ServerAddr, jc.ServerAddr)
	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.CacheDir, jc.CacheDir)
	setDuration(&cfg.LoginTimeout, jc.LoginTimeout)
	setDuration(&cfg.OnlineCheckInterval, jc.OnlineCheckInterval)
	setDuration(&cfg.SyncPollInterval, jc.SyncPollInterval)
	setDuration(&cfg.SyncMaxDuration, jc.SyncMaxDuration)
	setString(&cfg.AppSlug, jc.AppSlug)
	setString(&cfg.Locale, jc.Locale)
	setString(&cfg.PushToken, jc.PushToken)
	setString(&cfg.ProbeAddr, jc.ProbeAddr)
	setString(&cfg.LogFormat, jc.LogFormat)
	setString(&cfg.LogLevel, jc.LogLevel)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
