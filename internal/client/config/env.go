package config

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const dotEnvFile = ".env"

// parseEnv overlays Config with PANELKEEPER_* environment variables.
// Variables from envFile are loaded first but never replace ones already
// set in the process environment; a missing file is ignored. Unset
// variables leave the current value in place.
func parseEnv(cfg *Config, envFile string) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			panic(err)
		}
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		panic(err)
	}
}
