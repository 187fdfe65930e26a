package config

import (
	"os"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// dotEnvFile is loaded before parsing the environment when it exists.
// Variables already present in the process environment win.
var dotEnvFile = ".env"

// parseEnv overlays Config with environment variables named by the `env`
// struct tags. Unset variables leave the current values untouched.
// It panics on a malformed .env file or an unparsable value, like the
// other config stages.
func parseEnv(config *Config) {
	if _, err := os.Stat(dotEnvFile); err == nil {
		if err := godotenv.Load(dotEnvFile); err != nil {
			panic(err)
		}
	}

	if err := env.Parse(config); err != nil {
		panic(err)
	}
}
