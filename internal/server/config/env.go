package config

import "github.com/caarlos0/env/v10"

// parseEnv overlays MARKET_* environment variables onto config. Unset
// variables leave the current value alone. Malformed values panic, like the
// other layers.
func parseEnv(config *Config) {
	if err := env.Parse(config); err != nil {
		panic(err)
	}
}
