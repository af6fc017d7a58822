package config

import "github.com/kelseyhightower/envconfig"

// envPrefix namespaces the environment variables, e.g. NOTEX_API_BASE_URL.
const envPrefix = "notex"

// parseEnv overlays cfg with values from the environment. envconfig leaves
// fields untouched when the corresponding variable is unset, so earlier
// stages survive.
func parseEnv(cfg *Config) {
	if err := envconfig.Process(envPrefix, cfg); err != nil {
		panic(err)
	}
}
