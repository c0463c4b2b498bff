package configs

import (
	"flag"
	"os"

	"github.com/openmentor/relay/internal/infrastructure/env"
)

// DetermineConfigPath resolves the config file location from the --config
// flag, the RELAY_CONFIG env var, or a list of conventional locations. An
// empty result means "run on defaults", which is fine for local dev.
func DetermineConfigPath() string {
	var configPath string

	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	if configPath == "" {
		configPath = env.GetString("RELAY_CONFIG", "")
	}

	if configPath == "" {
		candidates := []string{
			"./config.yaml",
			"./config.yml",
			"/etc/openmentor/relay.yaml",
			"/app/config.yaml", // common in Docker
		}

		for _, p := range candidates {
			if _, err := os.Stat(p); err == nil {
				configPath = p
				break
			}
		}
	}

	return configPath
}
