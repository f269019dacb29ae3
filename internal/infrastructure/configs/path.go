package configs

import (
	"flag"
	"os"

	"github.com/sketchrelay/server/internal/infrastructure/env"
)

// DetermineConfigPath resolves the config file location from the --config
// flag, the SKETCHRELAY_CONFIG env var, or a list of candidate paths. An
// empty result means "run on defaults".
func DetermineConfigPath() string {
	var configPath string

	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	if configPath == "" {
		configPath = env.GetString("SKETCHRELAY_CONFIG", "")
	}

	if configPath == "" {
		candidates := []string{
			"./config.yaml",
			"./config.yml",
			"/etc/sketchrelay/config.yaml",
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
