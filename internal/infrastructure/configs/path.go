package configs

import (
	"flag"
	"os"

	"github.com/stelliform/sketchsphere/internal/infrastructure/env"
)

// DetermineConfigPath resolves the config file from the --config flag, the
// SKETCHSPHERE_CONFIG env var, then well-known locations. An empty result
// means run on defaults.
func DetermineConfigPath() string {
	var configPath string

	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	if configPath == "" {
		configPath = env.GetString("SKETCHSPHERE_CONFIG", "")
	}

	if configPath == "" {
		candidates := []string{
			"./config.yaml",
			"./config.yml",
			"/etc/sketchsphere/config.yaml",
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
