package misc

import (
	"fmt"
	"log/slog"

	"github.com/joho/godotenv"
)

// LoadEnvSettings loads .env.local then .env from the working directory.  Values already in the
// environment aren't overridden.
func LoadEnvSettings(log *slog.Logger) {
	for _, file := range []string{".env.local", ".env"} {
		if err := godotenv.Load(file); err == nil {
			Debugf(log, "loaded env file:%s", file)
		}
	}
}

// LoadEnvForNetwork loads the .env.{network} overrides, ie: .env.localnet
func LoadEnvForNetwork(log *slog.Logger, network string) {
	file := fmt.Sprintf(".env.%s", network)
	if err := godotenv.Load(file); err == nil {
		Debugf(log, "loaded env file:%s", file)
	}
}

func LoadNamedEnvFile(log *slog.Logger, envFile string) error {
	Infof(log, "loading env file:%s", envFile)
	return godotenv.Load(envFile)
}
