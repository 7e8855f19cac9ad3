package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// LogLevelEnv overrides logging.level when set.
const LogLevelEnv = "MULTIPAGE_LOG_LEVEL"

// envFiles are tried in order; the first one that exists is loaded.
var envFiles = []string{".env", ".env.local"}

// loadEnvFile loads environment variables from the first existing .env file.
// Existing process environment variables are not overwritten.
func loadEnvFile() error {
	for _, path := range envFiles {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		return nil
	}
	return errors.New("no .env file found")
}
