package config

import (
	"errors"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	ferrors "github.com/sleep909/multipage/internal/foundation/errors"
)

const initHeader = `# multipage configuration
# Every key is optional; absent keys keep their defaults.
# Environment variables are expanded (${VAR}) after loading .env files.
`

// Init writes an example configuration file populated with defaults.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return ferrors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).Build()
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "stat configuration file").Build()
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "marshal example configuration").Build()
	}
	// #nosec G306 -- configuration is not secret
	if err := os.WriteFile(configPath, append([]byte(initHeader), data...), 0o644); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "write configuration file").
			WithContext("path", configPath).Build()
	}
	return nil
}
