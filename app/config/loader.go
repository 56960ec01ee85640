package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ilyakaznacheev/cleanenv"
)

const ConfigFileName = "config.json"

// Load reads <dataDir>/config.json, applies environment overrides and
// defaults, and validates the result. A missing file is not an error: the
// configuration then comes from the environment and defaults only.
func Load(dataDir string) (*QalamConfig, error) {
	var conf QalamConfig

	confPath := filepath.Join(dataDir, ConfigFileName)
	if _, err := os.Stat(confPath); err == nil {
		if err := cleanenv.ReadConfig(confPath, &conf); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", confPath, err)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		if err := cleanenv.ReadEnv(&conf); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	} else {
		return nil, fmt.Errorf("config: stat %s: %w", confPath, err)
	}
	conf.DataDir = dataDir

	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &conf, nil
}

// Resolve returns p relative to the data directory unless it is absolute.
func (c *QalamConfig) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.DataDir, p)
}
