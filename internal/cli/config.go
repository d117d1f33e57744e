package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/larder/internal/paths"
	"github.com/mesh-intelligence/larder/pkg/larder"
)

// Configuration keys.
const (
	keyDataDir    = "data_dir"
	keySchemaFile = "schema"
	keyCacheSize  = "cache_size"
)

// loadConfig reads config.yaml from the config directory into a viper
// instance with defaults applied. A missing config file is not an error;
// defaults and environment variables still apply.
func loadConfig(configDir string) (*viper.Viper, error) {
	v := viper.New()

	v.SetDefault(keySchemaFile, filepath.Join(configDir, "schema.yaml"))
	v.SetDefault(keyCacheSize, 0)

	v.SetEnvPrefix("LARDER")
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return v, nil
}

// larderConfig assembles the effective larder.Config from flags, environment
// variables, and the config file, in that order of precedence.
func larderConfig() (larder.Config, error) {
	configDir := resolveConfigDir()
	v, err := loadConfig(configDir)
	if err != nil {
		return larder.Config{}, err
	}

	dataDir, err := paths.ResolveDataDir(flags.dataDir, v.GetString(keyDataDir))
	if err != nil {
		return larder.Config{}, fmt.Errorf("resolve data directory: %w", err)
	}

	cfg := larder.Config{
		DataDir:    dataDir,
		SchemaFile: v.GetString(keySchemaFile),
		CacheSize:  v.GetInt(keyCacheSize),
	}
	if flags.schemaFile != "" {
		cfg.SchemaFile = flags.schemaFile
	}
	return cfg, nil
}

// openLarder opens the store described by the effective configuration.
func openLarder() (*larder.Larder, error) {
	cfg, err := larderConfig()
	if err != nil {
		return nil, err
	}
	return larder.Open(cfg)
}
