package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/larder/internal/kv"
	"github.com/mesh-intelligence/larder/internal/paths"
)

// configFile mirrors the on-disk config.yaml layout.
type configFile struct {
	DataDir string `yaml:"data_dir"`
	Schema  string `yaml:"schema"`
}

// defaultSchemaYAML seeds a new schema file so "larder init" leaves a
// working setup behind.
const defaultSchemaYAML = `# Larder schema definition.
#
# Declare model types with unique names and storage IDs, then fields.
# Reference fields name their target types; an empty targets list means
# the field may refer to objects of any type.
types:
  - name: Item
    storage_id: 1
    fields:
      - name: name
        storage_id: 10
      - name: related
        storage_id: 11
        kind: reference
        targets: [Item]
`

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration, schema, and data directories",
		Args:  cobra.NoArgs,
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	configDir := resolveConfigDir()
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return exitError(cmd, exitSysError, fmt.Sprintf("create config directory: %v", err))
	}

	if err := writeConfigIfMissing(configDir); err != nil {
		return exitError(cmd, exitSysError, fmt.Sprintf("write config: %v", err))
	}

	cfg, err := larderConfig()
	if err != nil {
		return exitError(cmd, exitUserError, err.Error())
	}

	if err := writeSchemaIfMissing(cfg.SchemaFile); err != nil {
		return exitError(cmd, exitSysError, fmt.Sprintf("write schema: %v", err))
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return exitError(cmd, exitSysError, fmt.Sprintf("create data directory: %v", err))
	}

	// Attach once so the database file exists before first use.
	store := kv.New()
	if err := store.Attach(kv.Config{DataDir: cfg.DataDir}); err != nil {
		return exitError(cmd, exitSysError, fmt.Sprintf("initialize database: %v", err))
	}
	if err := store.Detach(); err != nil {
		return exitError(cmd, exitSysError, fmt.Sprintf("close database: %v", err))
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Larder initialized successfully")
	return nil
}

// writeConfigIfMissing writes a default config.yaml unless one exists.
func writeConfigIfMissing(configDir string) error {
	path := filepath.Join(configDir, "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}

	cfg := configFile{
		DataDir: paths.DefaultDataDirName,
		Schema:  filepath.Join(configDir, "schema.yaml"),
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// writeSchemaIfMissing seeds the schema file unless one exists.
func writeSchemaIfMissing(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(defaultSchemaYAML), 0o644)
}
