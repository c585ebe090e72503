package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/wlsqlite/internal/schema"
	"github.com/mesh-intelligence/wlsqlite/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeyConnection = "connection"
	cfgKeyDataDir    = "data_dir"
	cfgKeySchemaFile = "schema_file"
	cfgKeyLogLevel   = "log_level"

	defaultIdentity = "default"
	defaultLogLevel = "warn"
)

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# wlsqlite configuration

# Connection registered before each command.
connection:
  identity: default
  filename: waterlinedb.sqlite
  # ephemeral: false
  # debug: false
  # strict_types: false
  # busy_timeout: 5s

# Collections file, relative to this directory. Attribute names are case
# sensitive, so collections live in their own file.
# schema_file: schema.yaml

# Directory relative database filenames resolve against.
# data_dir:

# log_level: warn
`

// loadConfig reads config.yaml from configDir, creating the directory and a
// default file on first run.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyLogLevel, defaultLogLevel)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}

// connectionConfig decodes the connection block.
func connectionConfig(v *viper.Viper) (types.ConnectionConfig, error) {
	var cfg types.ConnectionConfig
	err := v.UnmarshalKey(cfgKeyConnection, &cfg, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.TextUnmarshallerHookFunc(),
		),
	))
	if err != nil {
		return types.ConnectionConfig{}, usageError{fmt.Errorf("decode %s: %w", cfgKeyConnection, err)}
	}
	if cfg.Identity == "" {
		cfg.Identity = defaultIdentity
	}
	return cfg, nil
}

// loadCollections reads a collections file. It is decoded with yaml.v3
// directly rather than through viper, which folds keys to lower case.
func loadCollections(path string) (map[string]types.Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, usageError{fmt.Errorf("parse schema %s: %w", path, err)}
	}
	cols, err := schema.ParseCollections(raw)
	if err != nil {
		return nil, usageError{fmt.Errorf("parse schema %s: %w", path, err)}
	}
	return cols, nil
}
