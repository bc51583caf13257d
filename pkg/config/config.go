/*
Package config manages TOML config for termserve.

A config file is created with defaults the first time it is looked for.
Files that fail strict decoding are recovered one key at a time: every key
with the right type is applied and the rest keep their defaults.
*/
package config

import (
	"os"
	"path/filepath"

	"github.com/bastiangx/termserve/internal/utils"
	"github.com/charmbracelet/log"
)

const configFileName = "config.toml"

// Config holds the entire config structure
type Config struct {
	Server ServerConfig `toml:"server"`
	Dict   DictConfig   `toml:"dict"`
	CLI    CliConfig    `toml:"cli"`
}

// ServerConfig bounds IPC requests and sizes the prefix cache.
type ServerConfig struct {
	MaxLimit  int `toml:"max_limit"`
	MinPrefix int `toml:"min_prefix"`
	MaxPrefix int `toml:"max_prefix"`
	CacheSize int `toml:"cache_size"`
}

// DictConfig says where terms are read from.
type DictConfig struct {
	Path     string `toml:"path"`
	MaxTerms int    `toml:"max_terms"`
}

// CliConfig holds cli interface options.
type CliConfig struct {
	DefaultLimit    int  `toml:"default_limit"`
	DefaultMinLen   int  `toml:"default_min_len"`
	DefaultMaxLen   int  `toml:"default_max_len"`
	DefaultNoFilter bool `toml:"default_no_filter"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{MaxLimit: 64, MinPrefix: 0, MaxPrefix: 60, CacheSize: 2048},
		Dict:   DictConfig{Path: "data/"},
		CLI:    CliConfig{DefaultLimit: 24, DefaultMinLen: 1, DefaultMaxLen: 24},
	}
}

// Normalize clamps values that would make queries impossible back to
// usable ones. Zero max values mean unbounded.
func (c *Config) Normalize() {
	defaults := DefaultConfig()
	fix := func(name string, v *int, lowest, fallback int) {
		if *v < lowest {
			log.Warnf("Config %s=%d is out of range, using %d", name, *v, fallback)
			*v = fallback
		}
	}

	fix("server.max_limit", &c.Server.MaxLimit, 0, defaults.Server.MaxLimit)
	fix("server.min_prefix", &c.Server.MinPrefix, 0, 0)
	fix("server.max_prefix", &c.Server.MaxPrefix, 0, defaults.Server.MaxPrefix)
	fix("server.cache_size", &c.Server.CacheSize, 0, 0)
	fix("dict.max_terms", &c.Dict.MaxTerms, 0, 0)
	fix("cli.default_limit", &c.CLI.DefaultLimit, 0, defaults.CLI.DefaultLimit)
	fix("cli.default_min_len", &c.CLI.DefaultMinLen, 0, 0)
	fix("cli.default_max_len", &c.CLI.DefaultMaxLen, 0, defaults.CLI.DefaultMaxLen)

	if c.Server.MaxPrefix > 0 && c.Server.MaxPrefix < c.Server.MinPrefix {
		log.Warnf("Config server.max_prefix=%d is below min_prefix=%d, lifting the bound",
			c.Server.MaxPrefix, c.Server.MinPrefix)
		c.Server.MaxPrefix = 0
	}
	if c.Dict.Path == "" {
		c.Dict.Path = defaults.Dict.Path
	}
}

// configDirCandidates lists config directories, most preferred first:
// ~/.config/termserve, then ~/Library/Application Support/termserve, then
// the executable's directory.
func configDirCandidates() []string {
	var dirs []string
	if homeDir, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs,
			filepath.Join(homeDir, ".config", "termserve"),
			filepath.Join(homeDir, "Library", "Application Support", "termserve"),
		)
	} else {
		log.Errorf("Failed to get home directory: %v", err)
	}
	if execDir, err := utils.GetExecutableDir(); err == nil {
		dirs = append(dirs, execDir)
	}
	return dirs
}

// GetConfigDir returns the first writable config directory.
func GetConfigDir() (string, error) {
	var lastErr error
	for _, dir := range configDirCandidates() {
		status := utils.CheckDirStatus(dir)
		if status.Writable {
			return dir, nil
		}
		if status.Error != nil {
			lastErr = status.Error
		}
	}
	if lastErr == nil {
		lastErr = os.ErrPermission
	}
	return "", lastErr
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// LoadConfigWithPriority loads config from the custom path when it exists,
// else from the default path (creating it), else falls back to builtin
// defaults. The returned path is empty when no file backs the config.
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if !utils.FileExists(customConfigPath) {
			log.Warnf("Custom config file not found at %s. Trying default path...", customConfigPath)
		} else if config, err := LoadConfig(customConfigPath); err != nil {
			log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
		} else {
			log.Debugf("Loaded config from custom path: %s", customConfigPath)
			return config, customConfigPath, nil
		}
	}

	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}
	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at %s: %v. Using built-in defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// InitConfig loads config from file or writes the defaults there first.
func InitConfig(configPath string) (*Config, error) {
	if err := utils.EnsureDir(filepath.Dir(configPath)); err != nil {
		log.Warnf("Failed to create config directory for %s: %v. Using built-in defaults...", configPath, err)
		return DefaultConfig(), nil
	}
	if utils.FileExists(configPath) {
		return LoadConfig(configPath)
	}

	config := DefaultConfig()
	if err := SaveConfig(config, configPath); err != nil {
		log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
		return config, nil
	}
	log.Debugf("Created default config file at: %s", configPath)
	return config, nil
}

// LoadConfig loads from a TOML file.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()
	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		config = recoverConfig(configPath)
	}
	config.Normalize()
	return config, nil
}

// recoverConfig applies every well-typed key it can find over the defaults.
func recoverConfig(configPath string) *Config {
	config := DefaultConfig()
	raw, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s. Using all defaults.", configPath)
		return config
	}

	ints := map[string]map[string]*int{
		"server": {
			"max_limit":  &config.Server.MaxLimit,
			"min_prefix": &config.Server.MinPrefix,
			"max_prefix": &config.Server.MaxPrefix,
			"cache_size": &config.Server.CacheSize,
		},
		"dict": {
			"max_terms": &config.Dict.MaxTerms,
		},
		"cli": {
			"default_limit":   &config.CLI.DefaultLimit,
			"default_min_len": &config.CLI.DefaultMinLen,
			"default_max_len": &config.CLI.DefaultMaxLen,
		},
	}
	for name, fields := range ints {
		section, ok := utils.ExtractSection(raw, name)
		if !ok {
			continue
		}
		for key, dst := range fields {
			if val, ok := utils.ExtractInt64(section, key); ok {
				*dst = val
			} else if _, present := section[key]; present {
				log.Warnf("Ignoring %s.%s in %s: not an integer", name, key, configPath)
			}
		}
	}

	if dict, ok := utils.ExtractSection(raw, "dict"); ok {
		if val, ok := utils.ExtractString(dict, "path"); ok {
			config.Dict.Path = val
		}
	}
	if cli, ok := utils.ExtractSection(raw, "cli"); ok {
		if val, ok := utils.ExtractBool(cli, "default_no_filter"); ok {
			config.CLI.DefaultNoFilter = val
		}
	}
	return config
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}

// Update changes server values and saves to file. Nil values are left as
// they are.
func (c *Config) Update(configPath string, maxLimit, minPrefix, maxPrefix *int) error {
	for _, u := range []struct {
		src *int
		dst *int
	}{
		{maxLimit, &c.Server.MaxLimit},
		{minPrefix, &c.Server.MinPrefix},
		{maxPrefix, &c.Server.MaxPrefix},
	} {
		if u.src != nil {
			*u.dst = *u.src
		}
	}
	c.Normalize()
	return SaveConfig(c, configPath)
}
