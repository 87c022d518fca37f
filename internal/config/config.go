// Package config handles loading prereq.toml configuration files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/amonks/prereq/internal/paths"
)

// ProjectFile is the name of the per-directory config file.
const ProjectFile = "prereq.toml"

// StoreDirEnvVar overrides the configured store directory.
const StoreDirEnvVar = "PREREQ_STORE_DIR"

// Defaults applied after merging.
const (
	DefaultPrefsBackend  = BackendFile
	DefaultLinkScheme    = "omnifocus:///task/"
	DefaultSweepSchedule = "@every 15m"
	DefaultLogLevel      = "warn"
)

// Preference backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config represents the prereq.toml configuration file.
type Config struct {
	Store Store `toml:"store"`
	Prefs Prefs `toml:"prefs"`
	Links Links `toml:"links"`
	Sweep Sweep `toml:"sweep"`
	Log   Log   `toml:"log"`
}

// Store configures where the item store lives.
type Store struct {
	// Dir holds items.jsonl, projects.jsonl and tags.jsonl.
	Dir string `toml:"dir"`
}

// Prefs configures the durable key-value store used for links and tag roles.
type Prefs struct {
	// Backend is "file" or "sqlite".
	Backend string `toml:"backend"`
	// Path overrides the backend's file location.
	Path string `toml:"path"`
}

// Links configures note annotations.
type Links struct {
	// Scheme is the deep-link prefix written before an item ID.
	Scheme string `toml:"scheme"`
}

// Sweep configures the periodic consistency sweep.
type Sweep struct {
	// Schedule is a cron expression or descriptor such as "@every 15m".
	Schedule string `toml:"schedule"`
}

// Log configures diagnostic logging.
type Log struct {
	Level string `toml:"level"`
}

// Load loads configuration from dir and the global config file, then
// fills in defaults.
func Load(dir string) (*Config, error) {
	globalPath, err := paths.DefaultConfigPath()
	if err != nil {
		return nil, err
	}

	globalCfg, _, err := loadConfigFile(globalPath)
	if err != nil {
		return nil, err
	}

	projectCfg, projectMeta, err := loadConfigFile(filepath.Join(dir, ProjectFile))
	if err != nil {
		return nil, err
	}
	if projectCfg.Store.Dir != "" && !filepath.IsAbs(projectCfg.Store.Dir) {
		projectCfg.Store.Dir = filepath.Join(dir, projectCfg.Store.Dir)
	}

	merged := mergeConfigs(globalCfg, projectCfg, projectMeta)
	if err := applyDefaults(merged); err != nil {
		return nil, err
	}
	return merged, nil
}

func loadConfigFile(path string) (*Config, toml.MetaData, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{}, toml.MetaData{}, nil
	}
	if err != nil {
		return nil, toml.MetaData{}, fmt.Errorf("read config file %s: %w", path, err)
	}

	var cfg Config
	meta, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, toml.MetaData{}, fmt.Errorf("parse config file %s: %w", path, err)
	}

	return &cfg, meta, nil
}

func mergeConfigs(globalCfg, projectCfg *Config, projectMeta toml.MetaData) *Config {
	if globalCfg == nil {
		globalCfg = &Config{}
	}
	if projectCfg == nil {
		projectCfg = &Config{}
	}

	merged := Config{}
	merged.Store.Dir = mergeString(projectMeta.IsDefined("store", "dir"), projectCfg.Store.Dir, globalCfg.Store.Dir)
	merged.Prefs.Backend = mergeString(projectMeta.IsDefined("prefs", "backend"), projectCfg.Prefs.Backend, globalCfg.Prefs.Backend)
	merged.Prefs.Path = mergeString(projectMeta.IsDefined("prefs", "path"), projectCfg.Prefs.Path, globalCfg.Prefs.Path)
	merged.Links.Scheme = mergeString(projectMeta.IsDefined("links", "scheme"), projectCfg.Links.Scheme, globalCfg.Links.Scheme)
	merged.Sweep.Schedule = mergeString(projectMeta.IsDefined("sweep", "schedule"), projectCfg.Sweep.Schedule, globalCfg.Sweep.Schedule)
	merged.Log.Level = mergeString(projectMeta.IsDefined("log", "level"), projectCfg.Log.Level, globalCfg.Log.Level)

	return &merged
}

func mergeString(projectDefined bool, projectValue, globalValue string) string {
	value := globalValue
	if projectDefined {
		value = projectValue
	}
	return strings.TrimSpace(value)
}

func applyDefaults(cfg *Config) error {
	if dir := strings.TrimSpace(os.Getenv(StoreDirEnvVar)); dir != "" {
		cfg.Store.Dir = dir
	}
	if cfg.Store.Dir == "" {
		dir, err := paths.DefaultDataDir()
		if err != nil {
			return err
		}
		cfg.Store.Dir = dir
	}

	cfg.Prefs.Backend = strings.ToLower(strings.TrimSpace(cfg.Prefs.Backend))
	if cfg.Prefs.Backend == "" {
		cfg.Prefs.Backend = DefaultPrefsBackend
	}
	switch cfg.Prefs.Backend {
	case BackendFile:
		if cfg.Prefs.Path == "" {
			cfg.Prefs.Path = filepath.Join(cfg.Store.Dir, "prefs.json")
		}
	case BackendSQLite:
		if cfg.Prefs.Path == "" {
			cfg.Prefs.Path = filepath.Join(cfg.Store.Dir, "prefs.db")
		}
	default:
		return fmt.Errorf("invalid prefs backend %q: must be %s or %s", cfg.Prefs.Backend, BackendFile, BackendSQLite)
	}

	if cfg.Links.Scheme == "" {
		cfg.Links.Scheme = DefaultLinkScheme
	}
	if cfg.Sweep.Schedule == "" {
		cfg.Sweep.Schedule = DefaultSweepSchedule
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	return nil
}
