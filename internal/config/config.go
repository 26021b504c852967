// Package config loads planr settings from YAML files and PLANR_* variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Redmine  RedmineConfig  `yaml:"redmine" mapstructure:"redmine"`
	DBPath   string         `yaml:"db_path" mapstructure:"db_path"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Timeline TimelineConfig `yaml:"timeline" mapstructure:"timeline"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

type RedmineConfig struct {
	URL          string `yaml:"url" mapstructure:"url"`
	APIKey       string `yaml:"api_key" mapstructure:"api_key"`
	ProjectID    string `yaml:"project_id" mapstructure:"project_id"`
	AssignedToMe bool   `yaml:"assigned_to_me" mapstructure:"assigned_to_me"`
	// ActivityID is sent with submitted time entries; 0 uses Redmine's default.
	ActivityID int64 `yaml:"activity_id" mapstructure:"activity_id"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

type TimelineConfig struct {
	Zoom string `yaml:"zoom" mapstructure:"zoom"`
}

type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
	// File receives log output while the TUI owns the terminal.
	File string `yaml:"file" mapstructure:"file"`
}

// Dir returns ~/.config/planr.
func Dir() string {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return ".planr"
	}
	return filepath.Join(cfg, "planr")
}

// GlobalPath is the per-user config file.
func GlobalPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// ProjectPath is the per-directory override file.
func ProjectPath() string {
	return ".planr.yaml"
}

func DefaultConfig() *Config {
	dir := Dir()
	return &Config{
		DBPath:   filepath.Join(dir, "planr.db"),
		Server:   ServerConfig{Addr: "127.0.0.1:8686"},
		Timeline: TimelineConfig{Zoom: "day"},
		Log: LogConfig{
			Level: "info",
			File:  filepath.Join(dir, "planr.log"),
		},
	}
}

// Load reads the global file, then the project file, then the environment.
// Missing files are skipped.
func Load() (*Config, error) {
	return LoadFrom(GlobalPath(), ProjectPath())
}

// LoadFrom applies each existing file in order over the defaults.
func LoadFrom(paths ...string) (*Config, error) {
	cfg := DefaultConfig()
	for _, p := range paths {
		if err := loadFile(p, cfg); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("load %s: %w", p, err)
		}
	}
	if err := applyEnv(cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return err
	}

	return v.Unmarshal(cfg)
}

// envKeys lists every key PLANR_* variables may override, e.g.
// PLANR_REDMINE_API_KEY for redmine.api_key.
var envKeys = []string{
	"redmine.url", "redmine.api_key", "redmine.project_id", "redmine.assigned_to_me", "redmine.activity_id",
	"db_path", "server.addr", "timeline.zoom", "log.level", "log.file",
}

func applyEnv(cfg *Config) error {
	v := viper.New()
	v.SetEnvPrefix("planr")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, k := range envKeys {
		if err := v.BindEnv(k); err != nil {
			return err
		}
	}
	// Seed with current values so unset variables leave them alone.
	v.SetDefault("redmine.url", cfg.Redmine.URL)
	v.SetDefault("redmine.api_key", cfg.Redmine.APIKey)
	v.SetDefault("redmine.project_id", cfg.Redmine.ProjectID)
	v.SetDefault("redmine.assigned_to_me", cfg.Redmine.AssignedToMe)
	v.SetDefault("redmine.activity_id", cfg.Redmine.ActivityID)
	v.SetDefault("db_path", cfg.DBPath)
	v.SetDefault("server.addr", cfg.Server.Addr)
	v.SetDefault("timeline.zoom", cfg.Timeline.Zoom)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.file", cfg.Log.File)
	return v.Unmarshal(cfg)
}

// Save writes cfg as YAML. The file holds the API key, so it is private.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
