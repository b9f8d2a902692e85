// Package config loads mirrorgate configuration from file, environment,
// and defaults into one explicit struct that components receive at
// construction. Nothing reads configuration at use sites.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config enumerates everything mirrorgate needs: store locations, the
// freshness policy, and the scanner identity.
type Config struct {
	DataDir         string `mapstructure:"data_dir"`
	DBPath          string `mapstructure:"db_path"`
	ScansDir        string `mapstructure:"scans_dir"`
	ApprovalsDir    string `mapstructure:"approvals_dir"`
	ListsDir        string `mapstructure:"lists_dir"`
	SnapshotDir     string `mapstructure:"snapshot_dir"` // set = use text-listing snapshot adapter
	MaxScanAgeHours int    `mapstructure:"max_scan_age_hours"`
	Scanner         string `mapstructure:"scanner"`
	LockPath        string `mapstructure:"lock_path"`
	Workers         int    `mapstructure:"workers"`
	LogLevel        string `mapstructure:"log_level"`
}

// MaxScanAge returns the freshness threshold as a duration.
func (c *Config) MaxScanAge() time.Duration {
	return time.Duration(c.MaxScanAgeHours) * time.Hour
}

// Load reads configuration. cfgFile overrides the search path; otherwise
// mirrorgate.yaml is looked up in the working directory and ~/.mirrorgate.
// Environment variables use the MIRRORGATE_ prefix (MIRRORGATE_MAX_SCAN_AGE_HOURS
// overrides max_scan_age_hours). A missing config file is not an error;
// defaults apply.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("mirrorgate")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".mirrorgate"))
		}
	}

	v.SetEnvPrefix("MIRRORGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	dataDir := defaultDataDir()
	v.SetDefault("data_dir", dataDir)
	v.SetDefault("db_path", "")
	v.SetDefault("scans_dir", "")
	v.SetDefault("approvals_dir", "")
	v.SetDefault("lists_dir", "")
	v.SetDefault("snapshot_dir", "")
	v.SetDefault("max_scan_age_hours", 24)
	v.SetDefault("scanner", "trivy")
	v.SetDefault("lock_path", "")
	v.SetDefault("workers", 8)
	v.SetDefault("log_level", "info")

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			// An explicitly named file must exist and parse.
			if cfgFile != "" || !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Paths left empty derive from data_dir.
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.DataDir, "mirrorgate.db")
	}
	if cfg.ScansDir == "" {
		cfg.ScansDir = filepath.Join(cfg.DataDir, "scans")
	}
	if cfg.ApprovalsDir == "" {
		cfg.ApprovalsDir = filepath.Join(cfg.DataDir, "approvals")
	}
	if cfg.ListsDir == "" {
		cfg.ListsDir = filepath.Join(cfg.DataDir, "lists")
	}
	if cfg.LockPath == "" {
		cfg.LockPath = filepath.Join(cfg.DataDir, "run.lock")
	}

	if cfg.MaxScanAgeHours <= 0 {
		return nil, fmt.Errorf("max_scan_age_hours must be positive, got %d", cfg.MaxScanAgeHours)
	}

	return &cfg, nil
}

// EnsureDirs creates the directories the configuration points at.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.DataDir, c.ScansDir, c.ApprovalsDir, c.ListsDir, filepath.Dir(c.DBPath)} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mirrorgate"
	}
	return filepath.Join(home, ".mirrorgate")
}
