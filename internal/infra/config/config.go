package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/datallboy/catfish/internal/domain"
	"github.com/spf13/viper"
)

const DefaultPath = "catfish.yaml"

type Config struct {
	Manifest ManifestConfig `mapstructure:"manifest" yaml:"manifest"`
	Download DownloadConfig `mapstructure:"download" yaml:"download"`
	Report   ReportConfig   `mapstructure:"report" yaml:"report"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	Store    StoreConfig    `mapstructure:"store" yaml:"store"`

	Port string `mapstructure:"port" yaml:"port"`
}

type ManifestConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

type DownloadConfig struct {
	OutDir         string        `mapstructure:"out_dir" yaml:"out_dir"`
	MaxWorkers     int           `mapstructure:"max_workers" yaml:"max_workers"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" yaml:"connect_timeout"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	Splits         []string      `mapstructure:"splits" yaml:"splits"`
	Classes        []string      `mapstructure:"classes" yaml:"classes"`
}

type ReportConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

type LogConfig struct {
	Path          string `mapstructure:"path" yaml:"path"`
	Level         string `mapstructure:"level" yaml:"level"`
	IncludeStdout bool   `mapstructure:"include_stdout" yaml:"include_stdout"`
}

type StoreConfig struct {
	Driver      string `mapstructure:"driver" yaml:"driver"`
	SQLitePath  string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
	PostgresDSN string `mapstructure:"postgres_dsn" yaml:"postgres_dsn"`
}

// Load reads configuration from defaults, an optional YAML file and CATFISH_* env vars.
// An empty path falls back to DefaultPath, which may be absent.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	v := viper.New()

	// Set Defaults
	v.SetDefault("port", "8080")
	v.SetDefault("manifest.path", "images.csv")
	v.SetDefault("download.out_dir", ".")
	v.SetDefault("download.max_workers", 20)
	v.SetDefault("download.connect_timeout", 5*time.Second)
	v.SetDefault("download.read_timeout", 10*time.Second)
	v.SetDefault("download.splits", []string{"train", "test", "val"})
	v.SetDefault("download.classes", []string{"cat", "fish"})
	v.SetDefault("report.path", "failed_downloads.csv")
	v.SetDefault("log.path", "catfish.log")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.include_stdout", false)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", ".catfish/ledger.db")
	v.SetDefault("store.postgres_dsn", "")

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	// Support Environment Variables
	v.SetEnvPrefix("CATFISH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Manifest.Path == "" {
		c.Manifest.Path = "images.csv"
	}

	if c.Download.OutDir == "" {
		c.Download.OutDir = "."
	}

	if c.Download.MaxWorkers <= 0 {
		// Default to a sane value
		c.Download.MaxWorkers = 20
	}

	if c.Download.ConnectTimeout <= 0 {
		c.Download.ConnectTimeout = 5 * time.Second
	}

	if c.Download.ReadTimeout <= 0 {
		c.Download.ReadTimeout = 10 * time.Second
	}

	if len(c.Download.Splits) == 0 {
		return errors.New("at least one split must be configured")
	}

	if len(c.Download.Classes) == 0 {
		return errors.New("at least one class must be configured")
	}

	for _, name := range append(append([]string{}, c.Download.Splits...), c.Download.Classes...) {
		if !domain.ValidPathSegment(name) {
			return fmt.Errorf("invalid split or class name %q", name)
		}
	}

	if c.Report.Path == "" {
		c.Report.Path = "failed_downloads.csv"
	}

	switch c.Store.Driver {
	case "", "none":
		c.Store.Driver = "none"
	case "sqlite":
		if c.Store.SQLitePath == "" {
			return errors.New("store.sqlite_path is required for the sqlite driver")
		}
	case "postgres":
		if c.Store.PostgresDSN == "" {
			return errors.New("store.postgres_dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	return nil
}
