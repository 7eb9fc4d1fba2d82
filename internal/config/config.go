package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. LIBRARYCTL_API_BASE_URL.
const EnvPrefix = "LIBRARYCTL"

// DefaultPath returns the default config file path.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "libraryctl", "config.yml")
}

// Path resolves the config file location: an explicit path wins, then
// LIBRARYCTL_CONFIG, then DefaultPath.
func Path(explicit string) string {
	if explicit != "" {
		return ExpandHome(explicit)
	}
	if p := os.Getenv(EnvPrefix + "_CONFIG"); p != "" {
		return ExpandHome(p)
	}
	return DefaultPath()
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API:       APIConfig{BaseURL: "http://localhost:5000", Timeout: 10 * time.Second},
		List:      ListConfig{Mode: "server", PageSize: 10, SortBy: "title", SortOrder: "asc"},
		Cache:     CacheConfig{KeepUnused: 60 * time.Second},
		Log:       LogConfig{Level: "info"},
		DevServer: DevServerConfig{Addr: "127.0.0.1:5000", Seed: 25},
	}
}

// Load reads the config from path (see Path) and the environment. A missing
// file is not an error: defaults apply until `config init` writes one.
func Load(path string) (*Config, error) {
	v := viper.New()

	d := Default()
	v.SetDefault("api.base_url", d.API.BaseURL)
	v.SetDefault("api.timeout", d.API.Timeout)
	v.SetDefault("list.mode", d.List.Mode)
	v.SetDefault("list.page_size", d.List.PageSize)
	v.SetDefault("list.sort_by", d.List.SortBy)
	v.SetDefault("list.sort_order", d.List.SortOrder)
	v.SetDefault("cache.keep_unused", d.Cache.KeepUnused)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("devserver.addr", d.DevServer.Addr)
	v.SetDefault("devserver.seed", d.DevServer.Seed)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(Path(path))
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.Log.File = ExpandHome(cfg.Log.File)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes cfg to path (see Path), creating parent directories.
func Save(cfg *Config, path string) error {
	path = Path(path)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return enc.Close()
}

// ExpandHome expands a leading ~/ in a path.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}
