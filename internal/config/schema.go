package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/blackwell-systems/libraryctl/internal/listing"
)

// Config is the top-level libraryctl configuration.
type Config struct {
	API       APIConfig       `mapstructure:"api" yaml:"api"`
	List      ListConfig      `mapstructure:"list" yaml:"list"`
	Cache     CacheConfig     `mapstructure:"cache" yaml:"cache"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
	DevServer DevServerConfig `mapstructure:"devserver" yaml:"devserver"`
}

// APIConfig holds backend connection settings.
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url" yaml:"base_url"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// ListConfig holds the initial state of the books table.
type ListConfig struct {
	Mode      string `mapstructure:"mode" yaml:"mode"` // "server" or "client"
	PageSize  int    `mapstructure:"page_size" yaml:"page_size"`
	SortBy    string `mapstructure:"sort_by" yaml:"sort_by"`
	SortOrder string `mapstructure:"sort_order" yaml:"sort_order"`
}

// CacheConfig controls the request cache.
type CacheConfig struct {
	KeepUnused time.Duration `mapstructure:"keep_unused" yaml:"keep_unused"`
}

// LogConfig controls diagnostic logging. Logs are discarded when File is
// empty.
type LogConfig struct {
	File  string `mapstructure:"file" yaml:"file,omitempty"`
	Level string `mapstructure:"level" yaml:"level"`
}

// DevServerConfig configures the bundled mock backend.
type DevServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
	Seed int    `mapstructure:"seed" yaml:"seed"`
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if u, err := url.Parse(c.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("api.base_url: %q is not an absolute URL", c.API.BaseURL))
	}
	if c.API.Timeout < 0 {
		errs = append(errs, fmt.Errorf("api.timeout: must not be negative"))
	}
	if _, err := c.List.Controller(); err != nil {
		errs = append(errs, err)
	}
	if c.Cache.KeepUnused < 0 {
		errs = append(errs, fmt.Errorf("cache.keep_unused: must not be negative"))
	}
	return errors.Join(errs...)
}

// Controller converts the list settings into the initial list state.
func (l ListConfig) Controller() (listing.Config, error) {
	mode, err := listing.ParseMode(l.Mode)
	if err != nil {
		return listing.Config{}, fmt.Errorf("list.mode: %w", err)
	}
	if !listing.ValidPageSize(l.PageSize) {
		return listing.Config{}, fmt.Errorf("list.page_size: %d is not one of %v", l.PageSize, listing.PageSizes)
	}
	sort, err := listing.ParseSort(l.SortBy, l.SortOrder)
	if err != nil {
		return listing.Config{}, fmt.Errorf("list.sort_by: %w", err)
	}
	return listing.Config{Mode: mode, PageSize: l.PageSize, Sort: sort}, nil
}
