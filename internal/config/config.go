package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"solar-logger/internal/model"
	"solar-logger/internal/store"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration shape (YAML).
type Config struct {
	Server   ServerConfig    `yaml:"server"`
	Store    StoreConfig     `yaml:"store"`
	Log      LogConfig       `yaml:"log"`
	Stations []StationConfig `yaml:"stations"`
	// Env is taken from APP_ENV only; "dev" selects human-readable logs.
	Env string `yaml:"-"`
}

type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type StoreConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// StationConfig overrides the built-in catalogue. Omitted fields keep the
// built-in value for that station.
type StationConfig struct {
	ID         string  `yaml:"id"`
	Name       string  `yaml:"name"`
	CapacityWh float64 `yaml:"capacity_wh"`
}

const (
	DefaultAddr     = ":3001"
	DefaultDataFile = "data/records.json"
)

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: DefaultAddr, AllowedOrigins: []string{"*"}},
		Store:  StoreConfig{Driver: store.DriverFile, Path: DefaultDataFile},
		Log:    LogConfig{Level: "info"},
		Env:    "production",
	}
}

// Load reads path (or only defaults when path is empty), applies
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	c.ApplyEnv()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads the file over the defaults, but does not validate it
// or look at the environment.
func LoadUnchecked(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	d := Default()
	if c.Server.Addr == "" {
		c.Server.Addr = d.Server.Addr
	}
	if c.Store.Driver == "" {
		c.Store.Driver = d.Store.Driver
	}
	if c.Store.Path == "" {
		c.Store.Path = d.Store.Path
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	return c, nil
}

// ApplyEnv overlays APP_ENV, API_PORT/PORT, LOG_LEVEL, DATA_FILE and
// STORE_DRIVER.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("APP_ENV"); v != "" {
		c.Env = v
	}
	port := os.Getenv("API_PORT")
	if port == "" {
		port = os.Getenv("PORT")
	}
	if port != "" {
		c.Server.Addr = ":" + strings.TrimPrefix(port, ":")
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("DATA_FILE"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("STORE_DRIVER"); v != "" {
		c.Store.Driver = v
	}
}

// PathFromEnv returns CONFIG_FILE, or "" when unset.
func PathFromEnv() string {
	return os.Getenv("CONFIG_FILE")
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	switch strings.ToLower(c.Store.Driver) {
	case store.DriverFile, store.DriverSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for driver %q", c.Store.Driver)
		}
	case store.DriverMemory:
	default:
		return fmt.Errorf("store.driver must be file, sqlite or memory (got %q)", c.Store.Driver)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if _, err := c.ModelStations(); err != nil {
		return fmt.Errorf("stations config invalid: %w", err)
	}
	return nil
}

// ModelStations merges the configured overrides onto the built-in
// catalogue. With no overrides the full default set is used; otherwise
// only the listed stations are active, in the listed order.
func (c *Config) ModelStations() ([]model.StationConfig, error) {
	defaults := model.DefaultStations()
	if len(c.Stations) == 0 {
		return defaults, nil
	}
	out := make([]model.StationConfig, 0, len(c.Stations))
	for _, sc := range c.Stations {
		id, err := model.ParseStationID(sc.ID)
		if err != nil {
			return nil, err
		}
		base, _ := model.LookupStation(defaults, id)
		if sc.Name != "" {
			base.Name = sc.Name
		}
		if sc.CapacityWh != 0 {
			base.CapacityWh = sc.CapacityWh
		}
		out = append(out, base)
	}
	if err := model.ValidateStations(out); err != nil {
		return nil, err
	}
	return out, nil
}

// IsDev reports whether APP_ENV selected development mode.
func (c *Config) IsDev() bool {
	return strings.EqualFold(c.Env, "dev") || strings.EqualFold(c.Env, "development")
}
