// Package config loads and validates the gateway configuration.
package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration decodes either a Go duration string ("10s") or an integer
// second count.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var asInt int64
	if err := value.Decode(&asInt); err == nil {
		*d = Duration(time.Duration(asInt) * time.Second)
		return nil
	}
	var asString string
	if err := value.Decode(&asString); err != nil {
		return fmt.Errorf("duration must be a string or integer seconds")
	}
	parsed, err := time.ParseDuration(asString)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", asString, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the standard-library representation.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the root configuration document.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Log        LogConfig        `yaml:"log"`
	DB         DBConfig         `yaml:"db"`
	Network    NetworkConfig    `yaml:"network"`
	PageSize   PageSizeConfig   `yaml:"pageSize"`
	CountRange CountRangeConfig `yaml:"countRange"`
	Peer       PeerConfig       `yaml:"peer"`
}

// HTTPConfig configures the listener.
type HTTPConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	// Level sets the minimum log level: "debug", "info", "warn", "error".
	Level string `yaml:"level"`
	// Format specifies output format: "json" or "text".
	Format string `yaml:"format"`
}

// DBConfig configures the document store connection.
type DBConfig struct {
	URL     string   `yaml:"url"`
	Name    string   `yaml:"name"`
	Timeout Duration `yaml:"timeout"`

	// PageSizeMin and PageSizeMax clamp every paged store query.
	PageSizeMin int64 `yaml:"pageSizeMin"`
	PageSizeMax int64 `yaml:"pageSizeMax"`
}

// NetworkConfig selects the network used for public-key to address
// conversion.
type NetworkConfig struct {
	Name string `yaml:"name"`
}

// PageSizeConfig is the valid-limit grid for block-range endpoints.
type PageSizeConfig struct {
	Min  int64 `yaml:"min"`
	Max  int64 `yaml:"max"`
	Step int64 `yaml:"step"`
}

// Contains reports whether limit lands on the configured grid.
func (p PageSizeConfig) Contains(limit int64) bool {
	if limit < p.Min || limit > p.Max {
		return false
	}
	if p.Step <= 0 {
		return true
	}
	return (limit-p.Min)%p.Step == 0
}

// Snap forces limit onto the grid: out-of-range limits land on the nearest
// bound and off-step limits round down to the previous step.
func (p PageSizeConfig) Snap(limit int64) int64 {
	if limit < p.Min {
		return p.Min
	}
	if limit > p.Max {
		return p.Max
	}
	if p.Step <= 0 {
		return limit
	}
	return p.Min + (limit-p.Min)/p.Step*p.Step
}

// CountRangeConfig is the accepted range and redirect preset for cursor
// endpoints.
type CountRangeConfig struct {
	Min    int64 `yaml:"min"`
	Max    int64 `yaml:"max"`
	Preset int64 `yaml:"preset"`
}

// Contains reports whether limit is accepted without redirect.
func (c CountRangeConfig) Contains(limit int64) bool {
	return limit >= c.Min && limit <= c.Max
}

// PeerConfig configures the node TCP connection used by the merkle-path
// endpoint.
type PeerConfig struct {
	Host    string   `yaml:"host"`
	Port    int      `yaml:"port"`
	Timeout Duration `yaml:"timeout"`
}

// Default returns the configuration defaults applied before the file is
// merged in.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{Host: "0.0.0.0", Port: 3000},
		Log:  LogConfig{Level: "info", Format: "json"},
		DB: DBConfig{
			URL:         "mongodb://localhost:27017",
			Name:        "catapult",
			Timeout:     Duration(10 * time.Second),
			PageSizeMin: 10,
			PageSizeMax: 100,
		},
		Network:    NetworkConfig{Name: "publicTest"},
		PageSize:   PageSizeConfig{Min: 30, Max: 80, Step: 5},
		CountRange: CountRangeConfig{Min: 10, Max: 100, Preset: 25},
		Peer:       PeerConfig{Host: "127.0.0.1", Port: 7900, Timeout: Duration(10 * time.Second)},
	}
}

// Validate checks cross-field consistency.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port %d out of range", c.HTTP.Port)
	}
	if c.DB.URL == "" {
		return fmt.Errorf("db.url is required")
	}
	if c.DB.Name == "" {
		return fmt.Errorf("db.name is required")
	}
	if c.DB.PageSizeMin <= 0 || c.DB.PageSizeMax < c.DB.PageSizeMin {
		return fmt.Errorf("db page size bounds [%d, %d] invalid", c.DB.PageSizeMin, c.DB.PageSizeMax)
	}
	if c.PageSize.Min <= 0 || c.PageSize.Max < c.PageSize.Min {
		return fmt.Errorf("pageSize bounds [%d, %d] invalid", c.PageSize.Min, c.PageSize.Max)
	}
	if c.PageSize.Step < 0 {
		return fmt.Errorf("pageSize.step %d invalid", c.PageSize.Step)
	}
	if c.CountRange.Min <= 0 || c.CountRange.Max < c.CountRange.Min {
		return fmt.Errorf("countRange bounds [%d, %d] invalid", c.CountRange.Min, c.CountRange.Max)
	}
	if !c.CountRange.Contains(c.CountRange.Preset) {
		return fmt.Errorf("countRange.preset %d outside [%d, %d]", c.CountRange.Preset, c.CountRange.Min, c.CountRange.Max)
	}
	if !c.PageSize.Contains(c.PageSize.Min) {
		return fmt.Errorf("pageSize grid excludes its own minimum")
	}
	return nil
}
