package cotask

import (
	"context"
	"fmt"
	"time"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"

	"github.com/cotask/cotask/service/event"
	"github.com/cotask/cotask/service/messaging"
	fsq "github.com/cotask/cotask/service/messaging/fs"
	"github.com/cotask/cotask/tracing"
)

// Config is a serialisable representation of the driver configuration.  It
// can be populated from YAML or JSON; the zero value is useful as every
// nested field inherits its package default.
type Config struct {
	// UpdateIntervalMs throttles progress emission and observer ticks.
	UpdateIntervalMs int           `json:"updateIntervalMs" yaml:"updateIntervalMs"`
	Events           EventsConfig  `json:"events" yaml:"events"`
	Tracing          TracingConfig `json:"tracing" yaml:"tracing"`
}

// EventsConfig selects and parameterises the run-event journal.
type EventsConfig struct {
	// Vendor is "memory", "fs" or empty to disable the journal.
	Vendor  string `json:"vendor,omitempty" yaml:"vendor,omitempty"`
	BaseURL string `json:"baseURL,omitempty" yaml:"baseURL,omitempty"`
}

// TracingConfig controls the optional OpenTelemetry setup.
type TracingConfig struct {
	Enabled        bool   `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	ServiceName    string `json:"serviceName,omitempty" yaml:"serviceName,omitempty"`
	ServiceVersion string `json:"serviceVersion,omitempty" yaml:"serviceVersion,omitempty"`
	OutputFile     string `json:"outputFile,omitempty" yaml:"outputFile,omitempty"`
}

// DefaultConfig returns a Config populated with the package defaults.
func DefaultConfig() *Config {
	return &Config{UpdateIntervalMs: 250}
}

// UpdateInterval returns the throttle interval as a duration.
func (c *Config) UpdateInterval() time.Duration {
	if c == nil || c.UpdateIntervalMs <= 0 {
		return 0
	}
	return time.Duration(c.UpdateIntervalMs) * time.Millisecond
}

// Validate returns an error describing invalid settings, or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if c.UpdateIntervalMs < 0 {
		return fmt.Errorf("updateIntervalMs must be >= 0")
	}
	switch messaging.Vendor(c.Events.Vendor) {
	case "", messaging.VendorMemory:
	case messaging.VendorFS:
		if c.Events.BaseURL == "" {
			return fmt.Errorf("events.baseURL is required for the fs vendor")
		}
	default:
		return fmt.Errorf("unsupported events vendor: %s", c.Events.Vendor)
	}
	return nil
}

// LoadConfig reads a YAML configuration from any afs-supported location
// (file, embed, cloud storage, ...).
func LoadConfig(ctx context.Context, URL string) (*Config, error) {
	data, err := afs.New().DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", URL, err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", URL, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", URL, err)
	}
	return cfg, nil
}

// NewEventService builds the journal selected by the Events section; it
// returns (nil, nil) when no vendor is configured.
func (c *Config) NewEventService() (*event.Service, error) {
	if c == nil || c.Events.Vendor == "" {
		return nil, nil
	}
	vendor := messaging.Vendor(c.Events.Vendor)
	if vendor == messaging.VendorFS {
		return event.New(vendor, event.WithFsConfig(fsq.DefaultConfig(c.Events.BaseURL)))
	}
	return event.New(vendor)
}

// SetupTracing initialises OpenTelemetry when the Tracing section enables
// it.  Safe to call multiple times; the first successful setup wins.
func (c *Config) SetupTracing() error {
	if c == nil || !c.Tracing.Enabled {
		return nil
	}
	name := c.Tracing.ServiceName
	if name == "" {
		name = "cotask"
	}
	return tracing.Init(name, c.Tracing.ServiceVersion, c.Tracing.OutputFile)
}
