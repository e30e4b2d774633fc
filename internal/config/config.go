// Package config loads the shim's settings from an INI file (the same
// [Settings] layout the original driver's registry-backed configuration
// used) and lets command-line flags override individual fields.
package config

import (
	"flag"
	"fmt"
	"os"

	"gopkg.in/ini.v1"

	"github.com/agalue/delta-cast-shim/internal/driver"
)

// Config holds everything the façade needs to choose and run a backend.
type Config struct {
	// Mode is "virtual" or "proxy". Proxy without a resolvable target
	// falls back to virtual at Init time.
	Mode string

	// TargetDriverCLSID and TargetWasapiID identify the real backend to
	// forward to in proxy mode.
	TargetDriverCLSID string
	TargetWasapiID    string

	// VirtualSampleRate is the sample rate the virtual backend starts at.
	VirtualSampleRate float64

	// DeviceID selects the downstream playback endpoint by name; empty
	// means the system default.
	DeviceID string

	// LatencyMode is one of 0..3, mapping to the ring pre-roll thresholds
	// in internal/driver.
	LatencyMode int

	// Verbose is read from the INI file and the -verbose flag. It is not
	// passed to the driver or the renderer, and no log output depends on it.
	Verbose bool
}

// DefaultConfig returns sensible defaults: virtual mode, 48kHz, the
// system's default playback endpoint, and latency mode 2 (4096 frames).
func DefaultConfig() *Config {
	return &Config{
		Mode:              "virtual",
		VirtualSampleRate: 48000,
		LatencyMode:       2,
	}
}

// Load reads an INI file at path (if it exists — a missing file is not an
// error, only an unreadable one) and overlays its [Settings] section onto
// a default Config.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	f, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("config: load %s: %w", path, err)
	}

	section := f.Section("Settings")
	cfg.Mode = section.Key("Mode").MustString(cfg.Mode)
	cfg.TargetDriverCLSID = section.Key("TargetDriverCLSID").MustString(cfg.TargetDriverCLSID)
	cfg.TargetWasapiID = section.Key("TargetWasapiID").MustString(cfg.TargetWasapiID)
	cfg.VirtualSampleRate = section.Key("VirtualSampleRate").MustFloat64(cfg.VirtualSampleRate)
	cfg.DeviceID = section.Key("DeviceID").MustString(cfg.DeviceID)
	cfg.LatencyMode = section.Key("LatencyMode").MustInt(cfg.LatencyMode)
	cfg.Verbose = section.Key("Verbose").MustBool(cfg.Verbose)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseFlags overlays command-line flags on top of cfg, letting a CLI
// invocation override whatever the INI file set.
func ParseFlags(cfg *Config, args []string) (*Config, error) {
	fs := flag.NewFlagSet("deltashim", flag.ContinueOnError)

	fs.StringVar(&cfg.Mode, "mode", cfg.Mode, "backend mode: \"virtual\" or \"proxy\"")
	fs.StringVar(&cfg.TargetDriverCLSID, "target-clsid", cfg.TargetDriverCLSID, "real driver CLSID to proxy in proxy mode")
	fs.StringVar(&cfg.TargetWasapiID, "target-wasapi-id", cfg.TargetWasapiID, "real WASAPI endpoint id to proxy in proxy mode")
	fs.Float64Var(&cfg.VirtualSampleRate, "virtual-sample-rate", cfg.VirtualSampleRate, "virtual backend sample rate in Hz")
	fs.StringVar(&cfg.DeviceID, "device-id", cfg.DeviceID, "downstream playback endpoint name (empty = system default)")
	fs.IntVar(&cfg.LatencyMode, "latency-mode", cfg.LatencyMode, "latency preset 0-3 (0=16384 frames ... 3=2048 frames)")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "verbose setting (not read by the driver or renderer)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Mode != "virtual" && c.Mode != "proxy" {
		return fmt.Errorf("config: mode must be \"virtual\" or \"proxy\", got %q", c.Mode)
	}
	if c.LatencyMode < 0 || c.LatencyMode > 3 {
		return fmt.Errorf("config: latency-mode must be 0-3, got %d", c.LatencyMode)
	}
	if c.VirtualSampleRate <= 0 {
		return fmt.Errorf("config: virtual-sample-rate must be positive, got %v", c.VirtualSampleRate)
	}
	return nil
}

// DriverConfig translates this configuration into the driver.Config the
// façade's Init expects.
func (c *Config) DriverConfig() driver.Config {
	mode := driver.ModeVirtual
	if c.Mode == "proxy" {
		mode = driver.ModeProxy
	}
	return driver.Config{
		Mode:              mode,
		VirtualSampleRate: c.VirtualSampleRate,
		DeviceID:          c.DeviceID,
		LatencyMode:       c.LatencyMode,
		TargetCLSID:       c.TargetDriverCLSID,
		TargetWasapiID:    c.TargetWasapiID,
	}
}
