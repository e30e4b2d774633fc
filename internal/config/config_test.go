package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/agalue/delta-cast-shim/internal/driver"
)

func TestDefaultConfigIsValidVirtualMode(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Mode != "virtual" {
		t.Fatalf("Mode = %q, want virtual", cfg.Mode)
	}
	if err := cfg.validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.ini"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Mode != "virtual" || cfg.LatencyMode != 2 {
		t.Fatalf("unexpected defaults from missing file: %+v", cfg)
	}
}

func TestLoadOverlaysSettingsSection(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deltashim.ini")
	content := "[Settings]\n" +
		"Mode = proxy\n" +
		"TargetDriverCLSID = {11111111-2222-3333-4444-555555555555}\n" +
		"TargetWasapiID = {0.0.0.00000000}.{aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee}\n" +
		"DeviceID = Focusrite Scarlett 2i2\n" +
		"LatencyMode = 1\n" +
		"Verbose = true\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write ini: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Mode != "proxy" {
		t.Errorf("Mode = %q, want proxy", cfg.Mode)
	}
	if cfg.TargetDriverCLSID != "{11111111-2222-3333-4444-555555555555}" {
		t.Errorf("TargetDriverCLSID = %q", cfg.TargetDriverCLSID)
	}
	if cfg.DeviceID != "Focusrite Scarlett 2i2" {
		t.Errorf("DeviceID = %q", cfg.DeviceID)
	}
	if cfg.LatencyMode != 1 {
		t.Errorf("LatencyMode = %d, want 1", cfg.LatencyMode)
	}
	if !cfg.Verbose {
		t.Error("Verbose = false, want true")
	}
}

func TestLoadRejectsInvalidLatencyMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.ini")
	if err := os.WriteFile(path, []byte("[Settings]\nLatencyMode = 9\n"), 0o644); err != nil {
		t.Fatalf("write ini: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for an out-of-range latency mode")
	}
}

func TestParseFlagsOverridesLoadedConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mode = "proxy"

	got, err := ParseFlags(cfg, []string{"-mode=virtual", "-latency-mode=3", "-device-id=Scarlett"})
	if err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	if got.Mode != "virtual" {
		t.Errorf("Mode = %q, want virtual (flag should override the ini value)", got.Mode)
	}
	if got.LatencyMode != 3 {
		t.Errorf("LatencyMode = %d, want 3", got.LatencyMode)
	}
	if got.DeviceID != "Scarlett" {
		t.Errorf("DeviceID = %q, want Scarlett", got.DeviceID)
	}
}

func TestDriverConfigTranslatesMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mode = "proxy"
	dc := cfg.DriverConfig()
	if dc.Mode != driver.ModeProxy {
		t.Fatalf("DriverConfig().Mode = %v, want ModeProxy", dc.Mode)
	}

	cfg.Mode = "virtual"
	dc = cfg.DriverConfig()
	if dc.Mode != driver.ModeVirtual {
		t.Fatalf("DriverConfig().Mode = %v, want ModeVirtual", dc.Mode)
	}
}
