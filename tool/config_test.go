package tool

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fbxcast.yaml")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Host != DefaultBoxHost {
		t.Fatalf("unexpected host %q", cfg.Host)
	}
	if cfg.Identity.AppID != "ani" {
		t.Fatalf("unexpected app id %q", cfg.Identity.AppID)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected default config to be written: %v", err)
	}
}

func TestLoadConfigKeepsDefaultsForMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fbxcast.yaml")
	data := []byte("host: 192.168.1.254\ntarget_receiver: Salon\ntimeouts:\n  read: 2s\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Host != "192.168.1.254" || cfg.TargetReceiver != "Salon" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.Timeouts.Read != 2*time.Second {
		t.Fatalf("unexpected read timeout %v", cfg.Timeouts.Read)
	}
	if cfg.Timeouts.Connect != 5*time.Second {
		t.Fatalf("connect timeout should default to 5s, got %v", cfg.Timeouts.Connect)
	}
	if cfg.Identity.DeviceName != "Smartphone" {
		t.Fatalf("identity should default, got %+v", cfg.Identity)
	}
}

func TestOverridesApply(t *testing.T) {
	cfg := DefaultAppConfig()
	Overrides{Host: "10.0.0.1", UseHTTPS: true, ControlPort: 9000}.Apply(&cfg)
	if cfg.Host != "10.0.0.1" || cfg.ControlProtocol != "https" || cfg.ControlPort != 9000 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}
