package tool

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/moyoez/fbxcast/types"
)

const (
	DefaultConfigPath  = "fbxcast.yaml"
	DefaultControlPort = 53318

	CredentialStoreFile    = "file"
	CredentialStoreKeyring = "keyring"
	CredentialStoreMemory  = "memory"
)

// AppConfig is the persisted program configuration.
type AppConfig struct {
	Host           string            `yaml:"host"`
	Identity       types.AppIdentity `yaml:"identity"`
	TargetReceiver string            `yaml:"target_receiver"`
	Timeouts       Timeouts          `yaml:"timeouts"`
	UseMDNS        bool              `yaml:"use_mdns"`

	CredentialStore string `yaml:"credential_store"` // file | keyring | memory
	CredentialPath  string `yaml:"credential_path"`

	NotifyURL string `yaml:"notify_url"`

	ControlPort     int    `yaml:"control_port"`
	ControlProtocol string `yaml:"control_protocol"` // http | https
	LogDir          string `yaml:"log_dir"`
}

// DefaultAppConfig returns the configuration written on first run.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Host:            DefaultBoxHost,
		Identity:        types.DefaultAppIdentity(),
		TargetReceiver:  types.DefaultTargetReceiver,
		Timeouts:        DefaultTimeouts(),
		CredentialStore: CredentialStoreFile,
		CredentialPath:  "fbxcast-credentials.yaml",
		ControlPort:     DefaultControlPort,
		ControlProtocol: "http",
	}
}

// LoadConfig reads the YAML config at path, creating it with defaults if missing.
// Fields absent from the file keep their defaults.
func LoadConfig(path string) (AppConfig, error) {
	if path == "" {
		path = DefaultConfigPath
	}
	cfg := DefaultAppConfig()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		if err := SaveConfig(path, cfg); err != nil {
			DefaultLogger.Warnf("Could not write default config to %s: %v", path, err)
		}
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.normalize()
	return cfg, nil
}

// SaveConfig writes cfg as YAML.
func SaveConfig(path string, cfg AppConfig) error {
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}

func (c *AppConfig) normalize() {
	def := DefaultAppConfig()
	if c.Host == "" {
		c.Host = def.Host
	}
	if c.Identity.AppID == "" {
		c.Identity = def.Identity
	}
	if c.TargetReceiver == "" {
		c.TargetReceiver = def.TargetReceiver
	}
	c.Timeouts = c.Timeouts.withDefaults()
	if c.CredentialStore == "" {
		c.CredentialStore = def.CredentialStore
	}
	if c.CredentialPath == "" {
		c.CredentialPath = def.CredentialPath
	}
	if c.ControlPort <= 0 {
		c.ControlPort = def.ControlPort
	}
	if c.ControlProtocol != "https" {
		c.ControlProtocol = "http"
	}
}
