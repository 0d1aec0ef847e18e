package tool

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfigWatcherReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fbxcast.yaml")
	cfg := DefaultAppConfig()
	if err := SaveConfig(path, cfg); err != nil {
		t.Fatal(err)
	}

	w, err := NewConfigWatcher(path)
	if err != nil {
		t.Fatal(err)
	}
	got := make(chan AppConfig, 4)
	w.OnChange(func(c AppConfig) { got <- c })
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	cfg.TargetReceiver = "Salon"
	if err := SaveConfig(path, cfg); err != nil {
		t.Fatal(err)
	}
	select {
	case c := <-got:
		if c.TargetReceiver != "Salon" {
			t.Fatalf("reloaded target = %q", c.TargetReceiver)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after write")
	}
	_ = os.Remove(path)
}
