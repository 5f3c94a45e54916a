package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.Server.URL != "ws://127.0.0.1:5500/ws" {
		t.Errorf("URL = %q", cfg.Server.URL)
	}
	if cfg.Server.DeviceID != 1 {
		t.Errorf("DeviceID = %d, want 1", cfg.Server.DeviceID)
	}
	if cfg.Monitor.History != 10 {
		t.Errorf("History = %d, want 10", cfg.Monitor.History)
	}
	if cfg.Monitor.SnapshotTimeout != 5*time.Second {
		t.Errorf("SnapshotTimeout = %v", cfg.Monitor.SnapshotTimeout)
	}
	if cfg.Monitor.ReconnectBaseDelay != time.Second || cfg.Monitor.ReconnectMaxDelay != 30*time.Second {
		t.Errorf("reconnect delays = %v / %v", cfg.Monitor.ReconnectBaseDelay, cfg.Monitor.ReconnectMaxDelay)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "panel.yaml")
	content := `
server:
  url: ws://192.168.1.50:5500/ws
  device_id: 7
monitor:
  history: 5
  reconnect_max_delay: 10s
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.URL != "ws://192.168.1.50:5500/ws" {
		t.Errorf("URL = %q", cfg.Server.URL)
	}
	if cfg.Server.DeviceID != 7 {
		t.Errorf("DeviceID = %d, want 7", cfg.Server.DeviceID)
	}
	if cfg.Monitor.History != 5 {
		t.Errorf("History = %d, want 5", cfg.Monitor.History)
	}
	if cfg.Monitor.ReconnectMaxDelay != 10*time.Second {
		t.Errorf("ReconnectMaxDelay = %v, want 10s", cfg.Monitor.ReconnectMaxDelay)
	}
	// Fields the file does not mention keep their defaults.
	if cfg.Monitor.SnapshotTimeout != 5*time.Second {
		t.Errorf("SnapshotTimeout = %v, want default 5s", cfg.Monitor.SnapshotTimeout)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("server: ["), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}
