package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ANT.PollInterval != time.Second {
		t.Errorf("PollInterval = %v, want 1s", cfg.ANT.PollInterval)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Driver = %q", cfg.Database.Driver)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "antmonitor.yaml")
	data := []byte(`
ant:
  base_url: http://ant.local:8081
  username: operator
  poll_interval: 2s
messaging:
  backend: mqtt
debug: true
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ANT.BaseURL != "http://ant.local:8081" || cfg.ANT.Username != "operator" {
		t.Errorf("ant = %+v", cfg.ANT)
	}
	if cfg.ANT.PollInterval != 2*time.Second {
		t.Errorf("PollInterval = %v", cfg.ANT.PollInterval)
	}
	if cfg.ANT.Timeout != 10*time.Second {
		t.Errorf("unset Timeout should keep default, got %v", cfg.ANT.Timeout)
	}
	if cfg.Messaging.Backend != "mqtt" || cfg.Messaging.MQTT.Port != 1883 {
		t.Errorf("messaging = %+v", cfg.Messaging)
	}
	if !cfg.Debug {
		t.Error("Debug = false")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := Defaults()
	cfg.ANT.Username = "admin"
	cfg.Redis.Address = "redis:6379"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.ANT.Username != "admin" || got.Redis.Address != "redis:6379" {
		t.Errorf("round trip lost fields: %+v %+v", got.ANT, got.Redis)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("ant: [unclosed"), 0644)
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}
