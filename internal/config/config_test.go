package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Address != defaultAddress {
		t.Fatalf("Address = %q, want %q", cfg.Address, defaultAddress)
	}
	if cfg.Timeout != defaultTimeout {
		t.Fatalf("Timeout = %v, want %v", cfg.Timeout, defaultTimeout)
	}
	if cfg.CodecPoolSize != 10 || cfg.Workers != 16 {
		t.Fatalf("pool sizes = %d/%d, want 10/16", cfg.CodecPoolSize, cfg.Workers)
	}
	if cfg.RefreshInterval != 0 {
		t.Fatalf("RefreshInterval = %v, want off", cfg.RefreshInterval)
	}

	wantLog, err := expandPath(defaultLogFile)
	if err != nil {
		t.Fatalf("expandPath(defaultLogFile) returned error: %v", err)
	}
	if cfg.LogFile != wantLog {
		t.Fatalf("LogFile = %q, want %q", cfg.LogFile, wantLog)
	}
}

func TestLoad_ParsesAndTrimsTOML(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
address = "  10.0.0.5:9999  "
user = " ann "
timeout = "2500ms"
codec_pool_size = 4
refresh_interval = "30s"
log_file = "  ~/bookclub.log  "
metrics_listen = "127.0.0.1:9464"
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Address != "10.0.0.5:9999" {
		t.Fatalf("Address = %q, want %q", cfg.Address, "10.0.0.5:9999")
	}
	if cfg.User != "ann" {
		t.Fatalf("User = %q, want ann", cfg.User)
	}
	if cfg.Timeout != 2500*time.Millisecond {
		t.Fatalf("Timeout = %v, want 2.5s", cfg.Timeout)
	}
	if cfg.CodecPoolSize != 4 || cfg.Workers != defaultWorkers {
		t.Fatalf("pool sizes = %d/%d, want 4/%d", cfg.CodecPoolSize, cfg.Workers, defaultWorkers)
	}
	if cfg.RefreshInterval != 30*time.Second {
		t.Fatalf("RefreshInterval = %v, want 30s", cfg.RefreshInterval)
	}
	if !strings.HasPrefix(cfg.LogFile, home) {
		t.Fatalf("LogFile = %q, want it under HOME %q", cfg.LogFile, home)
	}
	if cfg.MetricsListen != "127.0.0.1:9464" {
		t.Fatalf("MetricsListen = %q", cfg.MetricsListen)
	}
}

func TestLoad_ParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("address: http://books.example/api/\nuser: bob\nworkers: 4\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Address != "http://books.example/api/" || cfg.User != "bob" || cfg.Workers != 4 {
		t.Fatalf("cfg = %#v", cfg)
	}
	if cfg.Timeout != defaultTimeout {
		t.Fatalf("Timeout = %v, want default", cfg.Timeout)
	}
}

func TestLoad_RejectsMalformedValues(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"bad.toml":     "address = [",
		"timeout.toml": `timeout = "soon"`,
		"neg.toml":     `refresh_interval = "-1s"`,
		"bad.yaml":     "address: [unterminated",
	}
	for name, body := range cases {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		_, err := Load(path)
		if err == nil {
			t.Fatalf("Load(%s) succeeded, want error", name)
		}
		if !strings.Contains(err.Error(), "parse config") {
			t.Fatalf("Load(%s) error = %v, want parse config prefix", name, err)
		}
	}
}
