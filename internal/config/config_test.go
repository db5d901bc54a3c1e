package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleConfig = `
env: local
telegram:
  bot_token: "123:abc"
  api_id: 100
  api_hash: "hash"
  phone: "+10000000000"
  target_chat_id: -1001234567890
admins:
  super: [1, 2]
  buyer: [3]
store:
  driver: memory
sync:
  interval_sec: 60
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	conf, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if conf.Sync.IntervalSec != 60 {
		t.Errorf("IntervalSec = %d, want 60", conf.Sync.IntervalSec)
	}
	if conf.Sync.PageLimit != 100 {
		t.Errorf("PageLimit = %d, want 100", conf.Sync.PageLimit)
	}
	if conf.Limits.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d, want 5", conf.Limits.MaxRetries)
	}
	if conf.Limits.FloodExtraSec != 1 {
		t.Errorf("FloodExtraSec = %d, want 1", conf.Limits.FloodExtraSec)
	}
	if conf.Telegram.Session != "user.session" {
		t.Errorf("Session = %s, want user.session", conf.Telegram.Session)
	}
	if len(conf.Admins.Super) != 2 || conf.Admins.Buyer[0] != 3 {
		t.Errorf("Admins = %+v", conf.Admins)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SYNC_INTERVAL", "900")
	t.Setenv("STORE_DRIVER", "mysql")
	conf, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if conf.Sync.IntervalSec != 900 {
		t.Errorf("IntervalSec = %d, want 900", conf.Sync.IntervalSec)
	}
	if conf.Store.Driver != "mysql" {
		t.Errorf("Driver = %s, want mysql", conf.Store.Driver)
	}
}

func TestLoad_Invalid(t *testing.T) {
	if _, err := Load(writeConfig(t, "env: local\nstore:\n  driver: sqlite\n")); err == nil {
		t.Fatal("Load() expected validation error")
	}
}
