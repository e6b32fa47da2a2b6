package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	logx "heraldbot/pkg/logx"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

const minimalJSON = `{
  "discord": {"token": "tok", "guild_id": "g1"},
  "logging": {"level": "info", "console": true},
  "storage": {"driver": "file", "path": "./store"}
}`

func TestLoadJSON(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.json")
	writeFile(t, path, minimalJSON)

	m := NewManager(path, logx.Nop())
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Discord.Token != "tok" || cfg.Discord.GuildID != "g1" {
		t.Fatalf("discord section wrong: %+v", cfg.Discord)
	}
	if cfg.Storage.Driver != "file" {
		t.Fatalf("storage section wrong: %+v", cfg.Storage)
	}
	if m.Get() != cfg {
		t.Fatal("Get must return the committed config")
	}
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, `
discord:
  token: tok
logging:
  level: debug
  console: true
storage:
  driver: file
  path: ./store
broadcast:
  cooldown: 45s
  daily_limit: 5
`)

	m := NewManager(path, logx.Nop())
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Logging.Level != "debug" || cfg.Broadcast.Cooldown != "45s" || cfg.Broadcast.DailyLimit != 5 {
		t.Fatalf("yaml coercion lost fields: %+v", cfg)
	}
}

func TestLoadRejectsUnknownField(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.json")
	writeFile(t, path, `{"discord": {"token": "tok"}, "logging": {}, "storage": {}, "nope": 1}`)

	if _, err := NewManager(path, logx.Nop()).Load(); err == nil {
		t.Fatal("unknown top-level field accepted")
	}
}

func TestLoadRejectsMissingToken(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.json")
	writeFile(t, path, `{"discord": {"token": "  "}, "logging": {}, "storage": {}}`)

	if _, err := NewManager(path, logx.Nop()).Load(); err == nil {
		t.Fatal("blank token accepted")
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.json")
	writeFile(t, path, `{"discord": {"token": "tok"}, "logging": {}, "storage": {}, "broadcast": {"cooldown": "soon"}}`)

	if _, err := NewManager(path, logx.Nop()).Load(); err == nil {
		t.Fatal("bad duration accepted")
	}
}

func TestReloadPublishesAndSkipsUnchanged(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.json")
	writeFile(t, path, minimalJSON)

	m := NewManager(path, logx.Nop())
	if _, err := m.Load(); err != nil {
		t.Fatal(err)
	}
	ch := m.Subscribe(1)
	defer m.Unsubscribe(ch)

	// Same content: no publish.
	m.reload()
	select {
	case <-ch:
		t.Fatal("unchanged content published")
	default:
	}

	writeFile(t, path, `{
  "discord": {"token": "tok2"},
  "logging": {"level": "warn", "console": false},
  "storage": {"driver": "file", "path": "./store"}
}`)
	m.reload()
	select {
	case cfg := <-ch:
		if cfg.Discord.Token != "tok2" || cfg.Logging.Level != "warn" {
			t.Fatalf("stale config published: %+v", cfg)
		}
	case <-time.After(time.Second):
		t.Fatal("changed config not published")
	}

	if m.Get().Discord.Token != "tok2" {
		t.Fatal("reload did not commit")
	}
}

func TestReloadKeepsPreviousOnParseError(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.json")
	writeFile(t, path, minimalJSON)

	m := NewManager(path, logx.Nop())
	if _, err := m.Load(); err != nil {
		t.Fatal(err)
	}

	writeFile(t, path, `{broken`)
	m.reload()
	if got := m.Get(); got == nil || got.Discord.Token != "tok" {
		t.Fatalf("previous config lost after bad reload: %+v", got)
	}
}

func TestParseDurationField(t *testing.T) {
	t.Parallel()
	if d, err := ParseDurationField("x", " 90s "); err != nil || d != 90*time.Second {
		t.Fatalf("d=%v err=%v", d, err)
	}
	if d, err := ParseDurationField("x", ""); err != nil || d != 0 {
		t.Fatalf("empty: d=%v err=%v", d, err)
	}
	if _, err := ParseDurationField("x", "-5s"); err == nil {
		t.Fatal("negative accepted")
	}
	if d, err := ParseDurationOrDefault("x", "", time.Minute); err != nil || d != time.Minute {
		t.Fatalf("default: d=%v err=%v", d, err)
	}
}
