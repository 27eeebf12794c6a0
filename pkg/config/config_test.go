package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadWritesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "agendabot.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.Timezone != DefaultTimezone || cfg.Memory.Type != "sqlite" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("perm = %v, want 0600", info.Mode().Perm())
	}

	again, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again.Calendar.Refresh != DefaultRefresh {
		t.Errorf("refresh = %q", again.Calendar.Refresh)
	}
}

func TestLoadNormalizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agendabot.yaml")
	data := []byte("app:\n  locale: fr\nmemory:\n  type: redis\ngateways:\n  telegram:\n    token: abc\n    enabled: true\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.Locale != "id" || cfg.Memory.Type != "sqlite" || cfg.Memory.Path != DefaultDBPath {
		t.Errorf("not normalized: %+v", cfg)
	}
	if tg, ok := cfg.GetTelegramConfig(); !ok || tg.Token != "abc" {
		t.Errorf("telegram config = %+v, %v", tg, ok)
	}
	if _, ok := cfg.GetDiscordConfig(); ok {
		t.Error("discord should be disabled")
	}
	loc, err := cfg.Location()
	if err != nil || loc.String() != DefaultTimezone {
		t.Errorf("Location = %v, %v", loc, err)
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := DefaultConfig()
	env := map[string]string{
		"TELEGRAM_TOKEN":  "tg-secret",
		"DISCORD_TOKEN":   "dc-secret",
		"LLM_API_KEY":     "sk-test",
		"AGENDA_DB_PATH":  "/tmp/x.db",
		"AGENDA_TIMEZONE": "UTC",
	}
	cfg.ApplyEnv(func(k string) (string, bool) { v, ok := env[k]; return v, ok })

	if cfg.Gateways["telegram"].Token != "tg-secret" || cfg.Gateways["discord"].Token != "dc-secret" {
		t.Errorf("gateway tokens not applied: %+v", cfg.Gateways)
	}
	if name, p := cfg.GetDefaultProvider(); name != "openai" || p.APIKey != "sk-test" {
		t.Errorf("env api key does not reach the default provider: %q %+v", name, p)
	}
	if cfg.Memory.Path != "/tmp/x.db" || cfg.App.Timezone != "UTC" {
		t.Errorf("paths not applied: %+v", cfg)
	}
}

func TestApplyEnvKeepsEnabledProvider(t *testing.T) {
	cfg := &Config{Providers: map[string]ProviderConfig{
		"openrouter": {Enabled: true, Model: "m", BaseURL: "https://openrouter.ai/api/v1"},
	}}
	cfg.ApplyEnv(func(k string) (string, bool) {
		if k == "LLM_API_KEY" {
			return "sk-or", true
		}
		return "", false
	})
	if name, p := cfg.GetDefaultProvider(); name != "openrouter" || p.APIKey != "sk-or" {
		t.Errorf("GetDefaultProvider = %q %+v", name, p)
	}
	if _, ok := cfg.Providers["openai"]; ok {
		t.Error("openai provider created although openrouter is enabled")
	}
}

func TestGetDefaultProviderIsStable(t *testing.T) {
	cfg := &Config{Providers: map[string]ProviderConfig{
		"openrouter": {Enabled: true, Model: "b"},
		"openai":     {Enabled: true, Model: "a"},
		"local":      {Enabled: false},
	}}
	for i := 0; i < 10; i++ {
		if name, p := cfg.GetDefaultProvider(); name != "openai" || p.Model != "a" {
			t.Fatalf("GetDefaultProvider = %s %+v", name, p)
		}
	}
}

func TestLoadEnvSkipsMissing(t *testing.T) {
	dir := t.TempDir()
	env := filepath.Join(dir, ".env")
	if err := os.WriteFile(env, []byte("AGENDABOT_TEST_VAR=ok\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("AGENDABOT_TEST_VAR", "")
	os.Unsetenv("AGENDABOT_TEST_VAR")
	LoadEnv(filepath.Join(dir, "missing.env"), env)
	if got := os.Getenv("AGENDABOT_TEST_VAR"); got != "ok" {
		t.Errorf("AGENDABOT_TEST_VAR = %q", got)
	}
}
