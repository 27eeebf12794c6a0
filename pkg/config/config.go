package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultTimezone = "Asia/Jakarta"
	DefaultLocale   = "id"
	DefaultDBPath   = "data/agenda.db"
	DefaultFeedPath = "data/agenda.ics"
	DefaultRefresh  = "*/30 * * * *"
	DefaultAudit    = "logs/audit.jsonl"
)

type Config struct {
	App       AppConfig                 `yaml:"app"`
	Gateways  map[string]GatewayConfig  `yaml:"gateways"`
	Providers map[string]ProviderConfig `yaml:"providers"`
	Memory    MemoryConfig              `yaml:"memory"`
	Calendar  CalendarConfig            `yaml:"calendar"`
	Logging   LoggingConfig             `yaml:"logging"`
}

type AppConfig struct {
	Name string `yaml:"name"`
	// Timezone is the IANA zone every "today" is computed in.
	Timezone string `yaml:"timezone"`
	Locale   string `yaml:"locale"`
}

type GatewayConfig struct {
	Token   string `yaml:"token"`
	Enabled bool   `yaml:"enabled"`
}

// ProviderConfig is an OpenAI-compatible LLM endpoint used to resolve
// dates the rule parser does not understand.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url,omitempty"`
	Enabled bool   `yaml:"enabled"`
}

type MemoryConfig struct {
	// Type is "sqlite" or "memory".
	Type string `yaml:"type"`
	Path string `yaml:"path"`
}

// CalendarConfig controls the ICS feed mirror.
type CalendarConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	Domain  string `yaml:"domain"`
	// Refresh is a cron schedule for the full resync.
	Refresh    string `yaml:"refresh"`
	PastDays   int    `yaml:"past_days"`
	FutureDays int    `yaml:"future_days"`
}

type LoggingConfig struct {
	AuditPath string `yaml:"audit_path"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{Name: "agendabot", Timezone: DefaultTimezone, Locale: DefaultLocale},
		Gateways: map[string]GatewayConfig{
			"telegram": {Enabled: true},
			"discord":  {Enabled: false},
		},
		Providers: map[string]ProviderConfig{
			"openai": {Model: "gpt-4o-mini", Enabled: false},
		},
		Memory: MemoryConfig{Type: "sqlite", Path: DefaultDBPath},
		Calendar: CalendarConfig{
			Enabled:    false,
			Path:       DefaultFeedPath,
			Domain:     "agendabot.local",
			Refresh:    DefaultRefresh,
			PastDays:   30,
			FutureDays: 90,
		},
		Logging: LoggingConfig{AuditPath: DefaultAudit},
	}
}

// Normalize fills in missing/zero values so partially-filled configs still
// behave.
func (c *Config) Normalize() {
	if c.App.Name == "" {
		c.App.Name = "agendabot"
	}
	if c.App.Timezone == "" {
		c.App.Timezone = DefaultTimezone
	}
	switch c.App.Locale {
	case "id", "en":
	default:
		c.App.Locale = DefaultLocale
	}
	if c.Gateways == nil {
		c.Gateways = map[string]GatewayConfig{}
	}
	if c.Providers == nil {
		c.Providers = map[string]ProviderConfig{}
	}
	switch c.Memory.Type {
	case "sqlite", "memory":
	default:
		c.Memory.Type = "sqlite"
	}
	if c.Memory.Path == "" {
		c.Memory.Path = DefaultDBPath
	}
	if c.Calendar.Path == "" {
		c.Calendar.Path = DefaultFeedPath
	}
	if c.Calendar.Domain == "" {
		c.Calendar.Domain = "agendabot.local"
	}
	if c.Calendar.Refresh == "" {
		c.Calendar.Refresh = DefaultRefresh
	}
	if c.Calendar.PastDays < 0 {
		c.Calendar.PastDays = 0
	}
	if c.Calendar.FutureDays <= 0 {
		c.Calendar.FutureDays = 90
	}
	if c.Logging.AuditPath == "" {
		c.Logging.AuditPath = DefaultAudit
	}
}

// Load reads the YAML config at path. On first run it writes the default
// config there (0600) and returns it.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			return cfg, Save(path, cfg)
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Normalize()
	return &cfg, nil
}

// Save writes cfg to path through a temp file and rename.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// LoadEnv loads the given .env files into the process environment. Missing
// files are skipped.
func LoadEnv(files ...string) {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			log.Printf("[config] could not load %s: %v", f, err)
			continue
		}
		log.Printf("[config] loaded %s", f)
	}
}

// ApplyEnv overrides secrets and paths from environment variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if v, ok := lookup("TELEGRAM_TOKEN"); ok && v != "" {
		c.setGatewayToken("telegram", v)
	}
	if v, ok := lookup("DISCORD_TOKEN"); ok && v != "" {
		c.setGatewayToken("discord", v)
	}
	if v, ok := lookup("LLM_API_KEY"); ok && v != "" {
		// A key given only through the environment turns the provider on;
		// otherwise GetDefaultProvider would never return it.
		name, p := c.GetDefaultProvider()
		if name == "" {
			name = "openai"
			p = c.Providers[name]
			if p.Model == "" {
				p.Model = "gpt-4o-mini"
			}
			p.Enabled = true
		}
		p.APIKey = v
		if c.Providers == nil {
			c.Providers = map[string]ProviderConfig{}
		}
		c.Providers[name] = p
	}
	if v, ok := lookup("AGENDA_DB_PATH"); ok && v != "" {
		c.Memory.Path = v
	}
	if v, ok := lookup("AGENDA_TIMEZONE"); ok && v != "" {
		c.App.Timezone = v
	}
}

func (c *Config) setGatewayToken(name, token string) {
	if c.Gateways == nil {
		c.Gateways = map[string]GatewayConfig{}
	}
	g := c.Gateways[name]
	g.Token = token
	c.Gateways[name] = g
}

// GetDefaultProvider returns the first enabled provider in name order.
func (c *Config) GetDefaultProvider() (string, ProviderConfig) {
	best := ""
	for name, p := range c.Providers {
		if p.Enabled && (best == "" || name < best) {
			best = name
		}
	}
	if best == "" {
		return "", ProviderConfig{}
	}
	return best, c.Providers[best]
}

// GetTelegramConfig returns telegram config if enabled
func (c *Config) GetTelegramConfig() (GatewayConfig, bool) {
	return c.gateway("telegram")
}

func (c *Config) GetDiscordConfig() (GatewayConfig, bool) {
	return c.gateway("discord")
}

func (c *Config) gateway(name string) (GatewayConfig, bool) {
	g, ok := c.Gateways[name]
	if ok && g.Enabled && strings.TrimSpace(g.Token) != "" {
		return g, true
	}
	return GatewayConfig{}, false
}

// Location resolves App.Timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", c.App.Timezone, err)
	}
	return loc, nil
}
