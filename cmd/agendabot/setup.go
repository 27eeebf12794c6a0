package main

import (
	"fmt"
	"time"

	"github.com/rahul/agendabot/internal/store"
	"github.com/rahul/agendabot/pkg/config"
)

func loadConfig(ro *rootOptions) (*config.Config, *time.Location, error) {
	config.LoadEnv(ro.envFiles...)
	cfg, err := config.Load(ro.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	cfg.ApplyEnv(nil)
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, err
	}
	return cfg, loc, nil
}

func openStore(cfg *config.Config, loc *time.Location) (store.Store, error) {
	if cfg.Memory.Type == "memory" {
		return store.NewMemoryStore(), nil
	}
	return store.NewSQLiteStore(cfg.Memory.Path, loc)
}
