package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/rahul/agendabot/internal/calsync"
	"github.com/rahul/agendabot/internal/dialog"
	"github.com/rahul/agendabot/internal/gateway"
	"github.com/rahul/agendabot/internal/i18n"
	"github.com/rahul/agendabot/internal/observability"
	"github.com/rahul/agendabot/internal/parse"
	"github.com/rahul/agendabot/pkg/config"
)

func addServe(topLevel *cobra.Command, ro *rootOptions) {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the chat gateways",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(ro)
		},
	}
	topLevel.AddCommand(cmd)
}

func serve(ro *rootOptions) error {
	tty := observability.IsTerminal()
	if tty {
		observability.PrintBanner()
		observability.InitializeTerminal()
		defer observability.CleanupTerminal()
	}

	// Route all log output through the terminal mutex so it never
	// interrupts the dashboard's cursor save/restore sequence.
	log.SetOutput(observability.NewTermWriter())

	cfg, loc, err := loadConfig(ro)
	if err != nil {
		return err
	}
	msg, err := i18n.Load(cfg.App.Locale)
	if err != nil {
		return err
	}
	logger := observability.NewLogger(observability.NewTermWriter(), cfg.Logging.AuditPath)

	st, err := openStore(cfg, loc)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	dates, err := dateParser(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := dialog.Options{
		Store:    st,
		Messages: msg,
		Location: loc,
		Dates:    dates,
		Logger:   logger,
	}
	if cfg.Calendar.Enabled {
		feed, err := calsync.NewICSMirror(cfg.Calendar.Path, cfg.Calendar.Domain)
		if err != nil {
			return err
		}
		opts.Mirror = feed

		sched := calsync.NewScheduler(st, feed, cfg.Calendar.Refresh, cfg.Calendar.PastDays, cfg.Calendar.FutureDays, loc, logger)
		go func() {
			if err := sched.Start(ctx); err != nil {
				log.Printf("[sync] scheduler stopped: %v", err)
			}
		}()
	}

	engine, err := dialog.NewEngine(opts)
	if err != nil {
		return err
	}

	messengers, err := gateways(cfg, engine, logger)
	if err != nil {
		return err
	}

	// Start Live Resource Dashboard (1-second updates)
	if tty {
		go tick(ctx, time.Second, observability.PrintLiveStatus)
	}
	go tick(ctx, 30*time.Second, logger.LogHeartbeat)

	for _, m := range messengers {
		go func(m gateway.Messenger) {
			if err := m.Start(ctx); err != nil {
				log.Printf("\033[91m[ FAIL ] GATEWAY %s CRITICAL ERROR: %v\033[0m", m.Name(), err)
				logger.LogGateway(m.Name(), "crash", err)
				stop() // stop caller if gateway dies
			}
		}(m)
	}

	// Wait for shutdown signal
	<-ctx.Done()
	for _, m := range messengers {
		if err := m.Stop(); err != nil {
			log.Printf("[gateway] %s stop: %v", m.Name(), err)
		}
	}

	// Give a short time for final logs/syncs
	time.Sleep(500 * time.Millisecond)
	log.Println("\033[95m[ EXIT ] CORE DE-INITIALIZED. GOODBYE.\033[0m")
	return nil
}

func dateParser(cfg *config.Config) (*parse.DateParser, error) {
	name, p := cfg.GetDefaultProvider()
	if name == "" || p.APIKey == "" {
		return parse.NewDateParser(nil), nil
	}
	opts := []openai.Option{
		openai.WithToken(p.APIKey),
		openai.WithModel(p.Model),
	}
	if p.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(p.BaseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("provider %s: %w", name, err)
	}
	log.Printf("[parse] natural-language dates resolved through %s (%s)", name, p.Model)
	return parse.NewDateParser(parse.NewLLMResolver(llm)), nil
}

func gateways(cfg *config.Config, engine *dialog.Engine, logger *observability.Logger) ([]gateway.Messenger, error) {
	var out []gateway.Messenger
	if tg, ok := cfg.GetTelegramConfig(); ok {
		g, err := gateway.NewTelegramGateway(tg.Token, engine, logger)
		if err != nil {
			return nil, fmt.Errorf("telegram: %w", err)
		}
		out = append(out, g)
	}
	if dc, ok := cfg.GetDiscordConfig(); ok {
		g, err := gateway.NewDiscordGateway(dc.Token, engine, logger)
		if err != nil {
			return nil, fmt.Errorf("discord: %w", err)
		}
		out = append(out, g)
	}
	if len(out) == 0 {
		return nil, errors.New("no gateway is enabled with a token")
	}
	return out, nil
}

func tick(ctx context.Context, every time.Duration, fn func()) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}
