package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/badseed-agent/pkg/activity"
	"github.com/badseed-agent/pkg/agent"
	"github.com/badseed-agent/pkg/config"
	"github.com/badseed-agent/pkg/nodes"
	"github.com/badseed-agent/pkg/profiler"
	"github.com/badseed-agent/pkg/server"
	"github.com/badseed-agent/pkg/solana"
)

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).With().Timestamp().Logger()
	log.Info().Msg("🌱 BADSEED AGENT starting...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config invalid")
	}

	store := openStore(cfg)
	defer store.Close()

	analyzer := profiler.New(cfg.Profiler, cfg.KnownWallets, cfg.TokenMintAddress)
	tools := agent.NewToolset(nodes.NewClient(cfg), solana.NewClient(cfg), analyzer, cfg.Correlation)
	engine := agent.NewEngine(cfg, tools)
	srv := server.New(cfg, engine, store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info().Msg("shutting down...")
		cancel()
	}()

	sched := cron.New()
	sched.AddFunc("5 0 * * *", func() { logDailySummary(ctx, store) })
	sched.Start()
	defer sched.Stop()

	if cfg.HeliusConfigured() {
		log.Info().Msg("🔗 Helius indexer enabled for wallet analysis")
	} else {
		log.Warn().Msg("⚠️ No HELIUS_API_KEY - wallet analysis limited to public RPC balances")
	}

	if err := srv.Run(ctx); err != nil {
		log.Error().Err(err).Msg("server error")
	}
	log.Info().Msg("goodbye 👋")
}

func openStore(cfg *config.Config) activity.Store {
	if cfg.UpstashConfigured() {
		log.Info().Msg("📝 activity logging via Upstash Redis")
		return activity.NewUpstash(cfg.UpstashURL, cfg.UpstashToken)
	}

	store, err := activity.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("local activity store init failed")
	}
	log.Info().Str("path", cfg.DBPath).Msg("📝 activity logging via local sqlite")
	return store
}

// logDailySummary reports yesterday's query volume shortly after midnight.
func logDailySummary(ctx context.Context, store activity.Store) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	date := activity.DateKey(time.Now().AddDate(0, 0, -1))
	stats, err := store.DayStats(ctx, date)
	if err != nil {
		log.Warn().Err(err).Str("date", date).Msg("daily summary fetch failed")
		return
	}

	ev := log.Info().Str("date", date).Int("queries", stats["queries"])
	for field, count := range stats {
		if field != "queries" {
			ev = ev.Int(field, count)
		}
	}
	ev.Msg("📊 daily summary")
}
