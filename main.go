package main

import (
	"context"
	"donorbot/internal/bot"
	"donorbot/internal/common"
	"donorbot/internal/config"
	"donorbot/internal/ledger"
	"donorbot/internal/sweeper"
	"donorbot/internal/tiers"
	"os"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {

	// Load .env file if present
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Could not load configuration")
	}
	common.SetupLogger(cfg.AppEnv, cfg.LogLevel)
	if envErr != nil {
		log.Debug().Msg("No .env file found")
	}

	clock := common.SystemClock{}

	// Stores. A corrupt snapshot is fatal, a missing one is empty
	ledgerDb := ledger.NewDatabaseLedger(cfg.LedgerFile)
	donations, err := ledger.NewLedger(&ledgerDb)
	if err != nil {
		log.Fatal().Err(err).Msg("Could not load donations")
	}
	tiersDb := tiers.NewDatabaseTiers(cfg.ExpirationsFile)
	grants, err := tiers.NewGrants(&tiersDb)
	if err != nil {
		log.Fatal().Err(err).Msg("Could not load tier expirations")
	}
	log.Info().Int("users", grants.Users()).Msg("Tier expirations loaded")

	// Discord
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		log.Fatal().Err(err).Msg("Could not create discord session")
	}
	roles := bot.NewRoles(session, cfg.GuildID)

	assigner := tiers.NewAssigner(donations, grants, roles, clock)
	sweep := sweeper.NewSweeper(grants, roles, clock)

	donorbot := bot.NewBot(session, bot.Settings{
		GuildId:         cfg.GuildID,
		SweepInterval:   cfg.SweepInterval,
		MainCycle:       cfg.MainCycle,
		LeaderboardSize: cfg.LeaderboardSize,
		HistorySize:     cfg.HistorySize,
	}, donations, assigner, sweep, clock)

	// Run until interrupted
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := donorbot.Run(ctx); err != nil {
		log.Error().Err(err).Msg("Bot stopped")
		stop()
		os.Exit(1)
	}
	log.Info().Msg("Bye")
}
