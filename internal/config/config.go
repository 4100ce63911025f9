package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v9"
)

type Config struct {
	// Discord
	Token   string `env:"TOKEN,required,notEmpty"`
	GuildID string `env:"GUILD_ID,required,notEmpty"`

	// Snapshots
	LedgerFile      string `env:"LEDGER_FILE" envDefault:"donations.json"`
	ExpirationsFile string `env:"EXPIRATIONS_FILE" envDefault:"expirations.json"`

	// Timing
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"6h"`
	MainCycle     time.Duration `env:"MAIN_CYCLE" envDefault:"1m"`

	// Presentation
	LeaderboardSize int `env:"LEADERBOARD_SIZE" envDefault:"10"`
	HistorySize     int `env:"HISTORY_SIZE" envDefault:"25"`

	// Logging
	AppEnv   string `env:"APP_ENV" envDefault:"production"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if cfg.SweepInterval <= 0 || cfg.MainCycle <= 0 {
		return nil, fmt.Errorf("sweep interval and main cycle must be positive")
	}
	if cfg.LeaderboardSize <= 0 || cfg.HistorySize <= 0 {
		return nil, fmt.Errorf("leaderboard and history sizes must be positive")
	}
	return &cfg, nil
}
