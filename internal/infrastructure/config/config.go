package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration.
type Config struct {
	// Database (empty URL runs on the in-memory journal)
	DatabaseURL      string        `env:"DATABASE_URL"       envDefault:""`
	DatabaseMaxConns int           `env:"DATABASE_MAX_CONNS" envDefault:"25"`
	DatabaseMinConns int           `env:"DATABASE_MIN_CONNS" envDefault:"5"`
	MigrationsPath   string        `env:"MIGRATIONS_PATH"    envDefault:"migrations"`
	DatabaseTimeout  time.Duration `env:"DATABASE_TIMEOUT"   envDefault:"30s"`

	// Redis read side (empty URL runs on the in-memory status store)
	RedisURL string `env:"REDIS_URL" envDefault:""`

	// HTTP Server
	HTTPPort            string        `env:"HTTP_PORT"             envDefault:"8080"`
	HTTPReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT"     envDefault:"30s"`
	HTTPWriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT"    envDefault:"90s"`
	HTTPShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Ledger accounts
	SeedAccounts         []string `env:"SEED_ACCOUNTS"         envDefault:"1,2,3,4,5"`
	UnresponsiveAccounts []string `env:"UNRESPONSIVE_ACCOUNTS" envDefault:"10"`
	InitialBalance       string   `env:"INITIAL_BALANCE"       envDefault:"10000"`

	SnapshotEvery   int64         `env:"SNAPSHOT_EVERY"   envDefault:"100"`
	RetentionWindow time.Duration `env:"RETENTION_WINDOW" envDefault:"6h"`
	SweepInterval   time.Duration `env:"SWEEP_INTERVAL"   envDefault:"30m"`

	// Delivery channel
	RedeliverInterval time.Duration `env:"REDELIVER_INTERVAL"  envDefault:"5s"`
	WarnAfterAttempts int           `env:"WARN_AFTER_ATTEMPTS" envDefault:"5"`

	// Transfer boundary
	TransferTimeout    time.Duration `env:"TRANSFER_TIMEOUT"     envDefault:"60s"`
	BalanceTimeout     time.Duration `env:"BALANCE_TIMEOUT"      envDefault:"10s"`
	NotifyAtCompletion bool          `env:"NOTIFY_AT_COMPLETION" envDefault:"false"`

	// Startup recovery of hanging transactions
	RecoveryDelay time.Duration `env:"RECOVERY_DELAY" envDefault:"1m"`

	// Supervision
	BackoffMin time.Duration `env:"BACKOFF_MIN" envDefault:"1s"`
	BackoffMax time.Duration `env:"BACKOFF_MAX" envDefault:"30s"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	err := env.Parse(cfg)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}
