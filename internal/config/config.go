package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	defaultRunAddress        = "localhost:8080"
	defaultMigrationsDir     = "internal/db/migrations"
	defaultCurrency          = "PHP"
	defaultReconcileInterval = 30 * time.Second
	defaultReconcileWorkers  = 4
)

var currencyRe = regexp.MustCompile(`^[A-Z]{3}$`)

type Config struct {
	RunAddress        string        `env:"RUN_ADDRESS"`
	DatabaseDSN       string        `env:"DATABASE_URI"`
	MigrationsDir     string        `env:"MIGRATIONS_DIR"`
	JWTUserSecret     string        `env:"JWT_SECRET"`
	Currency          string        `env:"CURRENCY"`
	InMemory          bool          `env:"IN_MEMORY"`
	ReconcileInterval time.Duration `env:"RECONCILE_INTERVAL"`
	ReconcileWorkers  uint          `env:"RECONCILE_WORKERS"`
}

// LoadConfig собирает конфигурацию из флагов командной строки и переменных окружения. Переменные окружения
// имеют приоритет. Перед разбором подгружается файл .env, если он есть.
func LoadConfig() (*Config, error) {
	return loadConfig(os.Args[1:], ".env")
}

func MustLoadConfig() *Config {
	config, err := LoadConfig()
	if err != nil {
		panic(err)
	}
	return config
}

func loadConfig(args []string, dotenvPath string) (*Config, error) {
	if dotenvPath != "" {
		// godotenv не перезаписывает уже заданные переменные
		if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %s", dotenvPath, err.Error())
		}
	}

	var conf Config
	if err := loadFlags(&conf, args); err != nil {
		return nil, err
	}

	// env.Parse трогает только поля, для которых переменная задана, поэтому флаги остаются значениями по умолчанию.
	if envParseErr := env.Parse(&conf); envParseErr != nil {
		return nil, fmt.Errorf("parse env config: %s", envParseErr.Error())
	}

	if err := conf.validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}

func loadFlags(conf *Config, args []string) error {
	flags := flag.NewFlagSet("wallet", flag.ContinueOnError)

	flags.StringVar(&conf.RunAddress, "a", defaultRunAddress, "Run address in format host:port")
	flags.StringVar(&conf.DatabaseDSN, "d", "", "Database DSN")
	flags.StringVar(&conf.MigrationsDir, "m", defaultMigrationsDir, "Database migrations directory")
	flags.StringVar(&conf.JWTUserSecret, "j", "", "JWT signing secret")
	flags.StringVar(&conf.Currency, "c", defaultCurrency, "Account currency, ISO-4217 code")
	flags.BoolVar(&conf.InMemory, "mem", false, "Use in-memory storage instead of Postgres")
	flags.DurationVar(&conf.ReconcileInterval, "ri", defaultReconcileInterval, "Pause between ledger reconciliation passes")
	flags.UintVar(&conf.ReconcileWorkers, "rw", defaultReconcileWorkers, "Ledger reconciliation workers")

	if err := flags.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	return nil
}

func (c *Config) validate() error {
	if c.DatabaseDSN == "" && !c.InMemory {
		return errors.New("database DSN is not set")
	}
	if c.JWTUserSecret == "" {
		return errors.New("jwt secret is not set")
	}
	if !currencyRe.MatchString(c.Currency) {
		return fmt.Errorf("invalid currency %q", c.Currency)
	}
	if c.ReconcileInterval <= 0 {
		return fmt.Errorf("invalid reconcile interval %s", c.ReconcileInterval)
	}
	if c.ReconcileWorkers == 0 {
		return errors.New("reconcile workers must be positive")
	}
	return nil
}
