package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config mirrors config/config.yaml.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Ingestion IngestionConfig `mapstructure:"ingestion"`
	Sources   SourcesConfig   `mapstructure:"sources"`
	Bidding   BiddingConfig   `mapstructure:"bidding"`
}

// ServerConfig HTTP server settings.
type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug/release/test
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json/text
}

// DatabaseConfig PostgreSQL connection and pool settings.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LogLevel        string        `mapstructure:"log_level"` // gorm logger: silent/error/warn/info
}

// IngestionConfig drives both manual runs and the scheduled daily run.
type IngestionConfig struct {
	Cron             string        `mapstructure:"cron"`
	UseReal          bool          `mapstructure:"use_real"`
	DefaultCount     int           `mapstructure:"default_count"`
	DailyCount       int           `mapstructure:"daily_count"`
	MaxAttempts      int           `mapstructure:"max_attempts"`
	DailyMaxAttempts int           `mapstructure:"daily_max_attempts"`
	BackoffBase      time.Duration `mapstructure:"backoff_base"`
	BackoffMax       time.Duration `mapstructure:"backoff_max"`
}

type SourcesConfig struct {
	Mock MockSourceConfig `mapstructure:"mock"`
	PJe  PJeSourceConfig  `mapstructure:"pje"`
}

// MockSourceConfig Seed 0 means time-seeded.
type MockSourceConfig struct {
	Seed int64 `mapstructure:"seed"`
}

// PJeSourceConfig scraping settings for the PJe public search portal.
type PJeSourceConfig struct {
	PortalURL   string        `mapstructure:"portal_url"`
	SearchTerms []string      `mapstructure:"search_terms"`
	MaxCases    int           `mapstructure:"max_cases"`
	Headless    bool          `mapstructure:"headless"`
	PageTimeout time.Duration `mapstructure:"page_timeout"` // upper bound for a single page wait
	ResultsWait time.Duration `mapstructure:"results_wait"`
	Timeout     int           `mapstructure:"timeout"` // detail page HTTP timeout (seconds)
	Proxy       string        `mapstructure:"proxy"`
}

// BiddingConfig bid amount bounds.
type BiddingConfig struct {
	MinAmount float64 `mapstructure:"min_amount"`
	MaxAmount float64 `mapstructure:"max_amount"`
}

// LoadConfig reads config/config.yaml; .env and process env override operational knobs.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load() // .env is optional

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.SetDefault("sources.pje.headless", true)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config file: %w", err)
	}

	overrideFromEnv(&cfg)
	cfg.ApplyDefaults()
	return &cfg, nil
}

// overrideFromEnv env > yaml
func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if b, ok := envBool("USE_REAL_ADAPTER"); ok {
		cfg.Ingestion.UseReal = b
	}
	if n, ok := envInt("MAX_PROCESSOS_DIARIOS"); ok {
		cfg.Ingestion.DailyCount = n
	}
	if n, ok := envInt("MAX_RETRY_ATTEMPTS"); ok {
		cfg.Ingestion.DailyMaxAttempts = n
	}
	if v := os.Getenv("PJE_PROXY"); v != "" {
		cfg.Sources.PJe.Proxy = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

// envBool accepts what strconv.ParseBool does; anything else leaves the yaml value.
func envBool(key string) (bool, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ApplyDefaults fills zero values so a partial config file still yields a
// runnable service.
func (c *Config) ApplyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "release"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 50
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 10
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = time.Hour
	}

	in := &c.Ingestion
	if in.Cron == "" {
		in.Cron = "0 8 * * *"
	}
	if in.DefaultCount <= 0 {
		in.DefaultCount = 10
	}
	if in.DailyCount <= 0 {
		in.DailyCount = 50
	}
	if in.MaxAttempts <= 0 {
		in.MaxAttempts = 3
	}
	if in.DailyMaxAttempts <= 0 {
		in.DailyMaxAttempts = 5
	}
	if in.BackoffBase <= 0 {
		in.BackoffBase = 10 * time.Second
	}
	if in.BackoffMax <= 0 {
		in.BackoffMax = 60 * time.Second
	}

	pje := &c.Sources.PJe
	if pje.PortalURL == "" {
		pje.PortalURL = "https://pje-consulta-publica.tjmg.jus.br/"
	}
	if len(pje.SearchTerms) == 0 {
		pje.SearchTerms = []string{"Secretaria de Saúde"}
	}
	if pje.MaxCases <= 0 {
		pje.MaxCases = 30
	}
	if pje.PageTimeout <= 0 {
		pje.PageTimeout = 10 * time.Second
	}
	if pje.ResultsWait <= 0 {
		pje.ResultsWait = 5 * time.Second
	}
	if pje.Timeout <= 0 {
		pje.Timeout = 20
	}

	if c.Bidding.MinAmount <= 0 {
		c.Bidding.MinAmount = 100
	}
	if c.Bidding.MaxAmount <= 0 {
		c.Bidding.MaxAmount = 1_000_000
	}
}

// Default returns a config with every default applied; used by tests and
// tooling that run without a config file.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}
