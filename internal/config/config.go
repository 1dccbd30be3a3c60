package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	Port                string   `mapstructure:"PORT"`
	Env                 string   `mapstructure:"ENV"`
	DatabaseURL         string   `mapstructure:"DATABASE_URL"`
	DBMaxConns          int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns          int32    `mapstructure:"DB_MIN_CONNS"`
	CORSOrigins         []string `mapstructure:"-"`
	AuthSigningKey      string   `mapstructure:"AUTH_SIGNING_KEY"`
	AuthIssuer          string   `mapstructure:"AUTH_ISSUER"`
	LogLevel            string   `mapstructure:"LOG_LEVEL"`
	LogFile             string   `mapstructure:"LOG_FILE"`
	BodyLimit           string   `mapstructure:"BODY_LIMIT"`
	PhoneRegion         string   `mapstructure:"PHONE_REGION"`
	DefaultChargeAmount string   `mapstructure:"DEFAULT_CHARGE_AMOUNT"`
	Currency            string   `mapstructure:"CURRENCY"`
	Timezone            string   `mapstructure:"TIMEZONE"`
	RateLimitRPS        float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst      int      `mapstructure:"RATE_LIMIT_BURST"`
}

// Load reads configuration from the environment and an optional .env file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("AUTH_ISSUER", "maternal-clinic")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("BODY_LIMIT", "1M")
	v.SetDefault("PHONE_REGION", "KE")
	v.SetDefault("DEFAULT_CHARGE_AMOUNT", "500")
	v.SetDefault("CURRENCY", "KES")
	v.SetDefault("TIMEZONE", "Africa/Nairobi")
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)

	for _, key := range []string{
		"PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
		"CORS_ORIGINS", "AUTH_SIGNING_KEY", "AUTH_ISSUER", "LOG_LEVEL", "LOG_FILE",
		"BODY_LIMIT", "PHONE_REGION", "DEFAULT_CHARGE_AMOUNT", "CURRENCY", "TIMEZONE",
		"RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
	} {
		_ = v.BindEnv(key)
	}

	// Missing .env is fine.
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.CORSOrigins = nil
	for _, o := range strings.Split(v.GetString("CORS_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate checks settings that Load cannot default. Outside development a
// signing key of at least 32 bytes is required.
func (c *Config) Validate() error {
	if !c.IsDev() && c.AuthSigningKey == "" {
		return fmt.Errorf("AUTH_SIGNING_KEY is required when ENV=%q", c.Env)
	}
	if c.AuthSigningKey != "" && len(c.AuthSigningKey) < 32 {
		return fmt.Errorf("AUTH_SIGNING_KEY must be at least 32 bytes, got %d", len(c.AuthSigningKey))
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if _, err := c.ChargeAmount(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if len(c.PhoneRegion) != 2 {
		return fmt.Errorf("PHONE_REGION must be a two-letter region code, got %q", c.PhoneRegion)
	}
	return nil
}

// ChargeAmount parses DEFAULT_CHARGE_AMOUNT.
func (c *Config) ChargeAmount() (decimal.Decimal, error) {
	amt, err := decimal.NewFromString(c.DefaultChargeAmount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("DEFAULT_CHARGE_AMOUNT is not a number: %w", err)
	}
	if !amt.IsPositive() {
		return decimal.Zero, fmt.Errorf("DEFAULT_CHARGE_AMOUNT must be positive, got %s", amt)
	}
	return amt, nil
}

// Location resolves TIMEZONE, the zone used to decide the clinic's "today".
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}
