package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Session  SessionConfig  `mapstructure:"session"`
	Security SecurityConfig `mapstructure:"security"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Deposit  DepositConfig  `mapstructure:"deposit"`
	Referral ReferralConfig `mapstructure:"referral"`
	Plans    []PlanSeed     `mapstructure:"plans"`
	Admin    AdminSeed      `mapstructure:"admin"`
	LogLevel string         `mapstructure:"log_level"`
}

type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	Env            string        `mapstructure:"env"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// SessionConfig controls the signed session cookie. Secret has no default.
type SessionConfig struct {
	Secret     string        `mapstructure:"secret"`
	CookieName string        `mapstructure:"cookie_name"`
	TTL        time.Duration `mapstructure:"ttl"`
	Secure     bool          `mapstructure:"secure"`
	Issuer     string        `mapstructure:"issuer"`
}

type SecurityConfig struct {
	BcryptCost int             `mapstructure:"bcrypt_cost"`
	RateLimit  RateLimitConfig `mapstructure:"rate_limit"`
	AuthLimit  RateLimitConfig `mapstructure:"auth_limit"`
}

type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// DepositConfig holds the fallback deposit instructions used until an admin
// stores its own values in system settings.
type DepositConfig struct {
	Wallet         string        `mapstructure:"wallet"`
	Coin           string        `mapstructure:"coin"`
	Network        string        `mapstructure:"network"`
	ReloadInterval time.Duration `mapstructure:"reload_interval"`
}

type ReferralConfig struct {
	BonusPercent string `mapstructure:"bonus_percent"`
}

// PlanSeed amounts are decimal strings.
type PlanSeed struct {
	Name   string `mapstructure:"name"`
	Price  string `mapstructure:"price"`
	Payout string `mapstructure:"payout"`
}

type AdminSeed struct {
	Username      string `mapstructure:"username"`
	Password      string `mapstructure:"password"`
	WalletAddress string `mapstructure:"wallet_address"`
}

const envPrefix = "APP"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	v.SetDefault("session.secret", "")
	v.SetDefault("session.cookie_name", "session_token")
	v.SetDefault("session.ttl", 24*time.Hour)
	v.SetDefault("session.secure", false)
	v.SetDefault("session.issuer", "royaltriangle")

	v.SetDefault("security.bcrypt_cost", 12)
	v.SetDefault("security.rate_limit.requests", 100)
	v.SetDefault("security.rate_limit.window", time.Minute)
	v.SetDefault("security.auth_limit.requests", 10)
	v.SetDefault("security.auth_limit.window", time.Minute)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("deposit.wallet", "")
	v.SetDefault("deposit.coin", "USDT")
	v.SetDefault("deposit.network", "TRC20")
	v.SetDefault("deposit.reload_interval", 30*time.Second)

	v.SetDefault("referral.bonus_percent", "10")

	v.SetDefault("plans", []map[string]interface{}{
		{"name": "King", "price": "100", "payout": "700"},
		{"name": "Queen", "price": "50", "payout": "350"},
		{"name": "Bishop", "price": "25", "payout": "175"},
		{"name": "Knight", "price": "10", "payout": "70"},
	})

	v.SetDefault("admin.username", "")
	v.SetDefault("admin.password", "")
	v.SetDefault("admin.wallet_address", "")

	v.SetDefault("log_level", "info")
}

// Load reads config.yaml from path (optional), then .env, then APP_* environment
// variables. The result is not validated; call Validate before serving.
func Load(path string) (*Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

var (
	ErrMissingSessionSecret = errors.New("session secret is required (APP_SESSION_SECRET)")
	ErrMissingDSN           = errors.New("database dsn is required (APP_DATABASE_DSN)")
)

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Session.Secret) == "" {
		return ErrMissingSessionSecret
	}
	if c.Database.DSN == "" {
		return ErrMissingDSN
	}
	switch c.Database.Driver {
	case "mysql", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Security.BcryptCost < 4 || c.Security.BcryptCost > 31 {
		return fmt.Errorf("bcrypt cost %d out of range", c.Security.BcryptCost)
	}
	return nil
}
