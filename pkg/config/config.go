package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	CamPay       CamPayConfig
	Sendgrid     SendgridConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.CamPay.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STUDHOME_APP_ENV" required:"true"`
	Port         string `envconfig:"STUDHOME_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STUDHOME_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STUDHOME_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"STUDHOME_DB_DSN"`
	Driver string `envconfig:"STUDHOME_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"STUDHOME_DB_HOST"`
	Port     int    `envconfig:"STUDHOME_DB_PORT" default:"5432"`
	User     string `envconfig:"STUDHOME_DB_USER"`
	Password string `envconfig:"STUDHOME_DB_PASSWORD"`
	Name     string `envconfig:"STUDHOME_DB_NAME"`
	SSLMode  string `envconfig:"STUDHOME_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STUDHOME_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STUDHOME_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STUDHOME_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STUDHOME_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("either STUDHOME_DB_DSN or host/user/name settings are required")
	}
	d.DSN = fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(d.User),
		url.QueryEscape(d.Password),
		d.Host,
		d.Port,
		d.Name,
		d.SSLMode,
	)
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"STUDHOME_REDIS_URL"`
	Address      string        `envconfig:"STUDHOME_REDIS_ADDR"`
	Password     string        `envconfig:"STUDHOME_REDIS_PASSWORD"`
	DB           int           `envconfig:"STUDHOME_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STUDHOME_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STUDHOME_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STUDHOME_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STUDHOME_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STUDHOME_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"STUDHOME_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"STUDHOME_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"STUDHOME_JWT_EXPIRATION_MINUTES" default:"60"`
	SessionTTLMinutes int    `envconfig:"STUDHOME_SESSION_TTL_MINUTES" default:"43200"`
}

// SessionTTL returns the redis session TTL configured in minutes.
func (j JWTConfig) SessionTTL() time.Duration {
	if j.SessionTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.SessionTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"STUDHOME_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"STUDHOME_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"STUDHOME_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"STUDHOME_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"STUDHOME_ARGON_KEY_LEN" default:"32"`
}

// CamPayConfig wires the mobile-money collect API. The sandbox only accepts a
// fixed collect amount, so the accepted amount lives here rather than on the
// house record.
type CamPayConfig struct {
	BaseURL     string        `envconfig:"STUDHOME_CAMPAY_BASE_URL" default:"https://demo.campay.net/api"`
	AppUsername string        `envconfig:"STUDHOME_CAMPAY_APP_USERNAME" required:"true"`
	AppPassword string        `envconfig:"STUDHOME_CAMPAY_APP_PASSWORD" required:"true"`
	Currency    string        `envconfig:"STUDHOME_CAMPAY_CURRENCY" default:"XAF"`
	DemoAmount  string        `envconfig:"STUDHOME_CAMPAY_DEMO_AMOUNT" default:"100"`
	HTTPTimeout time.Duration `envconfig:"STUDHOME_CAMPAY_HTTP_TIMEOUT" default:"15s"`
}

func (c *CamPayConfig) validate() error {
	if _, err := decimal.NewFromString(c.DemoAmount); err != nil {
		return fmt.Errorf("invalid STUDHOME_CAMPAY_DEMO_AMOUNT %q: %w", c.DemoAmount, err)
	}
	return nil
}

// FixedAmount returns the collect amount the sandbox gateway accepts.
func (c CamPayConfig) FixedAmount() decimal.Decimal {
	amount, err := decimal.NewFromString(c.DemoAmount)
	if err != nil {
		return decimal.NewFromInt(100)
	}
	return amount
}

type SendgridConfig struct {
	APIKey    string `envconfig:"STUDHOME_SENDGRID_API_KEY"`
	FromEmail string `envconfig:"STUDHOME_SENDGRID_FROM_EMAIL" default:"no-reply@studhome.app"`
	FromName  string `envconfig:"STUDHOME_SENDGRID_FROM_NAME" default:"StudHome"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"STUDHOME_AUTO_MIGRATE" default:"false"`
}
