package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	RateLimit    RateLimitConfig
	Engine       EngineConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
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
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"AFFIL_APP_ENV" required:"true"`
	Port         string `envconfig:"AFFIL_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"AFFIL_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"AFFIL_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"AFFIL_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"AFFIL_DB_DSN"`
	Driver string `envconfig:"AFFIL_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"AFFIL_DB_HOST"`
	LegacyPort     int    `envconfig:"AFFIL_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"AFFIL_DB_USER"`
	LegacyPassword string `envconfig:"AFFIL_DB_PASSWORD"`
	LegacyName     string `envconfig:"AFFIL_DB_NAME"`
	LegacySSLMode  string `envconfig:"AFFIL_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"AFFIL_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"AFFIL_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"AFFIL_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"AFFIL_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"AFFIL_REDIS_URL" required:"true"`
	Address      string        `envconfig:"AFFIL_REDIS_ADDR"`
	Password     string        `envconfig:"AFFIL_REDIS_PASSWORD"`
	DB           int           `envconfig:"AFFIL_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"AFFIL_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"AFFIL_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"AFFIL_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"AFFIL_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"AFFIL_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret               string `envconfig:"AFFIL_JWT_SECRET" required:"true"`
	Issuer               string `envconfig:"AFFIL_JWT_ISSUER" required:"true"`
	ExpirationMinutes    int    `envconfig:"AFFIL_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenTTLHours int    `envconfig:"AFFIL_JWT_REFRESH_TTL_HOURS" default:"720"`
}

// RefreshTokenTTL returns the refresh token lifetime as a duration.
func (c JWTConfig) RefreshTokenTTL() time.Duration {
	return time.Duration(c.RefreshTokenTTLHours) * time.Hour
}

type RateLimitConfig struct {
	WebhookWindow     time.Duration `envconfig:"AFFIL_RATE_LIMIT_WEBHOOK_WINDOW" default:"1m"`
	WebhookIPLimit    int           `envconfig:"AFFIL_RATE_LIMIT_WEBHOOK_IP_LIMIT" default:"120"`
	WebhookStoreLimit int           `envconfig:"AFFIL_RATE_LIMIT_WEBHOOK_STORE_LIMIT" default:"600"`
}

// EngineConfig carries commission-engine policy knobs.
type EngineConfig struct {
	// DefaultMaturityDays applies when a store has no configured grace period.
	DefaultMaturityDays int `envconfig:"AFFIL_DEFAULT_MATURITY_DAYS" default:"7"`
	// EventDedupeTTL bounds how long consumed order event ids are remembered.
	EventDedupeTTL time.Duration `envconfig:"AFFIL_EVENT_DEDUPE_TTL" default:"168h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"AFFIL_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"AFFIL_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"AFFIL_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"AFFIL_PUBSUB_ORDERS_TOPIC" required:"true"`
	OrdersSubscription string `envconfig:"AFFIL_PUBSUB_ORDERS_SUBSCRIPTION" required:"true"`
	PayoutsTopic       string `envconfig:"AFFIL_PUBSUB_PAYOUTS_TOPIC" required:"true"`
	DomainTopic        string `envconfig:"AFFIL_PUBSUB_DOMAIN_TOPIC" default:"affiliate-domain-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"AFFIL_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"AFFIL_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"AFFIL_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"AFFIL_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
