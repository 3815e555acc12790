package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "dukapos"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "DUKAPOS_DB_DSN"
	EnvDBHost = "DUKAPOS_DB_HOST"
	EnvDBUser = "DUKAPOS_DB_USER"
	EnvDBName = "DUKAPOS_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
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
	Env          string `envconfig:"DUKAPOS_APP_ENV" required:"true"`
	Port         string `envconfig:"DUKAPOS_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"DUKAPOS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"DUKAPOS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"DUKAPOS_DB_DSN"`
	Driver string `envconfig:"DUKAPOS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"DUKAPOS_DB_HOST"`
	LegacyPort     int    `envconfig:"DUKAPOS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"DUKAPOS_DB_USER"`
	LegacyPassword string `envconfig:"DUKAPOS_DB_PASSWORD"`
	LegacyName     string `envconfig:"DUKAPOS_DB_NAME"`
	LegacySSLMode  string `envconfig:"DUKAPOS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DUKAPOS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DUKAPOS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DUKAPOS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DUKAPOS_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	// LockTimeout bounds how long a transaction may wait on a contended
	// batch row before the operation fails as RETRYABLE.
	LockTimeout time.Duration `envconfig:"DUKAPOS_DB_LOCK_TIMEOUT" default:"5s"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DUKAPOS_REDIS_URL"`
	Address      string        `envconfig:"DUKAPOS_REDIS_ADDR"`
	Password     string        `envconfig:"DUKAPOS_REDIS_PASSWORD"`
	DB           int           `envconfig:"DUKAPOS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DUKAPOS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DUKAPOS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DUKAPOS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DUKAPOS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DUKAPOS_REDIS_WRITE_TIMEOUT" default:"5s"`

	SnapshotTTL time.Duration `envconfig:"DUKAPOS_REDIS_SNAPSHOT_TTL" default:"30s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"DUKAPOS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"DUKAPOS_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"DUKAPOS_JWT_EXPIRATION_MINUTES" default:"720"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"DUKAPOS_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	DomainTopic string `envconfig:"DUKAPOS_PUBSUB_DOMAIN_TOPIC" default:"dukapos-domain-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"DUKAPOS_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"DUKAPOS_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"DUKAPOS_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"DUKAPOS_AUTO_MIGRATE" default:"false"`
	// SnapshotCache toggles the Redis-backed stock snapshot cache.
	SnapshotCache bool `envconfig:"DUKAPOS_FEATURE_SNAPSHOT_CACHE" default:"true"`
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
