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
	Cron         CronConfig
	Outbox       OutboxConfig
	PubSub       PubSubConfig
	GCP          GCPConfig
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
	Env          string `envconfig:"LEASEFLOW_APP_ENV" required:"true"`
	Port         string `envconfig:"LEASEFLOW_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"LEASEFLOW_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LEASEFLOW_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"LEASEFLOW_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"LEASEFLOW_DB_DSN"`
	Driver string `envconfig:"LEASEFLOW_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"LEASEFLOW_DB_HOST"`
	LegacyPort     int    `envconfig:"LEASEFLOW_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"LEASEFLOW_DB_USER"`
	LegacyPassword string `envconfig:"LEASEFLOW_DB_PASSWORD"`
	LegacyName     string `envconfig:"LEASEFLOW_DB_NAME"`
	LegacySSLMode  string `envconfig:"LEASEFLOW_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LEASEFLOW_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LEASEFLOW_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LEASEFLOW_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LEASEFLOW_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LEASEFLOW_REDIS_URL" required:"true"`
	Address      string        `envconfig:"LEASEFLOW_REDIS_ADDR"`
	Password     string        `envconfig:"LEASEFLOW_REDIS_PASSWORD"`
	DB           int           `envconfig:"LEASEFLOW_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LEASEFLOW_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LEASEFLOW_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LEASEFLOW_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LEASEFLOW_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LEASEFLOW_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"LEASEFLOW_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"LEASEFLOW_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"LEASEFLOW_JWT_EXPIRATION_MINUTES" default:"60"`
}

type CronConfig struct {
	Interval          time.Duration `envconfig:"LEASEFLOW_CRON_INTERVAL" default:"24h"`
	ExpiringSoonDays  int           `envconfig:"LEASEFLOW_CRON_EXPIRING_SOON_DAYS" default:"30"`
	IdempotencyWindow time.Duration `envconfig:"LEASEFLOW_IDEMPOTENCY_WINDOW" default:"24h"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"LEASEFLOW_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"LEASEFLOW_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"LEASEFLOW_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type PubSubConfig struct {
	EventsTopic string `envconfig:"LEASEFLOW_PUBSUB_EVENTS_TOPIC" default:"lf-domain-events"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"LEASEFLOW_GCP_PROJECT_ID"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"LEASEFLOW_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"LEASEFLOW_AUTO_MIGRATE" default:"false"`
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
