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
	FeatureFlags FeatureFlagsConfig
	Counting     CountingConfig
	RateLimit    RateLimitConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
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
	Env          string `envconfig:"STOCKTAKE_APP_ENV" required:"true"`
	Port         string `envconfig:"STOCKTAKE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STOCKTAKE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOCKTAKE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"STOCKTAKE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"STOCKTAKE_DB_DSN"`
	Driver string `envconfig:"STOCKTAKE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STOCKTAKE_DB_HOST"`
	LegacyPort     int    `envconfig:"STOCKTAKE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STOCKTAKE_DB_USER"`
	LegacyPassword string `envconfig:"STOCKTAKE_DB_PASSWORD"`
	LegacyName     string `envconfig:"STOCKTAKE_DB_NAME"`
	LegacySSLMode  string `envconfig:"STOCKTAKE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOCKTAKE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOCKTAKE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOCKTAKE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOCKTAKE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOCKTAKE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STOCKTAKE_REDIS_ADDR"`
	Password     string        `envconfig:"STOCKTAKE_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOCKTAKE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOCKTAKE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOCKTAKE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOCKTAKE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOCKTAKE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOCKTAKE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"STOCKTAKE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"STOCKTAKE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"STOCKTAKE_JWT_EXPIRATION_MINUTES" required:"true"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"STOCKTAKE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"STOCKTAKE_AUTO_MIGRATE" default:"false"`
}

type CountingConfig struct {
	// CommitTokenTTL bounds how long a reused idempotency token replays the
	// original committed line instead of re-applying the addition.
	CommitTokenTTL time.Duration `envconfig:"STOCKTAKE_COMMIT_TOKEN_TTL" default:"24h"`
	// DuplicateCheckTimeout caps the existence query before submission
	// degrades to creating a new line.
	DuplicateCheckTimeout time.Duration `envconfig:"STOCKTAKE_DUPLICATE_CHECK_TIMEOUT" default:"3s"`
}

// RateLimitConfig throttles count submissions per device. Offline clients
// replay queued submissions in bursts; the window is sized so a legitimate
// replay passes while a stuck retry loop does not.
type RateLimitConfig struct {
	SubmitWindow time.Duration `envconfig:"STOCKTAKE_SUBMIT_RATE_WINDOW" default:"1m"`
	SubmitLimit  int           `envconfig:"STOCKTAKE_SUBMIT_RATE_LIMIT" default:"120"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"STOCKTAKE_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"STOCKTAKE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"STOCKTAKE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	CountTopic           string `envconfig:"STOCKTAKE_PUBSUB_COUNT_TOPIC" required:"true"`
	CountSubscription    string `envconfig:"STOCKTAKE_PUBSUB_COUNT_SUBSCRIPTION" required:"true"`
	ConflictTopic        string `envconfig:"STOCKTAKE_PUBSUB_CONFLICT_TOPIC" required:"true"`
	ConflictSubscription string `envconfig:"STOCKTAKE_PUBSUB_CONFLICT_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"STOCKTAKE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"STOCKTAKE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"STOCKTAKE_OUTBOX_MAX_ATTEMPTS" default:"10"`
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
