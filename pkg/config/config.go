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
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Cards        CardsConfig
	CORS         CORSConfig
	FeatureFlags FeatureFlagsConfig
	Checkout     CheckoutConfig
	Outbox       OutboxConfig
	Cron         CronConfig
	PubSub       PubSubConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if cfg.App.IsProd() && cfg.DB.IsSQLite() {
		return nil, fmt.Errorf("%s=%s is not allowed when %s=%s", EnvDBDriver, DriverSQLite, EnvAppEnv, cfg.App.Env)
	}
	if err := cfg.Outbox.validate(cfg.PubSub); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PLAYDEPOT_APP_ENV" required:"true"`
	Port         string `envconfig:"PLAYDEPOT_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"PLAYDEPOT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PLAYDEPOT_LOG_WARN_STACK" default:"false"`
	// MetricsAddr is where the background workers expose /metrics, e.g.
	// ":9090". Empty disables it. The API serves /metrics on its own port.
	MetricsAddr string `envconfig:"PLAYDEPOT_METRICS_ADDR"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PLAYDEPOT_DB_DSN"`
	Driver string `envconfig:"PLAYDEPOT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PLAYDEPOT_DB_HOST"`
	LegacyPort     int    `envconfig:"PLAYDEPOT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PLAYDEPOT_DB_USER"`
	LegacyPassword string `envconfig:"PLAYDEPOT_DB_PASSWORD"`
	LegacyName     string `envconfig:"PLAYDEPOT_DB_NAME"`
	LegacySSLMode  string `envconfig:"PLAYDEPOT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PLAYDEPOT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PLAYDEPOT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PLAYDEPOT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PLAYDEPOT_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	// SlowQueryThreshold logs statements at warn once they take longer. Zero
	// disables it.
	SlowQueryThreshold time.Duration `envconfig:"PLAYDEPOT_DB_SLOW_QUERY_THRESHOLD" default:"500ms"`
}

// NormalizedDriver lowercases the driver name and falls back to postgres.
func (db DBConfig) NormalizedDriver() string {
	driver := strings.ToLower(strings.TrimSpace(db.Driver))
	if driver == "" {
		return DriverPostgres
	}
	return driver
}

func (db DBConfig) IsSQLite() bool {
	return db.NormalizedDriver() == DriverSQLite
}

type RedisConfig struct {
	URL            string        `envconfig:"PLAYDEPOT_REDIS_URL"`
	Address        string        `envconfig:"PLAYDEPOT_REDIS_ADDR"`
	Password       string        `envconfig:"PLAYDEPOT_REDIS_PASSWORD"`
	DB             int           `envconfig:"PLAYDEPOT_REDIS_DB" default:"0"`
	PoolSize       int           `envconfig:"PLAYDEPOT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns   int           `envconfig:"PLAYDEPOT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout    time.Duration `envconfig:"PLAYDEPOT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout    time.Duration `envconfig:"PLAYDEPOT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout   time.Duration `envconfig:"PLAYDEPOT_REDIS_WRITE_TIMEOUT" default:"5s"`
	IdempotencyTTL time.Duration `envconfig:"PLAYDEPOT_REDIS_IDEMPOTENCY_TTL" default:"24h"`
	StreamMaxLen   int64         `envconfig:"PLAYDEPOT_REDIS_STREAM_MAX_LEN" default:"100000"`
}

type JWTConfig struct {
	Secret            string `envconfig:"PLAYDEPOT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"PLAYDEPOT_JWT_ISSUER" default:"playdepot"`
	ExpirationMinutes int    `envconfig:"PLAYDEPOT_JWT_EXPIRATION_MINUTES" default:"60"`
}

// Expiration returns the access token lifetime.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// CardsConfig controls the card vault. An empty EncryptionKey disables
// reversible storage of card numbers.
type CardsConfig struct {
	EncryptionKey string `envconfig:"PLAYDEPOT_CARD_ENCRYPTION_KEY"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"PLAYDEPOT_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PLAYDEPOT_FEATURE_AUTO_MIGRATE" default:"false"`
}

type CheckoutConfig struct {
	OrderIDAttempts int `envconfig:"PLAYDEPOT_CHECKOUT_ORDER_ID_ATTEMPTS" default:"5"`
}

// OutboxConfig drives the publisher. Transport is "redis" (stream named
// Stream) or "pubsub" (topic from PubSubConfig).
type OutboxConfig struct {
	Transport    string        `envconfig:"PLAYDEPOT_OUTBOX_TRANSPORT" default:"redis"`
	Stream       string        `envconfig:"PLAYDEPOT_OUTBOX_STREAM" default:"domain-events"`
	BatchSize    int           `envconfig:"PLAYDEPOT_OUTBOX_BATCH_SIZE" default:"50"`
	PollInterval time.Duration `envconfig:"PLAYDEPOT_OUTBOX_POLL_INTERVAL" default:"500ms"`
	MaxAttempts  int           `envconfig:"PLAYDEPOT_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

// NormalizedTransport lowercases the transport and falls back to redis.
func (o OutboxConfig) NormalizedTransport() string {
	transport := strings.ToLower(strings.TrimSpace(o.Transport))
	if transport == "" {
		return TransportRedis
	}
	return transport
}

func (o OutboxConfig) validate(ps PubSubConfig) error {
	switch o.NormalizedTransport() {
	case TransportRedis:
		return nil
	case TransportPubSub:
		if strings.TrimSpace(ps.ProjectID) == "" {
			return fmt.Errorf("%s is required when %s=%s", EnvGCPProjectID, EnvOutboxTransport, TransportPubSub)
		}
		return nil
	default:
		return fmt.Errorf("unknown %s %q", EnvOutboxTransport, o.Transport)
	}
}

type PubSubConfig struct {
	ProjectID       string `envconfig:"PLAYDEPOT_GCP_PROJECT_ID"`
	Topic           string `envconfig:"PLAYDEPOT_PUBSUB_DOMAIN_TOPIC" default:"domain-events"`
	CredentialsJSON string `envconfig:"PLAYDEPOT_GCP_CREDENTIALS_JSON"`
	CredentialsFile string `envconfig:"PLAYDEPOT_GOOGLE_APPLICATION_CREDENTIALS"`
	Endpoint        string `envconfig:"PLAYDEPOT_PUBSUB_ENDPOINT"`
}

// CronConfig drives the maintenance worker.
type CronConfig struct {
	Interval        time.Duration `envconfig:"PLAYDEPOT_CRON_INTERVAL" default:"1h"`
	OutboxRetention time.Duration `envconfig:"PLAYDEPOT_CRON_OUTBOX_RETENTION" default:"720h"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.NormalizedDriver() != DriverPostgres {
		return fmt.Errorf("%s is required for driver %q", EnvDBDSN, db.NormalizedDriver())
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
