package config

const (
	EnvPrefix = "PLAYDEPOT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"

	TransportRedis  = "redis"
	TransportPubSub = "pubsub"
)

const (
	EnvAppEnv          = "PLAYDEPOT_APP_ENV"
	EnvPort            = "PLAYDEPOT_APP_PORT"
	EnvLogLevel        = "PLAYDEPOT_LOG_LEVEL"
	EnvDBDSN           = "PLAYDEPOT_DB_DSN"
	EnvDBDriver        = "PLAYDEPOT_DB_DRIVER"
	EnvDBHost          = "PLAYDEPOT_DB_HOST"
	EnvDBPort          = "PLAYDEPOT_DB_PORT"
	EnvDBUser          = "PLAYDEPOT_DB_USER"
	EnvDBPassword      = "PLAYDEPOT_DB_PASSWORD"
	EnvDBName          = "PLAYDEPOT_DB_NAME"
	EnvRedisURL        = "PLAYDEPOT_REDIS_URL"
	EnvJWTSecret       = "PLAYDEPOT_JWT_SECRET"
	EnvJWTIssuer       = "PLAYDEPOT_JWT_ISSUER"
	EnvJWTExpMins      = "PLAYDEPOT_JWT_EXPIRATION_MINUTES"
	EnvCardKey         = "PLAYDEPOT_CARD_ENCRYPTION_KEY"
	EnvCORSOrigins     = "PLAYDEPOT_CORS_ALLOWED_ORIGINS"
	EnvAutoMigrate     = "PLAYDEPOT_FEATURE_AUTO_MIGRATE"
	EnvOrderIDAttempts = "PLAYDEPOT_CHECKOUT_ORDER_ID_ATTEMPTS"
	EnvIdempotencyTTL  = "PLAYDEPOT_REDIS_IDEMPOTENCY_TTL"
	EnvOutboxTransport = "PLAYDEPOT_OUTBOX_TRANSPORT"
	EnvGCPProjectID    = "PLAYDEPOT_GCP_PROJECT_ID"
)

// legacyDBEnvVars must all be set when no DSN is provided.
var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
