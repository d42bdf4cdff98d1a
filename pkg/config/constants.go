package config

// EnvPrefix is empty because each envconfig tag carries the full
// STOCKTAKE_-prefixed variable name.
const EnvPrefix = ""

// App environment values accepted by AppConfig.Env.
const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Environment variable names referenced outside struct tags.
const (
	EnvAppEnv              = "STOCKTAKE_APP_ENV"
	EnvPort                = "STOCKTAKE_APP_PORT"
	EnvLogLevel            = "STOCKTAKE_LOG_LEVEL"
	EnvDBDSN               = "STOCKTAKE_DB_DSN"
	EnvDBHost              = "STOCKTAKE_DB_HOST"
	EnvDBPort              = "STOCKTAKE_DB_PORT"
	EnvDBUser              = "STOCKTAKE_DB_USER"
	EnvDBPassword          = "STOCKTAKE_DB_PASSWORD"
	EnvDBName              = "STOCKTAKE_DB_NAME"
	EnvRedisURL            = "STOCKTAKE_REDIS_URL"
	EnvJWTSecret           = "STOCKTAKE_JWT_SECRET"
	EnvJWTIssuer           = "STOCKTAKE_JWT_ISSUER"
	EnvJWTExpMins          = "STOCKTAKE_JWT_EXPIRATION_MINUTES"
	EnvGCPProjectID        = "STOCKTAKE_GCP_PROJECT_ID"
	EnvPubSubCountTopic    = "STOCKTAKE_PUBSUB_COUNT_TOPIC"
	EnvPubSubCountSub      = "STOCKTAKE_PUBSUB_COUNT_SUBSCRIPTION"
	EnvPubSubConflictTopic = "STOCKTAKE_PUBSUB_CONFLICT_TOPIC"
	EnvPubSubConflictSub   = "STOCKTAKE_PUBSUB_CONFLICT_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
