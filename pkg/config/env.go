package config

const (
	// EnvPrefix is handed to envconfig; every variable is spelled out in full in the struct tags.
	EnvPrefix = "BOOKSCART"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	defaultSQLiteDSN = "file:bookscart.db?_busy_timeout=5000&_txlock=immediate&_foreign_keys=1"
)

const (
	EnvAppEnv                 = "BOOKSCART_APP_ENV"
	EnvPort                   = "BOOKSCART_APP_PORT"
	EnvLogFormat              = "BOOKSCART_LOG_FORMAT"
	EnvDBDSN                  = "BOOKSCART_DB_DSN"
	EnvDBDriver               = "BOOKSCART_DB_DRIVER"
	EnvDBHost                 = "BOOKSCART_DB_HOST"
	EnvDBUser                 = "BOOKSCART_DB_USER"
	EnvDBName                 = "BOOKSCART_DB_NAME"
	EnvDBPassword             = "BOOKSCART_DB_PASSWORD"
	EnvRedisURL               = "BOOKSCART_REDIS_URL"
	EnvJWTSecret              = "BOOKSCART_JWT_SECRET"
	EnvJWTIssuer              = "BOOKSCART_JWT_ISSUER"
	EnvJWTExpMins             = "BOOKSCART_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "BOOKSCART_REFRESH_TOKEN_TTL_MINUTES"
	EnvUseSQLite              = "BOOKSCART_USE_SQLITE"
	EnvOpenAIKey              = "BOOKSCART_OPENAI_API_KEY"
	EnvOpenAIModel            = "BOOKSCART_OPENAI_MODEL"
	EnvCORSOrigins            = "BOOKSCART_CORS_ALLOWED_ORIGINS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
