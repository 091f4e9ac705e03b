package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App                AppConfig
	DB                 DBConfig
	Redis              RedisConfig
	JWT                JWTConfig
	Password           PasswordConfig
	AuthRateLimit      AuthRateLimitConfig
	AssistantRateLimit AssistantRateLimitConfig
	FeatureFlags       FeatureFlagsConfig
	OpenAI             OpenAIConfig
	Checkout           CheckoutConfig
	Tasks              TasksConfig
	CORS               CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DriverSQLite
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BOOKSCART_APP_ENV" required:"true"`
	Port         string `envconfig:"BOOKSCART_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BOOKSCART_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"BOOKSCART_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"BOOKSCART_LOG_WARN_STACK" default:"false"`
	// ShutdownTimeout bounds graceful HTTP shutdown and task draining.
	ShutdownTimeout time.Duration `envconfig:"BOOKSCART_SHUTDOWN_TIMEOUT" default:"15s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"BOOKSCART_DB_DSN"`
	Driver string `envconfig:"BOOKSCART_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BOOKSCART_DB_HOST"`
	LegacyPort     int    `envconfig:"BOOKSCART_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BOOKSCART_DB_USER"`
	LegacyPassword string `envconfig:"BOOKSCART_DB_PASSWORD"`
	LegacyName     string `envconfig:"BOOKSCART_DB_NAME"`
	LegacySSLMode  string `envconfig:"BOOKSCART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BOOKSCART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BOOKSCART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BOOKSCART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BOOKSCART_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	// SlowQuery is the threshold above which statements are logged at warn.
	SlowQuery time.Duration `envconfig:"BOOKSCART_DB_SLOW_QUERY" default:"200ms"`
}

// IsSQLite reports whether the configured driver is the embedded sqlite engine.
func (d DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(d.Driver), DriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"BOOKSCART_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BOOKSCART_REDIS_ADDR"`
	Password     string        `envconfig:"BOOKSCART_REDIS_PASSWORD"`
	DB           int           `envconfig:"BOOKSCART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BOOKSCART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BOOKSCART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BOOKSCART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BOOKSCART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BOOKSCART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"BOOKSCART_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"BOOKSCART_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"BOOKSCART_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"BOOKSCART_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"BOOKSCART_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"BOOKSCART_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"BOOKSCART_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"BOOKSCART_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"BOOKSCART_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"BOOKSCART_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"BOOKSCART_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"BOOKSCART_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"BOOKSCART_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"BOOKSCART_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"BOOKSCART_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type AssistantRateLimitConfig struct {
	Window time.Duration `envconfig:"BOOKSCART_ASSISTANT_RATE_LIMIT_WINDOW" default:"1m"`
	Limit  int           `envconfig:"BOOKSCART_ASSISTANT_RATE_LIMIT" default:"10"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"BOOKSCART_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"BOOKSCART_AUTO_MIGRATE" default:"false"`
}

type OpenAIConfig struct {
	APIKey      string        `envconfig:"BOOKSCART_OPENAI_API_KEY"`
	BaseURL     string        `envconfig:"BOOKSCART_OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
	Model       string        `envconfig:"BOOKSCART_OPENAI_MODEL" default:"gpt-4o"`
	Timeout     time.Duration `envconfig:"BOOKSCART_OPENAI_TIMEOUT" default:"60s"`
	MemoryTTL   time.Duration `envconfig:"BOOKSCART_ASSISTANT_MEMORY_TTL" default:"2h"`
	MaxMessages int           `envconfig:"BOOKSCART_ASSISTANT_MAX_MESSAGES" default:"20"`
}

// Enabled reports whether an API key has been configured.
func (o OpenAIConfig) Enabled() bool {
	return strings.TrimSpace(o.APIKey) != ""
}

type CheckoutConfig struct {
	// Timeout bounds the checkout transaction, including time spent waiting on book row locks.
	Timeout time.Duration `envconfig:"BOOKSCART_CHECKOUT_TIMEOUT" default:"10s"`
}

type TasksConfig struct {
	Timeout time.Duration `envconfig:"BOOKSCART_TASK_TIMEOUT" default:"30s"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"BOOKSCART_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = defaultSQLiteDSN
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
