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
	Password     PasswordConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	Checkout     CheckoutConfig
	Cart         CartConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Cron         CronConfig
	Tracing      TracingConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Checkout.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Cart.validate(); err != nil {
		return nil, err
	}
	if err := cfg.validateProd(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validateProd rejects the single-process backends in production, where the
// api and the workers run as separate replicas.
func (c Config) validateProd() error {
	if !c.App.IsProd() {
		return nil
	}
	if strings.EqualFold(c.DB.Driver, DBDriverSQLite) {
		return fmt.Errorf("%s=%s is not allowed in %s", EnvDBDriver, DBDriverSQLite, AppEnvProd)
	}
	if strings.EqualFold(c.Cart.Store, CartStoreMemory) {
		return fmt.Errorf("%s=%s is not allowed in %s", EnvCartStore, CartStoreMemory, AppEnvProd)
	}
	return nil
}

type AppConfig struct {
	Env          string `envconfig:"BAYAN_APP_ENV" required:"true"`
	Port         string `envconfig:"BAYAN_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BAYAN_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BAYAN_LOG_WARN_STACK" default:"false"`

	// CORSOrigins is a comma-separated list of storefront and back-office origins.
	CORSOrigins []string `envconfig:"BAYAN_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"BAYAN_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"BAYAN_DB_DSN"`
	Driver string `envconfig:"BAYAN_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"BAYAN_DB_HOST"`
	Port     int    `envconfig:"BAYAN_DB_PORT" default:"5432"`
	User     string `envconfig:"BAYAN_DB_USER"`
	Password string `envconfig:"BAYAN_DB_PASSWORD"`
	Name     string `envconfig:"BAYAN_DB_NAME"`
	SSLMode  string `envconfig:"BAYAN_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BAYAN_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BAYAN_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BAYAN_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BAYAN_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BAYAN_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BAYAN_REDIS_ADDR"`
	Password     string        `envconfig:"BAYAN_REDIS_PASSWORD"`
	DB           int           `envconfig:"BAYAN_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BAYAN_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BAYAN_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BAYAN_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BAYAN_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BAYAN_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"BAYAN_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"BAYAN_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"BAYAN_JWT_EXPIRATION_MINUTES" default:"480"`
	RefreshTokenTTLMinutes int    `envconfig:"BAYAN_JWT_REFRESH_TTL_MINUTES" default:"10080"`
}

// RefreshTokenTTL is how long an admin session can be refreshed.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"BAYAN_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"BAYAN_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"BAYAN_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"BAYAN_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"BAYAN_ARGON_KEY_LEN" default:"32"`
}

// RateLimitConfig throttles the public write surfaces per client IP.
type RateLimitConfig struct {
	CheckoutWindow  time.Duration `envconfig:"BAYAN_RATE_LIMIT_CHECKOUT_WINDOW" default:"1m"`
	CheckoutIPLimit int           `envconfig:"BAYAN_RATE_LIMIT_CHECKOUT_IP_LIMIT" default:"10"`
	LoginWindow     time.Duration `envconfig:"BAYAN_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginIPLimit    int           `envconfig:"BAYAN_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	LoginEmailLimit int           `envconfig:"BAYAN_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"BAYAN_AUTO_MIGRATE" default:"false"`
}

// CheckoutConfig drives the order-placement workflow.
type CheckoutConfig struct {
	Mode                       string `envconfig:"BAYAN_CHECKOUT_MODE" default:"strict"`
	FallbackShippingCentimes   int64  `envconfig:"BAYAN_CHECKOUT_FALLBACK_SHIPPING_CENTIMES" default:"5000"`
	FreeShippingThresholdCents int64  `envconfig:"BAYAN_CHECKOUT_FREE_SHIPPING_THRESHOLD_CENTIMES" default:"50000"`
	StockCheckConcurrency      int    `envconfig:"BAYAN_CHECKOUT_STOCK_CHECK_CONCURRENCY" default:"8"`
}

// IsStrict reports whether checkout writes run inside a single transaction.
func (c CheckoutConfig) IsStrict() bool {
	return !strings.EqualFold(strings.TrimSpace(c.Mode), CheckoutModeBestEffort)
}

func (c CheckoutConfig) validate() error {
	mode := strings.ToLower(strings.TrimSpace(c.Mode))
	if mode != CheckoutModeStrict && mode != CheckoutModeBestEffort {
		return fmt.Errorf("%s must be %q or %q", EnvCheckoutMode, CheckoutModeStrict, CheckoutModeBestEffort)
	}
	if c.FallbackShippingCentimes < 0 {
		return fmt.Errorf("%s must not be negative", EnvCheckoutFallbackShipping)
	}
	return nil
}

type CartConfig struct {
	Store string        `envconfig:"BAYAN_CART_STORE" default:"redis"`
	TTL   time.Duration `envconfig:"BAYAN_CART_TTL" default:"720h"`
}

func (c CartConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Store)) {
	case CartStoreMemory, CartStoreRedis:
		return nil
	}
	return fmt.Errorf("%s must be %q or %q", EnvCartStore, CartStoreMemory, CartStoreRedis)
}

// UsesRedis reports whether carts are persisted in Redis.
func (c CartConfig) UsesRedis() bool {
	return strings.EqualFold(strings.TrimSpace(c.Store), CartStoreRedis)
}

type GCPConfig struct {
	ProjectID string `envconfig:"BAYAN_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	OrdersTopic string `envconfig:"BAYAN_PUBSUB_ORDERS_TOPIC" default:"bayan-order-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"BAYAN_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"BAYAN_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"BAYAN_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays  int `envconfig:"BAYAN_OUTBOX_RETENTION_DAYS" default:"30"`
}

type CronConfig struct {
	Interval       time.Duration `envconfig:"BAYAN_CRON_INTERVAL" default:"15m"`
	ReconcileLimit int           `envconfig:"BAYAN_CRON_RECONCILE_LIMIT" default:"100"`
	ReconcileGrace time.Duration `envconfig:"BAYAN_CRON_RECONCILE_GRACE" default:"10m"`
}

// TracingConfig controls the OpenTelemetry provider of the API. Unsampled
// requests still get trace ids for log correlation.
type TracingConfig struct {
	Enabled     bool    `envconfig:"BAYAN_TRACING_ENABLED" default:"true"`
	SampleRatio float64 `envconfig:"BAYAN_TRACING_SAMPLE_RATIO" default:"0.1"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range discreteDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
