package config

const EnvPrefix = "BAYAN"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	CheckoutModeStrict     = "strict"
	CheckoutModeBestEffort = "best_effort"

	CartStoreMemory = "memory"
	CartStoreRedis  = "redis"

	DBDriverSQLite = "sqlite"
)

const (
	EnvAppEnv   = "BAYAN_APP_ENV"
	EnvPort     = "BAYAN_APP_PORT"
	EnvDBDSN    = "BAYAN_DB_DSN"
	EnvDBHost   = "BAYAN_DB_HOST"
	EnvDBUser   = "BAYAN_DB_USER"
	EnvDBName   = "BAYAN_DB_NAME"
	EnvDBPass   = "BAYAN_DB_PASSWORD"
	EnvDBPort   = "BAYAN_DB_PORT"
	EnvDBDriver = "BAYAN_DB_DRIVER"
	EnvRedisURL = "BAYAN_REDIS_URL"

	EnvJWTSecret  = "BAYAN_JWT_SECRET"
	EnvJWTIssuer  = "BAYAN_JWT_ISSUER"
	EnvJWTExpMins = "BAYAN_JWT_EXPIRATION_MINUTES"

	EnvCheckoutMode             = "BAYAN_CHECKOUT_MODE"
	EnvCheckoutFallbackShipping = "BAYAN_CHECKOUT_FALLBACK_SHIPPING_CENTIMES"
	EnvCartStore                = "BAYAN_CART_STORE"

	EnvGCPProjectID      = "BAYAN_GCP_PROJECT_ID"
	EnvPubSubOrdersTopic = "BAYAN_PUBSUB_ORDERS_TOPIC"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
