package config

// EnvPrefix namespaces every environment variable the platform reads.
const EnvPrefix = "cobalt"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

// Environment variable names referenced outside envconfig tags (tests, error
// messages).
const (
	EnvAppEnv     = "COBALT_APP_ENV"
	EnvPort       = "COBALT_APP_PORT"
	EnvDBDSN      = "COBALT_DB_DSN"
	EnvDBHost     = "COBALT_DB_HOST"
	EnvDBUser     = "COBALT_DB_USER"
	EnvDBName     = "COBALT_DB_NAME"
	EnvRedisURL   = "COBALT_REDIS_URL"
	EnvJWTSecret  = "COBALT_JWT_SECRET"
	EnvJWTIssuer  = "COBALT_JWT_ISSUER"
	EnvJWTExpMins = "COBALT_JWT_EXPIRATION_MINUTES"

	EnvStripeWebhookSecret = "COBALT_STRIPE_WEBHOOK_SECRET"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
