package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Platform      PlatformConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Stripe        StripeConfig
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
	Env          string `envconfig:"COBALT_APP_ENV" required:"true"`
	Port         string `envconfig:"COBALT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"COBALT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"COBALT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// PlatformConfig carries the base domain used to mint and resolve tenant
// subdomains (e.g. acme.cobaltcommerce.io).
type PlatformConfig struct {
	BaseDomain string `envconfig:"COBALT_BASE_DOMAIN" default:"localhost"`
}

// SubdomainURL builds the public URL for a tenant subdomain label.
func (p PlatformConfig) SubdomainURL(label string) string {
	if strings.Contains(p.BaseDomain, "localhost") {
		return fmt.Sprintf("http://%s.%s", label, p.BaseDomain)
	}
	return fmt.Sprintf("https://%s.%s", label, p.BaseDomain)
}

type DBConfig struct {
	DSN    string `envconfig:"COBALT_DB_DSN"`
	Driver string `envconfig:"COBALT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"COBALT_DB_HOST"`
	LegacyPort     int    `envconfig:"COBALT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"COBALT_DB_USER"`
	LegacyPassword string `envconfig:"COBALT_DB_PASSWORD"`
	LegacyName     string `envconfig:"COBALT_DB_NAME"`
	LegacySSLMode  string `envconfig:"COBALT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"COBALT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"COBALT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"COBALT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"COBALT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"COBALT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"COBALT_REDIS_ADDR"`
	Password     string        `envconfig:"COBALT_REDIS_PASSWORD"`
	DB           int           `envconfig:"COBALT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"COBALT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"COBALT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"COBALT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"COBALT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"COBALT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"COBALT_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"COBALT_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"COBALT_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"COBALT_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"COBALT_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"COBALT_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"COBALT_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"COBALT_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"COBALT_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"COBALT_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"COBALT_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"COBALT_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"COBALT_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"COBALT_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"COBALT_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"COBALT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"COBALT_AUTO_MIGRATE" default:"false"`
}

type StripeConfig struct {
	APIKey        string        `envconfig:"COBALT_STRIPE_API_KEY"`
	WebhookSecret string        `envconfig:"COBALT_STRIPE_WEBHOOK_SECRET"`
	Env           string        `envconfig:"COBALT_STRIPE_ENV" default:"test"`
	PriceIDPro    string        `envconfig:"COBALT_STRIPE_PRICE_ID_PRO"`
	PriceIDBasic  string        `envconfig:"COBALT_STRIPE_PRICE_ID_BASIC"`
	EventTTL      time.Duration `envconfig:"COBALT_STRIPE_EVENT_TTL" default:"720h"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
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
