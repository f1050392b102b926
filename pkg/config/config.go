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
	Admin        AdminConfig
	Lock         LockConfig
	FeatureFlags FeatureFlagsConfig
	Stripe       StripeConfig
	Packeta      PacketaConfig
	Checkout     CheckoutConfig
	Loyalty      LoyaltyConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Cron         CronConfig
	Telemetry    TelemetryConfig
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
	return &cfg, nil
}

type AppConfig struct {
	Env            string   `envconfig:"EXTRO_APP_ENV" required:"true"`
	Port           string   `envconfig:"EXTRO_APP_PORT" required:"true"`
	LogLevel       string   `envconfig:"EXTRO_LOG_LEVEL" default:"info"`
	LogWarnStack   bool     `envconfig:"EXTRO_LOG_WARN_STACK" default:"false"`
	AllowedOrigins []string `envconfig:"EXTRO_CORS_ALLOWED_ORIGINS" default:"*"`
	StaticDir      string   `envconfig:"EXTRO_STATIC_DIR"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"EXTRO_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"EXTRO_DB_DSN"`
	Driver string `envconfig:"EXTRO_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"EXTRO_DB_HOST"`
	LegacyPort     int    `envconfig:"EXTRO_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"EXTRO_DB_USER"`
	LegacyPassword string `envconfig:"EXTRO_DB_PASSWORD"`
	LegacyName     string `envconfig:"EXTRO_DB_NAME"`
	LegacySSLMode  string `envconfig:"EXTRO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"EXTRO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"EXTRO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"EXTRO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"EXTRO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	// SlowQuery logs statements slower than this as warnings; zero disables.
	SlowQuery time.Duration `envconfig:"EXTRO_DB_SLOW_QUERY" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"EXTRO_REDIS_URL" required:"true"`
	Address      string        `envconfig:"EXTRO_REDIS_ADDR"`
	Password     string        `envconfig:"EXTRO_REDIS_PASSWORD"`
	DB           int           `envconfig:"EXTRO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"EXTRO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"EXTRO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"EXTRO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"EXTRO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"EXTRO_REDIS_WRITE_TIMEOUT" default:"5s"`
	CartTTL      time.Duration `envconfig:"EXTRO_REDIS_CART_TTL" default:"720h"`
}

// JWTConfig verifies customer bearer tokens minted by the identity provider.
type JWTConfig struct {
	Secret            string `envconfig:"EXTRO_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"EXTRO_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"EXTRO_JWT_EXPIRATION_MINUTES" default:"60"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"EXTRO_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"EXTRO_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"EXTRO_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"EXTRO_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"EXTRO_ARGON_KEY_LEN" default:"32"`
}

// AdminConfig holds the back-office credentials. PasswordHash (argon2id) wins over Password.
type AdminConfig struct {
	Username       string        `envconfig:"EXTRO_ADMIN_USER"`
	Password       string        `envconfig:"EXTRO_ADMIN_PASS"`
	PasswordHash   string        `envconfig:"EXTRO_ADMIN_PASS_HASH"`
	SigningSecret  string        `envconfig:"EXTRO_ADMIN_SIGNING_SECRET"`
	SessionTTL     time.Duration `envconfig:"EXTRO_ADMIN_SESSION_TTL" default:"4h"`
	LoginWindow    time.Duration `envconfig:"EXTRO_ADMIN_LOGIN_WINDOW" default:"1m"`
	LoginIPLimit   int           `envconfig:"EXTRO_ADMIN_LOGIN_IP_LIMIT" default:"10"`
	LoginUserLimit int           `envconfig:"EXTRO_ADMIN_LOGIN_USER_LIMIT" default:"5"`
	SecureCookies  bool          `envconfig:"EXTRO_ADMIN_SECURE_COOKIES" default:"true"`
}

// Configured reports whether admin login can succeed at all.
func (a AdminConfig) Configured() bool {
	return strings.TrimSpace(a.Username) != "" &&
		(strings.TrimSpace(a.Password) != "" || strings.TrimSpace(a.PasswordHash) != "") &&
		strings.TrimSpace(a.SigningSecret) != ""
}

type LockConfig struct {
	Enabled   bool          `envconfig:"EXTRO_LOCK_ENABLED" default:"true"`
	UnlockAt  time.Time     `envconfig:"EXTRO_LOCK_UNLOCK_AT" default:"2025-12-08T00:00:00Z"`
	CookieTTL time.Duration `envconfig:"EXTRO_LOCK_COOKIE_TTL" default:"24h"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"EXTRO_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"EXTRO_AUTO_MIGRATE" default:"false"`
}

type StripeConfig struct {
	APIKey        string `envconfig:"EXTRO_STRIPE_API_KEY"`
	Secret        string `envconfig:"EXTRO_STRIPE_SECRET"`
	Env           string `envconfig:"EXTRO_STRIPE_ENV" default:"test"`
	PickupRateID  string `envconfig:"EXTRO_STRIPE_ZASILKOVNA_RATE_ID"`
	AddressRateID string `envconfig:"EXTRO_STRIPE_ADDRESS_RATE_ID"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type PacketaConfig struct {
	APIPassword string        `envconfig:"EXTRO_PACKETA_API_PASSWORD"`
	BaseURL     string        `envconfig:"EXTRO_PACKETA_BASE_URL" default:"https://www.zasilkovna.cz"`
	APIVersions []string      `envconfig:"EXTRO_PACKETA_API_VERSIONS" default:"v6,v5,v4"`
	Eshop       string        `envconfig:"EXTRO_PACKETA_ESHOP"`
	Timeout     time.Duration `envconfig:"EXTRO_PACKETA_TIMEOUT" default:"15s"`
}

type CheckoutConfig struct {
	// MasterCode is the reserved full-discount override. Empty disables it.
	MasterCode string `envconfig:"EXTRO_CHECKOUT_MASTER_CODE"`
	// MinCharge is the processor minimum in whole currency units.
	MinCharge int64  `envconfig:"EXTRO_CHECKOUT_MIN_CHARGE" default:"10"`
	Currency  string `envconfig:"EXTRO_CHECKOUT_CURRENCY" default:"czk"`
}

func (c CheckoutConfig) validate() error {
	if c.MinCharge < 0 {
		return fmt.Errorf("%s must not be negative", EnvCheckoutMinCharge)
	}
	if strings.TrimSpace(c.Currency) == "" {
		return fmt.Errorf("%s is required", EnvCheckoutCurrency)
	}
	return nil
}

type LoyaltyConfig struct {
	Threshold      int64         `envconfig:"EXTRO_LOYALTY_THRESHOLD" default:"5000"`
	CodePrefix     string        `envconfig:"EXTRO_LOYALTY_CODE_PREFIX" default:"EXTRO"`
	ReconcileAfter time.Duration `envconfig:"EXTRO_LOYALTY_RECONCILE_AFTER" default:"5m"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"EXTRO_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	DomainTopic string `envconfig:"EXTRO_PUBSUB_DOMAIN_TOPIC" default:"extro-domain-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"EXTRO_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"EXTRO_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"EXTRO_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CronConfig struct {
	Interval            time.Duration `envconfig:"EXTRO_CRON_INTERVAL" default:"5m"`
	LockTTL             time.Duration `envconfig:"EXTRO_CRON_LOCK_TTL" default:"10m"`
	OutboxRetentionDays int           `envconfig:"EXTRO_CRON_OUTBOX_RETENTION_DAYS" default:"30"`
}

type TelemetryConfig struct {
	Enabled        bool   `envconfig:"EXTRO_TELEMETRY_ENABLED" default:"false"`
	OTLPEndpoint   string `envconfig:"EXTRO_OTLP_ENDPOINT" default:"localhost:4317"`
	ServiceVersion string `envconfig:"EXTRO_SERVICE_VERSION" default:"dev"`
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
