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
	NMI          NMIConfig
	Billing      BillingConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"BOD_APP_ENV" required:"true"`
	Port         string `envconfig:"BOD_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BOD_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BOD_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"BOD_DB_DSN"`
	Driver string `envconfig:"BOD_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BOD_DB_HOST"`
	LegacyPort     int    `envconfig:"BOD_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BOD_DB_USER"`
	LegacyPassword string `envconfig:"BOD_DB_PASSWORD"`
	LegacyName     string `envconfig:"BOD_DB_NAME"`
	LegacySSLMode  string `envconfig:"BOD_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BOD_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BOD_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BOD_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BOD_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BOD_REDIS_URL"`
	Address      string        `envconfig:"BOD_REDIS_ADDR"`
	Password     string        `envconfig:"BOD_REDIS_PASSWORD"`
	DB           int           `envconfig:"BOD_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BOD_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BOD_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BOD_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BOD_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BOD_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Configured reports whether any Redis endpoint was supplied. Payment rate
// limiting is skipped entirely when it was not.
func (r RedisConfig) Configured() bool {
	return r.URL != "" || r.Address != ""
}

// NMIConfig carries the card gateway credentials and environment selection.
// The security key is resolved exactly once at bootstrap; nothing reads the
// ambient environment after that.
type NMIConfig struct {
	Endpoint              string        `envconfig:"BOD_NMI_ENDPOINT" default:"https://secure.nmi.com/api/transact.php"`
	ProductionSecurityKey string        `envconfig:"BOD_NMI_PRODUCTION_SECURITY_KEY"`
	TestSecurityKey       string        `envconfig:"BOD_NMI_TEST_SECURITY_KEY"`
	Env                   string        `envconfig:"BOD_NMI_ENV" default:"test"`
	Timeout               time.Duration `envconfig:"BOD_NMI_TIMEOUT" default:"30s"`
	StrictNetworkErrors   bool          `envconfig:"BOD_NMI_STRICT_NETWORK_ERRORS" default:"false"`
}

// Environment returns the normalized gateway environment (test/production).
func (n NMIConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(n.Env))
	if env == "" {
		return GatewayEnvTest
	}
	return env
}

// SecurityKey picks the credential slot for the configured environment.
// An empty key means the gateway is unconfigured and payments simulate.
func (n NMIConfig) SecurityKey() string {
	if n.Environment() == GatewayEnvProduction {
		return strings.TrimSpace(n.ProductionSecurityKey)
	}
	return strings.TrimSpace(n.TestSecurityKey)
}

type BillingConfig struct {
	PaymentProvider string `envconfig:"BOD_BILLING_PAYMENT_PROVIDER" default:"nmi"`
	// RequireBusiness turns a business lookup miss after a successful charge
	// into an error instead of a logged skip.
	RequireBusiness bool `envconfig:"BOD_BILLING_REQUIRE_BUSINESS" default:"false"`
}

type RateLimitConfig struct {
	PaymentWindow     time.Duration `envconfig:"BOD_RATE_LIMIT_PAYMENT_WINDOW" default:"1m"`
	PaymentIPLimit    int           `envconfig:"BOD_RATE_LIMIT_PAYMENT_IP_LIMIT" default:"20"`
	PaymentEmailLimit int           `envconfig:"BOD_RATE_LIMIT_PAYMENT_EMAIL_LIMIT" default:"5"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"BOD_AUTO_MIGRATE" default:"false"`
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
