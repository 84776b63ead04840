package config

// EnvPrefix is intentionally empty: every field spells out its full
// BOD_-prefixed variable name in its envconfig tag.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"

	GatewayEnvTest       = "test"
	GatewayEnvProduction = "production"
)

// Environment variable names referenced outside struct tags.
const (
	EnvAppEnv = "BOD_APP_ENV"
	EnvPort   = "BOD_APP_PORT"

	EnvDBDSN  = "BOD_DB_DSN"
	EnvDBHost = "BOD_DB_HOST"
	EnvDBUser = "BOD_DB_USER"
	EnvDBName = "BOD_DB_NAME"

	EnvRedisURL = "BOD_REDIS_URL"

	EnvNMIEnv           = "BOD_NMI_ENV"
	EnvNMIProductionKey = "BOD_NMI_PRODUCTION_SECURITY_KEY"
	EnvNMITestKey       = "BOD_NMI_TEST_SECURITY_KEY"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
