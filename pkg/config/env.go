package config

const (
	EnvPrefix = "EXTRO"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv            = "EXTRO_APP_ENV"
	EnvPort              = "EXTRO_APP_PORT"
	EnvDBDSN             = "EXTRO_DB_DSN"
	EnvDBHost            = "EXTRO_DB_HOST"
	EnvDBUser            = "EXTRO_DB_USER"
	EnvDBName            = "EXTRO_DB_NAME"
	EnvRedisURL          = "EXTRO_REDIS_URL"
	EnvJWTSecret         = "EXTRO_JWT_SECRET"
	EnvJWTIssuer         = "EXTRO_JWT_ISSUER"
	EnvCheckoutMaster    = "EXTRO_CHECKOUT_MASTER_CODE"
	EnvCheckoutMinCharge = "EXTRO_CHECKOUT_MIN_CHARGE"
	EnvCheckoutCurrency  = "EXTRO_CHECKOUT_CURRENCY"
	EnvLockUnlockAt      = "EXTRO_LOCK_UNLOCK_AT"
	EnvPacketaVersions   = "EXTRO_PACKETA_API_VERSIONS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
