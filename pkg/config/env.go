package config

// EnvPrefix scopes every environment variable the service reads.
const EnvPrefix = "PACKPROOF"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv          = "PACKPROOF_APP_ENV"
	EnvPort            = "PACKPROOF_APP_PORT"
	EnvDBDSN           = "PACKPROOF_DB_DSN"
	EnvDBHost          = "PACKPROOF_DB_HOST"
	EnvDBUser          = "PACKPROOF_DB_USER"
	EnvDBName          = "PACKPROOF_DB_NAME"
	EnvRedisURL        = "PACKPROOF_REDIS_URL"
	EnvEvidenceRootDir = "PACKPROOF_EVIDENCE_ROOT_DIR"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
