package config

// EnvPrefix namespaces every engine environment variable.
const EnvPrefix = "AFFIL"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "AFFIL_DB_DSN"
	EnvDBHost = "AFFIL_DB_HOST"
	EnvDBUser = "AFFIL_DB_USER"
	EnvDBName = "AFFIL_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
