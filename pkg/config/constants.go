package config

// EnvPrefix is the envconfig prefix shared by every LeaseFlow process.
const EnvPrefix = "leaseflow"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN      = "LEASEFLOW_DB_DSN"
	EnvDBHost     = "LEASEFLOW_DB_HOST"
	EnvDBUser     = "LEASEFLOW_DB_USER"
	EnvDBName     = "LEASEFLOW_DB_NAME"
	EnvDBPassword = "LEASEFLOW_DB_PASSWORD"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
