package cbcx

// Secret lookup
const (
	// DefaultSecretKey is the configuration key that holds the secret. It matches the key
	// used by existing deployments so stored envelopes stay readable.
	DefaultSecretKey = "XperienceCommunityEssentials:AesSecureKey"

	// DefaultSecretEnv is the environment variable consulted by the env provider when the
	// configuration key itself is not set in the environment.
	DefaultSecretEnv = "CBCX_AES_SECURE_KEY"
)

// Environment variable names
const (
	// EnvSource selects the secret backend: env, file, vault, aws, s3 or sql.
	EnvSource = "CBCX_SOURCE"

	// EnvSecretKey overrides DefaultSecretKey.
	EnvSecretKey = "CBCX_SECRET_KEY"

	// EnvEnvFiles is a comma separated list of dotenv files loaded by the env backend.
	EnvEnvFiles = "CBCX_ENV_FILES"

	EnvFilePath    = "CBCX_FILE_PATH"
	EnvVaultPath   = "CBCX_VAULT_PATH"
	EnvVaultField  = "CBCX_VAULT_FIELD"
	EnvAWSRegion   = "CBCX_AWS_REGION"
	EnvAWSSecretID = "CBCX_AWS_SECRET_ID"
	EnvS3Bucket    = "CBCX_S3_BUCKET"
	EnvS3Key       = "CBCX_S3_KEY"
	EnvSQLDriver   = "CBCX_SQL_DRIVER"
	EnvSQLDSN      = "CBCX_SQL_DSN"
	EnvSQLTable    = "CBCX_SQL_TABLE"

	// EnvCacheTTL enables the caching provider when set to a positive duration, e.g. "5m".
	EnvCacheTTL = "CBCX_CACHE_TTL"

	// EnvKeyCacheSize enables the derived-key cache with the given number of entries.
	EnvKeyCacheSize = "CBCX_KEY_CACHE_SIZE"
)

// Secret sources
const (
	SourceEnv   = "env"
	SourceFile  = "file"
	SourceVault = "vault"
	SourceAWS   = "aws"
	SourceS3    = "s3"
	SourceSQL   = "sql"
)

// Default values
const (
	DefaultSource     = SourceEnv
	DefaultVaultField = "value"
	DefaultSQLDriver  = "sqlite3"
	DefaultSQLTable   = "settings"

	// MaxSecretKeyLength bounds configuration key names.
	MaxSecretKeyLength = 256

	// MaxKeyCacheSize bounds the derived-key cache.
	MaxKeyCacheSize = 1024
)
