package cbcx

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hengadev/errsx"
)

// Config describes where the secret lives and how the Cipher is tuned.
//
// This struct contains only data. It can be loaded from the environment
// (LoadConfigFromEnvironment), from YAML (LoadConfigFile) or built in code, and is turned
// into a SecretProvider by providers.FromConfig.
//
// Example usage:
//
//	cfg := cbcx.Config{
//	    Source:   cbcx.SourceFile,
//	    FilePath: "appsettings.yaml",
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
type Config struct {
	// Source selects the backend: env, file, vault, aws, s3 or sql. Default: env.
	Source string `yaml:"source" validate:"required,oneof=env file vault aws s3 sql"`

	// SecretKey is the configuration key holding the secret.
	// Default: XperienceCommunityEssentials:AesSecureKey
	SecretKey string `yaml:"secret_key" validate:"required,max=256"`

	// EnvFiles are dotenv files loaded by the env backend. Variables already present in the
	// process environment win.
	EnvFiles []string `yaml:"env_files,omitempty" validate:"dive,required"`

	// FilePath is the YAML or JSON document read by the file backend.
	FilePath string `yaml:"file_path" validate:"required_if=Source file"`

	// VaultPath is the KV v2 path, e.g. "secret/data/myapp/cbcx". VaultField is the field
	// inside that secret. Default field: value
	VaultPath  string `yaml:"vault_path" validate:"required_if=Source vault"`
	VaultField string `yaml:"vault_field"`

	// AWSRegion falls back to the SDK default chain when empty.
	AWSRegion   string `yaml:"aws_region"`
	AWSSecretID string `yaml:"aws_secret_id" validate:"required_if=Source aws"`

	S3Bucket string `yaml:"s3_bucket" validate:"required_if=Source s3"`
	S3Key    string `yaml:"s3_key" validate:"required_if=Source s3"`

	// SQLDriver must be registered with database/sql. Default: sqlite3
	SQLDriver string `yaml:"sql_driver"`
	SQLDSN    string `yaml:"sql_dsn" validate:"required_if=Source sql"`
	// SQLTable holds (key, value) rows. Default: settings
	SQLTable string `yaml:"sql_table" validate:"omitempty,sqlident"`

	// CacheTTL wraps the backend in a caching provider when positive.
	CacheTTL time.Duration `yaml:"cache_ttl" validate:"gte=0"`

	// KeyCacheSize enables the derived-key cache when positive.
	KeyCacheSize int `yaml:"key_cache_size" validate:"gte=0,lte=1024"`
}

var sqlIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func configValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("sqlident", func(fl validator.FieldLevel) bool {
			return sqlIdentifier.MatchString(fl.Field().String())
		})
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("yaml"), ",", 2)[0]
			if name == "" || name == "-" {
				return field.Name
			}
			return name
		})
	})
	return validate
}

// Validate applies defaults to optional fields and checks the configuration.
//
// Every failing field is reported; the returned error is an errsx.Map keyed by the field's
// YAML name.
func (c *Config) Validate() error {
	c.applyDefaults()

	err := configValidator().Struct(c)
	if err == nil {
		return nil
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}

	errs := errsx.Map{}
	for _, fe := range validationErrs {
		errs.Set(fe.Field(), describeFieldError(fe))
	}
	return errs.AsError()
}

// Options returns the Cipher options implied by the configuration.
func (c *Config) Options() []Option {
	var opts []Option
	if c.KeyCacheSize > 0 {
		opts = append(opts, WithKeyCache(c.KeyCacheSize))
	}
	return opts
}

func (c *Config) applyDefaults() {
	if c.Source == "" {
		c.Source = DefaultSource
	}
	c.Source = strings.ToLower(c.Source)
	if c.SecretKey == "" {
		c.SecretKey = DefaultSecretKey
	}
	if c.VaultField == "" {
		c.VaultField = DefaultVaultField
	}
	if c.SQLDriver == "" {
		c.SQLDriver = DefaultSQLDriver
	}
	if c.SQLTable == "" {
		c.SQLTable = DefaultSQLTable
	}
}

func describeFieldError(fe validator.FieldError) error {
	switch fe.Tag() {
	case "required", "required_if":
		return fmt.Errorf("%s is required", fe.Field())
	case "oneof":
		return fmt.Errorf("%s must be one of [%s], got %q", fe.Field(), fe.Param(), fe.Value())
	case "max":
		return fmt.Errorf("%s must be %s characters or less", fe.Field(), fe.Param())
	case "sqlident":
		return fmt.Errorf("%s must be a plain SQL identifier, got %q", fe.Field(), fe.Value())
	case "gte", "lte":
		return fmt.Errorf("%s must be %s %s, got %v", fe.Field(), fe.Tag(), fe.Param(), fe.Value())
	default:
		return fmt.Errorf("%s failed '%s' validation", fe.Field(), fe.Tag())
	}
}
