package main

import (
	"bufio"
	"context"
	"encoding/base64"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/hengadev/cbcx"
	"github.com/hengadev/cbcx/internal/monitoring"
	"github.com/hengadev/cbcx/internal/security"
	"github.com/hengadev/cbcx/providers"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// stringList collects a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }
func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// cipherFlags are shared by commands that need a secret.
type cipherFlags struct {
	configPath string
	envFiles   stringList
	verbose    bool
}

func (f *cipherFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.configPath, "config", "", "Path to YAML configuration file (default: CBCX_* environment variables)")
	fs.Var(&f.envFiles, "env-file", "Load environment variables from a dotenv file (repeatable)")
	fs.BoolVar(&f.verbose, "v", false, "Verbose output")
}

func (c *cli) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	return fs
}

func (c *cli) logger(verbose bool) *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(c.stderr)
	logger.SetLevel(logrus.WarnLevel)
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger.WithField("run_id", uuid.NewString())
}

// loadConfig resolves the configuration from -config or the environment.
func (c *cli) loadConfig(f *cipherFlags) (cbcx.Config, error) {
	if len(f.envFiles) > 0 {
		if err := godotenv.Load(f.envFiles...); err != nil {
			return cbcx.Config{}, fmt.Errorf("%w: failed to load env files: %w", cbcx.ErrInvalidConfiguration, err)
		}
	}

	if f.configPath != "" {
		return cbcx.LoadConfigFile(f.configPath)
	}
	return cbcx.LoadConfigFromEnvironment()
}

// openProvider builds the configured secret provider. The returned release closes it and
// logs a failure to do so.
func (c *cli) openProvider(ctx context.Context, f *cipherFlags, log *logrus.Entry) (cbcx.Config, cbcx.SecretProvider, func(), error) {
	cfg, err := c.loadConfig(f)
	if err != nil {
		return cbcx.Config{}, nil, nil, err
	}

	provider, err := providers.FromConfig(ctx, cfg, log)
	if err != nil {
		return cbcx.Config{}, nil, nil, err
	}
	return cfg, provider, releaser(provider, log), nil
}

func releaser(provider cbcx.SecretProvider, log logrus.FieldLogger) func() {
	return func() {
		if err := providers.Close(provider); err != nil {
			log.WithError(err).Warn("Failed to release secret provider")
		}
	}
}

func (c *cli) newCipher(ctx context.Context, f *cipherFlags, log *logrus.Entry) (*cbcx.Cipher, func(), error) {
	cfg, provider, release, err := c.openProvider(ctx, f, log)
	if err != nil {
		return nil, nil, err
	}

	opts := cfg.Options()
	if f.verbose {
		opts = append(opts, cbcx.WithLogger(log))
	}
	cipher, err := cbcx.NewCipher(provider, opts...)
	if err != nil {
		release()
		return nil, nil, err
	}
	return cipher, release, nil
}

func (c *cli) encryptCommand(ctx context.Context, args []string) int {
	return c.cipherCommand(ctx, "encrypt", args, func(cipher *cbcx.Cipher, value string) (string, error) {
		return cipher.Encrypt(ctx, value)
	})
}

func (c *cli) decryptCommand(ctx context.Context, args []string) int {
	return c.cipherCommand(ctx, "decrypt", args, func(cipher *cbcx.Cipher, value string) (string, error) {
		return cipher.Decrypt(ctx, value)
	})
}

func (c *cli) cipherCommand(ctx context.Context, name string, args []string, apply func(*cbcx.Cipher, string) (string, error)) int {
	fs := c.newFlagSet(name)
	var flags cipherFlags
	flags.register(fs)
	if err := fs.Parse(args); err != nil {
		return exitConfiguration
	}

	log := c.logger(flags.verbose)
	cipher, release, err := c.newCipher(ctx, &flags, log)
	if err != nil {
		return c.fail(log, name, err)
	}
	defer release()

	return c.eachValue(fs.Args(), func(value string) int {
		out, err := apply(cipher, value)
		if err != nil {
			return c.fail(log, name, err)
		}
		fmt.Fprintln(c.stdout, out)
		return exitOK
	})
}

func (c *cli) digestCommand(args []string) int {
	fs := c.newFlagSet("digest")
	if err := fs.Parse(args); err != nil {
		return exitConfiguration
	}

	return c.eachValue(fs.Args(), func(value string) int {
		fmt.Fprintln(c.stdout, cbcx.Digest(value))
		return exitOK
	})
}

func (c *cli) idCommand(args []string) int {
	fs := c.newFlagSet("id")
	n := fs.Int("n", 0, "Number to derive the identifier from")
	length := fs.Int("length", 10, "Identifier length, including the leading 'A' (max 65)")
	if err := fs.Parse(args); err != nil {
		return exitConfiguration
	}

	fmt.Fprintln(c.stdout, cbcx.GenerateID(*n, *length))
	return exitOK
}

func (c *cli) keygenCommand(args []string) int {
	fs := c.newFlagSet("keygen")
	size := fs.Int("bytes", 32, "Number of random bytes in the secret")
	if err := fs.Parse(args); err != nil {
		return exitConfiguration
	}

	key, err := security.GenerateSecureKey(*size)
	if err != nil {
		fmt.Fprintf(c.stderr, "keygen: %v\n", err)
		return exitConfiguration
	}
	defer security.ZeroBytes(key)

	fmt.Fprintln(c.stdout, base64.StdEncoding.EncodeToString(key))
	return exitOK
}

func (c *cli) checkCommand(ctx context.Context, args []string) int {
	fs := c.newFlagSet("check")
	var flags cipherFlags
	flags.register(fs)
	if err := fs.Parse(args); err != nil {
		return exitConfiguration
	}

	log := c.logger(flags.verbose)
	cfg, provider, release, err := c.openProvider(ctx, &flags, log)
	if err != nil {
		return c.fail(log, "check", err)
	}
	defer release()

	secret, err := provider.GetSecret(ctx)
	if err != nil {
		return c.fail(log, "check", err)
	}

	fmt.Fprintf(c.stdout, "source: %s\nkey: %s\nsecret: present (%d bytes)\n", cfg.Source, cfg.SecretKey, len(secret))
	return exitOK
}

func (c *cli) initCommand(args []string) int {
	fs := c.newFlagSet("init")
	configPath := fs.String("config", "cbcx.yaml", "Path of the configuration file to write")
	source := fs.String("source", cbcx.DefaultSource, "Secret source: env, file, vault, aws, s3 or sql")
	force := fs.Bool("force", false, "Overwrite existing configuration file")
	if err := fs.Parse(args); err != nil {
		return exitConfiguration
	}

	if !*force {
		if _, err := os.Stat(*configPath); err == nil {
			fmt.Fprintf(c.stderr, "Configuration file %s already exists. Use -force to overwrite.\n", *configPath)
			return exitFailure
		}
	}

	cfg := cbcx.Config{Source: *source}
	switch cfg.Source {
	case cbcx.SourceFile:
		cfg.FilePath = "appsettings.json"
	case cbcx.SourceVault:
		cfg.VaultPath = "secret/data/myapp/cbcx"
	case cbcx.SourceAWS:
		cfg.AWSSecretID = "myapp/cbcx"
	case cbcx.SourceS3:
		cfg.S3Bucket, cfg.S3Key = "myapp-config", "appsettings.yaml"
	case cbcx.SourceSQL:
		cfg.SQLDSN = "settings.db"
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(c.stderr, "Invalid configuration: %v\n", err)
		return exitConfiguration
	}

	if err := cbcx.SaveConfigFile(cfg, *configPath); err != nil {
		fmt.Fprintf(c.stderr, "Failed to create config file: %v\n", err)
		return exitFailure
	}

	fmt.Fprintf(c.stdout, "Configuration file %s created\n", *configPath)
	return exitOK
}

func (c *cli) versionCommand() int {
	fmt.Fprintln(c.stdout, cbcx.VersionInfo())
	return exitOK
}

// eachValue applies fn to every argument, or to every non-empty stdin line when there are
// no arguments. It stops at the first failure.
func (c *cli) eachValue(args []string, fn func(string) int) int {
	if len(args) > 0 {
		for _, value := range args {
			if code := fn(value); code != exitOK {
				return code
			}
		}
		return exitOK
	}

	scanner := bufio.NewScanner(c.stdin)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		if code := fn(line); code != exitOK {
			return code
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(c.stderr, "failed to read stdin: %v\n", err)
		return exitFailure
	}
	return exitOK
}

func (c *cli) fail(log *logrus.Entry, command string, err error) int {
	monitoring.NewLogger(log, "main", command).WithError(err, command).Debug("Command failed")
	fmt.Fprintf(c.stderr, "%s: %v\n", command, err)

	if cbcx.IsConfigurationError(err) {
		return exitConfiguration
	}
	return exitFailure
}
