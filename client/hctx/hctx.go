package hctx

import (
	"context"
	"fmt"
	"os"
	"path"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	PROMPTVAULT_PATH = ".promptvault"
	LOG_PATH         = "promptvault.log"
)

const (
	DefaultSystemPrompt = "You are a helpful assistant."
	DefaultMaxTokens    = 500
	DefaultApiVersion   = "2024-08-01-preview"
	DefaultDeployment   = "gpt-4o"
	DefaultDatabase     = "gpt4_db"
)

var (
	SupportedDrivers   = []string{"mysql", "postgres", "sqlite"}
	SupportedProviders = []string{"azure", "openai"}
)

var (
	promptvaultLogger *logrus.Logger
	getLoggerOnce     sync.Once
)

func GetLogger() *logrus.Logger {
	getLoggerOnce.Do(func() {
		homedir, err := os.UserHomeDir()
		if err != nil {
			panic(fmt.Errorf("failed to get user's home directory: %w", err))
		}
		err = MakePromptvaultDir()
		if err != nil {
			panic(err)
		}

		lumberjackLogger := &lumberjack.Logger{
			Filename:   path.Join(homedir, PROMPTVAULT_PATH, LOG_PATH),
			MaxSize:    1, // MB
			MaxBackups: 10,
			MaxAge:     30, // days
		}

		logFormatter := new(logrus.TextFormatter)
		logFormatter.TimestampFormat = time.RFC3339
		logFormatter.FullTimestamp = true

		promptvaultLogger = logrus.New()
		promptvaultLogger.SetFormatter(logFormatter)
		promptvaultLogger.SetLevel(logrus.InfoLevel)
		promptvaultLogger.SetOutput(lumberjackLogger)
	})
	return promptvaultLogger
}

func MakePromptvaultDir() error {
	homedir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get user's home directory: %w", err)
	}
	err = os.MkdirAll(path.Join(homedir, PROMPTVAULT_PATH), 0o744)
	if err != nil {
		return fmt.Errorf("failed to create ~/%s dir: %w", PROMPTVAULT_PATH, err)
	}
	return nil
}

type promptvaultContextKey string

func MakeContext() context.Context {
	ctx := context.Background()
	config, err := LoadConfig()
	if err != nil {
		panic(fmt.Errorf("failed to load config: %w", err))
	}
	return WithConf(ctx, config)
}

func WithConf(ctx context.Context, config *ClientConfig) context.Context {
	return context.WithValue(ctx, promptvaultContextKey("config"), config)
}

func GetConf(ctx context.Context) *ClientConfig {
	v := ctx.Value(promptvaultContextKey("config"))
	if v != nil {
		return v.(*ClientConfig)
	}
	panic(fmt.Errorf("failed to find config in ctx"))
}

type ClientConfig struct {
	// Which database driver the record store uses: mysql, postgres or sqlite
	Driver string `yaml:"driver"`
	// Database connection settings. For sqlite, Database is the path of the DB file.
	Host     string `yaml:"host"`
	Port     int    `yaml:"port,omitempty"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	// Completion endpoint settings
	Provider   string `yaml:"provider"`
	ApiKey     string `yaml:"api_key"`
	Endpoint   string `yaml:"endpoint"`
	Deployment string `yaml:"deployment"`
	ApiVersion string `yaml:"api_version"`
	MaxTokens  int    `yaml:"max_tokens"`
	// Optional dogstatsd address, metrics are disabled when empty
	StatsdAddress string `yaml:"statsd_address,omitempty"`
}

// LoadConfig builds the config from the environment, after loading a .env file from the working directory if one exists.
func LoadConfig() (*ClientConfig, error) {
	_ = godotenv.Load()

	config := &ClientConfig{
		Driver:        getEnv("PROMPTVAULT_DB_DRIVER", "mysql"),
		Host:          getEnv("PROMPTVAULT_DB_HOST", "localhost"),
		User:          getEnv("PROMPTVAULT_DB_USER", "root"),
		Password:      os.Getenv("PROMPTVAULT_DB_PASSWORD"),
		Database:      getEnv("PROMPTVAULT_DB_NAME", DefaultDatabase),
		Provider:      getEnv("PROMPTVAULT_PROVIDER", "azure"),
		ApiKey:        os.Getenv("PROMPTVAULT_API_KEY"),
		Endpoint:      os.Getenv("PROMPTVAULT_ENDPOINT"),
		Deployment:    getEnv("PROMPTVAULT_DEPLOYMENT", DefaultDeployment),
		ApiVersion:    getEnv("PROMPTVAULT_API_VERSION", DefaultApiVersion),
		MaxTokens:     DefaultMaxTokens,
		StatsdAddress: os.Getenv("PROMPTVAULT_STATSD_ADDRESS"),
	}
	if !slices.Contains(SupportedDrivers, config.Driver) {
		return nil, fmt.Errorf("unsupported database driver %#v, must be one of %v", config.Driver, SupportedDrivers)
	}
	if !slices.Contains(SupportedProviders, config.Provider) {
		return nil, fmt.Errorf("unsupported completion provider %#v, must be one of %v", config.Provider, SupportedProviders)
	}
	if v := os.Getenv("PROMPTVAULT_DB_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 {
			return nil, fmt.Errorf("invalid PROMPTVAULT_DB_PORT=%#v", v)
		}
		config.Port = port
	}
	if v := os.Getenv("PROMPTVAULT_MAX_TOKENS"); v != "" {
		maxTokens, err := strconv.Atoi(v)
		if err != nil || maxTokens <= 0 {
			return nil, fmt.Errorf("invalid PROMPTVAULT_MAX_TOKENS=%#v", v)
		}
		config.MaxTokens = maxTokens
	}
	return config, nil
}

// Validate checks the options that are needed to send completion requests.
func (c *ClientConfig) Validate() error {
	if c.ApiKey == "" {
		return fmt.Errorf("PROMPTVAULT_API_KEY environment variable is not set")
	}
	if c.Endpoint == "" {
		return fmt.Errorf("PROMPTVAULT_ENDPOINT environment variable is not set")
	}
	if c.Deployment == "" {
		return fmt.Errorf("PROMPTVAULT_DEPLOYMENT environment variable is not set")
	}
	return nil
}

// Redacted returns a copy that is safe to print.
func (c *ClientConfig) Redacted() ClientConfig {
	redacted := *c
	if redacted.Password != "" {
		redacted.Password = "REDACTED"
	}
	if redacted.ApiKey != "" {
		redacted.ApiKey = "REDACTED"
	}
	return redacted
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
