package config

import (
	"os"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
)

// Config holds runtime configuration values for the Glosspress tooling.
type Config struct {
	DBPath         string
	ServerPort     int
	LogLevel       string
	GitHubToken    string
	DocsRepoOwner  string
	DocsRepoName   string
	DocsBaseBranch string
	DocsPathPrefix string
	SentryDSN      string
	Environment    string
	ShutdownGrace  time.Duration
}

const (
	defaultDBPath         = "./data/glosspress.db"
	defaultServerPort     = 8080
	defaultLogLevel       = "info"
	defaultBaseBranch     = "main"
	defaultDocsPathPrefix = "src/content/glossary"
	defaultEnvironment    = "development"
	defaultShutdownGrace  = 10 * time.Second
)

// Load reads configuration values from environment variables, applying defaults where necessary.
func Load() (*Config, error) {
	cfg := &Config{
		DBPath:         getEnv("DB_PATH", defaultDBPath),
		LogLevel:       getEnv("LOG_LEVEL", defaultLogLevel),
		GitHubToken:    os.Getenv("GITHUB_TOKEN"),
		DocsRepoOwner:  os.Getenv("DOCS_REPO_OWNER"),
		DocsRepoName:   os.Getenv("DOCS_REPO_NAME"),
		DocsBaseBranch: getEnv("DOCS_BASE_BRANCH", defaultBaseBranch),
		DocsPathPrefix: getEnv("DOCS_PATH_PREFIX", defaultDocsPathPrefix),
		SentryDSN:      os.Getenv("SENTRY_DSN"),
		Environment:    getEnv("ENV", defaultEnvironment),
	}

	portValue := getEnv("SERVER_PORT", strconv.Itoa(defaultServerPort))
	port, err := strconv.Atoi(portValue)
	if err != nil {
		return nil, eris.Wrapf(err, "invalid SERVER_PORT value: %s", portValue)
	}
	cfg.ServerPort = port

	graceValue := getEnv("SHUTDOWN_GRACE", defaultShutdownGrace.String())
	grace, err := time.ParseDuration(graceValue)
	if err != nil {
		return nil, eris.Wrapf(err, "invalid SHUTDOWN_GRACE value: %s", graceValue)
	}
	cfg.ShutdownGrace = grace

	return cfg, nil
}

// DocsHostConfigured reports whether the GitHub credentials and target repository
// are all present, so publishing to the documentation host can be attempted.
func (c *Config) DocsHostConfigured() bool {
	return c.GitHubToken != "" && c.DocsRepoOwner != "" && c.DocsRepoName != ""
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
