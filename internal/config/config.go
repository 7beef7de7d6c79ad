// Package config loads and validates application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the generator and preview server.
// Values are populated by Load from environment variables; CLI flags may
// override individual fields afterwards.
type Config struct {
	// SiteBaseURL is the absolute URL the site is published under, without a
	// trailing slash. Required by Load.
	SiteBaseURL string

	// SiteName is shown in page titles. Defaults to "Permit Guide".
	SiteName string

	// DataPath is a JSON/CSV file or a directory of them.
	// Defaults to "data/permits/permits.json".
	DataPath string

	// OutputDir receives the generated site. Defaults to "output".
	OutputDir string

	// StaticDir is copied verbatim into OutputDir. Defaults to "static".
	StaticDir string

	// DatabaseURL is the Postgres connection string. Optional; when set,
	// records are read from the record store instead of DataPath.
	DatabaseURL string

	// Port is the TCP port the preview server listens on. Defaults to "8080".
	Port string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"].
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// CrawlDelay is the robots.txt Crawl-delay in seconds. Defaults to 1.
	CrawlDelay int

	// Disallow lists the robots.txt Disallow patterns. Empty means the
	// generator's defaults. Set ROBOTS_DISALLOW to a comma-separated list.
	Disallow []string

	// Workers bounds page-rendering parallelism. 0 means GOMAXPROCS.
	Workers int
}

// LoadDotEnv loads KEY=VALUE pairs from the given files (".env" when none are
// named) into the environment. Variables already set win. Missing files are
// ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config.LoadDotEnv: %s: %w", f, err)
		}
	}
	return nil
}

// Overrides holds values keyed by environment variable name that take
// precedence over the process environment, such as command-line flags.
// An override is used even when it is the empty string.
type Overrides map[string]string

// Load reads configuration from environment variables and returns a Config.
// Returns an error listing any required variables that are not set and any
// value that does not parse.
func Load() (Config, error) {
	return Overrides(nil).Load()
}

// LoadLocal is Load for commands that never publish URLs (validate, convert,
// import): SITE_BASE_URL may be absent.
func LoadLocal() (Config, error) {
	return Overrides(nil).LoadLocal()
}

// Load is the package-level Load with o applied on top of the environment.
func (o Overrides) Load() (Config, error) {
	return o.load(true)
}

// LoadLocal is the package-level LoadLocal with o applied on top of the
// environment.
func (o Overrides) LoadLocal() (Config, error) {
	return o.load(false)
}

func (o Overrides) load(requireSite bool) (Config, error) {
	cfg := Config{
		SiteBaseURL: strings.TrimRight(o.get("SITE_BASE_URL"), "/"),
		SiteName:    o.getEnv("SITE_NAME", "Permit Guide"),
		DataPath:    o.getEnv("DATA_PATH", "data/permits/permits.json"),
		OutputDir:   o.getEnv("OUTPUT_DIR", "output"),
		StaticDir:   o.getEnv("STATIC_DIR", "static"),
		DatabaseURL: o.get("DATABASE_URL"),
		Port:        o.getEnv("PORT", "8080"),
		LogLevel:    o.getEnv("LOG_LEVEL", "info"),
		CORSOrigins: splitCSV(o.getEnv("CORS_ORIGINS", "http://localhost:5173")),
		Disallow:    splitCSV(o.get("ROBOTS_DISALLOW")),
	}

	var (
		missing []string
		invalid []string
	)

	if cfg.SiteBaseURL == "" {
		if requireSite {
			missing = append(missing, "SITE_BASE_URL")
		}
	} else if u, err := url.Parse(cfg.SiteBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		invalid = append(invalid, fmt.Sprintf("SITE_BASE_URL=%q is not an absolute URL", cfg.SiteBaseURL))
	}

	var err error
	if cfg.CrawlDelay, err = o.getInt("CRAWL_DELAY", 1); err != nil || cfg.CrawlDelay < 1 {
		invalid = append(invalid, fmt.Sprintf("CRAWL_DELAY=%q must be a positive integer", o.get("CRAWL_DELAY")))
	}
	if cfg.Workers, err = o.getInt("WORKERS", 0); err != nil || cfg.Workers < 0 {
		invalid = append(invalid, fmt.Sprintf("WORKERS=%q must be a non-negative integer", o.get("WORKERS")))
	}

	var errs []error
	if len(missing) > 0 {
		errs = append(errs, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", ")))
	}
	for _, msg := range invalid {
		errs = append(errs, errors.New(msg))
	}
	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}

	return cfg, nil
}

// get returns the override for key if there is one, else the environment value.
func (o Overrides) get(key string) string {
	if v, ok := o[key]; ok {
		return v
	}
	return os.Getenv(key)
}

// getEnv returns the value named by key, or fallback if it is not set or is
// empty.
func (o Overrides) getEnv(key, fallback string) string {
	if v := o.get(key); v != "" {
		return v
	}
	return fallback
}

// getInt is getEnv for integers.
func (o Overrides) getInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(o.get(key))
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
