// Package main is the entry point of permitgen, the permit site generator.
// Its responsibility is wiring dependencies together behind cobra commands.
// No business logic belongs here.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/pkordes/permitsite/internal/config"
	"github.com/pkordes/permitsite/internal/loader"
	"github.com/pkordes/permitsite/internal/repo"
	"github.com/pkordes/permitsite/internal/service"
)

var version = "0.1.0"

// app carries what every command shares. It is filled in by the root
// command's PersistentPreRunE.
type app struct {
	envFile  string
	logLevel string
	log      *slog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "permitgen",
		Short: "Static site generator for the permit directory",
		Long: `permitgen turns permit records (JSON, CSV or Postgres) into a static site:
one HTML page per permit, jurisdiction listings, a homepage, sitemap.xml,
robots.txt and manifest.json.

Every permit page is classified for content quality. Thin pages are published
with "noindex, follow" at sitemap priority 0.3; all others with "index,follow"
at 0.8.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "file of KEY=VALUE pairs loaded into the environment if present")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error (overrides LOG_LEVEL)")

	root.AddCommand(a.generateCmd())
	root.AddCommand(a.validateCmd())
	root.AddCommand(a.convertCmd())
	root.AddCommand(a.importCmd())
	root.AddCommand(a.serveCmd())
	root.AddCommand(a.verifyCmd())
	return root
}

// setup loads the .env file and configures the default logger.
// Logs go to stderr as JSON so stdout stays free for command output.
func (a *app) setup(cmd *cobra.Command) error {
	if err := config.LoadDotEnv(a.envFile); err != nil {
		return err
	}
	level := a.logLevel
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	a.log = newLogger(cmd.ErrOrStderr(), level)
	slog.SetDefault(a.log)
	return nil
}

// newLogger builds the JSON logger; an unknown level falls back to info.
func newLogger(w io.Writer, level string) *slog.Logger {
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(level)); err != nil {
		logLevel = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: logLevel}))
}

// flagEnv names the environment variable each shared flag overrides.
var flagEnv = map[string]string{
	"base-url":     "SITE_BASE_URL",
	"site-name":    "SITE_NAME",
	"data":         "DATA_PATH",
	"out":          "OUTPUT_DIR",
	"static":       "STATIC_DIR",
	"database-url": "DATABASE_URL",
	"port":         "PORT",
	"crawl-delay":  "CRAWL_DELAY",
	"disallow":     "ROBOTS_DISALLOW",
	"workers":      "WORKERS",
}

// loadConfig layers explicitly set flags over the environment and then loads
// the configuration, so flags and variables share one validation path.
func loadConfig(cmd *cobra.Command, requireSite bool) (config.Config, error) {
	overrides := config.Overrides{}
	for name, env := range flagEnv {
		f := cmd.Flags().Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		v := f.Value.String()
		if f.Value.Type() == "stringSlice" {
			v = trimBrackets(v)
		}
		overrides[env] = v
	}
	if requireSite {
		return overrides.Load()
	}
	return overrides.LoadLocal()
}

// trimBrackets turns pflag's "[a,b]" slice rendering into "a,b".
func trimBrackets(s string) string {
	if len(s) >= 2 && s[0] == '[' && s[len(s)-1] == ']' {
		return s[1 : len(s)-1]
	}
	return s
}

// openSource returns the permit source the configuration names: the record
// store when DATABASE_URL is set, otherwise the data files. The returned
// close function is never nil.
func openSource(ctx context.Context, cfg config.Config, log *slog.Logger) (service.PermitReader, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Info("reading permits from files", "path", cfg.DataPath)
		return loader.FileSource{Path: cfg.DataPath}, func() {}, nil
	}

	pool, err := openPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, func() {}, err
	}
	log.Info("reading permits from database")
	return repo.NewPermitRepo(pool), pool.Close, nil
}

// openPool connects and verifies the database is reachable.
func openPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return pool, nil
}
