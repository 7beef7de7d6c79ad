package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/pkordes/permitsite/internal/handler"
	"github.com/pkordes/permitsite/internal/service"
)

func (a *app) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Preview the generated site and the permit API",
		Long: `Serve the generated site at "/" with X-Robots-Tag headers taken from the
manifest, plus a JSON API:

  GET  /healthz
  GET  /openapi.yaml
  GET  /api/permits?page=&limit=
  GET  /api/permits/{id}
  POST /api/classify`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, false)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			source, closeSource, err := openSource(ctx, cfg, a.log)
			if err != nil {
				return err
			}
			defer closeSource()

			directives, err := handler.LoadDirectives(cfg.OutputDir)
			if errors.Is(err, fs.ErrNotExist) {
				a.log.Warn("site not generated yet; serving without X-Robots-Tag", "dir", cfg.OutputDir)
			} else if err != nil {
				return err
			}

			router := handler.NewRouter(handler.RouterConfig{
				Server:      handler.NewServer(service.NewPermitService(source), a.log),
				Logger:      a.log,
				CORSOrigins: cfg.CORSOrigins,
				SiteDir:     cfg.OutputDir,
				Directives:  directives,
			})

			// Explicit timeouts prevent slowloris and resource exhaustion.
			srv := &http.Server{
				Addr:         ":" + cfg.Port,
				Handler:      router,
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 10 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.log.Info("server starting", "addr", srv.Addr, "site", cfg.OutputDir)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err, ok := <-errCh:
				if ok {
					return fmt.Errorf("serve: %w", err)
				}
				return nil
			case <-ctx.Done():
			}
			a.log.Info("shutting down server")

			// Give in-flight requests up to 15 seconds to complete.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("serve: shutdown: %w", err)
			}
			a.log.Info("server stopped")
			return nil
		},
	}
	cmd.Flags().String("port", "", "TCP port (PORT)")
	cmd.Flags().String("out", "", "generated site directory to serve (OUTPUT_DIR)")
	cmd.Flags().String("data", "", "JSON/CSV file or directory of permits (DATA_PATH)")
	cmd.Flags().String("database-url", "", "read permits from Postgres instead of files (DATABASE_URL)")
	return cmd
}
