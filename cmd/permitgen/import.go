package main

import (
	"fmt"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	"github.com/pkordes/permitsite/internal/loader"
	"github.com/pkordes/permitsite/internal/repo"
	"github.com/pkordes/permitsite/internal/service"
	"github.com/pkordes/permitsite/migrations"
)

func (a *app) importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load permit files into the Postgres record store",
		Long: `Validate permit files and upsert every record into Postgres in a single
transaction. Nothing is written when any record is invalid.

Example:
  permitgen import --database-url postgres://localhost/permits --migrate --data data/permits`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, false)
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("import: DATABASE_URL or --database-url is required")
			}
			migrate, _ := cmd.Flags().GetBool("migrate")

			permits, err := loader.Load(cfg.DataPath)
			if err != nil {
				printDataErrors(cmd.ErrOrStderr(), err)
				return fmt.Errorf("import: %w", err)
			}

			ctx := cmd.Context()
			pool, err := openPool(ctx, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("import: %w", err)
			}
			defer pool.Close()

			if migrate {
				// goose needs database/sql; borrow a connection from the pool.
				db := stdlib.OpenDBFromPool(pool)
				applied, err := migrations.Up(ctx, db)
				db.Close()
				if err != nil {
					return fmt.Errorf("import: %w", err)
				}
				a.log.Info("migrations applied", "count", applied)
			}

			tx, err := pool.Begin(ctx)
			if err != nil {
				return fmt.Errorf("import: begin: %w", err)
			}
			defer func() {
				// No-op once the transaction has committed.
				_ = tx.Rollback(ctx)
			}()

			n, err := service.NewImportService(repo.NewPermitRepo(tx), a.log).Import(ctx, permits)
			if err != nil {
				printDataErrors(cmd.ErrOrStderr(), err)
				return fmt.Errorf("import: %w", err)
			}
			if err := tx.Commit(ctx); err != nil {
				return fmt.Errorf("import: commit: %w", err)
			}

			green.Fprintf(cmd.OutOrStdout(), "imported %d permit(s)\n", n)
			return nil
		},
	}
	cmd.Flags().String("data", "", "JSON/CSV file or directory of permits (DATA_PATH)")
	cmd.Flags().String("database-url", "", "Postgres connection string (DATABASE_URL)")
	cmd.Flags().Bool("migrate", false, "apply pending schema migrations first")
	return cmd
}
