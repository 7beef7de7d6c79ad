package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pkordes/permitsite/internal/render"
	"github.com/pkordes/permitsite/internal/seo"
	"github.com/pkordes/permitsite/internal/service"
)

var (
	bold   = color.New(color.Bold)
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
)

func (a *app) generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Build the static site",
		Long: `Load and validate every permit, then write the HTML pages, sitemap.xml,
robots.txt and manifest.json into the output directory.

Invalid data halts the build before anything is written.

Example:
  permitgen generate --base-url https://permits.example.com --data data/permits --out output`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, true)
			if err != nil {
				return err
			}
			strict, _ := cmd.Flags().GetBool("strict-related")
			verify, _ := cmd.Flags().GetBool("verify")

			ctx := cmd.Context()
			source, closeSource, err := openSource(ctx, cfg, a.log)
			if err != nil {
				return err
			}
			defer closeSource()

			renderer, err := render.New(render.Site{Name: cfg.SiteName, BaseURL: cfg.SiteBaseURL})
			if err != nil {
				return err
			}

			robots := seo.NewRobotsPolicy(cfg.SiteBaseURL)
			robots.CrawlDelay = cfg.CrawlDelay
			if len(cfg.Disallow) > 0 {
				robots.Disallow = cfg.Disallow
			}

			report, err := service.NewSiteService(source, renderer, a.log).Build(ctx, service.BuildOptions{
				OutputDir:     cfg.OutputDir,
				StaticDir:     cfg.StaticDir,
				Workers:       cfg.Workers,
				Robots:        robots,
				StrictRelated: strict,
			})
			if err != nil {
				printDataErrors(cmd.ErrOrStderr(), err)
				return fmt.Errorf("generate: %w", err)
			}
			printReport(cmd.OutOrStdout(), cfg.OutputDir, report)

			if verify {
				return runVerify(cmd, cfg.OutputDir)
			}
			return nil
		},
	}
	cmd.Flags().String("base-url", "", "absolute URL the site is published under (SITE_BASE_URL)")
	cmd.Flags().String("site-name", "", "site name shown in page titles (SITE_NAME)")
	cmd.Flags().String("data", "", "JSON/CSV file or directory of permits (DATA_PATH)")
	cmd.Flags().String("database-url", "", "read permits from Postgres instead of files (DATABASE_URL)")
	cmd.Flags().String("out", "", "output directory (OUTPUT_DIR)")
	cmd.Flags().String("static", "", "directory copied verbatim into the output (STATIC_DIR)")
	cmd.Flags().Int("workers", 0, "render parallelism, 0 for GOMAXPROCS (WORKERS)")
	cmd.Flags().Int("crawl-delay", 1, "robots.txt Crawl-delay in seconds (CRAWL_DELAY)")
	cmd.Flags().StringSlice("disallow", nil, "robots.txt Disallow patterns (ROBOTS_DISALLOW)")
	cmd.Flags().Bool("strict-related", false, "fail on related_pages ids missing from the data")
	cmd.Flags().Bool("verify", false, "check page/sitemap consistency after building")
	return cmd
}

func printReport(w io.Writer, outDir string, r service.Report) {
	bold.Fprintf(w, "Built %d permit pages in %s\n", r.Permits, outDir)
	green.Fprintf(w, "  indexable   %4d  (index,follow, priority %.1f)\n", r.Quality, seo.PriorityQuality)
	yellow.Fprintf(w, "  thin        %4d  (noindex, follow, priority %.1f)\n", r.Thin, seo.PriorityThin)
	fmt.Fprintf(w, "  sections    %4d\n", r.Sections)
	if r.Dangling > 0 {
		yellow.Fprintf(w, "  %d related_pages reference permits not in the data\n", r.Dangling)
	}
}
