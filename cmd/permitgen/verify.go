package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pkordes/permitsite/internal/service"
)

func (a *app) verifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check a generated site for directive/priority disagreements",
		Long: `Read manifest.json, sitemap.xml and every permit page of a generated site
and report each page whose robots meta tag disagrees with its sitemap
priority: a noindex page not at 0.3, an indexable page not at 0.8, a bare
noindex, a priority outside {0.3, 0.8}, or a page missing from the sitemap.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, false)
			if err != nil {
				return err
			}
			return runVerify(cmd, cfg.OutputDir)
		},
	}
	cmd.Flags().String("out", "", "generated site directory (OUTPUT_DIR)")
	return cmd
}

func runVerify(cmd *cobra.Command, dir string) error {
	violations, err := service.Verify(cmd.Context(), dir)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	out := cmd.OutOrStdout()
	if len(violations) == 0 {
		green.Fprintf(out, "%s: robots directives and sitemap priorities agree\n", dir)
		return nil
	}
	red.Fprintf(out, "%d consistency violation(s) in %s:\n", len(violations), dir)
	for _, v := range violations {
		fmt.Fprintf(out, "  %s\n", v)
	}
	return fmt.Errorf("verify: %d violation(s)", len(violations))
}
