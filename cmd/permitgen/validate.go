package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/pkordes/permitsite/internal/domain"
	"github.com/pkordes/permitsite/internal/loader"
	"github.com/pkordes/permitsite/internal/seo"
)

func (a *app) validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [path...]",
		Short: "Check permit data without building",
		Long: `Load permit files and report every data problem: malformed ids, names that
are not two words, duplicate composite keys, FAQ entries missing an answer,
bad URLs and dates.

With --explain, also print each record's content verdict and the reasons
behind it.

Example:
  permitgen validate data/permits/permits.json
  permitgen validate --explain --strict-related data/permits`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, false)
			if err != nil {
				return err
			}
			strict, _ := cmd.Flags().GetBool("strict-related")
			explain, _ := cmd.Flags().GetBool("explain")

			paths := args
			if len(paths) == 0 {
				paths = []string{cfg.DataPath}
			}

			var permits []domain.Permit
			for _, p := range paths {
				batch, err := loader.Load(p)
				if err != nil {
					printDataErrors(cmd.ErrOrStderr(), err)
					return fmt.Errorf("validate: %w", err)
				}
				permits = append(permits, batch...)
			}

			out := cmd.OutOrStdout()
			if err := loader.Validate(permits, loader.Options{StrictRelated: strict}); err != nil {
				printDataErrors(out, err)
				return fmt.Errorf("validate: %d record(s) checked, data is invalid", len(permits))
			}
			for _, de := range loader.DanglingRelated(permits) {
				yellow.Fprintf(out, "warning: %s\n", de)
			}

			thin := 0
			for _, p := range permits {
				d := seo.Explain(p)
				if d.Verdict.IsThin {
					thin++
				}
				if explain {
					printDecision(out, p, d)
				}
			}
			green.Fprintf(out, "%d record(s) valid: %d indexable, %d thin\n", len(permits), len(permits)-thin, thin)
			return nil
		},
	}
	cmd.Flags().String("data", "", "JSON/CSV file or directory when no path is given (DATA_PATH)")
	cmd.Flags().Bool("strict-related", false, "fail on related_pages ids missing from the data")
	cmd.Flags().Bool("explain", false, "print the content verdict of every record")
	return cmd
}

func printDecision(w io.Writer, p domain.Permit, d seo.Decision) {
	c := green
	if d.Verdict.IsThin {
		c = yellow
	}
	c.Fprintf(w, "%-16s %s | %s\n", d.Verdict.RobotsDirective, p.AgencyShort, p.RequestType)
	s := d.Signals
	fmt.Fprintf(w, "    content %d chars, description %d, common mistakes %d, community %d, faqs %d\n",
		s.TotalContentLength, s.DescriptionLength, s.CommonMistakesLength, s.CommunitySignalCount, s.FAQCount)
	for _, r := range d.Reasons {
		fmt.Fprintf(w, "    - %s\n", r)
	}
}

// printDataErrors lists every DataError joined into err, one per line.
func printDataErrors(w io.Writer, err error) {
	var des []*loader.DataError
	collectDataErrors(err, &des)
	if len(des) == 0 {
		return
	}
	red.Fprintf(w, "%d data error(s):\n", len(des))
	for _, de := range des {
		fmt.Fprintf(w, "  %s\n", de)
	}
}

func collectDataErrors(err error, out *[]*loader.DataError) {
	switch e := err.(type) {
	case nil:
	case *loader.DataError:
		*out = append(*out, e)
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			collectDataErrors(inner, out)
		}
	default:
		collectDataErrors(errors.Unwrap(err), out)
	}
}
