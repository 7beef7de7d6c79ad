package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pkordes/permitsite/internal/loader"
)

func (a *app) convertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "convert <in.csv> [out.json]",
		Short: "Convert a permits CSV export to JSON",
		Long: `Convert a spreadsheet export to the JSON data format. Array columns
(community_feedback, user_tips, faqs, related_pages) must hold JSON; a cell
that does not parse is an error naming the row and column.

The JSON is written to stdout when no output file is given.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("convert: %w", err)
			}
			defer in.Close()

			var out io.Writer = cmd.OutOrStdout()
			var file *os.File
			if len(args) == 2 && args[1] != "-" {
				file, err = os.Create(args[1])
				if err != nil {
					return fmt.Errorf("convert: %w", err)
				}
				out = file
			}

			n, err := loader.ConvertCSVToJSON(in, out)
			if file != nil {
				if cerr := file.Close(); err == nil {
					err = cerr
				}
			}
			if err != nil {
				printDataErrors(cmd.ErrOrStderr(), err)
				return fmt.Errorf("convert: %w", err)
			}
			a.log.Info("converted permits", "count", n, "source", args[0])
			return nil
		},
	}
}
