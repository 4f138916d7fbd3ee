package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"propertyreport/config"
	"propertyreport/internal/render"
)

func newGenerateCmd(a *app) *cobra.Command {
	var (
		out      string
		markdown bool
		lookup   bool
		noCache  bool
	)
	cmd := &cobra.Command{
		Use:   "generate <input.yaml>",
		Short: "Generate the report PDF for an input file",
		Long: `Generate reads a YAML input file and writes the investment report.

The output defaults to "{address} - Investment Report.pdf" in the current
directory. When --out names a directory the default file name is used inside
it. With --lookup, blank location fields are filled from the address.`,
		Example: `  reportgen generate sample.yaml
  reportgen generate sample.yaml --out reports/
  reportgen generate sample.yaml --markdown --out summary.md`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := config.LoadInputFile(args[0])
			if err != nil {
				return err
			}

			if lookup {
				loc, closeCache, err := a.locator(noCache)
				if err != nil {
					return err
				}
				defer closeCache()
				query := strings.TrimSpace(in.Property.Address + ", " + in.Property.PostalCode)
				l, err := loc.Lookup(context.Background(), query)
				if err != nil {
					// The report can still be built from the typed-in fields
					a.logger.WithError(err).WithField("query", query).Warn("Location lookup failed")
				} else {
					l.Apply(&in.Location)
				}
			}

			gen := a.generator()
			if markdown {
				if out == "" {
					_, err := gen.WriteMarkdown(cmd.OutOrStdout(), in)
					return err
				}
				return render.WriteFileAtomic(out, func(w io.Writer) error {
					_, err := gen.WriteMarkdown(w, in)
					return err
				})
			}

			res, err := gen.Generate(in, out)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d pages, %d bytes)\n", res.Path, res.Pages, res.Bytes)
			if res.Placeholder > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%d image slots use placeholders\n", res.Placeholder)
			}
			if res.Metrics.Degraded {
				fmt.Fprintf(cmd.OutOrStdout(), "Investment figures shown as zero: %s\n", strings.Join(res.Metrics.ErrorStrings(), "; "))
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&out, "out", "o", "", "output file or directory")
	f.BoolVar(&markdown, "markdown", false, "write the Markdown summary instead of the PDF")
	f.BoolVar(&lookup, "lookup", false, "fill blank location fields from the address")
	f.BoolVar(&noCache, "no-cache", false, "skip the lookup cache")
	return cmd
}
