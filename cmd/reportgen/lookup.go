package main

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newLookupCmd(a *app) *cobra.Command {
	var (
		geoJSON bool
		noCache bool
	)
	cmd := &cobra.Command{
		Use:   "lookup <address>",
		Short: "Locate an address and estimate its location fields",
		Example: `  reportgen lookup "5 Ridley Road, L6 6DN"
  reportgen lookup "5 Ridley Road, L6 6DN" --geojson`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, closeCache, err := a.locator(noCache)
			if err != nil {
				return err
			}
			defer closeCache()

			l, err := loc.Lookup(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}

			if geoJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(l.FeatureCollection())
			}

			fields := l.Fields()
			keys := make([]string, 0, len(fields))
			for k := range fields {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			tw := tablewriter.NewWriter(cmd.OutOrStdout())
			tw.Header("Field", "Value")
			for _, k := range keys {
				if k == "about_city" {
					continue
				}
				if err := tw.Append([]string{k, fields[k]}); err != nil {
					return err
				}
			}
			if l.TransportError != "" {
				if err := tw.Append([]string{"transport_error", l.TransportError}); err != nil {
					return err
				}
			}
			return tw.Render()
		},
	}
	cmd.Flags().BoolVar(&geoJSON, "geojson", false, "print the points as a GeoJSON feature collection")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "skip the lookup cache")
	return cmd
}
