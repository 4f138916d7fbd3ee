package main

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"propertyreport/internal/images"
)

func newClassifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <path>...",
		Short: "Show the report section each image is routed to",
		Long: `Classify routes image files to report sections by file name. Directory
arguments contribute every image file they contain, sorted by name.`,
		Example: `  reportgen classify sample_images/
  reportgen classify exterior_front.jpg floor_plan_ground.png`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			col := images.NewCollection(a.classifier())
			for _, p := range args {
				info, err := os.Stat(p)
				if err == nil && info.IsDir() {
					if err := col.AddDir(p); err != nil {
						return err
					}
					continue
				}
				col.Add(p)
			}

			tw := tablewriter.NewWriter(cmd.OutOrStdout())
			tw.Header("Section", "Position", "Image")
			for _, tag := range images.Sections {
				for i, p := range col.Section(tag) {
					if err := tw.Append([]string{string(tag), fmt.Sprint(i + 1), p}); err != nil {
						return err
					}
				}
			}
			return tw.Render()
		},
	}
}
