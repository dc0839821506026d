package cli

import (
	"github.com/spf13/cobra"

	"github.com/drivebylabs/stratgrid/pkg/geojson"
)

// labelCommand creates the label command for custom stratifications.
func (c *CLI) labelCommand() *cobra.Command {
	var (
		output string
		pretty bool
	)

	cmd := &cobra.Command{
		Use:   "label <file.geojson|->",
		Short: "Assign stratum ids to a user-provided stratification",
		Long: `Label a custom stratification with sequential stratum ids.

The input must be a GeoJSON FeatureCollection containing only Polygon
features (neighborhoods, wards, any shapes the grid builder did not
construct). Each feature receives a stratum_id property equal to its
position in the feature array; existing stratum_id values are overwritten.

Use "-" to read from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())

			in, err := openInput(args[0])
			if err != nil {
				return err
			}
			fc, err := geojson.Read(in)
			in.Close()
			if err != nil {
				return err
			}

			if err := fc.ValidatePolygons(); err != nil {
				return err
			}
			fc.AssignStratumIDs()
			logger.Infof("Labeled %d strata", len(fc.Features))

			return writeCollection(fc, output, pretty)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "indent the JSON output")

	return cmd
}
