package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/drivebylabs/stratgrid/pkg/geojson"
	"github.com/drivebylabs/stratgrid/pkg/render"
)

// renderCommand creates the render command for SVG previews.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		width  float64
		height float64
		labels bool
		output string
	)

	cmd := &cobra.Command{
		Use:   "render <file.geojson>",
		Short: "Draw a feature collection as an SVG preview",
		Long: `Render a GeoJSON FeatureCollection as a static SVG for visual inspection.

Polygons are scaled into the viewport preserving aspect ratio, north up.
With --labels, each feature's stratum_id is drawn at its centroid.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := geojson.ReadFile(args[0])
			if err != nil {
				return err
			}

			opts := []render.SVGOption{render.WithSize(width, height)}
			if labels {
				opts = append(opts, render.WithLabels())
			}
			svg := render.SVG(fc, opts...)

			out, err := openOutput(output)
			if err != nil {
				return err
			}
			defer out.Close()
			if _, err := out.Write(svg); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}

			printSuccess("Rendered %d features", len(fc.Features))
			if output != "" {
				printFile(output)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&width, "width", 800, "viewport width in pixels")
	cmd.Flags().Float64Var(&height, "height", 600, "viewport height in pixels")
	cmd.Flags().BoolVar(&labels, "labels", false, "draw stratum_id labels")
	cmd.Flags().StringVarP(&output, "output", "o", "grid.svg", "output file")

	return cmd
}
