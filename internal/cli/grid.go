package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/drivebylabs/stratgrid/pkg/errors"
	"github.com/drivebylabs/stratgrid/pkg/geo"
	"github.com/drivebylabs/stratgrid/pkg/geojson"
	"github.com/drivebylabs/stratgrid/pkg/grid"
)

// gridOpts holds the command-line flags for the grid command.
type gridOpts struct {
	unit     string // cell-size unit name
	maxCells int    // cell-count ceiling, <= 0 disables
	output   string // output file path (stdout if empty)
	pretty   bool   // indent the JSON output
	stamp    bool   // include grid provenance in the document
	summary  bool   // print a human-readable summary to the terminal
}

// gridCommand creates the grid command: the positional-argument adapter over
// grid.Build.
func (c *CLI) gridCommand() *cobra.Command {
	opts := gridOpts{maxCells: -1}

	cmd := &cobra.Command{
		Use:   "grid <west> <south> <east> <north> <side>",
		Short: "Build a square stratification grid over a bounding box",
		Long: `Build a square grid of equal-sized cells covering a bounding box and emit
it as a GeoJSON FeatureCollection on stdout.

Coordinates are WGS84 degrees in west, south, east, north order, followed by
the cell side length. Each cell carries a stratum_id property numbered in
row-major order from the southwest corner.

Examples:
  stratgrid grid 77.52 12.92 77.68 13.03 1
  stratgrid grid 77.52 12.92 77.68 13.03 0.5 --unit mi -o grid.geojson
  stratgrid grid 0 0 1 1 0.25 --unit deg --pretty`,
		Args: cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGrid(cmd, args, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.unit, "unit", "u", "", "cell side unit (km, m, mi, nmi, ft, yd, deg, rad)")
	cmd.Flags().IntVar(&opts.maxCells, "max-cells", opts.maxCells, "cell count ceiling, 0 disables (default from config)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().BoolVar(&opts.pretty, "pretty", false, "indent the JSON output")
	cmd.Flags().BoolVar(&opts.stamp, "stamp", false, "include grid provenance in the document")
	cmd.Flags().BoolVar(&opts.summary, "summary", false, "print a grid summary instead of suppressing status output")

	return cmd
}

func (c *CLI) runGrid(cmd *cobra.Command, args []string, opts *gridOpts) error {
	logger := loggerFromContext(cmd.Context())

	box, side, err := c.parseGridArgs(args, opts.unit)
	if err != nil {
		return err
	}

	maxCells := opts.maxCells
	if !cmd.Flags().Changed("max-cells") {
		maxCells = c.config.MaxCells
	}

	prog := newProgress(logger)
	g, err := grid.Build(box, side, grid.WithMaxCells(maxCells))
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Built %d cells (%dx%d)", g.CellCount(), g.Columns, g.Rows))

	var fcOpts []grid.FCOption
	if opts.stamp {
		fcOpts = append(fcOpts, grid.WithProvenance())
	}

	if err := writeCollection(g.FeatureCollection(fcOpts...), opts.output, opts.pretty); err != nil {
		return err
	}

	if opts.summary {
		printSuccess("Grid %s", g.ID())
		printGridStats(g.Columns, g.Rows, g.CellCount())
		printKeyValue("Cell side", side.String())
		printKeyValue("Box", box.String())
		if opts.output != "" {
			printFile(opts.output)
		}
	} else if opts.output != "" {
		logger.Infof("Wrote grid to %s", opts.output)
	}

	return nil
}

// parseGridArgs parses the five positional arguments of the grid commands.
// The unit comes from the flag when set, otherwise from config.
func (c *CLI) parseGridArgs(args []string, unitFlag string) (geo.BBox, geo.CellSize, error) {
	coords, err := parseCoords(args[:4])
	if err != nil {
		return geo.BBox{}, geo.CellSize{}, err
	}

	sideValue, err := strconv.ParseFloat(args[4], 64)
	if err != nil {
		return geo.BBox{}, geo.CellSize{},
			errors.New(errors.ErrCodeArgumentParse, "cell side %q must be a number", args[4])
	}

	unit, err := c.resolveUnit(unitFlag)
	if err != nil {
		return geo.BBox{}, geo.CellSize{}, err
	}

	box, err := geo.NewBBox(coords[0], coords[1], coords[2], coords[3])
	if err != nil {
		return geo.BBox{}, geo.CellSize{}, err
	}
	side, err := geo.NewCellSize(sideValue, unit)
	if err != nil {
		return geo.BBox{}, geo.CellSize{}, err
	}
	return box, side, nil
}

// parseCoords parses west, south, east, north positional arguments.
func parseCoords(args []string) ([4]float64, error) {
	names := []string{"west", "south", "east", "north"}
	var coords [4]float64
	for i, arg := range args {
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return coords, errors.New(errors.ErrCodeArgumentParse, "%s %q must be a number", names[i], arg)
		}
		coords[i] = v
	}
	return coords, nil
}

// resolveUnit resolves the effective unit: the flag when given, the config
// value otherwise.
func (c *CLI) resolveUnit(flag string) (geo.Unit, error) {
	if flag != "" {
		return geo.ParseUnit(flag)
	}
	return geo.ParseUnit(c.config.Unit)
}

// writeCollection serializes fc to the specified path (or stdout if empty).
func writeCollection(fc *geojson.FeatureCollection, path string, pretty bool) error {
	out, err := openOutput(path)
	if err != nil {
		return err
	}
	defer out.Close()
	return geojson.Write(fc, out, pretty)
}
