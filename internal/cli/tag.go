package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/drivebylabs/stratgrid/pkg/errors"
	"github.com/drivebylabs/stratgrid/pkg/geo"
	"github.com/drivebylabs/stratgrid/pkg/geojson"
	"github.com/drivebylabs/stratgrid/pkg/grid"
	"github.com/drivebylabs/stratgrid/pkg/trace"
)

// tagOpts holds the command-line flags for the tag command.
type tagOpts struct {
	gridBox     string // "west,south,east,north" for the grid lookup path
	side        float64
	unit        string
	strata      string // labeled stratification file for the containment path
	granularity int64  // temporal bucket size in seconds, 0 disables
	anonymize   bool
	mapping     string // vehicle id mapping output path, used with anonymize
	output      string
}

// tagCommand creates the tag command for vehicle mobility traces.
func (c *CLI) tagCommand() *cobra.Command {
	opts := tagOpts{}

	cmd := &cobra.Command{
		Use:   "tag <traces.csv>",
		Short: "Tag a mobility trace CSV with stratum and temporal ids",
		Long: `Tag each datum of a vehicle mobility trace with the stratum it falls into
and the time segment it belongs to.

The trace CSV must have a header row with vehicle_id, latitude, longitude
and timestamp (seconds) columns; extra columns pass through untouched.

Strata come from either a grid (--grid "west,south,east,north" with --side,
fast index lookup) or a labeled stratification file (--strata, polygon
containment). Records outside every stratum stay untagged.

With --anonymize, vehicle ids are replaced by a shuffled 0..n-1 numbering
before tagging and the original-to-anonymized mapping is written as JSON.

Examples:
  stratgrid tag traces.csv --grid "77.52,12.92,77.68,13.03" --side 1
  stratgrid tag traces.csv --strata wards.geojson --granularity 3600
  stratgrid tag traces.csv --strata wards.geojson --anonymize`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runTag(cmd, args[0], &opts)
		},
	}

	cmd.Flags().StringVar(&opts.gridBox, "grid", "", `bounding box "west,south,east,north" for grid-based tagging`)
	cmd.Flags().Float64Var(&opts.side, "side", 0, "grid cell side length (required with --grid)")
	cmd.Flags().StringVarP(&opts.unit, "unit", "u", "", "cell side unit (default from config)")
	cmd.Flags().StringVar(&opts.strata, "strata", "", "labeled stratification file for containment-based tagging")
	cmd.Flags().Int64Var(&opts.granularity, "granularity", 0, "temporal bucket size in seconds, 0 disables temporal tagging")
	cmd.Flags().BoolVar(&opts.anonymize, "anonymize", false, "replace vehicle ids with a shuffled 0..n-1 numbering")
	cmd.Flags().StringVar(&opts.mapping, "mapping", "vehicle_ids.json", "vehicle id mapping output file (with --anonymize)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty)")

	return cmd
}

func (c *CLI) runTag(cmd *cobra.Command, path string, opts *tagOpts) error {
	logger := loggerFromContext(cmd.Context())

	loc, err := c.buildLocator(opts)
	if err != nil {
		return err
	}

	in, err := openInput(path)
	if err != nil {
		return err
	}
	ds, err := trace.Read(in)
	in.Close()
	if err != nil {
		return err
	}
	logger.Infof("Read %d trace records", len(ds.Records))

	if opts.anonymize {
		mapping := trace.Anonymize(ds)
		if err := writeVehicleMapping(mapping, opts.mapping); err != nil {
			return err
		}
		logger.Infof("Anonymized %d vehicles", len(mapping))
		printFile(opts.mapping)
	}

	spinner := newSpinner(cmd.Context(), fmt.Sprintf("Tagging %d records", len(ds.Records)))
	spinner.Start()

	tagged := trace.TagStrata(ds, loc)
	if opts.granularity > 0 {
		if err := trace.TagTemporal(ds, opts.granularity); err != nil {
			spinner.StopWithError("Temporal tagging failed")
			return err
		}
	}

	if spinner.Cancelled() {
		spinner.Stop()
		return cmd.Context().Err()
	}
	spinner.StopWithSuccess(fmt.Sprintf("Tagged %d of %d records", tagged, len(ds.Records)))
	if untagged := len(ds.Records) - tagged; untagged > 0 {
		printWarning("%d records fall outside every stratum", untagged)
	}

	out, err := openOutput(opts.output)
	if err != nil {
		return err
	}
	defer out.Close()
	if err := trace.Write(ds, out); err != nil {
		return err
	}
	if opts.output != "" {
		printFile(opts.output)
	}
	return nil
}

// buildLocator resolves the stratum locator from the flags: exactly one of
// --grid and --strata must be given.
func (c *CLI) buildLocator(opts *tagOpts) (trace.Locator, error) {
	switch {
	case opts.gridBox != "" && opts.strata != "":
		return nil, errors.New(errors.ErrCodeArgumentParse, "--grid and --strata are mutually exclusive")
	case opts.gridBox != "":
		return c.gridLocator(opts)
	case opts.strata != "":
		return strataLocator(opts.strata)
	default:
		return nil, errors.New(errors.ErrCodeArgumentParse, "either --grid or --strata is required")
	}
}

func (c *CLI) gridLocator(opts *tagOpts) (trace.Locator, error) {
	parts := strings.Split(opts.gridBox, ",")
	if len(parts) != 4 {
		return nil, errors.New(errors.ErrCodeArgumentParse, `--grid %q must be "west,south,east,north"`, opts.gridBox)
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	coords, err := parseCoords(parts)
	if err != nil {
		return nil, err
	}
	unit, err := c.resolveUnit(opts.unit)
	if err != nil {
		return nil, err
	}

	box, err := geo.NewBBox(coords[0], coords[1], coords[2], coords[3])
	if err != nil {
		return nil, err
	}
	side, err := geo.NewCellSize(opts.side, unit)
	if err != nil {
		return nil, err
	}
	return grid.Build(box, side, grid.WithMaxCells(c.config.MaxCells))
}

// writeVehicleMapping writes the original-to-anonymized vehicle id mapping
// as indented JSON.
func writeVehicleMapping(mapping map[int]int, path string) error {
	out, err := openOutput(path)
	if err != nil {
		return err
	}
	defer out.Close()

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(mapping); err != nil {
		return fmt.Errorf("write vehicle id mapping: %w", err)
	}
	return nil
}

func strataLocator(path string) (trace.Locator, error) {
	fc, err := geojson.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := fc.ValidatePolygons(); err != nil {
		return nil, err
	}
	if len(fc.Features) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidGeoJSON, "stratification %s has no features", path)
	}
	// Tolerate unlabeled input: feature order is the stratum order either way.
	if _, ok := fc.Features[len(fc.Features)-1].StratumID(); !ok {
		fc.AssignStratumIDs()
	}
	return trace.NewStrataLocator(fc), nil
}
