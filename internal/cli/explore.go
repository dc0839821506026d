package cli

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/drivebylabs/stratgrid/pkg/geo"
	"github.com/drivebylabs/stratgrid/pkg/grid"
)

// List styles
var (
	exploreSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	exploreDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// sideSteps is the ladder of cell side lengths the explorer cycles through.
var sideSteps = []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 25, 50, 100}

// exploreUnits is the unit cycle order for the explorer.
var exploreUnits = []geo.Unit{
	geo.UnitKilometers,
	geo.UnitMeters,
	geo.UnitMiles,
	geo.UnitNauticalMiles,
	geo.UnitDegrees,
}

// ExploreModel is the bubbletea model for interactive cell-size selection.
// It shows live grid dimensions for the current side and unit; Enter
// confirms the selection, q cancels.
type ExploreModel struct {
	Box geo.BBox

	SideIdx   int
	UnitIdx   int
	Confirmed bool
}

// NewExploreModel creates an explorer over box starting at 1 kilometer.
func NewExploreModel(box geo.BBox) ExploreModel {
	m := ExploreModel{Box: box}
	for i, s := range sideSteps {
		if s == 1 {
			m.SideIdx = i
		}
	}
	return m
}

// Side returns the currently selected cell size.
func (m ExploreModel) Side() geo.CellSize {
	return geo.CellSize{Value: sideSteps[m.SideIdx], Unit: exploreUnits[m.UnitIdx]}
}

// dimensions returns columns, rows for the current selection.
func (m ExploreModel) dimensions() (int, int) {
	side := m.Side()
	width := geo.Distance(m.Box.SouthWest(), geo.Point{Lon: m.Box.East, Lat: m.Box.South}, side.Unit)
	height := geo.Distance(m.Box.SouthWest(), geo.Point{Lon: m.Box.West, Lat: m.Box.North}, side.Unit)
	columns := int(math.Ceil(width / side.Value))
	rows := int(math.Ceil(height / side.Value))
	if columns < 1 {
		columns = 1
	}
	if rows < 1 {
		rows = 1
	}
	return columns, rows
}

func (m ExploreModel) Init() tea.Cmd {
	return nil
}

func (m ExploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "+", "=", "up", "k":
			if m.SideIdx < len(sideSteps)-1 {
				m.SideIdx++
			}
		case "-", "down", "j":
			if m.SideIdx > 0 {
				m.SideIdx--
			}
		case "u":
			m.UnitIdx = (m.UnitIdx + 1) % len(exploreUnits)
		case "enter":
			m.Confirmed = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m ExploreModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Explore Cell Sizes"))
	b.WriteString("\n")
	b.WriteString(exploreDimStyle.Render("+/- adjust side  u cycle unit  ⏎ build  q quit"))
	b.WriteString("\n\n")

	columns, rows := m.dimensions()
	cells := columns * rows

	b.WriteString(fmt.Sprintf("  Box        %s\n", StyleValue.Render(m.Box.String())))
	b.WriteString(fmt.Sprintf("  Cell side  %s\n", exploreSelectedStyle.Render(m.Side().String())))
	b.WriteString(fmt.Sprintf("  Grid       %s\n", StyleValue.Render(fmt.Sprintf("%d x %d", columns, rows))))
	b.WriteString(fmt.Sprintf("  Cells      %s\n", StyleHighlight.Render(fmt.Sprintf("%d", cells))))

	if cells > grid.DefaultMaxCells {
		b.WriteString("\n")
		b.WriteString(StyleWarning.Render(fmt.Sprintf("  exceeds the %d cell ceiling", grid.DefaultMaxCells)))
		b.WriteString("\n")
	}

	return b.String()
}

// exploreCommand creates the interactive explore command.
func (c *CLI) exploreCommand() *cobra.Command {
	var (
		output string
		pretty bool
	)

	cmd := &cobra.Command{
		Use:   "explore <west> <south> <east> <north>",
		Short: "Interactively pick a cell size for a bounding box",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			coords, err := parseCoords(args)
			if err != nil {
				return err
			}
			box, err := geo.NewBBox(coords[0], coords[1], coords[2], coords[3])
			if err != nil {
				return err
			}

			p := tea.NewProgram(NewExploreModel(box), tea.WithContext(cmd.Context()))
			final, err := p.Run()
			if err != nil {
				return err
			}

			m := final.(ExploreModel)
			if !m.Confirmed {
				printInfo("Cancelled")
				return nil
			}

			g, err := grid.Build(box, m.Side(), grid.WithMaxCells(c.config.MaxCells))
			if err != nil {
				return err
			}
			printSuccess("Built %d cells (%dx%d) at %s", g.CellCount(), g.Columns, g.Rows, m.Side())
			return writeCollection(g.FeatureCollection(), output, pretty)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "indent the JSON output")

	return cmd
}
