package cli

import (
	"github.com/spf13/cobra"

	"github.com/drivebylabs/stratgrid/internal/api"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Expose the grid builder over HTTP",
		Long: `Run an HTTP server computing grids on demand.

Endpoints:
  GET /v1/grid?west=&south=&east=&north=&side=&unit=&limit=&stamp=
  GET /v1/health

Every grid is computed per request; nothing is stored.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") && c.config.Serve.Addr != "" {
				addr = c.config.Serve.Addr
			}
			srv := api.New(c.Logger, c.config.MaxCells)
			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")

	return cmd
}
