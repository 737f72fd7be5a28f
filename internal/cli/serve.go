package cli

import (
	"github.com/spf13/cobra"

	"github.com/nbkernels/nbkernels/internal/server"
)

// defaultAddr is where the REST API listens unless overridden.
const defaultAddr = "127.0.0.1:8899"

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the REST API",
		Long: `Serve the engine's REST API for front-end integration.

Endpoints under /api: environments, scan, register, unregister, kernelspecs.
The server shuts down gracefully on interrupt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := c.newEngine()
			if err != nil {
				return err
			}

			printInfo("Serving on http://%s/api", addr)
			return server.New(engine, c.Logger).ListenAndServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "listen address")

	return cmd
}
