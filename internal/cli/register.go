package cli

import (
	"github.com/spf13/cobra"
)

// registerCommand creates the register command.
func (c *CLI) registerCommand() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "register <path>",
		Short: "Register an interpreter environment",
		Long: `Register an interpreter environment in its provenance's registry.

The environment's installer is detected automatically: environments created
by uv carry a marker in pyvenv.cfg and land in the uv registry; everything
else lands in the venv registry. Registering an already-registered path with
a new --name updates the stored name; an explicit name colliding with an
existing one is suffixed (_1, _2, ...) rather than rejected.

Registration is confined to the workspace root (plus global conda installs).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := c.newEngine()
			if err != nil {
				return err
			}

			res, err := engine.Register(cmd.Context(), args[0], name)
			if err != nil {
				printError("Could not register %s", args[0])
				return err
			}

			switch {
			case res.Registered:
				printSuccess("Registered %s", res.Name)
			case res.Updated:
				printSuccess("Renamed to %s", res.Name)
			default:
				printInfo("Already registered as %s", res.Name)
			}
			printDetail("Path: %s", res.Path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "custom environment name")

	return cmd
}
