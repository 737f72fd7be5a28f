package cli

import (
	"github.com/spf13/cobra"
)

// unregisterCommand creates the unregister command.
func (c *CLI) unregisterCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unregister <path-or-name>",
		Short: "Remove an environment from its registry",
		Long: `Remove an environment from whichever registry holds it.

The argument may be the environment's path or its resolved name. Environments
whose directory has been deleted can still be unregistered.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := c.newEngine()
			if err != nil {
				return err
			}

			res, err := engine.Unregister(cmd.Context(), args[0])
			if err != nil {
				printError("Could not unregister %s", args[0])
				return err
			}

			printSuccess("Unregistered %s", res.Path)
			return nil
		},
	}
}
