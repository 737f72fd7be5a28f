package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// listCommand creates the list command.
func (c *CLI) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered environments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := c.newEngine()
			if err != nil {
				return err
			}

			infos, err := engine.ListEnvironments(cmd.Context())
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				printInfo("No environments registered")
				printNextStep("Discover environments", "nbkernels scan")
				return nil
			}

			printHeader("%-24s %-6s %-6s %-6s %s", "NAME", "PROV", "EXISTS", "KERNEL", "PATH")
			missing := 0
			for _, info := range infos {
				exists, kernel := iconSuccess, iconSuccess
				if !info.Exists {
					exists, kernel = iconError, iconError
					missing++
				} else if !info.HasKernelspec {
					kernel = iconWarning
				}
				fmt.Printf("%-24s %-6s %-6s %-6s %s\n",
					info.Name, info.Provenance, exists, kernel, StyleDim.Render(info.Path))
			}

			if missing > 0 {
				printNewline()
				printWarning("%d environment(s) no longer exist; run a scan to prune them", missing)
			}
			return nil
		},
	}
}
