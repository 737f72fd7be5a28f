package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// kernelsCommand creates the kernels command showing the merged catalog.
func (c *CLI) kernelsCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "kernels",
		Short: "Show the synthesized kernel catalog",
		Long: `Show the merged kernel catalog: kernels synthesized from registered uv and
venv environments plus the delegated conda catalog, deduplicated and ordered.
The kernel of the currently active environment is listed first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := c.newEngine()
			if err != nil {
				return err
			}

			entries, err := engine.GetAllSpecs(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}

			if len(entries) == 0 {
				printInfo("No kernels available")
				printNextStep("Discover environments", "nbkernels scan")
				return nil
			}

			printHeader("%-28s %-6s %s", "KERNEL", "PROV", "DISPLAY NAME")
			for _, e := range entries {
				name := e.Name
				if e.Active {
					name = StyleHighlight.Render(name)
				}
				display := e.DisplayName
				if !e.HasKernelspec {
					display += " " + StyleWarning.Render("(no kernelspec)")
				}
				fmt.Printf("%-28s %-6s %s\n", name, e.Provenance, display)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the catalog as JSON")

	return cmd
}
