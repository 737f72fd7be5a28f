package cli

import (
	"github.com/spf13/cobra"

	"github.com/nbkernels/nbkernels/pkg/manager"
)

// scanCommand creates the scan command.
func (c *CLI) scanCommand() *cobra.Command {
	var (
		depth  int
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "scan [path]",
		Short: "Discover environments and reconcile the registries",
		Long: `Walk a directory tree for interpreter environments and reconcile the
registries with what is found: new environments are registered, registered
environments whose directory disappeared are pruned, and stored names are
collision resolved.

With no path the workspace root is scanned. With --dry-run the registries
are left untouched and the report shows what a real run would do.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := c.newEngine()
			if err != nil {
				return err
			}

			root := engine.WorkspaceRoot()
			if len(args) == 1 {
				root = args[0]
			}

			p := newProgress(loggerFromContext(cmd.Context()))
			res, err := engine.Scan(cmd.Context(), root, depth, dryRun)
			if err != nil {
				printError("Scan failed")
				return err
			}
			p.done("Scan complete")

			for _, entry := range res.Entries {
				switch entry.Action {
				case manager.ScanAdd:
					printSuccess("add    %s (%s) %s", entry.Name, entry.Provenance, StyleDim.Render(entry.Path))
				case manager.ScanUpdate:
					printWarning("update %s (%s) %s", entry.Name, entry.Provenance, StyleDim.Render(entry.Path))
				case manager.ScanRemove:
					printError("remove %s (%s) %s", entry.Name, entry.Provenance, StyleDim.Render(entry.Path))
				case manager.ScanKeep:
					printDetail("keep   %s (%s)", entry.Name, entry.Provenance)
				}
			}

			printNewline()
			mode := "applied"
			if res.DryRun {
				mode = "dry run"
			}
			printInfo("%d add, %d update, %d keep, %d remove (%s)",
				res.Summary.Add, res.Summary.Update, res.Summary.Keep, res.Summary.Remove, mode)
			if !res.DryRun && res.Summary.Add > 0 {
				printNextStep("Inspect the kernel catalog", "nbkernels kernels")
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&depth, "depth", "d", 0, "maximum scan depth (0 = config default)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report without touching the registries")

	// Default scan root completion: directories only.
	cmd.ValidArgsFunction = func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return nil, cobra.ShellCompDirectiveFilterDirs
	}

	return cmd
}
