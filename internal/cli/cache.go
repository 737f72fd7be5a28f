package cli

import (
	"github.com/spf13/cobra"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the kernel catalog cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cacheTTLCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Invalidate the memoized kernel catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := c.newEngine()
			if err != nil {
				return err
			}

			engine.InvalidateCatalog()
			printSuccess("Catalog cache invalidated; next read synthesizes fresh")
			return nil
		},
	}
}

// cacheTTLCommand creates the "cache ttl" subcommand.
func (c *CLI) cacheTTLCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ttl",
		Short: "Print the catalog cache TTL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			printKeyValue("TTL", cfg.CacheTTL().String())
			return nil
		},
	}
}
