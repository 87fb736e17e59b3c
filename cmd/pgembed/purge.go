package main

import (
	"github.com/spf13/cobra"

	"github.com/pgembed/pgembed"
)

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove every cached binaries version",
	Long: `Remove the per-user binaries cache: every PostgreSQL version and
platform ever downloaded on this host. The next run downloads again.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return pgembed.Purge()
	},
}
