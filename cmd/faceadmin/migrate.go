package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"faceauth/pkg/config"
	"faceauth/pkg/di"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Long:  `Enables the pgvector extension and migrates the identities and face_descriptors tables.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(func(c *di.Container) error {
				if c.Config.Store.Driver != config.StoreDriverPostgres {
					return fmt.Errorf("migrate requires STORE_DRIVER=%s, got %q", config.StoreDriverPostgres, c.Config.Store.Driver)
				}
				// The container migrates while connecting
				fmt.Fprintf(cmd.OutOrStdout(), "Database %s migrated\n", c.Config.Database.DBName)
				return nil
			})
		},
	}
}
