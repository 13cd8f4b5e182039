package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"faceauth/pkg/di"
	"faceauth/pkg/logger"
)

// newContainer builds the store-only container; replaced in tests
var newContainer = func() (*di.Container, error) {
	c := di.NewContainer()
	if err := c.InitializeStore(); err != nil {
		return nil, err
	}
	return c, nil
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "faceadmin",
		Short: "Administer the face authentication store",
		Long: `faceadmin runs maintenance tasks against the identity and descriptor
store used by the face login API: schema migration, listing and renaming
identities, and the descriptor integrity audit.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// .env file is optional, don't fail if not found
			_ = godotenv.Load()

			logDir := os.Getenv("LOG_DIR")
			if logDir == "" {
				logDir = "logs"
			}
			if err := logger.Init(logDir, false); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
	}

	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newIdentitiesCmd())
	rootCmd.AddCommand(newAuditCmd())
	return rootCmd
}

func withContainer(run func(c *di.Container) error) error {
	c, err := newContainer()
	if err != nil {
		return err
	}
	defer c.Cleanup()
	return run(c)
}
