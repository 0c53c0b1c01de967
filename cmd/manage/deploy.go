package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ChaoPei/flasky/internal/application"
	"github.com/ChaoPei/flasky/internal/container"
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Migrate the database, seed roles and backfill self follows",
	Long: `Bring a database up to date. Safe to run on every release:

  1. Apply pending schema migrations
  2. Create or refresh the User, Moderator and Administrator roles
  3. Make every existing user follow themselves`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, pool, err := container.OpenStore(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		if pool != nil {
			defer pool.Close()
		}
		report, err := application.Deploy(cmd.Context(), store, time.Now().UTC(), logger)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "roles: %d, self follows added: %d\n", len(report.Roles), report.SelfFollowsAdded)
		return nil
	},
}
