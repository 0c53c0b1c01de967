package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ChaoPei/flasky/config"
	"github.com/ChaoPei/flasky/pkg/helpers"
)

var (
	cfg    *config.Config
	logger *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "manage",
	Short: "Flasky maintenance commands",
	Long:  `Administrative tasks for a Flasky installation: schema upgrades and development data.`,
	Example: `  # Upgrade the schema, seed roles and backfill self follows
  manage deploy

  # Fill a development database
  manage fake --users 100 --posts 100`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
		cfg = config.Load()
		logger = helpers.NewLogger(cfg.AppName+"-manage", cfg.Env)
		for _, w := range cfg.Warnings {
			logger.Warn(w)
		}
	},
}

func init() {
	rootCmd.AddCommand(deployCmd)
	rootCmd.AddCommand(fakeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
