package cmd

import (
	"context"

	"github.com/ariebrainware/dentplanner-api/config"
	"github.com/spf13/cobra"
)

var envFile string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "dentplanner",
		Short: "DentPlanner clinic scheduling API",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.SetEnvFile(envFile)
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")

	root.AddCommand(serveCmd(), migrateCmd(), remindCmd())
	return root
}

func Execute() error {
	return newRootCmd().ExecuteContext(context.Background())
}
