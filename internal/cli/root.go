// Package cli holds the todo command tree.
package cli

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/taskdesk/todo-service/internal/pkg/config"
	"github.com/taskdesk/todo-service/pkg/logger"
)

func Execute() error {
	return newRootCmd().Execute()
}

// env is filled in by the root command before any subcommand runs.
type env struct {
	cfg *config.Config
	log zerolog.Logger
}

func newRootCmd() *cobra.Command {
	var envFile string
	e := &env{}

	rootCmd := &cobra.Command{
		Use:           "todo",
		Short:         "Todo service: HTTP API, live notifications and maintenance tasks",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			envLoaded := godotenv.Load(envFile) == nil

			cfg, err := config.Load(cmd.Context())
			if err != nil {
				return err
			}
			e.cfg = cfg
			e.log = logger.Init(logger.Options{
				Level:   cfg.LogLevel,
				Pretty:  cfg.IsDevelopment(),
				Service: "todo",
			})
			if !envLoaded {
				e.log.Debug().Str("file", envFile).Msg("no env file found, reading from environment")
			}
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	rootCmd.AddCommand(
		newVersionCmd(),
		newServeCmd(e),
		newIndexesCmd(e),
	)
	return rootCmd
}

func wrap(step string, err error) error {
	return fmt.Errorf("%s: %w", step, err)
}
