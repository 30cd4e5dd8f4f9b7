package cli

import (
	"github.com/spf13/cobra"

	mongodb "github.com/taskdesk/todo-service/internal/infrastructure/db/mongo"
)

func newIndexesCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "indexes",
		Short: "Create the MongoDB indexes and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			client, db, err := mongodb.Connect(ctx, mongoConfig(e.cfg))
			if err != nil {
				return wrap("connect mongo", err)
			}
			defer func() { _ = client.Disconnect(ctx) }()

			if err := mongodb.EnsureIndexes(ctx, db); err != nil {
				return wrap("ensure indexes", err)
			}
			e.log.Info().Str("database", db.Name()).Msg("indexes ensured")
			return nil
		},
	}
}
