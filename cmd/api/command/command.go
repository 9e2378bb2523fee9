package command

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oficina/chat/internal/bootstrap"
	"github.com/oficina/chat/internal/db"
	"github.com/oficina/chat/internal/pkg/logger"
	"github.com/oficina/chat/internal/seed"
	"github.com/oficina/chat/internal/server"
)

// Options are the flags shared by every subcommand
type Options struct {
	ConfigPath string
}

func (o *Options) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVarP(&o.ConfigPath, "config", "c", filepath.Join("configs", "config.yaml"), "path to the YAML config file")
}

// NewServeCommand runs the HTTP API until interrupted
func NewServeCommand() *cobra.Command {
	opts := &Options{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the chat HTTP and websocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := server.NewServer(cmd.Context(), opts.ConfigPath)
			if err != nil {
				logger.Error().Err(err).Msg("Failed to initialize server")
				return err
			}
			if err := srv.Run(); err != nil {
				logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
				return err
			}
			logger.Info().Msg("Application finished gracefully.")
			return nil
		},
	}
	opts.AddFlags(cmd.Flags())
	return cmd
}

// NewMigrateCommand applies pending migrations and exits
func NewMigrateCommand() *cobra.Command {
	opts := &Options{}
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			cfg, lgr, closer, err := bootstrap.LoadConfigAndSetupLogger(opts.ConfigPath)
			if err != nil {
				return err
			}
			defer closer.Close()

			database, err := db.NewPostgresDB(ctx, cfg, lgr)
			if err != nil {
				return err
			}
			defer database.Close()

			_, err = bootstrap.RunMigrations(ctx, cfg, database.Pool, lgr)
			return err
		},
	}
	opts.AddFlags(cmd.Flags())
	return cmd
}

// NewSeedCommand migrates the database and creates the demo workspace
func NewSeedCommand() *cobra.Command {
	opts := &Options{}
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create demo accounts and a demo workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			cfg, lgr, closer, err := bootstrap.LoadConfigAndSetupLogger(opts.ConfigPath)
			if err != nil {
				return err
			}
			defer closer.Close()

			pool, err := bootstrap.SetupDatabase(ctx, cfg, lgr)
			if err != nil {
				return err
			}
			defer pool.Close()

			deps, err := bootstrap.BuildDependencies(ctx, cfg, pool, lgr)
			if err != nil {
				return err
			}
			defer deps.Close()

			return seed.CreateDemoData(ctx, seed.Services{
				Auth:      deps.AuthService,
				Workspace: deps.WorkspaceService,
				Chat:      deps.ChatService,
			}, logger.Component("seed"))
		},
	}
	opts.AddFlags(cmd.Flags())
	return cmd
}
