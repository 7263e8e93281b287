package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/gatekeeper/cmd/app/commands"
	"github.com/allisson/gatekeeper/internal/app"
	"github.com/allisson/gatekeeper/internal/config"
)

func getSystemCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "server",
			Usage: "Start the HTTP server",
			Flags: serverFlags(),
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				applyServerFlags(cfg, cmd)
				return commands.RunServer(ctx, cfg, version)
			},
		},
		{
			Name:  "migrate",
			Usage: "Run database migrations for the SQL identity stores",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunMigrations(container.Logger(), cfg.StoreDriver, cfg.DBConnectionString)
			},
		},
	}
}

func serverFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Usage:   "Port to listen on (overrides SERVER_PORT)",
		},
		&cli.StringFlag{
			Name:    "root-path",
			Aliases: []string{"r"},
			Usage:   "Root directory of the file store (overrides STORE_ROOT_PATH)",
		},
		&cli.BoolFlag{
			Name:  "production",
			Usage: "Run in production mode (overrides ENVIRONMENT)",
		},
	}
}

// applyServerFlags overrides environment configuration with explicitly set flags.
func applyServerFlags(cfg *config.Config, cmd *cli.Command) {
	if cmd.IsSet("port") {
		cfg.ServerPort = int(cmd.Int("port"))
	}
	if cmd.IsSet("root-path") {
		cfg.StoreRootPath = cmd.String("root-path")
	}
	if cmd.IsSet("production") {
		cfg.Environment = config.EnvironmentDevelopment
		if cmd.Bool("production") {
			cfg.Environment = config.EnvironmentProduction
		}
	}
}
