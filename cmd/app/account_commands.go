package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/gatekeeper/cmd/app/commands"
	"github.com/allisson/gatekeeper/internal/app"
	"github.com/allisson/gatekeeper/internal/config"
)

func getAccountCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-user",
			Usage: "Create an account, optionally with the admin role",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "username",
					Aliases:  []string{"u"},
					Required: true,
					Usage:    "Unique login name",
				},
				&cli.StringFlag{
					Name:  "password",
					Usage: "Account password (omit to read it from stdin)",
				},
				&cli.BoolFlag{
					Name:    "admin",
					Aliases: []string{"a"},
					Value:   false,
					Usage:   "Grant the admin role",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				userUseCase, err := container.UserUseCase()
				if err != nil {
					return err
				}

				return commands.RunCreateUser(
					ctx,
					userUseCase,
					container.Logger(),
					cmd.String("username"),
					cmd.String("password"),
					cmd.Bool("admin"),
					cmd.String("format"),
					commands.DefaultIO(),
				)
			},
		},
		{
			Name:  "hash-password",
			Usage: "Print the credential binding JSON for a password",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "password",
					Usage: "Password to hash (omit to read it from stdin)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				hasher, err := container.Hasher()
				if err != nil {
					return err
				}

				return commands.RunHashPassword(hasher, container.Logger(), cmd.String("password"), commands.DefaultIO())
			},
		},
	}
}
