package main

import (
	"context"
	"fmt"

	"go_gone/internal/bootstrap"
	"go_gone/internal/model"

	"github.com/urfave/cli/v3"
)

var userCmd = &cli.Command{
	Name:  "user",
	Usage: "Manage admin API operators",
	Commands: []*cli.Command{
		{
			Name:  "add",
			Usage: "Create an operator",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "username",
					Aliases:  []string{"u"},
					Required: true,
				},
				&cli.StringFlag{
					Name:     "password",
					Aliases:  []string{"p"},
					Usage:    "Plain password, hashed with bcrypt before storage",
					Sources:  cli.EnvVars("GONE_USER_PASSWORD"),
					Required: true,
				},
				&cli.StringFlag{
					Name:  "role",
					Usage: "admin or viewer",
					Value: model.RoleAdmin,
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withApp(ctx, cmd, func(ctx context.Context, app *bootstrap.App) error {
					u, err := app.Users.Create(ctx, cmd.String("username"), cmd.String("password"), cmd.String("role"))
					if err != nil {
						return err
					}
					fmt.Printf("Created %s user %s (id %d)\n", u.Role, u.Username, u.ID)
					return nil
				})
			},
		},
	},
}
