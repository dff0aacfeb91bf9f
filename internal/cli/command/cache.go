package command

import (
	"fmt"

	"singr-service/internal/pkg/session"
	"singr-service/internal/service/access"

	"github.com/urfave/cli/v2"
)

// PermissionsCommand returns the permissions subcommand group.
func PermissionsCommand() *cli.Command {
	return &cli.Command{
		Name:  "permissions",
		Usage: "Manage the role permission cache",
		Subcommands: []*cli.Command{
			{
				Name:   "invalidate",
				Usage:  "Drop every cached role-to-permission expansion",
				Flags:  []cli.Flag{redisFlag()},
				Action: permissionsInvalidate,
			},
		},
	}
}

// SessionsCommand returns the sessions subcommand group.
func SessionsCommand() *cli.Command {
	return &cli.Command{
		Name:  "sessions",
		Usage: "Manage login sessions",
		Subcommands: []*cli.Command{
			{
				Name:  "revoke",
				Usage: "Delete every session of a user",
				Flags: []cli.Flag{
					redisFlag(),
					&cli.StringFlag{Name: "user", Aliases: []string{"u"}, Usage: "User ID", Required: true},
				},
				Action: sessionsRevoke,
			},
		},
	}
}

func permissionsInvalidate(c *cli.Context) error {
	log, err := newLogger(c)
	if err != nil {
		return err
	}
	client, err := connectRedis(c.Context, c)
	if err != nil {
		return err
	}
	defer client.Close()

	n, err := access.NewResolver(nil, client, log).Invalidate(c.Context)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Removed %d cached permission sets\n", n)
	return nil
}

func sessionsRevoke(c *cli.Context) error {
	log, err := newLogger(c)
	if err != nil {
		return err
	}
	client, err := connectRedis(c.Context, c)
	if err != nil {
		return err
	}
	defer client.Close()

	n, err := session.NewManager(client, nil, log).DeleteAllForUser(c.Context, c.String("user"))
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Revoked %d sessions for user %s\n", n, c.String("user"))
	return nil
}
