package command

import (
	"fmt"
	"strings"

	"singr-service/internal/domain/auth"
	"singr-service/internal/domain/constants"
	"singr-service/internal/pkg/validation"
	"singr-service/internal/repository/postgres"
	authUsecase "singr-service/internal/service/auth"

	"github.com/urfave/cli/v2"
)

// UserCommand returns the user subcommand group.
func UserCommand() *cli.Command {
	return &cli.Command{
		Name:  "user",
		Usage: "Manage user accounts",
		Subcommands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create a user with one or more roles",
				Flags: []cli.Flag{
					databaseFlag(),
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Login email", Required: true},
					&cli.StringFlag{
						Name:     "password",
						Aliases:  []string{"p"},
						Usage:    "Initial password (at least 8 characters)",
						EnvVars:  []string{"SINGR_USER_PASSWORD"},
						Required: true,
					},
					&cli.StringFlag{Name: "display-name", Aliases: []string{"n"}, Usage: "Display name"},
					&cli.StringSliceFlag{
						Name:    "role",
						Aliases: []string{"r"},
						Usage:   "Role slug, repeatable",
						Value:   cli.NewStringSlice(constants.RoleSinger),
					},
				},
				Action: userCreate,
			},
		},
	}
}

func userCreate(c *cli.Context) error {
	req := &auth.CreateUserRequest{
		Email:       strings.TrimSpace(c.String("email")),
		Password:    c.String("password"),
		DisplayName: c.String("display-name"),
		Roles:       c.StringSlice("role"),
	}
	if err := validation.New().Struct(req); err != nil {
		msgs := make([]string, 0)
		for _, d := range validation.Details(err) {
			msgs = append(msgs, d.Field+" "+d.Message)
		}
		return fmt.Errorf("invalid user: %s", strings.Join(msgs, "; "))
	}

	log, err := newLogger(c)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	pg, err := connectPostgres(c, log)
	if err != nil {
		return err
	}
	defer pg.Close()

	// account creation needs only the user store
	svc := authUsecase.NewAuthService(postgres.NewAuthRepository(pg.Pool), nil, nil, nil, nil, nil, log)
	user, err := svc.CreateUser(c.Context, req)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "Created user %s (%s) with roles %s\n", user.ID, user.Email, strings.Join(req.Roles, ", "))
	return nil
}
