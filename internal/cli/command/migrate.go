package command

import (
	"fmt"

	"singr-service/internal/repository/postgres"

	"github.com/urfave/cli/v2"
)

// MigrateCommand returns the migrate command.
func MigrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Create or update tables and seed the system roles",
		Flags: []cli.Flag{
			databaseFlag(),
			&cli.BoolFlag{
				Name:  "seed-only",
				Usage: "Only upsert roles, permissions and grants",
			},
		},
		Action: migrate,
	}
}

func migrate(c *cli.Context) error {
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

	if c.Bool("seed-only") {
		if err := postgres.Seed(c.Context, pg.Gorm); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		fmt.Fprintln(c.App.Writer, "Seed complete.")
		return nil
	}

	if err := postgres.Migrate(c.Context, pg.Gorm, log); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "Migration complete.")
	return nil
}
