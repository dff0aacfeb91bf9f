package command

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"singr-service/internal/pkg/jwt"

	"github.com/urfave/cli/v2"
)

// KeysCommand returns the keys subcommand group.
func KeysCommand() *cli.Command {
	return &cli.Command{
		Name:  "keys",
		Usage: "Manage JWT signing keys",
		Subcommands: []*cli.Command{
			{
				Name:  "generate",
				Usage: "Generate an ES256 (P-256) key pair as PEM files",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Usage:   "Output directory",
						Value:   ".",
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite existing key files",
					},
				},
				Action: keysGenerate,
			},
		},
	}
}

const (
	privateKeyFile = "jwt_private.pem"
	publicKeyFile  = "jwt_public.pem"
)

func keysGenerate(c *cli.Context) error {
	dir := c.String("out")
	privPath := filepath.Join(dir, privateKeyFile)
	pubPath := filepath.Join(dir, publicKeyFile)

	if !c.Bool("force") {
		for _, p := range []string{privPath, pubPath} {
			if _, err := os.Stat(p); err == nil {
				return fmt.Errorf("%s already exists (use --force to overwrite)", p)
			} else if !errors.Is(err, fs.ErrNotExist) {
				return err
			}
		}
	}

	privPEM, pubPEM, err := jwt.GenerateKeyPair()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	if err := os.WriteFile(privPath, privPEM, 0o600); err != nil {
		return fmt.Errorf("write private key: %w", err)
	}
	if err := os.WriteFile(pubPath, pubPEM, 0o644); err != nil {
		return fmt.Errorf("write public key: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Private key: %s\nPublic key:  %s\n", privPath, pubPath)
	fmt.Fprintf(c.App.Writer, "\nSet JWT_PRIVATE_KEY=%s and JWT_PUBLIC_KEY=%s\n", privPath, pubPath)
	return nil
}
