package main

import (
	"fmt"
	"os"

	"singr-service/internal/cli/command"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	if err := command.App().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
