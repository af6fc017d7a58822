package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/nixixoo/Notex/internal/buildinfo"
	"github.com/nixixoo/Notex/internal/client/cli"
	"github.com/nixixoo/Notex/internal/client/config"
	"github.com/nixixoo/Notex/internal/logging"
)

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	// A missing .env file is fine; the config layer falls back to
	// defaults, the JSON file and flags.
	_ = godotenv.Load()

	zl := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	logger := logging.NewZerologLogger(zl)

	ctx := context.Background()
	cfg := config.LoadConfig()

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}
}
