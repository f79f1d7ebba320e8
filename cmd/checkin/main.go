package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/BrandonDHaskell/checkin/internal/config"
	"github.com/BrandonDHaskell/checkin/internal/platform/logger"
)

func main() {
	args := os.Args
	if len(args) == 1 {
		args = append(args, "--help")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().Run(ctx, args); err != nil {
		l := zerolog.New(os.Stderr).With().Timestamp().Logger()
		l.Fatal().Err(err).Msg("checkin")
	}
}

func newRootCommand() *cli.Command {
	return &cli.Command{
		Name:  "checkin",
		Usage: "NFC employee check-in server and terminal CLI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "dotenv file loaded before reading CHECKIN_* variables"},
		},
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			seedCommand(),
			exportCommand(),
			registerCommand(),
			scanCommand(),
			lookupCommand(),
			eventsCommand(),
		},
	}
}

// loadConfig reads configuration and builds the root logger.
func loadConfig(c *cli.Command) (config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(c.String("env-file"))
	if err != nil {
		return config.Config{}, zerolog.Nop(), err
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Env: cfg.Env})
	return cfg, log, nil
}
