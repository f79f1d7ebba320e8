package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Create or upgrade the database schema",
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, log, err := loadConfig(c)
			if err != nil {
				return err
			}
			a, err := openStores(ctx, cfg, log)
			if err != nil {
				return err
			}
			a.Close()
			fmt.Printf("schema up to date (%s)\n", cfg.DBDriver)
			return nil
		},
	}
}

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Insert the demo employees",
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, log, err := loadConfig(c)
			if err != nil {
				return err
			}
			a, err := openStores(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.wireServices(ctx, nil); err != nil {
				return err
			}

			n, err := a.seed(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("inserted %d employees\n", n)
			return nil
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Upload ledger events after the last archived sequence",
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, log, err := loadConfig(c)
			if err != nil {
				return err
			}
			if cfg.ArchiveBucket == "" {
				return fmt.Errorf("CHECKIN_ARCHIVE_BUCKET is not set")
			}
			a, err := openStores(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			arch, err := a.archiver(ctx)
			if err != nil {
				return err
			}
			n, err := arch.ExportOnce(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("archived %d events (checkpoint %d)\n", n, arch.Checkpoint())
			return nil
		},
	}
}
