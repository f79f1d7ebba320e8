package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/BrandonDHaskell/checkin/internal/checkin/types"
	"github.com/BrandonDHaskell/checkin/internal/grpcapi"
)

// Terminal commands talk to a running server over gRPC, the way a reader
// at the door would.

var serverFlag = &cli.StringFlag{
	Name:    "server",
	Value:   "localhost:9090",
	Usage:   "gRPC address of the check-in server",
	Sources: cli.EnvVars("CHECKIN_SERVER"),
}

func dial(c *cli.Command) (*grpcapi.Client, func(), error) {
	conn, err := grpc.NewClient(c.String("server"), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, err
	}
	return grpcapi.NewClient(conn), func() { _ = conn.Close() }, nil
}

// rawIdentifier accepts "04:a2:1f:9c" as text or "4,162,31,156" as bytes.
func rawIdentifier(s string) any {
	if !strings.Contains(s, ",") {
		return s
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return s
		}
		out = append(out, n)
	}
	return out
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func registerCommand() *cli.Command {
	return &cli.Command{
		Name:      "register",
		Usage:     "Register a card for an employee",
		ArgsUsage: "<identifier>",
		Flags: []cli.Flag{
			serverFlag,
			&cli.StringFlag{Name: "name", Required: true},
			&cli.StringFlag{Name: "role", Required: true},
			&cli.BoolFlag{Name: "allow-synthetic", Usage: "accept a generated TEMP identifier when the tag is unreadable"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			client, closeFn, err := dial(c)
			if err != nil {
				return err
			}
			defer closeFn()

			resp, err := client.Register(ctx, types.RegistrationRequest{
				Identifier:     rawIdentifier(c.Args().First()),
				Name:           c.String("name"),
				Role:           c.String("role"),
				AllowSynthetic: c.Bool("allow-synthetic"),
			})
			if err != nil {
				return err
			}
			return printJSON(resp)
		},
	}
}

func scanCommand() *cli.Command {
	return &cli.Command{
		Name:      "scan",
		Usage:     "Record an access attempt for a card",
		ArgsUsage: "<identifier>",
		Flags: []cli.Flag{
			serverFlag,
			&cli.StringFlag{Name: "direction", Value: "entry", Usage: "entry or exit"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			client, closeFn, err := dial(c)
			if err != nil {
				return err
			}
			defer closeFn()

			ev, err := client.RecordAttempt(ctx, types.ScanRequest{
				Identifier: rawIdentifier(c.Args().First()),
				Direction:  c.String("direction"),
			})
			if err != nil {
				return err
			}
			if err := printJSON(ev); err != nil {
				return err
			}
			if !ev.Granted() {
				return cli.Exit(fmt.Sprintf("access %s", ev.EventType), 2)
			}
			return nil
		},
	}
}

func lookupCommand() *cli.Command {
	return &cli.Command{
		Name:      "lookup",
		Usage:     "Show the employee registered for a card",
		ArgsUsage: "<identifier>",
		Flags:     []cli.Flag{serverFlag},
		Action: func(ctx context.Context, c *cli.Command) error {
			client, closeFn, err := dial(c)
			if err != nil {
				return err
			}
			defer closeFn()

			rec, err := client.Lookup(ctx, rawIdentifier(c.Args().First()))
			if err != nil {
				return err
			}
			return printJSON(rec)
		},
	}
}

func eventsCommand() *cli.Command {
	return &cli.Command{
		Name:  "events",
		Usage: "List ledger events in sequence order",
		Flags: []cli.Flag{
			serverFlag,
			&cli.Int64Flag{Name: "after", Usage: "only events with a greater sequence"},
			&cli.StringFlag{Name: "identifier", Usage: "filter by card identifier"},
			&cli.IntFlag{Name: "limit", Value: 100},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			client, closeFn, err := dial(c)
			if err != nil {
				return err
			}
			defer closeFn()

			events, err := client.ListEvents(ctx, grpcapi.EventsRequest{
				After:      c.Int64("after"),
				Identifier: c.String("identifier"),
				Limit:      c.Int("limit"),
			})
			if err != nil {
				return err
			}
			return printJSON(types.EventsResponse{Events: events})
		},
	}
}
