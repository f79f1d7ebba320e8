package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/BrandonDHaskell/checkin/internal/grpcapi"
	"github.com/BrandonDHaskell/checkin/internal/httpapi"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP and gRPC servers and the ledger archiver",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "HTTP listen address (overrides CHECKIN_HTTP_ADDR)"},
			&cli.StringFlag{Name: "grpc-addr", Usage: "gRPC listen address (overrides CHECKIN_GRPC_ADDR)"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, log, err := loadConfig(c)
			if err != nil {
				return err
			}
			if v := c.String("addr"); v != "" {
				cfg.HTTPAddr = v
			}
			if v := c.String("grpc-addr"); v != "" {
				cfg.GRPCAddr = v
			}

			a, err := openStores(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			promReg := prometheus.NewRegistry()
			promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			if err := a.wireServices(ctx, promReg); err != nil {
				return err
			}

			if cfg.SeedDev {
				n, err := a.seed(ctx)
				if err != nil {
					return err
				}
				log.Info().Int("inserted", n).Msg("dev employees seeded")
			}

			arch, err := a.archiver(ctx)
			if err != nil {
				return err
			}
			arch.Start(ctx)
			defer arch.Stop()

			srv := httpapi.NewServer(httpapi.Dependencies{
				Logger:  log,
				Addr:    cfg.HTTPAddr,
				Desk:    a.desk,
				Metrics: promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}),
				Health:  a.health,
			})

			// Bind gRPC before the HTTP server starts.
			var lis net.Listener
			if cfg.GRPCAddr != "" {
				lis, err = net.Listen("tcp", cfg.GRPCAddr)
				if err != nil {
					return fmt.Errorf("grpc listen %s: %w", cfg.GRPCAddr, err)
				}
			}

			g, gctx := errgroup.WithContext(ctx)

			g.Go(func() error {
				log.Info().Str("addr", cfg.HTTPAddr).Msg("http listening")
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})

			if lis != nil {
				gs := grpcapi.NewGRPCServer(a.desk, log)
				g.Go(func() error {
					log.Info().Str("addr", cfg.GRPCAddr).Msg("grpc listening")
					return gs.Serve(lis)
				})
				g.Go(func() error {
					<-gctx.Done()
					gs.GracefulStop()
					return nil
				})
			}

			err = g.Wait()
			log.Info().Msg("shutdown complete")
			return err
		},
	}
}
