package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/michischmidt/crypto-tracker/pkg/api"
)

func newServeCmd(configPath *string) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve cached market data over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			addr := a.cfg.Listen
			if listen != "" {
				addr = listen
			}
			srv := api.New(addr, a.svc, a.log)

			a.log.Info("starting crypto-tracker", "config", *configPath, "store", a.cfg.Store.Backend)
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides config)")
	return cmd
}
