package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ganot/livetodo/internal/client"
	"github.com/ganot/livetodo/internal/tui"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newWatchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Open the live, shared view of the list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			// Log lines would corrupt the full-screen view unless asked for.
			logger := opts.logger
			if !opts.verbose {
				logger = slog.New(slog.DiscardHandler)
			}

			socket, err := client.NewSocket(opts.server, client.SocketOptions{Logger: logger})
			if err != nil {
				return fmt.Errorf("open realtime channel: %w", err)
			}
			engine := client.NewEngine(opts.api(), logger)
			presence := client.NewPresence(socket)

			subs := client.SubscriptionGroup{
				engine.Bind(ctx, socket),
				presence.Bind(socket),
			}
			defer subs.Unsubscribe()

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return socket.Run(gctx)
			})
			g.Go(func() error {
				defer cancel()
				return tui.Run(gctx, engine, presence)
			})
			if err := g.Wait(); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}
}
