package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/ganot/livetodo/internal/client"
	"github.com/spf13/cobra"
)

const defaultServer = "http://localhost:8080"

// rootOptions carries the persistent flags shared by every subcommand.
type rootOptions struct {
	server  string
	verbose bool
	timeout time.Duration
	logger  *slog.Logger
}

func (o *rootOptions) api() *client.API {
	return client.NewAPI(o.server, &http.Client{Timeout: o.timeout})
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "livetodo",
		Short: "A shared to-do list that stays in sync across every open client",
		Long: `livetodo talks to a livetodo server. Use "watch" for a live view that
shows other users' changes and edits as they happen, or the one-shot commands
to script the list.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if opts.verbose {
				level = slog.LevelDebug
			}
			opts.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
				Level: level,
			}))
			slog.SetDefault(opts.logger)
		},
	}

	root.PersistentFlags().StringVarP(&opts.server, "server", "s", envOr("LIVETODO_SERVER", defaultServer), "Server base URL")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 15*time.Second, "Request timeout")

	root.AddCommand(
		newWatchCmd(opts),
		newAddCmd(opts),
		newListCmd(opts),
		newDoneCmd(opts, true),
		newDoneCmd(opts, false),
		newEditCmd(opts),
		newRemoveCmd(opts),
		newClearCmd(opts),
		newToggleAllCmd(opts),
		newStatsCmd(opts),
	)
	return root
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
