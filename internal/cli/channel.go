package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/tarmac-project/jstore/channel"
	"github.com/tarmac-project/jstore/kv/sqlite"
)

// NewFireCommand creates the fire command.
func NewFireCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "fire <command>",
		Short: "Broadcast a command to every watcher of the store",
		Long: `Broadcast a command name to every other process watching the same store.
The firing process never receives its own command.

Example:
  jstore fire reload`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(opts, cmd, func(e *env) error {
				return e.channel.FireCommand(args[0])
			})
		},
	}
}

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	Interval time.Duration
	Count    int
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch <command>...",
		Short: "Print commands fired by other processes",
		Long: `Watch the store for the named commands and print one line per command
received. Runs until interrupted, or until --count commands were received.

Example:
  jstore watch reload logout`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(opts, cmd, args)
		},
	}

	cmd.Flags().DurationVar(&opts.Interval, "interval", 100*time.Millisecond, "how often to poll the store for changes")
	cmd.Flags().IntVar(&opts.Count, "count", 0, "exit after this many commands (0 means never)")

	return cmd
}

func runWatch(opts *WatchOptions, cmd *cobra.Command, commands []string) error {
	if opts.Interval <= 0 {
		return NewExitError(ExitCommandError, "--interval must be positive")
	}

	return withEnv(opts.RootOptions, cmd, func(e *env) error {
		ctx, stop := signal.NotifyContext(contextOrBackground(cmd.Context()), os.Interrupt, syscall.SIGTERM)
		defer stop()

		p := newPrinter(cmd.OutOrStdout(), stdoutFile(cmd), opts.Color)

		var mu sync.Mutex
		received := 0
		for _, name := range commands {
			err := e.channel.Watch(name, func(ev channel.Event) error {
				p.Key(ev.Command, "received")

				mu.Lock()
				defer mu.Unlock()
				received++
				if opts.Count > 0 && received >= opts.Count {
					stop()
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		defer e.channel.Shutdown()

		e.logger.Debug("watching", "commands", commands, "source", e.db.Source())

		followErr := make(chan error, 1)
		go func() {
			err := e.db.Follow(ctx, opts.Interval, func(c sqlite.Change) {
				e.origin.Inject(c.Key, c.OldValue, c.NewValue)
			})
			if err != nil {
				stop()
			}
			followErr <- err
		}()

		if err := e.port.Run(ctx); err != nil {
			return err
		}
		stop()

		if err := <-followErr; err != nil {
			return fmt.Errorf("failed to follow store: %w", err)
		}
		return nil
	})
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
