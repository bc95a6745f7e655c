package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/viewfinder/viewfinder/internal/watch"
)

type watchOptions struct {
	debounce   time.Duration
	extensions []string
}

func newWatchCmd(flags *rootFlags) *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Print debounced filesystem events for a directory",
		Long:  `Watch a directory and print each change that survives filtering and debouncing, until interrupted. A summary of the engine's counters is printed on exit.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, flags, args[0], opts)
		},
	}

	cmd.Flags().DurationVar(&opts.debounce, "debounce", watch.DefaultDebounce, "Per-path suppression window")
	cmd.Flags().StringSliceVar(&opts.extensions, "ext", nil, "File extensions to report (default: common image formats)")

	return cmd
}

func runWatch(cmd *cobra.Command, flags *rootFlags, dir string, opts *watchOptions) error {
	log, err := newLogger(flags)
	if err != nil {
		return err
	}

	engine := watch.New(watch.Options{
		Debounce:   opts.debounce,
		Extensions: opts.extensions,
		Logger:     log,
	})

	out := cmd.OutOrStdout()
	sub := engine.AddListener(func(ev watch.Event) error {
		fmt.Fprintln(out, formatWatchEvent(ev))
		return nil
	})
	defer sub.Unsubscribe()

	if err := engine.Start(dir); err != nil {
		return newCommandError("watch", fmt.Sprintf("watching %s", dir), err, "Pass an existing, readable directory.")
	}
	defer engine.Stop()

	fmt.Fprintf(out, "Watching %s (press ctrl-c to stop)\n", engine.Stats().WatchedPath)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	fmt.Fprintln(out)
	return renderWatchSummary(cmd, engine.Stats())
}

// formatWatchEvent renders one event as a log-style line.
func formatWatchEvent(ev watch.Event) string {
	stamp := ev.Time.Format("15:04:05.000")
	if ev.Type == watch.Moved {
		dest := ev.Path
		if dest == "" {
			dest = "(unknown)"
		}
		return fmt.Sprintf("%s  %-8s  %s -> %s", stamp, ev.Type, ev.OldPath, dest)
	}
	return fmt.Sprintf("%s  %-8s  %s", stamp, ev.Type, ev.Path)
}

func renderWatchSummary(cmd *cobra.Command, stats watch.Stats) error {
	writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)

	fmt.Fprintf(writer, "watched\t%s\n", stats.WatchedPath)
	fmt.Fprintf(writer, "duration\t%s\n", time.Since(stats.Since).Round(time.Second))
	fmt.Fprintf(writer, "raw events\t%d\n", stats.RawEvents)
	fmt.Fprintf(writer, "filtered out\t%d\n", stats.FilteredOut)
	fmt.Fprintf(writer, "suppressed\t%d\n", stats.Suppressed)
	fmt.Fprintf(writer, "delivered\t%d\n", stats.Delivered)

	return writer.Flush()
}
