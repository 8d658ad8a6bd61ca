package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/chetana/dailypushup/internal/remote"
)

var syncTimeout time.Duration

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Refresh the local cache from the server once",
	Long:  "Fetches stats and history from the tracking server, replaces the local cache, and exits.",
	RunE:  runSync,
}

func init() {
	syncCmd.Flags().DurationVar(&syncTimeout, "timeout", 30*time.Second,
		"Abort the sync after this long")
}

func runSync(cmd *cobra.Command, args []string) error {
	// One-shot commands keep stdout for their own output.
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))

	d, err := buildDeps()
	if err != nil {
		return err
	}
	defer d.db.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), syncTimeout)
	defer cancel()

	if err := d.engine.Sync(ctx); err != nil {
		if errors.Is(err, remote.ErrUnauthorized) {
			return fmt.Errorf("not logged in; run 'pushupd login' first")
		}
		return err
	}

	stats, err := d.db.GetStats(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Synced. %d total push-ups over %d days, current streak %d.\n",
		stats.TotalPushups, stats.TotalDays, stats.CurrentStreak)
	if stats.TodayValidated {
		fmt.Fprintln(out, "Today is validated.")
	} else {
		fmt.Fprintf(out, "Today's target: %d push-ups, not validated yet.\n", stats.TodayTarget)
	}
	return nil
}
