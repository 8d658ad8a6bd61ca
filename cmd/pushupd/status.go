package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/chetana/dailypushup/internal/store"
)

var statusJSONOutput bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cached stats without touching the network",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSONOutput, "json", false, "Output in JSON format")
}

func runStatus(cmd *cobra.Command, args []string) error {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))

	d, err := buildDeps()
	if err != nil {
		return err
	}
	defer d.db.Close()

	out := cmd.OutOrStdout()

	stats, err := d.db.GetStats(cmd.Context())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fmt.Fprintln(out, "No data cached yet. Run 'pushupd sync' first.")
			return nil
		}
		return err
	}

	if statusJSONOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Total push-ups:\t%d\n", stats.TotalPushups)
	fmt.Fprintf(w, "Total days:\t%d\n", stats.TotalDays)
	fmt.Fprintf(w, "Current streak:\t%d\n", stats.CurrentStreak)
	fmt.Fprintf(w, "Longest streak:\t%d\n", stats.LongestStreak)
	if stats.TodayValidated {
		fmt.Fprintf(w, "Today:\tvalidated\n")
	} else {
		fmt.Fprintf(w, "Today:\tpending (target %d)\n", stats.TodayTarget)
	}
	fmt.Fprintf(w, "Last synced:\t%s\n", stats.LastSyncedAt.Local().Format("2006-01-02 15:04"))
	switch {
	case !d.tokens.IsLoggedIn():
		fmt.Fprintf(w, "Account:\tnot logged in\n")
	case d.tokens.IsExpiringSoon(credentialWarnWindow):
		fmt.Fprintf(w, "Account:\t%s (token expires soon, re-run 'pushupd login')\n", d.tokens.Email())
	default:
		fmt.Fprintf(w, "Account:\t%s\n", d.tokens.Email())
	}
	return w.Flush()
}
