package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Discard the stored access token",
	RunE:  runLogout,
}

func runLogout(cmd *cobra.Command, args []string) error {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))

	d, err := buildDeps()
	if err != nil {
		return err
	}
	defer d.db.Close()

	if !d.tokens.IsLoggedIn() {
		fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
		return nil
	}

	d.tokens.Invalidate()
	fmt.Fprintln(cmd.OutOrStdout(), "Logged out. Cached history is kept; run 'pushupd login' to sync again.")
	return nil
}
