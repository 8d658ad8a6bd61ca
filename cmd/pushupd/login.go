package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/chetana/dailypushup/internal/token"
)

var (
	loginToken string
	loginEmail string
	loginName  string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store an access token for the tracking server",
	Long: "Stores a server-issued access token locally. Pass it with --token, " +
		"or pipe it on stdin. Tokens are written with owner-only permissions.",
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().StringVar(&loginToken, "token", "", "Access token issued by the server")
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email, shown in status output")
	loginCmd.Flags().StringVar(&loginName, "name", "", "Display name")
}

func runLogin(cmd *cobra.Command, args []string) error {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))

	raw := loginToken
	if raw == "" {
		// Reading from stdin keeps the token out of shell history.
		scanner := bufio.NewScanner(os.Stdin)
		if scanner.Scan() {
			raw = strings.TrimSpace(scanner.Text())
		}
	}
	if raw == "" {
		return fmt.Errorf("no token provided; use --token or pipe it on stdin")
	}

	d, err := buildDeps()
	if err != nil {
		return err
	}
	defer d.db.Close()

	if err := d.tokens.Save(raw, loginEmail, loginName); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Logged in.")
	if exp, err := token.Expiry(raw); err == nil {
		fmt.Fprintf(out, "Token expires %s.\n", exp.Local().Format("2006-01-02 15:04"))
		if time.Until(exp) < 24*time.Hour {
			fmt.Fprintln(out, "Warning: token expires within a day.")
		}
	}
	return nil
}
