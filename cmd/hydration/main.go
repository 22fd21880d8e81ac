// Command hydration runs the water intake API and offers CLI shortcuts for
// logging and reviewing intake.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/user"

	"github.com/spf13/cobra"

	"hydration/internal/config"
)

var (
	flagUser string
	flagDay  string
	flagJSON bool
)

var rootCmd = &cobra.Command{
	Use:           "hydration",
	Short:         "Track daily water intake",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagUser, "user", defaultUser(), "user the CLI acts as")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "print JSON instead of styled text")
}

func defaultUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "local"
}

// addDayFlag registers --day on commands that act on a single day.
func addDayFlag(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&flagDay, "day", "d", "", `day to act on: YYYY-MM-DD or natural language ("yesterday", "3 days ago")`)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, styleError.Render("error: "+err.Error()))
		os.Exit(1)
	}
}

// errNoDatabase is returned by CLI commands run without a remote store. Each
// invocation is its own process, so an in-memory store would start empty.
var errNoDatabase = errors.New("DATABASE_URL is required for CLI commands")

// withApp builds the application for a CLI command and resolves the acting user.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *application, userID int64) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return errNoDatabase
	}
	ctx := cmd.Context()
	a, err := newApplication(ctx, cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	u, err := a.auth.ValidateForwardAuth(ctx, flagUser)
	if err != nil {
		return fmt.Errorf("resolve user %q: %w", flagUser, err)
	}
	return fn(ctx, a, u.ID)
}
