package main

import (
	"context"

	"github.com/spf13/cobra"
)

var (
	flagLimit int
	flagDaily bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show per-day totals, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *application, uid int64) error {
			list := a.history.List
			if flagDaily {
				list = a.history.Daily
			}
			points, err := list(ctx, uid, flagLimit)
			if err != nil {
				return err
			}
			if flagJSON {
				return printJSON(cmd.OutOrStdout(), points)
			}
			renderHistory(cmd.OutOrStdout(), points)
			return nil
		})
	},
}

func init() {
	historyCmd.Flags().IntVarP(&flagLimit, "limit", "n", 30, "number of days")
	historyCmd.Flags().BoolVar(&flagDaily, "daily", false, "include days without intake, oldest first")
	rootCmd.AddCommand(historyCmd)
}
