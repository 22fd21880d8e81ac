package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add <ml>",
	Short: "Record an intake in milliliters",
	Example: `  hydration add 250
  hydration add 500 --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("amount must be a whole number of milliliters: %q", args[0])
		}
		return withApp(cmd, func(ctx context.Context, a *application, uid int64) error {
			res, err := a.intake.Record(ctx, uid, amount)
			if err != nil {
				return err
			}
			if flagJSON {
				return printJSON(cmd.OutOrStdout(), res)
			}
			renderRecord(cmd.OutOrStdout(), res)
			return nil
		})
	},
}

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show the running total of a day",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *application, uid int64) error {
			day, err := parseDay(flagDay, time.Now(), a.cfg.Location)
			if err != nil {
				return err
			}
			total, err := a.intake.GetTotal(ctx, uid, day)
			if err != nil {
				return err
			}
			if flagJSON {
				return printJSON(cmd.OutOrStdout(), total)
			}
			renderTotal(cmd.OutOrStdout(), total)
			return nil
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "List the entries of a day with running totals",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *application, uid int64) error {
			day, err := parseDay(flagDay, time.Now(), a.cfg.Location)
			if err != nil {
				return err
			}
			stats, err := a.intake.DayStats(ctx, uid, day)
			if err != nil {
				return err
			}
			if flagJSON {
				return printJSON(cmd.OutOrStdout(), stats)
			}
			renderStats(cmd.OutOrStdout(), stats)
			return nil
		})
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every entry of a day",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *application, uid int64) error {
			day, err := parseDay(flagDay, time.Now(), a.cfg.Location)
			if err != nil {
				return err
			}
			day, err = a.intake.Reset(ctx, uid, day)
			if err != nil {
				return err
			}
			if flagJSON {
				return printJSON(cmd.OutOrStdout(), map[string]any{"day": day, "totalMl": 0})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reset %s to %s\n", styleTitle.Render(day), ml(0))
			return nil
		})
	},
}

var undoCmd = &cobra.Command{
	Use:   "undo",
	Short: "Remove the newest entry of a day",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *application, uid int64) error {
			day, err := parseDay(flagDay, time.Now(), a.cfg.Location)
			if err != nil {
				return err
			}
			res, err := a.intake.UndoLast(ctx, uid, day)
			if err != nil {
				return err
			}
			if flagJSON {
				return printJSON(cmd.OutOrStdout(), res)
			}
			if !res.Undone {
				fmt.Fprintln(cmd.OutOrStdout(), styleMuted.Render("Nothing to undo"))
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s, %s now at %s\n",
				ml(res.Entry.AmountML), res.Day, styleAmount.Render(ml(res.TotalML)))
			return nil
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{todayCmd, statsCmd, resetCmd, undoCmd} {
		addDayFlag(c)
	}
	rootCmd.AddCommand(addCmd, todayCmd, statsCmd, resetCmd, undoCmd)
}
