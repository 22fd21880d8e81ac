package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"hydration/internal/app"
	"hydration/internal/domain"
)

var (
	flagGoal   int
	flagNotify bool
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change the daily goal and notifications",
	Example: `  hydration settings
  hydration settings --goal 2500 --notify`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *application, uid int64) error {
			var patch app.SettingsPatch
			if cmd.Flags().Changed("goal") {
				patch.DailyGoalML = &flagGoal
			}
			if cmd.Flags().Changed("notify") {
				patch.NotificationsEnabled = &flagNotify
			}

			var (
				st  domain.Settings
				err error
			)
			if patch.DailyGoalML != nil || patch.NotificationsEnabled != nil {
				st, err = a.settings.Update(ctx, uid, patch)
			} else {
				st, err = a.settings.Get(ctx, uid)
			}
			if err != nil {
				return err
			}
			if flagJSON {
				return printJSON(cmd.OutOrStdout(), st)
			}
			notify := "off"
			if st.NotificationsEnabled {
				notify = "on"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Daily goal:    %s\nNotifications: %s\n", styleAmount.Render(ml(st.DailyGoalML)), notify)
			return nil
		})
	},
}

func init() {
	settingsCmd.Flags().IntVar(&flagGoal, "goal", domain.DefaultDailyGoalML, "daily goal in milliliters")
	settingsCmd.Flags().BoolVar(&flagNotify, "notify", false, "enable goal notifications (--notify=false disables)")
	rootCmd.AddCommand(settingsCmd)
}
