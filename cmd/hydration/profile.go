package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show the local profile",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *application, uid int64) error {
			p, err := a.profile.Get(ctx, uid)
			if err != nil {
				return err
			}
			if flagJSON {
				return printJSON(cmd.OutOrStdout(), p)
			}
			name := p.Name
			if name == "" {
				name = styleMuted.Render("(no name)")
			}
			image := "none"
			if p.ImageRef != "" {
				image = "cached"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Name:  %s\nImage: %s\n", name, image)
			return nil
		})
	},
}

var profileNameCmd = &cobra.Command{
	Use:   "set-name <name>",
	Short: "Set the profile name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *application, uid int64) error {
			p, err := a.profile.Save(ctx, uid, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Profile name set to %s\n", styleTitle.Render(p.Name))
			return nil
		})
	},
}

var profileImageCmd = &cobra.Command{
	Use:   "set-image <file>",
	Short: "Cache an image file as the profile picture",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *application, uid int64) error {
			if _, err := a.profile.SetImage(ctx, uid, data); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Profile image updated")
			return nil
		})
	},
}

var profileClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the profile and its image",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *application, uid int64) error {
			if err := a.profile.Clear(ctx, uid); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Profile cleared")
			return nil
		})
	},
}

func init() {
	profileCmd.AddCommand(profileNameCmd, profileImageCmd, profileClearCmd)
	rootCmd.AddCommand(profileCmd)
}
