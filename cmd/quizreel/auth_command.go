package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"quizreel/internal/services/youtube"
)

func newAuthCommand(ctx *commandContext) *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage YouTube credentials",
	}

	authCmd.AddCommand(&cobra.Command{
		Use:   "set-refresh-token <token>",
		Short: "Store the OAuth refresh token used for uploads",
		Long:  "Stores the refresh token in the database. Obtain one by completing the OAuth consent flow for your Google Cloud project with the youtube.upload scope.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := youtube.SaveRefreshToken(cmd.Context(), store, args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Refresh token saved.")
			return nil
		},
	})

	authCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show whether upload credentials are configured",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cfg, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if cfg.YouTube.ClientID == "" || cfg.YouTube.ClientSecret == "" {
				fmt.Fprintln(out, "Client credentials: missing (set youtube.client_id and youtube.client_secret in the config)")
			} else {
				fmt.Fprintln(out, "Client credentials: configured")
			}

			_, ok, err := store.Setting(cmd.Context(), youtube.SettingRefreshToken)
			if err != nil {
				return err
			}
			if ok {
				fmt.Fprintln(out, "Refresh token: stored")
			} else {
				fmt.Fprintln(out, "Refresh token: missing (run `quizreel auth set-refresh-token`)")
			}
			return nil
		},
	})

	return authCmd
}
