package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newVideosCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "videos",
		Short: "List rendered and uploaded videos",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			videos, err := store.ListVideos(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(videos) == 0 {
				fmt.Fprintln(out, "No videos recorded yet.")
				return nil
			}

			rows := make([][]string, 0, len(videos))
			for _, video := range videos {
				status := "rendered"
				youtubeID := "-"
				if video.UploadedAt != nil {
					status = "uploaded"
					youtubeID = video.YouTubeID
				}
				rows = append(rows, []string{
					strconv.FormatInt(video.ID, 10),
					video.Kind,
					video.Title,
					strconv.Itoa(video.QuestionCount),
					status,
					youtubeID,
					video.CreatedAt.Format("2006-01-02 15:04"),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Kind", "Title", "Questions", "Status", "YouTube ID", "Created"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum rows to show (0 for all)")
	return cmd
}
