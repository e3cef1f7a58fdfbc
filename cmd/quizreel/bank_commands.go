package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"quizreel/internal/questionbank"
)

func newBankCommand(ctx *commandContext) *cobra.Command {
	bankCmd := &cobra.Command{
		Use:   "bank",
		Short: "Question bank utilities",
	}

	bankCmd.AddCommand(newBankStatusCommand(ctx))
	bankCmd.AddCommand(newBankImportCommand(ctx))
	bankCmd.AddCommand(newBankSweepCommand(ctx))

	return bankCmd
}

func newBankStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show pool counts overall and per topic",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cfg, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			usageCap := cfg.Selection.UsageCap
			stats, err := store.PoolStats(cmd.Context(), usageCap)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Total", "Eligible", "Reserved", "Retired"},
				[][]string{{
					strconv.Itoa(stats.Total),
					strconv.Itoa(stats.Eligible),
					strconv.Itoa(stats.Reserved),
					strconv.Itoa(stats.Retired),
				}},
				[]columnAlignment{alignRight, alignRight, alignRight, alignRight},
			))

			topics, err := store.TopicStats(cmd.Context(), usageCap)
			if err != nil {
				return err
			}
			if len(topics) == 0 {
				fmt.Fprintln(out, "Bank is empty. Import questions with `quizreel bank import` or `quizreel generate`.")
				return nil
			}

			rows := make([][]string, 0, len(topics))
			for _, topic := range topics {
				rows = append(rows, []string{
					topic.Topic,
					strconv.Itoa(topic.Total),
					strconv.Itoa(topic.Eligible),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Topic", "Total", "Eligible"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight},
			))
			return nil
		},
	}
}

type importRow struct {
	Topic        string   `json:"topic"`
	Difficulty   int      `json:"difficulty"`
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
	Source       string   `json:"source"`
	Explanation  string   `json:"explanation"`
}

func newBankImportCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.jsonl>",
		Short: "Import questions from a JSON-lines file",
		Long:  "Reads one JSON object per line and inserts each as a question. Duplicates and invalid rows are reported and skipped; the rest still land.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open import file: %w", err)
			}
			defer file.Close()

			var added, duplicates, invalid int
			out := cmd.OutOrStdout()
			scanner := bufio.NewScanner(file)
			scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
			lineNo := 0
			for scanner.Scan() {
				lineNo++
				line := scanner.Bytes()
				if len(line) == 0 {
					continue
				}
				var row importRow
				if err := json.Unmarshal(line, &row); err != nil {
					invalid++
					fmt.Fprintf(out, "line %d: invalid JSON: %v\n", lineNo, err)
					continue
				}
				_, err := store.Add(cmd.Context(), questionbank.Question{
					Topic:        row.Topic,
					Difficulty:   row.Difficulty,
					Text:         row.Text,
					Options:      row.Options,
					CorrectIndex: row.CorrectIndex,
					Source:       row.Source,
					Explanation:  row.Explanation,
				})
				switch {
				case err == nil:
					added++
				case errors.Is(err, questionbank.ErrDuplicate):
					duplicates++
				case errors.Is(err, questionbank.ErrValidation):
					invalid++
					fmt.Fprintf(out, "line %d: %v\n", lineNo, err)
				default:
					return fmt.Errorf("line %d: %w", lineNo, err)
				}
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("read import file: %w", err)
			}

			fmt.Fprintf(out, "Imported %d questions (%d duplicates skipped, %d invalid)\n", added, duplicates, invalid)
			return nil
		},
	}
	return cmd
}

func newBankSweepCommand(ctx *commandContext) *cobra.Command {
	var maxAgeMinutes int

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Release reservations stranded by a crashed run",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cfg, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			minutes := maxAgeMinutes
			if minutes <= 0 {
				minutes = cfg.Selection.ReservationMaxAgeMinutes
			}
			released, err := store.SweepStaleReservations(cmd.Context(), time.Duration(minutes)*time.Minute)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Released %d stale reservations (older than %d minutes)\n", released, minutes)
			return nil
		},
	}

	cmd.Flags().IntVar(&maxAgeMinutes, "max-age", 0, "Age threshold in minutes (defaults to the configured reservation_max_age_minutes)")
	return cmd
}
