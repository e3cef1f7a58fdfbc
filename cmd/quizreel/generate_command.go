package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"quizreel/internal/questionbank"
	"quizreel/internal/services/generator"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var (
		topic      string
		difficulty int
		count      int
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate new questions with the configured LLM and add them to the bank",
		RunE: func(cmd *cobra.Command, args []string) error {
			if topic == "" {
				return fmt.Errorf("--topic is required")
			}
			if count < 1 {
				return fmt.Errorf("--count must be at least 1")
			}

			store, cfg, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}

			gen, err := generator.New(cfg.Generator, logger)
			if err != nil {
				return err
			}

			questions, err := gen.Generate(cmd.Context(), topic, difficulty, count)
			if err != nil {
				return err
			}

			var added, duplicates, invalid int
			out := cmd.OutOrStdout()
			for _, q := range questions {
				_, err := store.Add(cmd.Context(), q)
				switch {
				case err == nil:
					added++
				case errors.Is(err, questionbank.ErrDuplicate):
					duplicates++
				case errors.Is(err, questionbank.ErrValidation):
					invalid++
					fmt.Fprintf(out, "skipped: %v\n", err)
				default:
					return err
				}
			}

			fmt.Fprintf(out, "Added %d questions for %q (%d duplicates skipped, %d invalid)\n", added, topic, duplicates, invalid)
			return nil
		},
	}

	cmd.Flags().StringVar(&topic, "topic", "", "Topic to generate questions for")
	cmd.Flags().IntVar(&difficulty, "difficulty", 3, "Difficulty from 1 (easy) to 5 (hard)")
	cmd.Flags().IntVar(&count, "count", 10, "Number of questions to request")
	return cmd
}
