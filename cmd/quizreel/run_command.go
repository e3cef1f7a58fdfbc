package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"quizreel/internal/services/youtube"
	"quizreel/internal/workflow"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var shorts int
	var longforms int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Produce and upload quiz videos",
		Long:  "Reserves question batches, renders them into videos, and uploads the results. A file lock guarantees only one run at a time.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if shorts < 0 || longforms < 0 {
				return errors.New("video counts must not be negative")
			}
			if shorts == 0 && longforms == 0 {
				return errors.New("nothing to do: pass --shorts and/or --longforms")
			}

			store, cfg, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			lock := flock.New(cfg.LockPath())
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire run lock: %w", err)
			}
			if !locked {
				return errors.New("another quizreel run is already in progress")
			}
			defer func() { _ = lock.Unlock() }()

			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}

			uploader, err := youtube.New(cfg.YouTube, store, logger)
			if err != nil {
				return err
			}

			runner := workflow.NewRunner(cfg, store, logger, workflow.WithUploader(uploader))
			plan := runner.Plan(shorts, longforms)

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			summary, err := runner.Run(runCtx, plan)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run finished: %d uploaded, %d failed\n", summary.Uploaded, summary.Failed)
			if summary.QuotaStopped {
				fmt.Fprintln(out, "Stopped early: upload quota exhausted. Remaining videos will go out next run.")
			}
			if summary.Failed > 0 && !summary.QuotaStopped {
				return fmt.Errorf("%d of %d jobs failed", summary.Failed, len(plan))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&shorts, "shorts", 1, "Number of short videos to produce")
	cmd.Flags().IntVar(&longforms, "longforms", 0, "Number of long-form videos to produce")
	return cmd
}
