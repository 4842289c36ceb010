package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/fadilmartias/cv-matcher/internal/bootstrap"
	"github.com/fadilmartias/cv-matcher/internal/model"
	"github.com/fadilmartias/cv-matcher/internal/usecase"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Score pending candidates for one job or for every open job and wait for the result",
	RunE:  runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().String("job", "", "job posting id")
	analyzeCmd.Flags().Bool("all", false, "analyze every open job")
	analyzeCmd.MarkFlagsMutuallyExclusive("job", "all")
	analyzeCmd.MarkFlagsOneRequired("job", "all")
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	all, _ := cmd.Flags().GetBool("all")
	rawJob, _ := cmd.Flags().GetString("job")

	var jobID uuid.UUID
	if !all {
		id, err := uuid.Parse(rawJob)
		if err != nil {
			return fmt.Errorf("invalid --job: %w", err)
		}
		jobID = id
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return withPipeline(ctx, func(c *bootstrap.Container) error {
		var tickets []usecase.RunTicket
		if all {
			ts, err := c.Controller.AnalyzeAll(ctx)
			if err != nil && len(ts) == 0 {
				return err
			}
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "some jobs were not scheduled:", err)
			}
			tickets = ts
		} else {
			t, err := c.Controller.Analyze(ctx, usecase.AnalyzeRequest{JobID: jobID, Mode: model.TriggerExplicit})
			if err != nil {
				return err
			}
			tickets = []usecase.RunTicket{t}
		}
		return waitAll(ctx, c.Controller, tickets, cmd.OutOrStdout())
	})
}

type runWaiter interface {
	Wait(ctx context.Context, t usecase.RunTicket) (usecase.RunSummary, error)
}

// waitAll prints one line per run. Failure details carry only the failure
// kind.
func waitAll(ctx context.Context, w runWaiter, tickets []usecase.RunTicket, out io.Writer) error {
	var failed bool
	for _, t := range tickets {
		s, err := w.Wait(ctx, t)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "job %s: %s scheduled=%d scored=%d failed=%d low_confidence=%d\n",
			s.JobID, s.Status, s.Scheduled, s.Scored, s.Failed, s.LowConfidence)
		for _, f := range s.Failures {
			fmt.Fprintf(out, "  candidate %s: %s %s\n", f.CandidateID, f.Reason, f.Detail)
		}
		if s.Status == model.RunStatusFailed {
			failed = true
		}
	}
	if failed {
		return errors.New("one or more runs failed")
	}
	return nil
}
