package main

import (
	"errors"
	"fmt"

	"github.com/fadilmartias/cv-matcher/internal/bootstrap"
	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var errAborted = errors.New("aborted")

var deleteJobCmd = &cobra.Command{
	Use:   "delete-job <id>",
	Short: "Delete a job posting with its scores and run history",
	Args:  cobra.ExactArgs(1),
	RunE:  runDeleteJob,
}

func init() {
	rootCmd.AddCommand(deleteJobCmd)

	deleteJobCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
}

func runDeleteJob(cmd *cobra.Command, args []string) error {
	jobID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid job id: %w", err)
	}
	yes, _ := cmd.Flags().GetBool("yes")

	return withPipeline(cmd.Context(), func(c *bootstrap.Container) error {
		job, err := c.Jobs.Get(cmd.Context(), jobID)
		if err != nil {
			return err
		}

		if !yes {
			prompt := promptui.Select{
				Label: fmt.Sprintf("Delete %q and all of its scores?", job.Title),
				Items: []string{PromptNo, PromptYes},
			}
			_, answer, err := prompt.Run()
			if err != nil {
				return err
			}
			if answer != PromptYes {
				return errAborted
			}
		}

		if err := c.Jobs.Delete(cmd.Context(), jobID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted job %s\n", jobID)
		return nil
	})
}
