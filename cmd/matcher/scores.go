package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fadilmartias/cv-matcher/internal/bootstrap"
	"github.com/fadilmartias/cv-matcher/internal/dto"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var scoresCmd = &cobra.Command{
	Use:   "scores",
	Short: "List stored scores for a job or a candidate",
	RunE:  runScores,
}

func init() {
	rootCmd.AddCommand(scoresCmd)

	scoresCmd.Flags().String("job", "", "job posting id")
	scoresCmd.Flags().String("candidate", "", "candidate id")
	scoresCmd.Flags().Int("limit", 20, "rows per job listing")
	scoresCmd.MarkFlagsMutuallyExclusive("job", "candidate")
	scoresCmd.MarkFlagsOneRequired("job", "candidate")
}

func runScores(cmd *cobra.Command, _ []string) error {
	rawJob, _ := cmd.Flags().GetString("job")
	rawCandidate, _ := cmd.Flags().GetString("candidate")
	limit, _ := cmd.Flags().GetInt("limit")

	return withPipeline(cmd.Context(), func(c *bootstrap.Container) error {
		if rawJob != "" {
			jobID, err := uuid.Parse(rawJob)
			if err != nil {
				return fmt.Errorf("invalid --job: %w", err)
			}
			scores, total, err := c.Scores.ListByJob(cmd.Context(), jobID, 1, limit)
			if err != nil {
				return err
			}
			printScores(cmd.OutOrStdout(), dto.NewScoreDTOs(scores))
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d\n", len(scores), total)
			return nil
		}

		candidateID, err := uuid.Parse(rawCandidate)
		if err != nil {
			return fmt.Errorf("invalid --candidate: %w", err)
		}
		scores, err := c.Scores.ListByCandidate(cmd.Context(), candidateID)
		if err != nil {
			return err
		}
		printScores(cmd.OutOrStdout(), dto.NewScoreDTOs(scores))
		return nil
	})
}

func printScores(out io.Writer, scores []dto.ScoreDTO) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CANDIDATE\tJOB\tOVERALL\tEXP\tSKILLS\tEDU\tLOC\tVERSION\tLOW_CONF")
	for _, s := range scores {
		name := s.CandidateName
		if name == "" {
			name = s.CandidateID.String()
		}
		title := s.JobTitle
		if title == "" {
			title = s.JobPostingID.String()
		}
		fmt.Fprintf(w, "%s\t%s\t%.1f\t%.0f\t%.0f\t%.0f\t%.0f\t%s\t%t\n",
			name, title, s.OverallScore, s.ExperienceScore, s.SkillsScore,
			s.EducationScore, s.LocationScore, s.ScoringAlgorithmVersion, s.LowConfidence)
	}
	w.Flush()
}
