package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"school-competition-service/internal/app"
	"school-competition-service/internal/config"
	"school-competition-service/internal/domain"
	"school-competition-service/internal/infra/memory"

	"github.com/spf13/cobra"
)

// NewLeaderboardCmd prints a ranking straight from the data store.
func NewLeaderboardCmd(configPath *string) *cobra.Command {
	var (
		competitionID string
		schoolID      string
		mode          string
		limit         int
	)
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Print the leaderboard of a competition or school",
		RunE: func(cmd *cobra.Command, args []string) error {
			if competitionID == "" && schoolID == "" {
				return fmt.Errorf("either --competition or --school is required")
			}
			parsed, err := domain.ParseLeaderboardMode(mode)
			if err != nil {
				return err
			}
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			query := app.LeaderboardQuery{CompetitionID: competitionID, SchoolID: schoolID, Mode: parsed, Limit: limit}
			return printLeaderboard(cmd.Context(), cmd.OutOrStdout(), cfg, query)
		},
	}
	cmd.Flags().StringVar(&competitionID, "competition", "", "competition id")
	cmd.Flags().StringVar(&schoolID, "school", "", "school id")
	cmd.Flags().StringVar(&mode, "mode", "best", "best or cumulative")
	cmd.Flags().IntVar(&limit, "limit", 10, "number of entries, negative for all")
	return cmd
}

func printLeaderboard(ctx context.Context, out io.Writer, cfg config.Config, query app.LeaderboardQuery) error {
	store, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	service := app.NewQuizService(memory.NewSessionStore(), store.questions, store.competitions, store.attempts)
	lb, err := service.Leaderboard(ctx, query)
	if err != nil {
		return err
	}
	return writeLeaderboard(out, lb)
}

func writeLeaderboard(out io.Writer, lb domain.Leaderboard) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s (%s)\n", lb.Scope, lb.Mode)
	fmt.Fprintln(tw, "RANK\tSTUDENT\tSCORE\tTIME\tATTEMPTS\tMEDAL")
	for _, e := range lb.Entries {
		name := e.StudentName
		if name == "" {
			name = e.StudentID
		}
		timeSpent := "-"
		if e.TimeSpent != domain.NoTimeSentinel {
			timeSpent = fmt.Sprintf("%ds", e.TimeSpent)
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%d\t%s\n", e.Rank, name, e.Score, timeSpent, e.Attempts, e.Medal)
	}
	return tw.Flush()
}
