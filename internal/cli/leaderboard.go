package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"timed-quiz-service/internal/config"
	"timed-quiz-service/internal/report"
	"timed-quiz-service/internal/transport/console"
)

// NewLeaderboardCmd prints the ranked scores or exports them to a workbook.
func NewLeaderboardCmd(configPath *string) *cobra.Command {
	var (
		limit  int
		export string
	)
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show recorded scores, highest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLeaderboard(cmd.Context(), *configPath, limit, export)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "number of entries")
	cmd.Flags().StringVar(&export, "export", "", "write an .xlsx file instead of printing")
	return cmd
}

func runLeaderboard(ctx context.Context, configPath string, limit int, export string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	st, err := buildStack(ctx, cfg, newLogger(cfg, os.Stderr))
	if err != nil {
		return err
	}
	defer st.Close()

	lb, err := st.service.Leaderboard(ctx, limit)
	if err != nil {
		return err
	}
	if export == "" {
		console.NewPresenter(os.Stdout).Leaderboard(lb)
		return nil
	}

	f, err := os.Create(export)
	if err != nil {
		return err
	}
	if err := report.WriteLeaderboard(f, lb); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("wrote %d entries to %s\n", len(lb.Entries), export)
	return nil
}
