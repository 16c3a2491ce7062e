package commands

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var historyLimit int

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of submissions to show, 0 shows all")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Lists earlier submissions, newest first.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env := getEnv(ctx)
		store, err := env.Store(ctx)
		if err != nil {
			return err
		}
		submissions, err := store.ListSubmissions(ctx, historyLimit)
		if err != nil {
			return err
		}

		t := newTable(os.Stdout)
		t.AppendHeader(table.Row{"Id", "Submitted", "Group", "Assignment", "Score", "Results"})
		for _, s := range submissions {
			score := s.TotalScore
			if s.Queued {
				score = "queued"
			}
			t.AppendRow(table.Row{
				s.Id,
				s.CreatedAt.In(env.Time.Location()).Format("2006-01-02 15:04"),
				s.Group,
				s.Assignment,
				score,
				s.ResultsUrl,
			})
		}
		t.Render()
		return nil
	},
}
