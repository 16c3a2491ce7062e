package commands

import (
	"errors"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var errNoSubmitUrls = errors.New("no submit_urls configured, add them to webcat.json5")

func init() {
	rootCmd.AddCommand(targetsCmd)
}

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "Lists the assignments that can be submitted to.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env := getEnv(cmd.Context())
		roots, err := loadTargets(cmd.Context(), env)
		if err != nil {
			return err
		}

		t := newTable(os.Stdout)
		t.AppendHeader(table.Row{"Group", "Assignment", "Excludes"})
		for _, root := range roots {
			for _, group := range root.Groups {
				for _, a := range group.Assignments {
					t.AppendRow(table.Row{group.Name, a.Name, strings.Join(a.Excludes, " ")})
				}
			}
		}
		t.SetColumnConfigs([]table.ColumnConfig{
			{Number: 1, AutoMerge: true},
		})
		t.Render()
		return nil
	},
}
