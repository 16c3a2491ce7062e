package commands

import (
	"fmt"
	"os"

	"webcat-submit/internal/render"
	"webcat-submit/internal/scrapers/webcat"

	"github.com/spf13/cobra"
)

var (
	resultsHtml string
	resultsWait bool
)

func init() {
	resultsCmd.Flags().StringVar(&resultsHtml, "html", "", "also write the html report to this file")
	resultsCmd.Flags().BoolVar(&resultsWait, "wait", true, "poll while the submission is queued for grading")
	rootCmd.AddCommand(resultsCmd)
}

var resultsCmd = &cobra.Command{
	Use:   "results <url>",
	Short: "Shows the results page of an earlier submission.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env := getEnv(ctx)
		resultsUrl := args[0]

		client, err := env.Client()
		if err != nil {
			return err
		}
		body, err := client.Get(ctx, resultsUrl)
		if err != nil {
			return err
		}
		if resultsWait && webcat.IsQueued(body) {
			body, err = webcat.PollUntilDone(ctx, resultsUrl, body, client, env.Time.Sleep)
			if err != nil {
				return err
			}
		}

		record := webcat.ExtractResult(body)
		view := render.View{
			ResultsUrl: resultsUrl,
			Queued:     webcat.IsQueued(body),
		}
		render.Terminal(os.Stdout, record, view)
		return writeHtml(resultsHtml, record, view)
	},
}

func writeHtml(path string, record *webcat.ResultRecord, view render.View) error {
	if path == "" {
		return nil
	}
	page, err := render.HTML(record, view)
	if err != nil {
		return err
	}
	err = os.WriteFile(path, []byte(page), 0644)
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
