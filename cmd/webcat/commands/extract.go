package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"webcat-submit/internal/render"
	"webcat-submit/internal/scrapers/webcat"

	"github.com/spf13/cobra"
)

var (
	extractJson bool
	extractHtml string
)

func init() {
	extractCmd.Flags().BoolVar(&extractJson, "json", false, "print the extracted record as json")
	extractCmd.Flags().StringVar(&extractHtml, "html", "", "also write the html report to this file")
	rootCmd.AddCommand(extractCmd)
}

var extractCmd = &cobra.Command{
	Use:   "extract <file.html>",
	Short: "Extracts the results of a saved Web-CAT results page.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		contents, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		body := string(contents)
		record := webcat.ExtractResult(body)
		view := render.View{Queued: webcat.IsQueued(body)}

		if extractJson {
			serialized, err := json.MarshalIndent(record, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(serialized))
		} else {
			render.Terminal(os.Stdout, record, view)
		}
		return writeHtml(extractHtml, record, view)
	},
}
