package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"webcat-submit/internal/prompt"
	"webcat-submit/internal/render"
	"webcat-submit/internal/scrapers/webcat"
	"webcat-submit/internal/submission"
	"webcat-submit/pkg/osutil"

	"github.com/spf13/cobra"
)

const (
	report_submit_report = "submit.report"
	report_submit_open   = "submit.open"
)

var (
	submitDirs       []string
	submitOpenReport bool
)

func init() {
	submitCmd.Flags().StringArrayVarP(&submitDirs, "dir", "d", nil, "directory to submit, once per file param of the assignment")
	submitCmd.Flags().BoolVar(&submitOpenReport, "open-report", false, "open the html report in a browser when done")
	rootCmd.AddCommand(submitCmd)
}

// interactive shows a spinner between prompts, the spinner is stopped
// whenever a question is asked so the two do not draw over each other.
type interactive struct {
	out      io.Writer
	prompter prompt.Prompter
	spinner  *submission.Spinner
}

func (i *interactive) Step(message string) {
	if i.spinner == nil {
		i.spinner = submission.NewSpinner(i.out)
	}
	i.spinner.Step(message)
}

func (i *interactive) Ask(ctx context.Context, q prompt.Question) (string, error) {
	i.stop(false)
	return i.prompter.Ask(ctx, q)
}

func (i *interactive) stop(failed bool) {
	if i.spinner == nil {
		return
	}
	i.spinner.Stop(failed)
	i.spinner = nil
}

// submitUrlOf returns the submit url that lists the assignment.
func submitUrlOf(roots []webcat.SubmissionRoot, assignment webcat.Assignment) string {
	for _, root := range roots {
		for _, group := range root.Groups {
			if group.Name != assignment.Group {
				continue
			}
			for _, a := range group.Assignments {
				if a.Name == assignment.Name && a.Transport.Uri == assignment.Transport.Uri {
					return root.Url
				}
			}
		}
	}
	return ""
}

var submitCmd = &cobra.Command{
	Use:   "submit <group> <assignment>",
	Short: "Submits directories to an assignment and waits for the results.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env := getEnv(ctx)

		roots, err := loadTargets(ctx, env)
		if err != nil {
			return err
		}
		assignment, err := webcat.FindAssignment(roots, args[0], args[1])
		if err != nil {
			return err
		}

		client, err := env.Client()
		if err != nil {
			return err
		}
		store, err := env.Store(ctx)
		if err != nil {
			return err
		}

		ui := &interactive{
			out:      os.Stderr,
			prompter: prompt.NewTerminal(os.Stdin, os.Stderr),
		}
		workflow := submission.NewWorkflow(submission.Params{
			Client:    client,
			Prompter:  ui,
			Answers:   store,
			History:   store,
			Time:      env.Time,
			Tel:       env.Tel,
			Notifier:  env.Notifier(),
			Progress:  ui,
			ReportDir: env.Config.ReportDir,
		})

		outcome, err := workflow.Submit(ctx, submission.Request{
			Assignment: assignment,
			SubmitUrl:  submitUrlOf(roots, assignment),
			Dirs:       submitDirs,
		})
		ui.stop(err != nil)

		switch {
		case errors.Is(err, prompt.ErrCanceled):
			fmt.Println("Operation canceled.")
			return nil
		case errors.Is(err, webcat.ErrNoResultsLink):
			render.Terminal(os.Stdout, outcome.Record, outcome.View)
			openReport(env, outcome.ReportPath)
			return err
		case err != nil:
			view := submission.ErrorView(err)
			render.Terminal(os.Stdout, nil, view)
			openReport(env, writeErrorReport(env, view))
			return err
		}

		render.Terminal(os.Stdout, outcome.Record, outcome.View)
		if outcome.ReportPath != "" {
			fmt.Printf("Report written to %s\n", outcome.ReportPath)
		}
		openReport(env, outcome.ReportPath)
		return nil
	},
}

// writeErrorReport renders an error view to last-error.html.
func writeErrorReport(env *Env, view render.View) string {
	if env.Config.ReportDir == "" {
		return ""
	}
	page, err := render.HTML(nil, view)
	if err != nil {
		env.Tel.ReportBroken(report_submit_report, err)
		return ""
	}
	err = os.MkdirAll(env.Config.ReportDir, 0755)
	if err != nil {
		env.Tel.ReportBroken(report_submit_report, err)
		return ""
	}
	path := filepath.Join(env.Config.ReportDir, "last-error.html")
	err = os.WriteFile(path, []byte(page), 0644)
	if err != nil {
		env.Tel.ReportBroken(report_submit_report, err)
		return ""
	}
	return path
}

func openReport(env *Env, path string) {
	if !submitOpenReport || path == "" {
		return
	}
	err := osutil.OpenBrowser(path)
	if err != nil {
		env.Tel.ReportWarning(report_submit_open, err, path)
	}
}
