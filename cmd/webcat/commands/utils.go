package commands

import (
	"context"
	"io"

	"webcat-submit/internal/scrapers/webcat"
	"webcat-submit/internal/submission"

	"github.com/jedib0t/go-pretty/v6/table"
)

const report_targets_load = "targets.load"

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

// loadTargets fails only when no submit url could be loaded.
func loadTargets(ctx context.Context, env *Env) ([]webcat.SubmissionRoot, error) {
	if len(env.Config.SubmitUrls) == 0 {
		return nil, errNoSubmitUrls
	}
	client, err := env.Client()
	if err != nil {
		return nil, err
	}
	roots, err := submission.LoadTargets(ctx, client, env.Config.SubmitUrls)
	if err != nil {
		if len(roots) == 0 {
			return nil, err
		}
		env.Tel.ReportWarning(report_targets_load, err)
	}
	return roots, nil
}
