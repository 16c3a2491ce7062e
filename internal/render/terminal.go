package render

import (
	"fmt"
	"io"

	"webcat-submit/internal/scrapers/webcat"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	t.SetTitle(title)
	return t
}

// Terminal prints a record as a set of tables, record may be nil.
func Terminal(w io.Writer, record *webcat.ResultRecord, view View) {
	fmt.Fprintln(w, "Web-CAT Submission Results")
	if view.ResultsUrl != "" {
		fmt.Fprintf(w, "View in Browser: %s\n", view.ResultsUrl)
	}
	if view.ErrorMessage != "" {
		fmt.Fprintln(w, text.FgRed.Sprint(view.ErrorMessage))
	}
	if view.Queued || (record != nil && record.IsQueued) {
		fmt.Fprintln(w, text.FgYellow.Sprint("Assignment Queued for Grading"))
		fmt.Fprintln(w, "Your submission is currently in the grading queue. Please check back shortly.")
	}

	if record == nil {
		fmt.Fprintln(w, "No summary information available")
		return
	}

	score := record.TotalScore
	if Failed(record) {
		score = text.FgRed.Sprint(score)
	}
	summary := newTable(w, "Summary")
	summary.AppendRows([]table.Row{
		{"Assignment", record.AssignmentName},
		{"Student", record.StudentName},
		{"Submitted", record.SubmittedAt},
		{"Score", score},
		{"Percent", fmt.Sprintf("%.1f%%", ScorePercent(record.TotalScore))},
	})
	if record.CoveragePercentText != "" {
		_, value := SplitCoverage(record.CoveragePercentText)
		summary.AppendRow(table.Row{"Problem coverage", value})
	}
	summary.Render()

	if len(record.DiagnosticMessages) > 0 {
		issues := newTable(w, "Fix These Issues")
		for i, msg := range record.DiagnosticMessages {
			issues.AppendRow(table.Row{i + 1, msg})
		}
		issues.Render()
	}

	if len(record.ScoreBreakdown) > 0 {
		breakdown := newTable(w, "Score Breakdown")
		for _, item := range record.ScoreBreakdown {
			breakdown.AppendRow(table.Row{item.Label, item.Score})
		}
		breakdown.Render()
	}

	if len(record.FileDetails) == 0 {
		fmt.Fprintln(w, "No file details available")
		return
	}
	files := newTable(w, "File Details")
	files.AppendHeader(table.Row{"Filename", "Auto Comments", "Auto Points"})
	for _, f := range record.FileDetails {
		files.AppendRow(table.Row{f.Filename, f.AutoGeneratedCommentCount, f.AutoGeneratedPointsText})
	}
	files.Render()
}
