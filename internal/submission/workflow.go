package submission

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"webcat-submit/internal/archive"
	"webcat-submit/internal/components/assert"
	"webcat-submit/internal/components/chrono"
	"webcat-submit/internal/components/telemetry"
	"webcat-submit/internal/prompt"
	"webcat-submit/internal/render"
	"webcat-submit/internal/scrapers/webcat"
	"webcat-submit/internal/state"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

var tracer = telemetry.Tracer("webcat-submit.internal.submission")

const (
	report_workflow_refresh = "workflow.refresh"
	report_workflow_report  = "workflow.report"
	report_workflow_history = "workflow.history"
	report_workflow_notify  = "workflow.notify"
	report_workflow_poll    = "workflow.poll"
)

// MinProgressDuration is the shortest time a submission is shown as in
// progress.
const MinProgressDuration = time.Second

const noResultsLinkMessage = "Could not find results URL. Check your credentials."

// Client is the part of webcat.Client the workflow needs.
type Client interface {
	webcat.Fetcher
	Submit(ctx context.Context, transportUri string, fields map[string]string, files []webcat.FilePart) (string, error)
	Targets(ctx context.Context, submitUrl string) (webcat.SubmissionRoot, error)
}

type History interface {
	AddSubmission(ctx context.Context, sub state.Submission) (state.Submission, error)
	UpdateSubmission(ctx context.Context, id, totalScore string, queued bool) error
}

type Notifier interface {
	Send(ctx context.Context, subject string, record *webcat.ResultRecord, view render.View) error
}

// Progress is told about every step of a submission.
type Progress interface {
	Step(message string)
}

type nopProgress struct{}

func (nopProgress) Step(string) {}

type Params struct {
	Client   Client
	Prompter prompt.Prompter
	Answers  prompt.Store
	History  History
	Time     chrono.API
	Tel      telemetry.API
	// Notifier is optional.
	Notifier Notifier
	// Progress is optional.
	Progress Progress
	// ReportDir is where rendered reports are written, empty disables them.
	ReportDir string
}

type Workflow struct {
	client    Client
	prompter  prompt.Prompter
	answers   prompt.Store
	history   History
	time      chrono.API
	tel       telemetry.API
	notifier  Notifier
	progress  Progress
	reportDir string
}

func NewWorkflow(p Params) Workflow {
	assert.NotNil(p.Client)
	assert.NotNil(p.Prompter)
	assert.NotNil(p.Answers)
	assert.NotNil(p.History)
	assert.NotNil(p.Time)
	assert.NotNil(p.Tel)

	progress := p.Progress
	if progress == nil {
		progress = nopProgress{}
	}

	return Workflow{
		client:    p.Client,
		prompter:  p.Prompter,
		answers:   p.Answers,
		history:   p.History,
		time:      p.Time,
		tel:       telemetry.NewScopedAPI("submission", p.Tel),
		notifier:  p.Notifier,
		progress:  progress,
		reportDir: p.ReportDir,
	}
}

type Request struct {
	Assignment webcat.Assignment
	// SubmitUrl is the submit URL the assignment was listed by, it is used
	// to refresh the assignment right before submitting.
	SubmitUrl string
	// Dirs are used in order for the file params of the assignment, missing
	// ones are prompted for.
	Dirs []string
}

type Outcome struct {
	ResultsUrl string
	Body       string
	Record     *webcat.ResultRecord
	View       render.View
	Submission state.Submission
	// ReportPath is the last written report, it is empty when reports are
	// disabled.
	ReportPath string
}

// ErrorView is shown when a submission fails.
func ErrorView(err error) render.View {
	return render.View{
		ErrorMessage: fmt.Sprintf("Error during submission: %s. Please check your connection and credentials.", err.Error()),
	}
}

// Submit runs a submission and shows it as in progress for at least
// MinProgressDuration.
func (w Workflow) Submit(ctx context.Context, req Request) (Outcome, error) {
	var outcome Outcome
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.time.Sleep(gctx, MinProgressDuration)
	})
	g.Go(func() error {
		var err error
		outcome, err = w.submit(gctx, req)
		return err
	})
	err := g.Wait()
	return outcome, err
}

// refresh looks the assignment up again, the original is kept when that
// fails.
func (w Workflow) refresh(ctx context.Context, req Request) webcat.Assignment {
	if req.SubmitUrl == "" {
		return req.Assignment
	}
	root, err := w.client.Targets(ctx, req.SubmitUrl)
	if err != nil {
		w.tel.ReportWarning(report_workflow_refresh, err, req.SubmitUrl)
		return req.Assignment
	}
	for _, g := range root.Groups {
		if g.Name != req.Assignment.Group {
			continue
		}
		for _, a := range g.Assignments {
			if a.Name == req.Assignment.Name {
				return a
			}
		}
	}
	w.tel.ReportWarning(report_workflow_refresh, "assignment no longer listed", req.Assignment.Group, req.Assignment.Name)
	return req.Assignment
}

func (w Workflow) directories(ctx context.Context, assignment webcat.Assignment, given []string) ([]string, error) {
	dirs := make([]string, len(assignment.Transport.FileParams))
	for i, param := range assignment.Transport.FileParams {
		if i < len(given) && given[i] != "" {
			dirs[i] = given[i]
			continue
		}
		dir, err := w.prompter.Ask(ctx, prompt.Question{
			Label: fmt.Sprintf("Select Folder (%s)", param.Name),
		})
		if err != nil {
			return nil, err
		}
		if dir == "" {
			return nil, prompt.ErrCanceled
		}
		dirs[i] = dir
	}
	return dirs, nil
}

func (w Workflow) submit(ctx context.Context, req Request) (Outcome, error) {
	ctx, span := tracer.Start(ctx, "Submit")
	defer span.End()

	fail := func(err error) (Outcome, error) {
		if !errors.Is(err, prompt.ErrCanceled) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return Outcome{}, err
	}

	w.progress.Step("Loading assignment...")
	assignment := w.refresh(ctx, req)
	span.SetAttributes(
		attribute.String("assignment.group", assignment.Group),
		attribute.String("assignment.name", assignment.Name),
	)

	dirs, err := w.directories(ctx, assignment, req.Dirs)
	if err != nil {
		return fail(err)
	}

	session := prompt.NewSession(w.prompter, w.answers)
	fields, err := session.Fields(ctx, assignment.Transport.Params)
	if err != nil {
		return fail(err)
	}

	w.progress.Step("Packing files...")
	files := make([]webcat.FilePart, len(dirs))
	for i, dir := range dirs {
		param := assignment.Transport.FileParams[i]
		var buf bytes.Buffer
		added, err := archive.Zip(&buf, dir, assignment.Excludes)
		if err != nil {
			return fail(err)
		}
		w.tel.ReportDebug("packed directory", dir, len(added))
		files[i] = webcat.FilePart{
			Param:    param.Name,
			Filename: session.Format(param.Value),
			Reader:   &buf,
		}
	}

	w.progress.Step("Uploading...")
	body, err := w.client.Submit(ctx, assignment.Transport.Uri, fields, files)
	if err != nil {
		return fail(err)
	}

	resultsUrl, err := webcat.ResultsLink(assignment.Transport.Uri, body)
	if err != nil {
		outcome := Outcome{
			Body:   body,
			Record: webcat.ExtractResult(body),
			View:   render.View{ErrorMessage: noResultsLinkMessage},
		}
		outcome.ReportPath = w.writeReport("last-error", outcome.Record, outcome.View)
		span.SetStatus(codes.Error, noResultsLinkMessage)
		return outcome, fmt.Errorf("submission: %w", err)
	}

	sub, err := w.history.AddSubmission(ctx, state.Submission{
		Assignment: assignment.Name,
		Group:      assignment.Group,
		ResultsUrl: resultsUrl,
		Queued:     true,
	})
	if err != nil {
		// history is a convenience, a failed insert does not fail the submission
		w.tel.ReportWarning(report_workflow_history, err)
	}
	outcome := Outcome{
		ResultsUrl: resultsUrl,
		Submission: sub,
	}

	reportName := sub.Id
	if reportName == "" {
		reportName = "last"
	}
	view := render.View{ResultsUrl: resultsUrl}
	w.writeReport(reportName, webcat.ExtractResult(body), view)

	w.progress.Step("Fetching results...")
	resultsBody, err := w.client.Get(ctx, resultsUrl)
	if err != nil {
		return fail(err)
	}
	w.writeReport(reportName, webcat.ExtractResult(resultsBody), view)

	if webcat.IsQueued(resultsBody) {
		w.progress.Step("Waiting for grading...")
		resultsBody, err = webcat.PollUntilDone(ctx, resultsUrl, resultsBody, w.client, w.time.Sleep)
		if err != nil {
			return fail(err)
		}
		if webcat.IsQueued(resultsBody) {
			w.tel.ReportWarning(report_workflow_poll, "still queued after polling", resultsUrl)
		}
	}

	outcome.Body = resultsBody
	outcome.Record = webcat.ExtractResult(resultsBody)
	outcome.View = render.View{
		ResultsUrl: resultsUrl,
		Queued:     webcat.IsQueued(resultsBody),
	}
	outcome.ReportPath = w.writeReport(reportName, outcome.Record, outcome.View)

	if sub.Id != "" {
		score := ""
		if outcome.Record != nil {
			score = outcome.Record.TotalScore
		}
		err = w.history.UpdateSubmission(ctx, sub.Id, score, outcome.View.Queued)
		if err != nil {
			w.tel.ReportWarning(report_workflow_history, err)
		}
		outcome.Submission.TotalScore = score
		outcome.Submission.Queued = outcome.View.Queued
	}

	if w.notifier != nil {
		err = w.notifier.Send(ctx, fmt.Sprintf("Web-CAT: %s", assignment.Name), outcome.Record, outcome.View)
		if err != nil {
			w.tel.ReportWarning(report_workflow_notify, err)
		}
	}

	return outcome, nil
}

// writeReport renders a report to <report dir>/<name>.html and returns its
// path, failures are only reported.
func (w Workflow) writeReport(name string, record *webcat.ResultRecord, view render.View) string {
	if w.reportDir == "" {
		return ""
	}
	page, err := render.HTML(record, view)
	if err != nil {
		w.tel.ReportBroken(report_workflow_report, err)
		return ""
	}
	err = os.MkdirAll(w.reportDir, 0755)
	if err != nil {
		w.tel.ReportBroken(report_workflow_report, err, w.reportDir)
		return ""
	}
	path := filepath.Join(w.reportDir, name+".html")
	err = os.WriteFile(path, []byte(page), 0644)
	if err != nil {
		w.tel.ReportBroken(report_workflow_report, err, path)
		return ""
	}
	return path
}
