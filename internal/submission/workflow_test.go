package submission

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"webcat-submit/internal/components/chrono"
	"webcat-submit/internal/components/telemetry"
	"webcat-submit/internal/prompt"
	"webcat-submit/internal/render"
	"webcat-submit/internal/scrapers/webcat"
	"webcat-submit/internal/state"

	"github.com/stretchr/testify/require"
)

const gradedPage = `<html><body>
<div class="title"><h1>Submission Results</h1></div>
<table><tr><th class="R">Assignment</th><td>Project 1</td></tr>
<tr><th class="R">Total Score</th><td>9.0/10.0</td></tr></table>
</body></html>`

const queuedPage = `<html><body><h1>Assignment Queued for Grading</h1></body></html>`

// fakeWebcat serves targets, accepts submissions and grades them after
// queuedFetches result fetches.
type fakeWebcat struct {
	t             testing.TB
	srv           *httptest.Server
	queuedFetches int

	mutex       sync.Mutex
	targetHits  int
	resultHits  int
	fields      map[string]string
	filename    string
	zippedFiles []string
}

func (f *fakeWebcat) targets() string {
	return fmt.Sprintf(`<submission-targets>
	<exclude pattern="*.class"/>
	<assignment-group name="CS 1114">
		<assignment name="Project 1">
			<transport uri="%s/submit">
				<param name="u" value="${user}"/>
				<param name="p" value="${pw}"/>
				<param name="course" value="1114"/>
				<file-param name="file1" value="${user}-p1.zip"/>
			</transport>
		</assignment>
	</assignment-group>
</submission-targets>`, f.srv.URL)
}

func newFakeWebcat(t testing.TB, queuedFetches int) *fakeWebcat {
	f := &fakeWebcat{t: t, queuedFetches: queuedFetches}

	mux := http.NewServeMux()
	mux.HandleFunc("/targets", func(w http.ResponseWriter, r *http.Request) {
		f.mutex.Lock()
		f.targetHits++
		f.mutex.Unlock()
		w.Write([]byte(f.targets()))
	})
	mux.HandleFunc("/submit", func(w http.ResponseWriter, r *http.Request) {
		err := r.ParseMultipartForm(1 << 20)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		file, header, err := r.FormFile("file1")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(file)
		zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		f.mutex.Lock()
		f.fields = map[string]string{}
		for k, v := range r.MultipartForm.Value {
			f.fields[k] = v[0]
		}
		f.filename = header.Filename
		for _, zf := range zr.File {
			f.zippedFiles = append(f.zippedFiles, zf.Name)
		}
		f.mutex.Unlock()

		if r.FormValue("p") != "hunter2" {
			w.Write([]byte("<html><body>Invalid password</body></html>"))
			return
		}
		w.Write([]byte(`<html><body><a href="/results?id=1">View results</a></body></html>`))
	})
	mux.HandleFunc("/results", func(w http.ResponseWriter, r *http.Request) {
		f.mutex.Lock()
		f.resultHits++
		hits := f.resultHits
		f.mutex.Unlock()
		if hits <= f.queuedFetches {
			w.Write([]byte(queuedPage))
			return
		}
		w.Write([]byte(gradedPage))
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

type scriptedPrompter struct {
	answers map[string]string
	asked   []string
}

func (p *scriptedPrompter) Ask(_ context.Context, q prompt.Question) (string, error) {
	p.asked = append(p.asked, q.Label)
	answer, ok := p.answers[q.Label]
	if !ok || answer == "" {
		if q.Default != "" {
			return q.Default, nil
		}
		return "", prompt.ErrCanceled
	}
	return answer, nil
}

type recordingNotifier struct {
	subjects []string
}

func (n *recordingNotifier) Send(_ context.Context, subject string, _ *webcat.ResultRecord, _ render.View) error {
	n.subjects = append(n.subjects, subject)
	return nil
}

type testEnv struct {
	fake     *fakeWebcat
	workflow Workflow
	store    state.Store
	clock    *chrono.Fake
	prompter *scriptedPrompter
	notifier *recordingNotifier
	dir      string
	reports  string
	roots    []webcat.SubmissionRoot
}

func setup(t testing.TB, queuedFetches int, answers map[string]string) testEnv {
	fake := newFakeWebcat(t, queuedFetches)

	db, err := state.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	clock := chrono.NewFake(time.Date(2024, 9, 12, 22, 0, 0, 0, time.UTC))
	tel := &telemetry.Recorder{}
	store, err := state.NewStore(context.Background(), db, clock, tel)
	require.NoError(t, err)

	client, err := webcat.NewClient(webcat.ClientOptions{}, tel)
	require.NoError(t, err)

	dir := t.TempDir()
	for name, contents := range map[string]string{
		"src/Maze.java": "class Maze {}",
		"Maze.class":    "bytecode",
		"notes.gdoc":    "{}",
	} {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	}

	prompter := &scriptedPrompter{answers: answers}
	notifier := &recordingNotifier{}
	reports := filepath.Join(t.TempDir(), "reports")

	workflow := NewWorkflow(Params{
		Client:    client,
		Prompter:  prompter,
		Answers:   store,
		History:   store,
		Time:      clock,
		Tel:       tel,
		Notifier:  notifier,
		ReportDir: reports,
	})

	roots, err := LoadTargets(context.Background(), client, []string{fake.srv.URL + "/targets"})
	require.NoError(t, err)

	return testEnv{
		fake:     fake,
		workflow: workflow,
		store:    store,
		clock:    clock,
		prompter: prompter,
		notifier: notifier,
		dir:      dir,
		reports:  reports,
		roots:    roots,
	}
}

func (e testEnv) request(t testing.TB, dirs ...string) Request {
	assignment, err := webcat.FindAssignment(e.roots, "CS 1114", "Project 1")
	require.NoError(t, err)
	return Request{
		Assignment: assignment,
		SubmitUrl:  e.fake.srv.URL + "/targets",
		Dirs:       dirs,
	}
}

func TestSubmit(t *testing.T) {
	env := setup(t, 2, map[string]string{
		"Web-CAT Username": "alovelace",
		"Web-CAT Password": "hunter2",
	})
	ctx := context.Background()

	outcome, err := env.workflow.Submit(ctx, env.request(t, env.dir))
	require.NoError(t, err)

	require.Equal(t, env.fake.srv.URL+"/results?id=1", outcome.ResultsUrl)
	require.NotNil(t, outcome.Record)
	require.Equal(t, "9.0/10.0", outcome.Record.TotalScore)
	require.False(t, outcome.View.Queued)

	// initial fetch plus two polls
	require.Equal(t, 3, env.fake.resultHits)
	// listing plus the refresh before submitting
	require.Equal(t, 2, env.fake.targetHits)

	require.Equal(t, map[string]string{
		"u":      "alovelace",
		"p":      "hunter2",
		"course": "1114",
	}, env.fake.fields)
	require.Equal(t, "alovelace-p1.zip", env.fake.filename)
	require.Equal(t, []string{"src/Maze.java"}, env.fake.zippedFiles)

	// the minimum progress time and two poll delays
	require.Equal(t, []time.Duration{MinProgressDuration, webcat.PollDelay, webcat.PollDelay}, sortedDurations(env.clock.Slept()))

	subs, err := env.store.ListSubmissions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	require.Equal(t, outcome.Submission.Id, subs[0].Id)
	require.Equal(t, "9.0/10.0", subs[0].TotalScore)
	require.False(t, subs[0].Queued)

	user, ok, err := env.store.Get(ctx, "${user}")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "alovelace", user)

	require.Equal(t, filepath.Join(env.reports, outcome.Submission.Id+".html"), outcome.ReportPath)
	report, err := os.ReadFile(outcome.ReportPath)
	require.NoError(t, err)
	require.Contains(t, string(report), "9.0/10.0")

	require.Equal(t, []string{"Web-CAT: Project 1"}, env.notifier.subjects)
}

func sortedDurations(in []time.Duration) []time.Duration {
	out := append([]time.Duration{}, in...)
	for i := range out {
		for j := i + 1; j < len(out); j++ {
			if out[j] > out[i] {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out
}

func TestSubmitPromptsForDirectory(t *testing.T) {
	env := setup(t, 0, map[string]string{
		"Select Folder (file1)": "",
	})

	_, err := env.workflow.Submit(context.Background(), env.request(t))
	require.ErrorIs(t, err, prompt.ErrCanceled)
	require.Equal(t, []string{"Select Folder (file1)"}, env.prompter.asked)
	require.Nil(t, env.fake.fields)
}

func TestSubmitCanceledAtCredentials(t *testing.T) {
	env := setup(t, 0, map[string]string{
		"Web-CAT Username": "alovelace",
	})

	_, err := env.workflow.Submit(context.Background(), env.request(t, env.dir))
	require.ErrorIs(t, err, prompt.ErrCanceled)
	require.Nil(t, env.fake.fields)
}

func TestSubmitWithoutResultsLink(t *testing.T) {
	env := setup(t, 0, map[string]string{
		"Web-CAT Username": "alovelace",
		"Web-CAT Password": "wrong",
	})

	outcome, err := env.workflow.Submit(context.Background(), env.request(t, env.dir))
	require.ErrorIs(t, err, webcat.ErrNoResultsLink)
	require.Equal(t, "Could not find results URL. Check your credentials.", outcome.View.ErrorMessage)
	require.Equal(t, 0, env.fake.resultHits)

	report, err := os.ReadFile(outcome.ReportPath)
	require.NoError(t, err)
	require.Contains(t, string(report), "Could not find results URL. Check your credentials.")
}

func TestSubmitStillQueued(t *testing.T) {
	env := setup(t, 100, map[string]string{
		"Web-CAT Username": "alovelace",
		"Web-CAT Password": "hunter2",
	})

	outcome, err := env.workflow.Submit(context.Background(), env.request(t, env.dir))
	require.NoError(t, err)
	require.True(t, outcome.View.Queued)
	require.Equal(t, 1+webcat.MaxPollAttempts, env.fake.resultHits)
	require.True(t, outcome.Submission.Queued)
}

func TestSubmitRefreshFailure(t *testing.T) {
	env := setup(t, 0, map[string]string{
		"Web-CAT Username": "alovelace",
		"Web-CAT Password": "hunter2",
	})
	req := env.request(t, env.dir)
	req.SubmitUrl = env.fake.srv.URL + "/missing"

	outcome, err := env.workflow.Submit(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "9.0/10.0", outcome.Record.TotalScore)
}

func TestErrorView(t *testing.T) {
	view := ErrorView(fmt.Errorf("dial tcp: connection refused"))
	require.Equal(
		t,
		"Error during submission: dial tcp: connection refused. Please check your connection and credentials.",
		view.ErrorMessage,
	)
	require.True(t, strings.HasPrefix(view.ErrorMessage, "Error during submission: "))
}

func TestLoadTargetsPartialFailure(t *testing.T) {
	fake := newFakeWebcat(t, 0)
	client, err := webcat.NewClient(webcat.ClientOptions{}, &telemetry.Recorder{})
	require.NoError(t, err)

	roots, err := LoadTargets(context.Background(), client, []string{
		fake.srv.URL + "/missing",
		fake.srv.URL + "/targets",
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "/missing")
	require.Len(t, roots, 1)
	require.Equal(t, fake.srv.URL+"/targets", roots[0].Url)
}
