package submission

import (
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/progress"
)

// Spinner shows the current step of a submission as an indeterminate
// progress tracker.
type Spinner struct {
	writer  progress.Writer
	tracker *progress.Tracker
}

func NewSpinner(out io.Writer) *Spinner {
	pw := progress.NewWriter()
	pw.SetOutputWriter(out)
	pw.SetAutoStop(false)
	pw.SetUpdateFrequency(100 * time.Millisecond)
	pw.SetStyle(progress.StyleDefault)
	pw.Style().Visibility.ETA = false
	pw.Style().Visibility.Percentage = false
	pw.Style().Visibility.Value = false

	tracker := &progress.Tracker{Message: "Uploading..."}
	pw.AppendTracker(tracker)
	go pw.Render()

	return &Spinner{writer: pw, tracker: tracker}
}

func (s *Spinner) Step(message string) {
	s.tracker.UpdateMessage(message)
}

// Stop marks the tracker as done (or errored) and waits for the last frame.
func (s *Spinner) Stop(failed bool) {
	if failed {
		s.tracker.MarkAsErrored()
	} else {
		s.tracker.MarkAsDone()
	}
	for i := 0; i < 10 && s.writer.IsRenderInProgress() && s.writer.LengthActive() > 0; i++ {
		time.Sleep(50 * time.Millisecond)
	}
	s.writer.Stop()
	for s.writer.IsRenderInProgress() {
		time.Sleep(10 * time.Millisecond)
	}
}
