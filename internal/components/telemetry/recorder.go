package telemetry

import (
	"strings"
	"sync"
)

type Report struct {
	Kind   string
	Id     string
	Params []any
}

// Recorder is an API that keeps every report in memory, it is meant for tests
// that need to assert something was (or was not) reported.
type Recorder struct {
	mutex   sync.Mutex
	reports []Report
}

func (r *Recorder) add(kind, id string, params []any) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.reports = append(r.reports, Report{Kind: kind, Id: id, Params: params})
}

func (r *Recorder) ReportBroken(id string, params ...any) {
	r.add("broken", id, params)
}

func (r *Recorder) ReportWarning(id string, params ...any) {
	r.add("warning", id, params)
}

func (r *Recorder) ReportDebug(msg string, params ...any) {
	r.add("debug", msg, params)
}

func (r *Recorder) ReportCount(id string, count int64) {
	r.add("count", id, []any{count})
}

// Reports returns a copy of the reports of the given kind ("broken", "warning",
// "debug", "count") whose id contains idSubstr.
func (r *Recorder) Reports(kind, idSubstr string) []Report {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var out []Report
	for _, report := range r.reports {
		if report.Kind == kind && strings.Contains(report.Id, idSubstr) {
			out = append(out, report)
		}
	}
	return out
}
