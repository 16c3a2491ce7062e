package render

import (
	"bytes"
	"fmt"
	"html/template"
	"regexp"
	"strconv"
	"strings"

	"webcat-submit/internal/scrapers/webcat"

	_ "embed"
)

//go:embed report.html
var reportTemplate string

var report = template.Must(template.New("report").Parse(reportTemplate))

// View holds what a report shows besides the scraped record.
type View struct {
	ResultsUrl   string
	ErrorMessage string
	// Queued shows the grading queue banner.
	Queued bool
}

var leadingNumber = regexp.MustCompile(`^\s*[-+]?(\d+(\.\d*)?|\.\d+)`)

func parseLeadingFloat(s string) (float64, bool) {
	match := leadingNumber.FindString(s)
	if match == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(match), 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// ScorePercent turns a "<value>/<max>" score into a percentage, anything
// that cannot be read (or a max of zero) is 0.
func ScorePercent(total string) float64 {
	parts := strings.Split(total, "/")
	if len(parts) < 2 {
		return 0
	}
	value, ok := parseLeadingFloat(parts[0])
	if !ok {
		return 0
	}
	maxScore, ok := parseLeadingFloat(parts[1])
	if !ok || maxScore == 0 {
		return 0
	}
	return value / maxScore * 100
}

var coverageLabel = regexp.MustCompile(`(?i)^(Problem coverage:)\s+(.+)$`)

// SplitCoverage separates a "Problem coverage:" label from the value that
// follows it. Text without the label is returned as the value.
func SplitCoverage(text string) (prefix, value string) {
	groups := coverageLabel.FindStringSubmatch(text)
	if groups == nil {
		return "", text
	}
	return groups[1], strings.TrimSpace(groups[2])
}

// Failed reports if a record should be styled as a failed submission.
func Failed(record *webcat.ResultRecord) bool {
	return ScorePercent(record.TotalScore) == 0 ||
		strings.Contains(record.CoveragePercentText, "0%")
}

type page struct {
	View   View
	Record *webcat.ResultRecord
	Queued bool

	Percent        string
	Failed         bool
	CoveragePrefix string
	CoverageValue  string
	CoverageFailed bool
}

// HTML renders a full standalone report page, record may be nil.
func HTML(record *webcat.ResultRecord, view View) (string, error) {
	p := page{
		View:   view,
		Record: record,
		Queued: view.Queued || (record != nil && record.IsQueued),
	}
	if record != nil {
		p.Percent = strconv.FormatFloat(ScorePercent(record.TotalScore), 'f', -1, 64)
		p.Failed = Failed(record)
		p.CoveragePrefix, p.CoverageValue = SplitCoverage(record.CoveragePercentText)
		p.CoverageFailed = strings.Contains(p.CoverageValue, "0%") || p.CoverageValue == "unknown"
	}

	var buf bytes.Buffer
	err := report.Execute(&buf, p)
	if err != nil {
		return "", fmt.Errorf("render: %w", err)
	}
	return buf.String(), nil
}
