package webcat

import (
	"strings"
	"testing"

	_ "embed"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

//go:embed testdata/complete.html
var completePage string

//go:embed testdata/compile_failure.html
var compileFailurePage string

//go:embed testdata/hints.html
var hintsPage string

//go:embed testdata/missing_method.html
var missingMethodPage string

//go:embed testdata/queued.html
var queuedPage string

func TestExtractResult(t *testing.T) {
	testCases := []struct {
		name     string
		page     string
		expected *ResultRecord
	}{
		{
			name: "complete",
			page: completePage,
			expected: &ResultRecord{
				Title:          "Submission Results",
				AssignmentName: "CS 1114 Project 2: Maze Solver",
				StudentName:    "Ada Lovelace (alovelace)",
				SubmittedAt:    "Sep 12, 2024 10:32 PM",
				TotalScore:     "72.5/100.0",
				ScoreBreakdown: []ScoreItem{
					{Label: "Design/Readability", Score: "20.0/20.0"},
					{Label: "Style/Coding", Score: "17.5/20.0"},
					{Label: "Correctness/Testing", Score: "35.0/60.0"},
				},
				FileDetails: []FileDetail{
					{Filename: "Maze.java", AutoGeneratedCommentCount: "3", AutoGeneratedPointsText: "-2.5"},
					{Filename: "MazeTest.java", AutoGeneratedCommentCount: "0", AutoGeneratedPointsText: "0.0"},
				},
				CoveragePercentText: "58%",
				Downloadables:       []Downloadable{},
				DiagnosticMessages: []string{
					"Maze.solve() does not handle cells on the border correctly",
					"Your tests do not cover every branch",
				},
			},
		},
		{
			name: "compile failure",
			page: compileFailurePage,
			expected: &ResultRecord{
				Title:               "Submission Results",
				AssignmentName:      "Lab 03",
				TotalScore:          "0.0/0.0",
				ScoreBreakdown:      []ScoreItem{},
				FileDetails:         []FileDetail{},
				CoveragePercentText: "0%",
				Downloadables:       []Downloadable{},
				DiagnosticMessages: []string{
					"Your code failed to compile correctly",
					"Check the compiler output below.",
					"Resubmit once it builds.",
					"Compile Error: Lab03.java:12: error: cannot find symbol",
					"Compile Error: Strin name;",
					"Compile Error: symbol: class Strin",
				},
			},
		},
		{
			name: "hints",
			page: hintsPage,
			expected: &ResultRecord{
				ScoreBreakdown:      []ScoreItem{},
				FileDetails:         []FileDetail{},
				CoveragePercentText: "80%",
				Downloadables:       []Downloadable{},
				DiagnosticMessages: []string{
					"Calculator.divide() fails for negative numbers",
					"Calculator.add() overflows",
					"Trailing paragraph after unrelated siblings",
				},
			},
		},
		{
			name: "missing method fallback",
			page: missingMethodPage,
			expected: &ResultRecord{
				ScoreBreakdown:      []ScoreItem{},
				FileDetails:         []FileDetail{},
				CoveragePercentText: "10%",
				Downloadables:       []Downloadable{},
				DiagnosticMessages: []string{
					"Class Stack is missing method push",
					"class   Queue is\n  missing method poll",
				},
			},
		},
		{
			name: "queued",
			page: queuedPage,
			expected: &ResultRecord{
				Title:              "Assignment Queued for Grading",
				ScoreBreakdown:     []ScoreItem{},
				FileDetails:        []FileDetail{},
				Downloadables:      []Downloadable{},
				IsQueued:           true,
				DiagnosticMessages: []string{},
			},
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			record := ExtractResult(test.page)
			diff := cmp.Diff(test.expected, record)
			if diff != "" {
				t.Fatal(diff)
			}
		})
	}
}

func TestExtractResultAbsent(t *testing.T) {
	for _, page := range []string{
		"",
		"plain text that is not a page",
		"\x00\x01\x02",
		"<!-- only a comment -->",
	} {
		require.Nil(t, ExtractResult(page), "%q", page)
	}
}

func TestExtractResultMissingRows(t *testing.T) {
	record := ExtractResult(`<html><body><table>
		<tr><th class="R">Total Score</th><td> </td></tr>
		<tr><th class="R">Name of course</th><td>ignored</td></tr>
		<tr><th class="R">assignment</th><td>ignored</td></tr>
	</table></body></html>`)
	require.NotNil(t, record)

	require.Equal(t, "0.0/0.0", record.TotalScore)
	require.Equal(t, "", record.StudentName)
	require.Equal(t, "", record.AssignmentName)
	require.Equal(t, "", record.SubmittedAt)
	require.Equal(t, "", record.Title)
	require.NotNil(t, record.Downloadables)
	require.Empty(t, record.Downloadables)
}

func TestExtractResultTotalScoreWithoutRow(t *testing.T) {
	record := ExtractResult(`<html><body><p>nothing to see</p></body></html>`)
	require.NotNil(t, record)
	require.Equal(t, "", record.TotalScore)
}

func TestExtractResultDeterministic(t *testing.T) {
	first := ExtractResult(completePage)
	second := ExtractResult(completePage)
	require.Empty(t, cmp.Diff(first, second))
}

func TestExtractResultFirstMatchWins(t *testing.T) {
	page := `<html><body>
		<div class="title"><h1>First</h1></div>
		<div class="title"><h1>Second</h1></div>
		<table>
			<tr><th class="R">Name</th><td>Ada</td></tr>
			<tr><th class="R">Name</th><td>Grace</td></tr>
		</table>
		<div title="Estimate of Problem Coverage"><b>12%</b><b>99%</b></div>
		<div title="Estimate of Problem Coverage, again"><b>50%</b></div>
	</body></html>`

	record := ExtractResult(page)
	require.NotNil(t, record)
	require.Equal(t, "First", record.Title)
	require.Equal(t, "Ada", record.StudentName)
	require.Equal(t, "12%", record.CoveragePercentText)
}

func TestExtractResultQueuedMarkerInRawText(t *testing.T) {
	// the marker is looked up in the raw string, comments count
	page := "<html><body><!-- " + QueuedMarker + " --></body></html>"
	record := ExtractResult(page)
	require.NotNil(t, record)
	require.True(t, record.IsQueued)
	require.False(t, ExtractResult(strings.ReplaceAll(page, QueuedMarker, "Graded")).IsQueued)
}
