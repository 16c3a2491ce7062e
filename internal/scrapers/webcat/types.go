package webcat

import (
	"errors"
	"strings"
)

// QueuedMarker is the phrase Web-CAT shows while a submission waits for a
// grader.
const QueuedMarker = "Assignment Queued for Grading"

var (
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrNoResultsLink      = errors.New("could not find results URL")
)

// ResultRecord is everything scraped off of a results page. Fields whose
// section is missing from the page keep their zero value.
type ResultRecord struct {
	Title               string         `json:"title"`
	AssignmentName      string         `json:"assignment"`
	StudentName         string         `json:"student"`
	SubmittedAt         string         `json:"submitted"`
	TotalScore          string         `json:"total_score"`
	ScoreBreakdown      []ScoreItem    `json:"score_breakdown"`
	FileDetails         []FileDetail   `json:"file_details"`
	CoveragePercentText string         `json:"coverage"`
	Downloadables       []Downloadable `json:"downloadables"`
	IsQueued            bool           `json:"queued"`
	DiagnosticMessages  []string       `json:"messages"`
}

type ScoreItem struct {
	Label string `json:"label"`
	Score string `json:"score"`
}

type FileDetail struct {
	Filename string `json:"filename"`
	// AutoGeneratedCommentCount is kept as text, it is shown as is.
	AutoGeneratedCommentCount string `json:"auto_comments"`
	AutoGeneratedPointsText   string `json:"auto_points"`
}

type Downloadable struct {
	Filename    string `json:"filename"`
	Description string `json:"description"`
}

// IsQueued reports if a raw results page says the submission is still in the
// grading queue.
func IsQueued(body string) bool {
	return strings.Contains(body, QueuedMarker)
}

type SubmissionRoot struct {
	// Url is the submit URL the targets were fetched from.
	Url      string
	Excludes []string
	Groups   []AssignmentGroup
}

type AssignmentGroup struct {
	Name        string
	Assignments []Assignment
}

type Assignment struct {
	Name  string
	Group string
	// Excludes holds the excludes of the submission root followed by the
	// assignment's own.
	Excludes  []string
	Transport Transport
}

type Transport struct {
	Uri        string
	Params     []TransportParam
	FileParams []TransportParam
}

type TransportParam struct {
	Name  string
	Value string
}
