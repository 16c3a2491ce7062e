package webcat

import (
	"fmt"
	"log/slog"
	"strings"

	"webcat-submit/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const (
	labelAssignment = "Assignment"
	labelName       = "Name"
	labelSubmitted  = "Submitted"
	labelTotalScore = "Total Score"

	defaultTotalScore   = "0.0/0.0"
	defaultAutoComments = "0"
	defaultAutoPoints   = "0.0"
)

// ExtractResult scrapes a Web-CAT results page. It returns nil when the page
// is empty, has no markup at all or could not be scraped, every section that
// is simply missing leaves its field at the default.
func ExtractResult(rawHtml string) (record *ResultRecord) {
	if !hasMarkup(rawHtml) {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Warn("webcat: extract result", "err", fmt.Sprint(r))
			record = nil
		}
	}()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHtml))
	if err != nil {
		slog.Warn("webcat: parse results page", "err", err)
		return nil
	}

	record = &ResultRecord{
		ScoreBreakdown:     []ScoreItem{},
		FileDetails:        []FileDetail{},
		Downloadables:      []Downloadable{},
		DiagnosticMessages: []string{},
		IsQueued:           IsQueued(rawHtml),
	}

	record.Title = htmlutil.TrimmedText(doc.Find(".title h1").First())

	if value, ok := labeledValue(doc, labelAssignment); ok {
		record.AssignmentName = value
	}
	if value, ok := labeledValue(doc, labelName); ok {
		record.StudentName = value
	}
	if value, ok := labeledValue(doc, labelSubmitted); ok {
		record.SubmittedAt = value
	}
	if value, ok := labeledValue(doc, labelTotalScore); ok {
		if value == "" {
			value = defaultTotalScore
		}
		record.TotalScore = value
	}

	record.ScoreBreakdown = scoreBreakdown(doc)
	record.FileDetails = fileDetails(doc)

	coverage := doc.Find(`div[title*="Estimate of Problem Coverage"]`).First()
	if coverage.Length() > 0 {
		record.CoveragePercentText = htmlutil.TrimmedText(coverage.Find("b").First())
	}

	record.DiagnosticMessages = normalizeMessages(collectMessages(doc, coverage))

	return record
}

// hasMarkup reports if s contains at least one tag, the html parser accepts
// any input so this is what tells a page apart from garbage.
func hasMarkup(s string) bool {
	tokenizer := html.NewTokenizer(strings.NewReader(s))
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return false
		case html.StartTagToken, html.SelfClosingTagToken, html.DoctypeToken:
			return true
		}
	}
}

// labeledValue finds the first `tr th.R` whose text is exactly label and
// returns the text of the element right after it. ok is false when no such
// header exists.
func labeledValue(doc *goquery.Document, label string) (string, bool) {
	header := doc.Find("tr th.R").FilterFunction(func(_ int, th *goquery.Selection) bool {
		return htmlutil.TrimmedText(th) == label
	}).First()
	if header.Length() == 0 {
		return "", false
	}
	return htmlutil.TrimmedText(htmlutil.NextElement(header)), true
}

func scoreBreakdown(doc *goquery.Document) []ScoreItem {
	items := []ScoreItem{}

	tables := doc.Find("table.floatLeft")
	if tables.Length() < 2 {
		return items
	}
	tables.Eq(1).Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		label := htmlutil.TrimmedText(cells.Eq(0))
		score := htmlutil.TrimmedText(cells.Eq(1))
		if label == "" || score == "" {
			return
		}
		items = append(items, ScoreItem{Label: label, Score: score})
	})

	return items
}

func fileDetails(doc *goquery.Document) []FileDetail {
	details := []FileDetail{}

	doc.Find(`div[title="File Details"] table tbody tr`).Each(func(_ int, row *goquery.Selection) {
		if !row.HasClass("o") && !row.HasClass("e") {
			return
		}
		cells := row.Find("td")
		count := cells.Length()
		if count < 3 {
			return
		}

		filename := htmlutil.TrimmedText(cells.First())
		if filename == "" {
			return
		}
		comments := htmlutil.TrimmedText(cells.Eq(count - 2))
		if comments == "" {
			comments = defaultAutoComments
		}
		points := htmlutil.TrimmedText(cells.Eq(count - 1))
		if points == "" {
			points = defaultAutoPoints
		}

		details = append(details, FileDetail{
			Filename:                  filename,
			AutoGeneratedCommentCount: comments,
			AutoGeneratedPointsText:   points,
		})
	})

	return details
}
