package webcat

import (
	"regexp"
	"slices"
	"strings"

	"webcat-submit/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

const (
	compileFailurePhrase = "Your code failed to compile correctly"
	hintsPhrase          = "The following hint(s)"
	compileErrorPrefix   = "Compile Error: "
)

var missingMethodRegex = regexp.MustCompile(`(?i)class\s+(\w+)\s+is\s+missing\s+method\s+(\w+)`)

var noisePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Test results indicate that your code still contains bugs`),
	regexp.MustCompile(`(?i)Your code appears to cover only`),
	regexp.MustCompile(`(?i)only \d+%`),
}

type messageList []string

// add appends text unless it is empty or already present verbatim.
func (l *messageList) add(text string) {
	if text == "" || slices.Contains(*l, text) {
		return
	}
	*l = append(*l, text)
}

func paragraphContaining(scope *goquery.Selection, phrase string) *goquery.Selection {
	return scope.Find("p").FilterFunction(func(_ int, p *goquery.Selection) bool {
		return strings.Contains(htmlutil.GetText(p.Get(0)), phrase)
	}).First()
}

// collectMessages gathers the raw diagnostics of a results page. coverage is
// the problem coverage pane, it may be empty.
func collectMessages(doc *goquery.Document, coverage *goquery.Selection) []string {
	messages := messageList{}

	if coverage.Length() > 0 {
		compileFailure := paragraphContaining(coverage, compileFailurePhrase)
		hints := paragraphContaining(coverage, hintsPhrase)

		switch {
		case compileFailure.Length() > 0:
			messages = append(messages, compileFailurePhrase)
			// only the paragraphs directly following belong to the failure
			for next := htmlutil.NextElement(compileFailure); htmlutil.TagName(next) == "p"; next = htmlutil.NextElement(next) {
				messages.add(htmlutil.TrimmedText(next))
			}
		case hints.Length() > 0:
			// unlike compile failures, other elements in between do not end the hints
			for next := htmlutil.NextElement(hints); next.Length() > 0; next = htmlutil.NextElement(next) {
				switch htmlutil.TagName(next) {
				case "ul":
					next.Find("li").Each(func(_ int, li *goquery.Selection) {
						p := li.Find("p").First()
						if p.Length() > 0 {
							messages.add(htmlutil.TrimmedText(p))
							return
						}
						messages.add(htmlutil.TrimmedText(li))
					})
				case "p":
					messages.add(htmlutil.TrimmedText(next))
				}
			}
		default:
			text := htmlutil.TrimmedText(coverage)
			for _, match := range missingMethodRegex.FindAllString(text, -1) {
				messages.add(strings.TrimSpace(match))
			}
		}
	}

	compileLog := doc.Find(`div[title="Compilation Produced Errors"]`).First().Find("pre").First()
	if compileLog.Length() > 0 {
		for _, line := range strings.Split(htmlutil.TrimmedText(compileLog), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "/*") || strings.HasPrefix(line, "^") {
				continue
			}
			line = strings.TrimSpace(htmlutil.StripTags(line))
			if line == "" || containedIn(messages, line) {
				continue
			}
			messages = append(messages, compileErrorPrefix+line)
		}
	}

	return messages
}

func containedIn(messages []string, line string) bool {
	for _, msg := range messages {
		if strings.Contains(msg, line) {
			return true
		}
	}
	return false
}

func isNoise(msg string) bool {
	for _, pattern := range noisePatterns {
		if pattern.MatchString(msg) {
			return true
		}
	}
	return false
}

// normalizeMessages drops noise and coverage messages, then drops every
// message that contains or is contained by (ignoring case) one kept before it.
func normalizeMessages(messages []string) []string {
	out := []string{}
	var kept []string

	for _, msg := range messages {
		if isNoise(msg) {
			continue
		}
		lower := strings.ToLower(msg)
		if strings.Contains(lower, "problem coverage") {
			continue
		}

		duplicate := false
		for _, existing := range kept {
			if strings.Contains(lower, existing) || strings.Contains(existing, lower) {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}

		kept = append(kept, lower)
		out = append(out, msg)
	}

	return out
}
