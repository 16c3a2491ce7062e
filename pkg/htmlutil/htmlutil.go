package htmlutil

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

// TrimmedText is the text content of the first node in the selection with
// leading and trailing whitespace removed.
func TrimmedText(sel *goquery.Selection) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}
	return strings.TrimSpace(GetText(sel.Get(0)))
}

// TagName returns the lowercase tag of the first node in the selection, or ""
// if the selection is empty.
func TagName(sel *goquery.Selection) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}
	return goquery.NodeName(sel.First())
}

// NextElement returns the element sibling directly after the first node in the
// selection, skipping text and comment nodes. The result is empty once the
// siblings are exhausted.
func NextElement(sel *goquery.Selection) *goquery.Selection {
	return sel.First().Next()
}

var tagRegex = regexp.MustCompile(`<[^>]*>`)

// StripTags removes complete markup tags from s, a "<" without a closing ">"
// is kept as text.
func StripTags(s string) string {
	return tagRegex.ReplaceAllString(s, "")
}

type Anchor struct {
	Name string
	Url  *url.URL
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// GetAnchors resolves the href of every anchor in sel against base, anchors
// with unparsable hrefs are skipped.
func GetAnchors(base *url.URL, sel *goquery.Selection) []Anchor {
	anchors := []Anchor{}
	for _, n := range sel.Nodes {
		href := ""
		hasHref := false
		for _, a := range n.Attr {
			if a.Key == "href" {
				href = a.Val
				hasHref = true
				break
			}
		}
		if !hasHref {
			continue
		}

		link, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			continue
		}
		if base != nil {
			link = base.ResolveReference(link)
		}

		name := GetText(n)
		name = removeNonPrintable(name)
		name = strings.Trim(name, " \t\n")
		name = innerWhitespace.ReplaceAllString(name, " ")

		anchors = append(anchors, Anchor{
			Name: name,
			Url:  link,
		})
	}

	return anchors
}
