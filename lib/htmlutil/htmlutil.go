package htmlutil

import (
	"bytes"
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

// GetLines renders the selection's text with <br> and block boundaries
// turned into newlines, then returns the non-empty trimmed lines. Label/value
// pairs on the portal's detail pages are only separated by <br> tags, so
// goquery's plain Text() would glue them together.
func GetLines(sel *goquery.Selection) []string {
	var buffer bytes.Buffer
	for _, n := range sel.Nodes {
		getLinesRecursive(n, &buffer)
	}

	rawLines := strings.Split(buffer.String(), "\n")
	lines := make([]string, 0, len(rawLines))
	for _, l := range rawLines {
		l = strings.TrimSpace(l)
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func getLinesRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	if node.Type == html.ElementNode {
		switch node.Data {
		case "br", "tr", "p", "div", "li":
			buffer.WriteString("\n")
		case "script", "style":
			return
		}
	}
	child := node.FirstChild
	for child != nil {
		getLinesRecursive(child, buffer)
		child = child.NextSibling
	}
}

func RemoveNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}
