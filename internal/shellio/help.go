package shellio

import (
	_ "embed"
	"regexp"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
)

//go:embed help.md
var helpMarkdown string

var (
	helpOnce sync.Once
	helpHTML string
	helpText string
)

var htmlTag = regexp.MustCompile(`<[^>]+>`)

// renderHelp lazily renders the embedded help document once: goldmark
// produces the HTML fragment returned verbatim under `help --json`
// (spec.md's "fixed usage block" supplemented per SPEC_FULL.md §4.3);
// the default text view strips tags from that same HTML rather than
// hand-formatting a second copy, so the two views can never drift apart.
func renderHelp() (text, html string) {
	helpOnce.Do(func() {
		var buf strings.Builder
		if err := goldmark.Convert([]byte(helpMarkdown), &buf); err != nil {
			helpHTML = ""
			helpText = helpMarkdown
			return
		}
		helpHTML = buf.String()
		helpText = htmlToText(helpHTML)
	})
	return helpText, helpHTML
}

// htmlToText strips tags and unescapes the small set of entities
// goldmark's HTML renderer actually emits for this document, giving an
// ANSI-free plain-text rendering without pulling in a full HTML-to-text
// library (none of the examples carry one for this purpose).
func htmlToText(html string) string {
	stripped := htmlTag.ReplaceAllString(html, "")
	replacer := strings.NewReplacer(
		"&lt;", "<", "&gt;", ">", "&amp;", "&", "&quot;", `"`, "&#39;", "'",
	)
	text := replacer.Replace(stripped)

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if trimmed := strings.TrimRight(l, " \t"); trimmed != "" || len(out) > 0 {
			out = append(out, trimmed)
		}
	}
	return strings.TrimRight(strings.Join(out, "\n"), "\n") + "\n"
}
