package admin

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	stripPolicy = bluemonday.StrictPolicy()
	blockTagRe  = regexp.MustCompile(`(?i)<br\s*/?>|</(p|div|li|tr|h[1-6])>`)
	blankRunRe  = regexp.MustCompile(`\n{3,}`)
)

// BodyText reduces an HTML template body to readable plain text. Block
// level closing tags and line breaks become newlines.
func BodyText(body string) string {
	s := blockTagRe.ReplaceAllString(body, "$0\n")
	s = html.UnescapeString(stripPolicy.Sanitize(s))
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t\r")
	}
	return strings.TrimSpace(blankRunRe.ReplaceAllString(strings.Join(lines, "\n"), "\n\n"))
}
