package render

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	g "maragu.dev/gomponents"
)

var strictPolicy = bluemonday.StrictPolicy()

// PlainText strips markup from server-supplied text. The result is plain text
// and must still be escaped when rendered.
func PlainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}

func textNode(s string) g.Node {
	return g.Text(s)
}
