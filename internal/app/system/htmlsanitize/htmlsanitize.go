// Package htmlsanitize cleans visitor-supplied text before it is stored.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Text strips all markup from s and trims surrounding space. Entities that
// the policy escapes are decoded again, since templates escape on output.
func Text(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// IsPlainText reports whether s survives Text unchanged apart from trimming.
func IsPlainText(s string) bool {
	return Text(s) == strings.TrimSpace(s)
}
