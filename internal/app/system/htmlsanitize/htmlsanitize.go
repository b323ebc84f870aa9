// Package htmlsanitize cleans property labels that admins may write with
// simple inline markup.
package htmlsanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	once        sync.Once
	labelPolicy *bluemonday.Policy
	strict      *bluemonday.Policy
)

func policies() {
	once.Do(func() {
		p := bluemonday.NewPolicy()
		p.AllowElements("b", "strong", "i", "em", "u", "s", "small", "sub", "sup", "mark", "br", "span")
		p.AllowStandardURLs()
		p.AllowAttrs("href").OnElements("a")
		p.RequireNoFollowOnLinks(true)
		p.AddTargetBlankToFullyQualifiedLinks(true)
		labelPolicy = p

		strict = bluemonday.StrictPolicy()
	})
}

// Sanitize keeps inline formatting and links, dropping everything else.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	policies()
	return labelPolicy.Sanitize(s)
}

// PlainText strips all markup and returns the readable text with runs of
// whitespace collapsed.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	policies()
	return strings.Join(strings.Fields(html.UnescapeString(strict.Sanitize(s))), " ")
}

// IsPlainText reports whether s holds no markup at all.
func IsPlainText(s string) bool {
	return !strings.ContainsAny(s, "<>")
}
