package bot

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	controlRuns = regexp.MustCompile(`[\t\r\n]+`)
	spaceRuns   = regexp.MustCompile(` {2,}`)
	zeroWidth   = regexp.MustCompile("[\u200b-\u200d\ufeff]")
)

// Sanitize normalizes inbound text before it reaches the router. Full-width
// forms fold to ASCII, whitespace runs collapse to one space and zero-width
// characters are dropped.
func Sanitize(text string) string {
	if text == "" {
		return ""
	}
	text = norm.NFKC.String(text)
	text = zeroWidth.ReplaceAllString(text, "")
	text = controlRuns.ReplaceAllString(text, " ")
	text = spaceRuns.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
