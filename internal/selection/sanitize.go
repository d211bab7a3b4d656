package selection

import (
	"regexp"
	"strings"
	"unicode"
)

// maxReasonLength bounds provider messages surfaced in error rows
const maxReasonLength = 120

var credentialParam = regexp.MustCompile(`(?i)(api_?key|token)=[^&\s"]+`)

// Sanitize makes a provider error safe to return to callers: credentials in
// query strings are masked, control characters and runs of whitespace collapse
// to single spaces, and the result is cut to limit runes.
func Sanitize(msg string, limit int) string {
	msg = credentialParam.ReplaceAllString(msg, "${1}=xxxxx")
	msg = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, msg)
	msg = strings.Join(strings.Fields(msg), " ")

	runes := []rune(msg)
	if limit > 3 && len(runes) > limit {
		return string(runes[:limit-3]) + "..."
	}
	return msg
}
