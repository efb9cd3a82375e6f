package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy = bluemonday.StrictPolicy()
	angleStrip   = strings.NewReplacer("<", "", ">", "")
)

// SanitizeText strips all markup from free text supplied by users, such as
// product descriptions and shipping addresses. The policy escapes entities
// in the remaining text; they are decoded again so "&" is stored as typed,
// and angle brackets that only appear after decoding are dropped.
func SanitizeText(s string) string {
	return strings.TrimSpace(angleStrip.Replace(html.UnescapeString(strictPolicy.Sanitize(s))))
}
