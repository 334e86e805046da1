package stream

import (
	"strings"

	"golang.org/x/text/language"
)

// NormalizeLanguage reduces a BCP 47 tag to its ISO 639 base ("en-US" -> "en").
// Unparseable values are lower-cased as is; empty and undetermined tags yield "".
func NormalizeLanguage(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return ""
	}
	parsed, err := language.Parse(tag)
	if err != nil {
		return strings.ToLower(tag)
	}
	base, confidence := parsed.Base()
	if confidence != language.Exact {
		return ""
	}
	return base.String()
}
