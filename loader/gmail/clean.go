package gmail

import (
	"regexp"
	"strings"
	"unicode"
)

// Email bodies arrive full of HTML leftovers and link markup that only
// waste embedding tokens. cleanText flattens a body to plain prose:
// markdown-style links collapse to their label, angle-bracket runs are
// dropped, line breaks become spaces and repeated punctuation is
// deduplicated.

var (
	reLinksAndBrackets = regexp.MustCompile(`\[([^]]+)\]\([^)]+\)|\[.*?\]`)
	reAngleBrackets    = regexp.MustCompile(`<.*?>|>|<`)
	reSpaces           = regexp.MustCompile(` +`)
)

// ordered, later rules see the output of earlier ones
var cleanReplacements = []struct{ old, new string }{
	{"\r\n\t", " "},
	{"\r\n", " "},
	{"\n", " "},
	{"\\", " "},
	{"?", "? "},
	{"!", "! "},
}

func cleanText(input string) string {
	cleaned := reLinksAndBrackets.ReplaceAllString(input, "$1 ")
	cleaned = reAngleBrackets.ReplaceAllString(cleaned, " ")

	for _, r := range cleanReplacements {
		cleaned = strings.ReplaceAll(cleaned, r.old, r.new)
	}

	cleaned = reSpaces.ReplaceAllString(cleaned, " ")
	cleaned = collapseRepeatedPunct(cleaned)

	return strings.TrimSpace(cleaned)
}

// collapseRepeatedPunct reduces runs of the same punctuation character
// to a single one ("----" -> "-"). RE2 has no backreferences, so this
// is done with a rune scan.
func collapseRepeatedPunct(input string) string {
	var sb strings.Builder
	sb.Grow(len(input))

	var prev rune
	var prevSet bool
	for _, r := range input {
		isPunct := !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r) && r != '_'
		if isPunct && prevSet && r == prev {
			continue
		}
		sb.WriteRune(r)
		prev = r
		prevSet = isPunct
	}

	return sb.String()
}
