package abuse

import (
	"regexp"
	"unicode"
)

var (
	// urlPattern matches http/https and www. links.
	urlPattern = regexp.MustCompile(`(?i)(https?://|www\.)\S+`)

	// keywordPattern matches phrases that show up in bulk marketing spam and
	// almost never in a genuine project enquiry.
	keywordPattern = regexp.MustCompile(`(?i)\b(viagra|cialis|casino|lottery|jackpot|bitcoin|forex|payday loans?|seo services|backlinks?|click here|make money|work from home|limited time offer)\b`)

	// markupPattern matches script injection probes.
	markupPattern = regexp.MustCompile(`(?i)(<\s*script|javascript:|\bon(load|error|click|mouseover)\s*=)`)
)

const (
	maxURLs            = 2
	charFloodThreshold = 10
)

type spamCheck struct {
	name  string
	match func(string) bool
}

// spamChecks is applied in order; the first match wins.
var spamChecks = []spamCheck{
	{name: "url_flood", match: func(text string) bool {
		return len(urlPattern.FindAllStringIndex(text, maxURLs+1)) > maxURLs
	}},
	{name: "keyword", match: keywordPattern.MatchString},
	{name: "char_flood", match: hasCharFlood},
	{name: "markup", match: markupPattern.MatchString},
}

// matchSpam returns the name of the first spam check text trips.
func matchSpam(text string) (string, bool) {
	for _, sc := range spamChecks {
		if sc.match(text) {
			return sc.name, true
		}
	}
	return "", false
}

// hasCharFlood reports whether text has charFloodThreshold or more identical
// non-space characters in a row. RE2 has no backreferences, hence the scan.
func hasCharFlood(text string) bool {
	count := 0
	prev := rune(-1)
	for _, r := range text {
		if unicode.IsSpace(r) {
			count = 0
			prev = -1
			continue
		}
		if r == prev {
			count++
		} else {
			count = 1
			prev = r
		}
		if count >= charFloodThreshold {
			return true
		}
	}
	return false
}
