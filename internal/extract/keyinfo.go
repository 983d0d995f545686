// Package extract pulls the bid-relevant excerpts out of uploaded project
// documents.
package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxPricePairs caps how many price pairs a price reference sheet contributes.
const MaxPricePairs = 10

var (
	// keyword followed by a colon, captured up to the next blank line
	keywordRe = regexp.MustCompile(`(?is)\b(?:project|budget|timeline|price|cost|scope|schedule|total|location|materials)\s*:.*?(?:\n[ \t]*\n|\z)`)

	planRe        = regexp.MustCompile(`(?im)^[^\n]*\b(?:plans?|elevations?)\b[^\n]*$`)
	supportingRe  = regexp.MustCompile(`(?im)^[^\n]*\b(?:specifications?|requirements?|required)\b[^\n]*$`)
	pricePairRe   = regexp.MustCompile(`^\s*([^:$\n]*[^:$\s])\s*:\s*(\$\s?[\d,]+(?:\.\d+)?)`)
	classifyRowRe = regexp.MustCompile(`^(D\d+)\s+(.+?)\s+(\$[\d,.]+)`)
)

// KeyInfo returns the newline-joined excerpts of text that matter for a bid,
// truncated to at most maxLen bytes. It returns "" when nothing matches.
func KeyInfo(text string, docType DocType, maxLen int) string {
	if maxLen <= 0 || text == "" {
		return ""
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var matches []string
	for _, m := range keywordRe.FindAllString(text, -1) {
		if m = strings.TrimSpace(m); m != "" {
			matches = append(matches, m)
		}
	}

	switch docType {
	case PlanSet:
		matches = appendLines(matches, planRe.FindAllString(text, -1))
	case PriceReferenceSheet:
		matches = append(matches, pricePairs(text, matches)...)
	case SupportingDocs:
		matches = appendLines(matches, supportingRe.FindAllString(text, -1))
	}

	return truncate(strings.Join(matches, "\n"), maxLen)
}

func appendLines(dst, lines []string) []string {
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			dst = append(dst, l)
		}
	}
	return dst
}

// pricePairs scans line by line for "label: $amount" pairs and for
// classification rows such as "D101 Site survey $1,200.00". Lines already
// inside one of the covered excerpts are skipped.
func pricePairs(text string, covered []string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if len(out) == MaxPricePairs {
			break
		}
		if strings.Contains(line, "Classification ID") || isCovered(line, covered) {
			continue
		}

		if m := classifyRowRe.FindStringSubmatch(line); m != nil {
			out = append(out, m[1]+": "+m[2]+" - "+m[3])
			continue
		}
		if m := pricePairRe.FindStringSubmatch(line); m != nil {
			out = append(out, strings.TrimSpace(m[1])+": "+m[2])
		}
	}

	return out
}

func isCovered(line string, covered []string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	for _, c := range covered {
		for _, l := range strings.Split(c, "\n") {
			if strings.TrimSpace(l) == line {
				return true
			}
		}
	}
	return false
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}

	return s[:cut]
}
