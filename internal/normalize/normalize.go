// Package normalize turns one free-text company name into an ordered,
// deduplicated list of registry query variants.
package normalize

import (
	"regexp"
	"strings"
)

// MaxQueryVariants caps how many variants the resolver consumes per
// input name, bounding the remote-call count per row.
const MaxQueryVariants = 6

// legalSuffixes are the recognized UK legal-form tokens, longest first
// so compound forms win over their shorter components.
var legalSuffixes = []string{
	"LIMITED LIABILITY PARTNERSHIP",
	"HOLDINGS",
	"LIMITED",
	"HOLDING",
	"GROUP",
	"LTD.",
	"PLC.",
	"LLP.",
	"LTD",
	"PLC",
	"LLP",
}

var (
	nonAlnum   = regexp.MustCompile(`[^A-Z0-9& ]+`)
	multiSpace = regexp.MustCompile(`\s{2,}`)
)

// Variants derives the ordered query list for one raw name. The first
// entry is always the trimmed input; later entries apply suffix
// stripping, "THE " prefix removal, punctuation removal, and
// ampersand/"AND" substitution. Duplicates (by upper-cased form) are
// dropped. Returns nil when the input trims to empty.
func Variants(raw string) []string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}

	var out []string
	seen := make(map[string]bool)
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		key := strings.ToUpper(s)
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, s)
	}

	add(trimmed)

	cur := strings.ToUpper(trimmed)
	if stripped, ok := StripOneSuffix(cur); ok {
		add(stripped)
		add(stripped + " LIMITED")
		add(stripped + " LTD")
		cur = stripped
	}

	if strings.HasPrefix(cur, "THE ") {
		cur = strings.TrimSpace(strings.TrimPrefix(cur, "THE "))
		add(cur)
	}

	clean := stripPunctuation(cur)
	add(clean)

	if strings.Contains(clean, " AND ") {
		add(strings.ReplaceAll(clean, " AND ", " & "))
	}
	if strings.Contains(clean, " & ") {
		add(strings.ReplaceAll(clean, " & ", " AND "))
	}

	return out
}

// StripOneSuffix removes at most one trailing legal-suffix token from
// an upper-cased name. A space-delimited trailing match is preferred;
// a direct suffix match is accepted only when a non-empty remainder
// precedes it.
func StripOneSuffix(upper string) (string, bool) {
	for _, sfx := range legalSuffixes {
		if strings.HasSuffix(upper, " "+sfx) {
			return strings.TrimSpace(upper[:len(upper)-len(sfx)-1]), true
		}
	}
	for _, sfx := range legalSuffixes {
		if strings.HasSuffix(upper, sfx) && len(upper) > len(sfx) {
			rest := strings.TrimSpace(upper[:len(upper)-len(sfx)])
			if rest != "" {
				return rest, true
			}
		}
	}
	return upper, false
}

// StripAllSuffixes repeatedly strips trailing legal-suffix tokens until
// none remain. Used by the scorer to compare cleaned names.
func StripAllSuffixes(upper string) string {
	for {
		stripped, ok := StripOneSuffix(upper)
		if !ok {
			return upper
		}
		upper = stripped
	}
}

// stripPunctuation retains only alphanumerics, ampersands, and single
// spaces from an upper-cased name. Ampersands survive so the AND/"&"
// substitution step has both directions to work with.
func stripPunctuation(upper string) string {
	clean := nonAlnum.ReplaceAllString(upper, "")
	clean = multiSpace.ReplaceAllString(clean, " ")
	return strings.TrimSpace(clean)
}
