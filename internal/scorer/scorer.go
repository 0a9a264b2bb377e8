// Package scorer computes a 0..100 confidence score between a raw
// input name and a registry candidate title.
package scorer

import (
	"strings"

	"github.com/sells-group/chmatch/internal/normalize"
)

// Score levels of the rule cascade, first applicable rule wins.
const (
	scoreExact           = 100
	scoreSubstring       = 90
	scoreStrippedEqual   = 85
	scoreStrippedPrefix  = 75
	wordOverlapBase      = 60
	wordOverlapPerCommon = 5
	scoreNoOverlap       = 50

	prefixLen = 10
)

// Score compares a raw input name against a candidate title. Pure and
// deterministic; case-insensitive throughout. The word-overlap rule
// clamps at 100 for names sharing many words.
func Score(raw, title string) int {
	a := strings.ToUpper(strings.TrimSpace(raw))
	b := strings.ToUpper(strings.TrimSpace(title))

	if a == b {
		return scoreExact
	}

	if a != "" && b != "" && (strings.Contains(a, b) || strings.Contains(b, a)) {
		return scoreSubstring
	}

	cleanA := normalize.StripAllSuffixes(a)
	cleanB := normalize.StripAllSuffixes(b)

	if cleanA == cleanB {
		return scoreStrippedEqual
	}

	if prefixMatch(cleanA, cleanB) || prefixMatch(cleanB, cleanA) {
		return scoreStrippedPrefix
	}

	common := commonWords(cleanA, cleanB)
	if common > 0 {
		score := wordOverlapBase + wordOverlapPerCommon*common
		if score > 100 {
			score = 100
		}
		return score
	}
	return scoreNoOverlap
}

// prefixMatch reports whether the first min(prefixLen, len(a)) characters
// of a are a prefix of b.
func prefixMatch(a, b string) bool {
	if a == "" {
		return false
	}
	n := prefixLen
	if len(a) < n {
		n = len(a)
	}
	return strings.HasPrefix(b, a[:n])
}

// commonWords counts distinct words shared by both cleaned names.
func commonWords(a, b string) int {
	setA := make(map[string]bool)
	for _, w := range strings.Fields(a) {
		setA[w] = true
	}
	n := 0
	seen := make(map[string]bool)
	for _, w := range strings.Fields(b) {
		if setA[w] && !seen[w] {
			seen[w] = true
			n++
		}
	}
	return n
}
