package evaluator

import (
	"fmt"
	"strings"
	"unicode"
)

// TextMatch grades free text: exact match after normalization scores 100.
// Otherwise the score is the better of a close match (50) and the share of
// expected keywords present in the answer. The allowed edit distance is
// MaxEditDistance capped at a quarter of the expected answer's length, so
// short answers like "10" must match exactly.
type TextMatch struct {
	MaxEditDistance int
}

func (m TextMatch) Evaluate(expected, submitted string) (float64, string) {
	resp := normalize(submitted)
	if resp == "" {
		return 0, "No answer given"
	}
	want := normalize(expected)
	if want == "" {
		return 0, "No expected answer configured"
	}
	if resp == want {
		return 100, "Correct"
	}

	keywords := strings.Fields(want)
	words := make(map[string]struct{})
	for _, w := range strings.Fields(resp) {
		words[w] = struct{}{}
	}
	found := 0
	for _, k := range keywords {
		if _, ok := words[k]; ok {
			found++
		}
	}
	score := 100 * float64(found) / float64(len(keywords))
	if score < 50 && m.closeMatch(want, resp) {
		return 50, "Close match"
	}
	return score, fmt.Sprintf("Matched %d of %d key words", found, len(keywords))
}

func (m TextMatch) closeMatch(want, resp string) bool {
	limit := min(m.MaxEditDistance, len([]rune(want))/4)
	return limit > 0 && levenshtein(want, resp) <= limit
}

// normalize casefolds, drops punctuation and collapses whitespace.
func normalize(s string) string {
	out := make([]rune, 0, len(s))
	space := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			space = true
		case unicode.IsPunct(r):
		default:
			if space && len(out) > 0 {
				out = append(out, ' ')
			}
			space = false
			out = append(out, unicode.ToLower(r))
		}
	}
	return string(out)
}

// levenshtein computes rune edit distance with unit costs.
func levenshtein(a, b string) int {
	ar := []rune(a)
	br := []rune(b)
	n, m := len(ar), len(br)
	if n == 0 {
		return m
	}
	if m == 0 {
		return n
	}
	dp := make([]int, m+1)
	for j := 0; j <= m; j++ {
		dp[j] = j
	}
	for i := 1; i <= n; i++ {
		prev := dp[0]
		dp[0] = i
		for j := 1; j <= m; j++ {
			tmp := dp[j]
			cost := 0
			if ar[i-1] != br[j-1] {
				cost = 1
			}
			dp[j] = min(dp[j]+1, dp[j-1]+1, prev+cost)
			prev = tmp
		}
	}
	return dp[m]
}
