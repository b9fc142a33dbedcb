package errors

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
)

// MaxSuggestionDistance is the maximum edit distance for a suggestion to be considered.
const MaxSuggestionDistance = 3

// MaxSuggestions is the maximum number of suggestions to return.
const MaxSuggestions = 3

// Suggestion represents a suggested correction with its edit distance.
type Suggestion struct {
	Value    string
	Distance int
}

// SuggestSimilar finds names similar to target. Candidates that contain the
// target as a fuzzy subsequence are preferred; otherwise candidates within a
// small edit distance are returned.
func SuggestSimilar(target string, candidates []string) []Suggestion {
	if len(target) == 0 || len(candidates) == 0 {
		return nil
	}
	lower := strings.ToLower(target)
	seen := map[string]bool{}
	var suggestions []Suggestion

	for _, m := range fuzzy.Find(lower, candidates) {
		c := m.Str
		if c == "" || strings.ToLower(c) == lower || seen[c] {
			continue
		}
		seen[c] = true
		suggestions = append(suggestions, Suggestion{
			Value:    c,
			Distance: levenshteinDistance(lower, strings.ToLower(c)),
		})
	}

	threshold := MaxSuggestionDistance
	if len(lower) <= 3 {
		threshold = 1
	} else if len(lower) <= 5 {
		threshold = 2
	}
	for _, c := range candidates {
		if c == "" || seen[c] || strings.ToLower(c) == lower {
			continue
		}
		if dist := levenshteinDistance(lower, strings.ToLower(c)); dist <= threshold {
			seen[c] = true
			suggestions = append(suggestions, Suggestion{Value: c, Distance: dist})
		}
	}

	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].Distance != suggestions[j].Distance {
			return suggestions[i].Distance < suggestions[j].Distance
		}
		return suggestions[i].Value < suggestions[j].Value
	})
	if len(suggestions) > MaxSuggestions {
		suggestions = suggestions[:MaxSuggestions]
	}
	return suggestions
}

// FormatSuggestions formats suggestions as a user-friendly string.
// Returns empty string if no suggestions.
func FormatSuggestions(suggestions []Suggestion) string {
	if len(suggestions) == 0 {
		return ""
	}
	if len(suggestions) == 1 {
		return "did you mean '" + suggestions[0].Value + "'?"
	}
	var b strings.Builder
	b.WriteString("did you mean one of: ")
	for i, s := range suggestions {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("'")
		b.WriteString(s.Value)
		b.WriteString("'")
	}
	b.WriteString("?")
	return b.String()
}

// Hint returns FormatSuggestions(SuggestSimilar(target, candidates)).
func Hint(target string, candidates []string) string {
	return FormatSuggestions(SuggestSimilar(target, candidates))
}

// levenshteinDistance computes the edit distance between two strings using
// two rows instead of a full matrix.
func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	aRunes := []rune(a)
	bRunes := []rune(b)
	if len(aRunes) > len(bRunes) {
		aRunes, bRunes = bRunes, aRunes
	}
	lenA := len(aRunes)
	lenB := len(bRunes)
	prev := make([]int, lenA+1)
	curr := make([]int, lenA+1)
	for i := 0; i <= lenA; i++ {
		prev[i] = i
	}
	for j := 1; j <= lenB; j++ {
		curr[0] = j
		for i := 1; i <= lenA; i++ {
			cost := 1
			if aRunes[i-1] == bRunes[j-1] {
				cost = 0
			}
			curr[i] = min(prev[i]+1, curr[i-1]+1, prev[i-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[lenA]
}
