package score

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/unicode/norm"
)

// SimilarityFunc scores two labels from 0 (unrelated) to 100 (identical).
// Implementations must be symmetric.
type SimilarityFunc func(a, b string) int

// Ratio is the default SimilarityFunc: one minus the Levenshtein distance
// over the longer label's rune length, scaled to 0..100.
func Ratio(a, b string) int {
	a = norm.NFC.String(a)
	b = norm.NFC.String(b)

	la := utf8.RuneCountInString(a)
	lb := utf8.RuneCountInString(b)
	longest := max(la, lb)
	if longest == 0 {
		return 100
	}

	d := levenshtein.ComputeDistance(a, b)
	return int(math.Round(100 * float64(longest-d) / float64(longest)))
}

// Contains reports whether either label is a substring of the other
func Contains(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	a = norm.NFC.String(a)
	b = norm.NFC.String(b)
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// WordDifference is the size of the symmetric difference of the two
// labels' whitespace-separated word sets.
func WordDifference(a, b string) int {
	wa := wordSet(a)
	wb := wordSet(b)

	diff := 0
	for w := range wa {
		if !wb[w] {
			diff++
		}
	}
	for w := range wb {
		if !wa[w] {
			diff++
		}
	}
	return diff
}

func wordSet(s string) map[string]bool {
	words := strings.Fields(norm.NFC.String(s))
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
