package labels

import (
	"strings"
	"unicode"
)

const (
	// SimilarityThreshold is the ratio a fuzzy match must strictly exceed.
	SimilarityThreshold = 0.85

	// PluralSimilarity is reported for singular/plural variants.
	PluralSimilarity = 0.95
)

// Candidate is an existing label considered by FindSimilar.
type Candidate struct {
	Name           string
	NormalizedName string
}

// Match is the result of FindSimilar.
type Match struct {
	Candidate
	Similarity float64
}

// Normalize lowercases name, maps every rune that is not alphanumeric,
// underscore or whitespace to an underscore, and collapses runs of
// whitespace and underscores to a single underscore with none at either end.
// Normalize is idempotent.
//
// Alphanumeric covers every letter and number category plus the combining
// marks that spell vowels and consonant clusters in Indic and other scripts,
// so "हिंदी" and "Level ²" survive intact.
func Normalize(name string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case isAlphanumeric(r), r == '_':
			return r
		case unicode.IsSpace(r):
			return ' '
		default:
			return '_'
		}
	}, strings.ToLower(name))

	parts := strings.FieldsFunc(mapped, func(r rune) bool {
		return r == '_' || r == ' '
	})
	return strings.Join(parts, "_")
}

func isAlphanumeric(r rune) bool {
	return unicode.In(r, unicode.L, unicode.N, unicode.Mn, unicode.Mc, unicode.Other_Alphabetic)
}

// Similarity returns 1 - levenshtein(a, b) / max(len(a), len(b)) with
// lengths counted in runes. Two empty strings are identical.
func Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	ra, rb := []rune(a), []rune(b)
	longest := max(len(ra), len(rb))
	if longest == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshtein(ra, rb))/float64(longest)
}

// levenshtein computes edit distance with unit costs using two rows.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// FindSimilar looks for an existing label matching name.
//
// An existing label whose normalized name equals Normalize(name) is returned
// with similarity 1.0 regardless of the other candidates. Otherwise the
// candidate with the highest similarity strictly above SimilarityThreshold
// wins; the first one seen wins ties. If none clears the threshold, a
// candidate that differs only by a trailing "s" is returned with
// PluralSimilarity.
func FindSimilar(name string, existing []Candidate) (Match, bool) {
	normalized := Normalize(name)

	for _, c := range existing {
		if c.NormalizedName == normalized {
			return Match{Candidate: c, Similarity: 1.0}, true
		}
	}

	var (
		best  Match
		found bool
	)
	for _, c := range existing {
		s := Similarity(normalized, c.NormalizedName)
		if s > SimilarityThreshold && s > best.Similarity {
			best = Match{Candidate: c, Similarity: s}
			found = true
		}
	}
	if found {
		return best, true
	}

	for _, c := range existing {
		if isPluralVariant(normalized, c.NormalizedName) {
			return Match{Candidate: c, Similarity: PluralSimilarity}, true
		}
	}
	return Match{}, false
}

func isPluralVariant(a, b string) bool {
	return (strings.HasSuffix(a, "s") && a[:len(a)-1] == b) ||
		(strings.HasSuffix(b, "s") && b[:len(b)-1] == a)
}
