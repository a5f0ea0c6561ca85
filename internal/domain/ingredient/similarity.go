package ingredient

import (
	"math"
	"strings"
	"unicode"
)

// TrigramSimilarity mirrors pg_trgm's similarity(): each alphanumeric word
// is padded with two leading blanks and one trailing blank, and the score is
// the Jaccard index of the two trigram sets.
func TrigramSimilarity(a, b string) float64 {
	ta := trigrams(a)
	tb := trigrams(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	shared := 0
	for g := range ta {
		if _, ok := tb[g]; ok {
			shared++
		}
	}
	union := len(ta) + len(tb) - shared
	return float64(shared) / float64(union)
}

func trigrams(s string) map[string]struct{} {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	set := make(map[string]struct{})
	for _, w := range words {
		padded := []rune("  " + w + " ")
		for i := 0; i+3 <= len(padded); i++ {
			set[string(padded[i:i+3])] = struct{}{}
		}
	}
	return set
}

// BestTextSimilarity is the greater of the name score and the best alias score
func BestTextSimilarity(term string, ing *Ingredient) float64 {
	best := TrigramSimilarity(term, ing.CanonicalName)
	for _, alias := range ing.Aliases {
		if s := TrigramSimilarity(term, alias); s > best {
			best = s
		}
	}
	return best
}

// CosineSimilarity returns the cosine of the angle between a and b clamped
// to [0, 1]. Vectors of different length or zero magnitude score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}

	cos := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return math.Max(0, math.Min(1, cos))
}
