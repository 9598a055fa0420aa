package service

import (
	"unicode/utf8"

	"github.com/Harshitk-cp/factstore/internal/domain"
	"github.com/agnivade/levenshtein"
)

const (
	keySimilarityWeight   = 0.7
	valueSimilarityWeight = 0.3
)

// StringSimilarity is 1 - editDistance/maxLen over runes. Two empty strings
// are identical.
func StringSimilarity(a, b string) float64 {
	maxLen := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if maxLen == 0 {
		return 1
	}
	d := levenshtein.ComputeDistance(a, b)
	return float64(maxLen-d) / float64(maxLen)
}

// FactSimilarity weighs key similarity over value similarity. Facts in
// different categories never match.
func FactSimilarity(a, b *domain.Fact) float64 {
	if a.Category != b.Category {
		return 0
	}
	return keySimilarityWeight*StringSimilarity(a.Key, b.Key) +
		valueSimilarityWeight*StringSimilarity(a.Value, b.Value)
}

// ClusterFacts groups facts in the order given. Each ungrouped fact seeds a
// group and claims every later ungrouped fact whose similarity to the seed
// reaches threshold. Joiners are never compared with each other, so the
// outcome depends on input order. Only groups with two or more members are
// returned.
func ClusterFacts(facts []domain.Fact, threshold float64) [][]domain.Fact {
	grouped := make([]bool, len(facts))
	var groups [][]domain.Fact

	for i := range facts {
		if grouped[i] {
			continue
		}
		grouped[i] = true
		group := []domain.Fact{facts[i]}

		for j := i + 1; j < len(facts); j++ {
			if grouped[j] {
				continue
			}
			if FactSimilarity(&facts[i], &facts[j]) >= threshold {
				grouped[j] = true
				group = append(group, facts[j])
			}
		}

		if len(group) > 1 {
			groups = append(groups, group)
		}
	}
	return groups
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
