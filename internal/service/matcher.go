package service

import (
	"math"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/avelot/recyclerie/internal/database/repository"
)

// DefaultConfidenceThreshold is the minimum fuzzy score accepted without
// falling through to the LLM stage.
const DefaultConfidenceThreshold = 80.0

// Match is a resolved candidate with its confidence in [0,100].
type Match struct {
	CategoryID   string
	CategoryName string
	Confidence   float64
}

// Normalize is the cache and matching key: lowercase + trim.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// MatchCategory compares a legacy name against every active category and
// returns the best candidate at or above threshold, or nil. Exact normalized
// equality forces confidence 100; ties break by enumeration order. Pure
// function over the in-memory list, no I/O.
func MatchCategory(name string, categories []repository.Category, threshold float64) *Match {
	norm := Normalize(name)
	if norm == "" {
		return nil
	}
	var best *Match
	for _, cat := range categories {
		if !cat.Active {
			continue
		}
		catNorm := Normalize(cat.Name)
		if catNorm == norm {
			return &Match{CategoryID: cat.ID, CategoryName: cat.Name, Confidence: 100}
		}
		score := similarityScore(norm, catNorm)
		if best == nil || score > best.Confidence {
			best = &Match{CategoryID: cat.ID, CategoryName: cat.Name, Confidence: score}
		}
	}
	if best == nil || best.Confidence < threshold {
		return nil
	}
	return best
}

// similarityScore maps levenshtein distance onto [0,100]:
// 100 * (1 - distance/maxLen), rounded.
func similarityScore(a, b string) float64 {
	if a == b {
		return 100
	}
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 0
	}
	dist := levenshtein.ComputeDistance(a, b)
	score := 100 * (1 - float64(dist)/float64(maxLen))
	if score < 0 {
		return 0
	}
	return math.Round(score)
}
